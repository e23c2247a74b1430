package tui

import (
	"testing"
)

func TestShouldPrompt(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"GitHub Actions", "GITHUB_ACTIONS", "true"},
		{"GitLab CI", "GITLAB_CI", "true"},
		{"Jenkins", "JENKINS_URL", "http://jenkins.local"},
		{"Generic CI", "CI", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			if ShouldPrompt() {
				t.Errorf("ShouldPrompt() = true with %s set", tt.envVar)
			}
		})
	}
}

func TestPromptForProvider(t *testing.T) {
	if _, err := PromptForProvider(nil); err == nil {
		t.Error("expected error when no providers are configured")
	}

	// A single provider is chosen without prompting.
	got, err := PromptForProvider([]string{"google"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "google" {
		t.Errorf("PromptForProvider() = %q, want %q", got, "google")
	}
}
