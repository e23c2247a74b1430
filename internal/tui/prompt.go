package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
)

// Credentials holds the values collected by PromptForCredentials.
type Credentials struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// PromptForCredentials asks for an email and password, and for a
// confirmation when confirm is set. Values already present in c are used
// as defaults. No validation happens here; the controller owns it.
func PromptForCredentials(c Credentials, confirm bool) (Credentials, error) {
	fields := []huh.Field{
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&c.Email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password),
	}
	if confirm {
		fields = append(fields, huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&c.ConfirmPassword))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	return c, nil
}

// PromptForProvider lets the user pick one of the federated providers.
func PromptForProvider(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("no providers configured")
	}
	if len(ids) == 1 {
		return ids[0], nil
	}

	options := make([]huh.Option[string], len(ids))
	for i, id := range ids {
		options[i] = huh.NewOption(auth.ProviderName(id), id)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title("Sign in with").
		Options(options...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment.
// Prompts are disabled in CI environments or when stdin is not a terminal.
func ShouldPrompt() bool {
	for _, envVar := range []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	} {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
