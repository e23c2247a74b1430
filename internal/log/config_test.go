package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"text", FormatText},
		{"Console", FormatText},
		{"", FormatJSON},
		{"xml", FormatJSON},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	if FormatJSON.String() != "json" {
		t.Errorf("FormatJSON.String() = %q", FormatJSON.String())
	}
	if FormatText.String() != "text" {
		t.Errorf("FormatText.String() = %q", FormatText.String())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
	if cfg.ServiceName != "mars-auth" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.Output.Writer() != os.Stderr {
		t.Error("default output should be stderr")
	}
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()
	if cfg.Level != LevelDebug || cfg.Format != FormatText || !cfg.AddSource {
		t.Errorf("unexpected development config: %+v", cfg)
	}
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mars-auth.log")

	out, err := OutputFile(path)
	if err != nil {
		t.Fatalf("OutputFile() error = %v", err)
	}

	if _, err := out.Writer().Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("log contents = %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("log file mode = %o, want 600", perm)
	}
}

func TestOutputCloseWithoutFile(t *testing.T) {
	if err := OutputStdout().Close(); err != nil {
		t.Errorf("Close() on stdout output = %v", err)
	}
}
