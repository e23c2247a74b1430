package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the slog handler.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses "json", "text" or "console". Anything else is json.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Output wraps the destination writer of a Logger.
type Output struct {
	writer io.Writer
	closer io.Closer
}

// Writer returns the destination writer.
func (o Output) Writer() io.Writer {
	return o.writer
}

// Close releases the destination if it was opened by OutputFile.
func (o Output) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

func OutputStdout() Output {
	return Output{writer: os.Stdout}
}

func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// OutputDiscard drops every record. Used by tests and by the TUI when no
// log file is configured.
func OutputDiscard() Output {
	return Output{writer: io.Discard}
}

// OutputFile appends to the file at path, creating parent directories.
// The TUI owns the terminal, so interactive sessions log here instead of
// stdout.
func OutputFile(path string) (Output, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Output{}, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Output{}, fmt.Errorf("open log file: %w", err)
	}
	return Output{writer: f, closer: f}, nil
}

// Config holds logger settings.
type Config struct {
	Level          Level
	Format         Format
	Output         Output
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         OutputStderr(),
		ServiceName:    "mars-auth",
		ServiceVersion: "dev",
	}
}

func DevelopmentConfig() Config {
	return Config{
		Level:          LevelDebug,
		Format:         FormatText,
		Output:         OutputStderr(),
		AddSource:      true,
		ServiceName:    "mars-auth",
		ServiceVersion: "dev",
	}
}
