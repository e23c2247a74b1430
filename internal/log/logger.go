// Package log is a thin structured-logging layer over log/slog.
package log

import (
	"context"
	"errors"
	"log/slog"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// coded is implemented by errors that carry a stable machine-readable code,
// such as auth.AuthError and errors.AppError.
type coded interface {
	ErrorCode() string
}

// suggester is implemented by errors that carry remediation hints.
type suggester interface {
	ErrorSuggestions() []string
}

// New creates a Logger from config.
func New(config Config) *Logger {
	if config.Output.Writer() == nil {
		config.Output = OutputStderr()
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	}

	base := slog.New(handler)
	if config.ServiceName != "" {
		base = base.With("service", config.ServiceName)
	}

	return &Logger{slog: base, config: config}
}

func Default() *Logger {
	return New(DefaultConfig())
}

func Development() *Logger {
	return New(DevelopmentConfig())
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	cfg := DefaultConfig()
	cfg.Output = OutputDiscard()
	cfg.ServiceName = ""
	return New(cfg)
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), config: l.config}
}

// WithGroup returns a Logger that nests subsequent attributes under name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{slog: l.slog.WithGroup(name), config: l.config}
}

// WithError attaches err to the logger. Coded errors also contribute
// error_code and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorAttrs(err)...)
}

func errorAttrs(err error) []any {
	args := []any{"error", err.Error()}

	var c coded
	if errors.As(err, &c) {
		args = append(args, "error_code", c.ErrorCode())
	}
	var s suggester
	if errors.As(err, &s) && len(s.ErrorSuggestions()) > 0 {
		args = append(args, "suggestions", s.ErrorSuggestions())
	}
	if cause := errors.Unwrap(err); cause != nil {
		args = append(args, "cause", cause.Error())
	}
	return args
}

func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogError logs err at error level with its code and suggestions.
func (l *Logger) LogError(msg string, err error) {
	if err == nil {
		return
	}
	l.slog.Error(msg, errorAttrs(err)...)
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Slog exposes the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) Config() Config {
	return l.config
}
