package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/mars-auth/internal/config"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/version"
)

// setupLogging logs to the configured file. With mirror set, records are
// copied to stderr as well; the TUI never mirrors because it owns the
// terminal. The returned cleanup resets the default logger and closes the
// file.
func setupLogging(cfg *config.Config, mirror bool) (*log.Logger, func()) {
	output, cleanup := configureLogOutput(cfg, mirror)

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Logging.Level),
		Format:         log.ParseFormat(cfg.Logging.Format),
		Output:         output,
		ServiceName:    "mars-auth",
		ServiceVersion: version.GetInfo().Version,
	})
	log.SetDefaultLogger(logger)

	return logger, func() {
		log.SetDefaultLogger(nil)
		cleanup()
	}
}

func configureLogOutput(cfg *config.Config, mirror bool) (log.Output, func()) {
	var writers []io.Writer
	cleanup := func() {}

	path, err := cfg.ResolvedLogFile()
	if err == nil && path != "" {
		file, err := log.OutputFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Unable to open log file %s: %v\n", path, err)
		} else {
			writers = append(writers, file.Writer())
			cleanup = func() { _ = file.Close() }
		}
	}

	if mirror {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		return log.OutputDiscard(), cleanup
	}
	return log.NewOutput(io.MultiWriter(writers...)), cleanup
}
