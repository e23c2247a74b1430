package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/config"
)

var (
	cfgFile         string
	debugFlag       bool
	storageOverride string
	providerFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "mars-auth",
	Short: "Sign in to Mars Mission Control",
	Long: `mars-auth manages the local Mars Mission Control session.

Run without a subcommand to open the interactive sign-in screen. The
subcommands perform the same flows from scripts and report the outcome
through the exit code.

The current session is stored under ~/.mars and survives restarts: the next
start skips the sign-in screen until you sign out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by main.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mars/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at debug level and mirror logs to stderr")
	rootCmd.PersistentFlags().StringVar(&storageOverride, "storage", "", "session storage backend: file, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "auth provider: simulated, local or platform")
}

// loadConfig resolves the configuration: file, then MARS_* environment,
// then command-line flags.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if storageOverride != "" {
		cfg.Storage.Backend = storageOverride
	}
	if providerFlag != "" {
		cfg.Provider.Kind = providerFlag
	}
	if debugFlag {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
