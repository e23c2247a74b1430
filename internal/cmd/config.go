package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/config"
	"github.com/felixgeelhaar/mars-auth/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or initialize mars-auth configuration",
	Long: `Manage the configuration stored at ~/.mars/config.yaml (or $MARS_CONFIG).

Settings are resolved in order: built-in defaults, the config file, MARS_*
environment variables, then command-line flags.

Examples:
  mars-auth config view
  mars-auth config path
  mars-auth config init
  mars-auth config env`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the supported environment variables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.EnvNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var (
	configFormat    string
	configInitForce bool
)

func init() {
	configViewCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format: json or yaml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configViewCmd, configPathCmd, configInitCmd, configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.Path()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	if configFormat != "json" && configFormat != "yaml" {
		return fmt.Errorf("unsupported format %q (supported: %s)", configFormat, strings.Join(ux.Formats[1:], ", "))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	formatter, err := ux.NewFormatter(configFormat, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	redacted := *cfg
	if redacted.Provider.OIDC.ClientSecret != "" {
		redacted.Provider.OIDC.ClientSecret = "********"
	}
	return formatter.Format(redacted)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
