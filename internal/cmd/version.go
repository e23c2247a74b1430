package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/ux"
	"github.com/felixgeelhaar/mars-auth/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit, build date, Go version and platform.

Examples:
  mars-auth version
  mars-auth version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "output format: "+strings.Join(ux.Formats, ", "))
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	formatter, err := ux.NewFormatter(versionFormat, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	return formatter.Format(version.GetInfo())
}
