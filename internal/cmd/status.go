package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/ux"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show the current session without contacting any provider.

Examples:
  mars-auth status
  mars-auth status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusFormat string

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "output format: "+strings.Join(ux.Formats, ", "))
	rootCmd.AddCommand(statusCmd)
}

// sessionStatus is the status command's output.
type sessionStatus struct {
	SignedIn bool          `json:"signedIn" yaml:"signedIn"`
	Storage  string        `json:"storage" yaml:"storage"`
	Session  *auth.Session `json:"session,omitempty" yaml:"session,omitempty"`
}

func (s sessionStatus) Text() string {
	if !s.SignedIn {
		return "Not signed in."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Signed in as %s\n", s.Session.DisplayName)
	fmt.Fprintf(&b, "  Email:   %s\n", s.Session.Email)
	fmt.Fprintf(&b, "  Method:  %s\n", s.Session.AuthMethod)
	fmt.Fprintf(&b, "  UID:     %s", s.Session.UID)
	if s.Session.PhotoURL != "" {
		fmt.Fprintf(&b, "\n  Photo:   %s", s.Session.PhotoURL)
	}
	return b.String()
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := ux.NewFormatter(statusFormat, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := a.sessions.Restore()
	if err != nil {
		return err
	}
	return formatter.Format(sessionStatus{
		SignedIn: sess != nil,
		Storage:  a.cfg.Storage.Backend,
		Session:  sess,
	})
}
