package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Aliases: []string{"signout"},
	Short:   "Sign out and remove the stored session",
	Long: `Sign out and remove the stored session.

The session record is removed even when no session exists, so logout can
always be used to reset local state.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	f, initial, err := a.startFlow(cmd.Context(), newConsoleUI(out, cmd.ErrOrStderr(), a.logger))
	if err != nil {
		return err
	}
	defer f.stop()

	if err := f.signOut(cmd.Context()); err != nil {
		return err
	}

	if initial.Session != nil {
		fmt.Fprintf(out, "Signed out %s.\n", initial.Session.Email)
	} else {
		fmt.Fprintln(out, "Not signed in.")
	}
	return nil
}
