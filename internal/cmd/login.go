package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/controller"
	"github.com/felixgeelhaar/mars-auth/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in with email and password and store the session.

Missing values are prompted for when running in a terminal.

Examples:
  mars-auth login --email user@example.com --password secret
  mars-auth login`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Long: `Create an account with email and password, then sign in.

The password must be at least 6 characters and match its confirmation.

Examples:
  mars-auth signup --email user@example.com --password secret --confirm secret`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var federatedCmd = &cobra.Command{
	Use:     "federated [provider]",
	Aliases: []string{"sso"},
	Short:   "Sign in with an external identity provider",
	Long: `Sign in with an external identity provider such as Google.

With OIDC configured (provider.oidc in the config file) a browser window is
opened for the provider's consent screen. Otherwise the sign-in is simulated.

Examples:
  mars-auth federated google
  mars-auth sso`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFederated,
}

var (
	emailFlag    string
	passwordFlag string
	confirmFlag  string
)

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&emailFlag, "email", "", "account email")
		c.Flags().StringVar(&passwordFlag, "password", "", "account password")
	}
	signupCmd.Flags().StringVar(&confirmFlag, "confirm", "", "password confirmation")

	rootCmd.AddCommand(loginCmd, signupCmd, federatedCmd)
}

// credentials returns the flag values, prompting for missing ones when
// stdin is a terminal.
func credentials(confirm bool) (tui.Credentials, error) {
	c := tui.Credentials{Email: emailFlag, Password: passwordFlag, ConfirmPassword: confirmFlag}
	missing := c.Email == "" || c.Password == "" || (confirm && c.ConfirmPassword == "")
	if !missing || !tui.ShouldPrompt() {
		return c, nil
	}
	return tui.PromptForCredentials(c, confirm)
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds, err := credentials(false)
	if err != nil {
		return err
	}
	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	return runAuthFlow(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), controller.SubmitLogin{
		Email:    creds.Email,
		Password: creds.Password,
	})
}

func runSignup(cmd *cobra.Command, args []string) error {
	creds, err := credentials(true)
	if err != nil {
		return err
	}
	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	return runAuthFlow(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), controller.SubmitSignup{
		Email:           creds.Email,
		Password:        creds.Password,
		ConfirmPassword: creds.ConfirmPassword,
	})
}

func runFederated(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setupApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	id := auth.ProviderGoogle
	switch {
	case len(args) == 1:
		id = args[0]
	case tui.ShouldPrompt():
		if id, err = tui.PromptForProvider(a.federators); err != nil {
			return err
		}
	}
	return runAuthFlow(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), controller.FederatedSignIn{ProviderID: id})
}
