package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

func addLogin(topLevel *cobra.Command, a *app) {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for an access token",
		Example: `
consolectl login --email ops@example.com --password secret
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return appErrors.Clone(appErrors.ErrValidation, "--email and --password are required")
			}
			res, err := a.client.Login(commandContext(cmd), email, password)
			if err != nil {
				return err
			}
			w := out(cmd)
			_, _ = fmt.Fprintf(w, "Logged in as %s (%s)\n", res.User.Email, res.User.Role)
			_, _ = fmt.Fprintf(w, "export CONSOLE_TOKEN=%s\n", res.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email.")
	cmd.Flags().StringVar(&password, "password", "", "Account password.")

	topLevel.AddCommand(cmd)
}
