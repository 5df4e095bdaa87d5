package cli

import (
	"fmt"
	"net/http"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			state, err := a.resolveState(ctx)
			if err != nil {
				return err
			}
			if !state.PublicStatus {
				return fmt.Errorf("no admin user exists yet, run \"pcadmctl setup\" first")
			}
			if state.Authenticated {
				fmt.Printf("Already logged in as %s\n", a.auth.User().Username)
				return nil
			}

			if username == "" {
				if username, err = promptLine("Username"); err != nil {
					return err
				}
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			if err := a.auth.Login(ctx, username, password); err != nil {
				if api.IsStatus(err, http.StatusUnauthorized) {
					return fmt.Errorf("invalid username or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Printf("Logged in as %s\n", a.auth.User().Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username to log in with")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Local state is cleared even when the server call fails, so the
			// user can always leave.
			if err := a.auth.Logout(cmd.Context()); err != nil {
				a.api.ClearSession()
				fmt.Println("Logged out locally (server-side logout failed)")
				return nil
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}
