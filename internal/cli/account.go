package cli

import (
	"fmt"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/auto-dns/pihole-cluster-admin/internal/validate"
	"github.com/spf13/cobra"
)

func newAccountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the logged-in user account",
		// Overrides the root hook, so config/app setup runs here too.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initialize(); err != nil {
				return err
			}
			return a.requireRoute(cmd.Context(), guard.Requirement{Protected: true})
		},
	}

	cmd.AddCommand(newAccountUsernameCommand(a), newAccountPasswordCommand(a))
	return cmd
}

func newAccountUsernameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "username <new-username>",
		Short: "Change the account username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := a.auth.User()
			newUsername := args[0]
			if err := validate.Username(newUsername, current.Username); err != nil {
				return err
			}

			user, err := a.api.UpdateUser(cmd.Context(), current.Id, api.PatchUserParams{Username: &newUsername})
			if err != nil {
				return err
			}
			fmt.Printf("Username changed to %s\n", user.Username)
			return nil
		},
	}
}

func newAccountPasswordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := promptPassword("Current password")
			if err != nil {
				return err
			}
			newPassword, err := promptPassword("New password")
			if err != nil {
				return err
			}
			confirmation, err := promptPassword("Confirm new password")
			if err != nil {
				return err
			}
			if err := validate.Password(newPassword, confirmation); err != nil {
				return err
			}

			user := a.auth.User()
			err = a.api.UpdatePassword(cmd.Context(), user.Id, api.UpdatePasswordParams{
				CurrentPassword: current,
				NewPassword:     newPassword,
			})
			if err != nil {
				if api.IsUnauthorized(err) {
					return fmt.Errorf("current password is incorrect")
				}
				return err
			}
			fmt.Println("Password changed")
			return nil
		},
	}
}
