package cli

import (
	"context"
	"fmt"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/auto-dns/pihole-cluster-admin/internal/validate"
	"github.com/spf13/cobra"
)

func newSetupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Walk through guided first-run setup",
		Long:  "Walks the same path the web app's routing guards enforce:\ncreate the first admin user, log in, then add a Pi-hole node or skip that step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSetupWizard(cmd.Context())
		},
	}
}

// runSetupWizard repeatedly resolves the current state and lets the guard
// decision pick the next step, exactly like the router would.
func (a *app) runSetupWizard(ctx context.Context) error {
	for {
		state, err := a.resolveState(ctx)
		if err != nil {
			return err
		}

		if state.Authenticated && guard.IsFullyInitialized(state.FullStatus) {
			fmt.Println("Setup is complete.")
			return nil
		}

		step := nextSetupStep(state)
		switch step {
		case guard.RouteSetupUser:
			if err := a.stepCreateUser(ctx); err != nil {
				return err
			}
		case guard.RouteLogin:
			fmt.Println("An admin user already exists, log in to continue.")
			if err := a.stepLogin(ctx); err != nil {
				return err
			}
		case guard.RouteSetupPiholes:
			if err := a.stepPiholes(ctx); err != nil {
				return err
			}
		default:
			fmt.Println("Setup is complete.")
			return nil
		}
	}
}

// nextSetupStep maps the guard state to the setup page the web app would
// show. A protected fully-init route is used as the probe: wherever it would
// redirect is the step still missing.
func nextSetupStep(state guard.State) guard.Route {
	decision := guard.Decide(state, guard.Requirement{Protected: true, RequireFullInit: true})
	if decision.Allow {
		return guard.RouteHome
	}
	return decision.Redirect
}

func (a *app) stepCreateUser(ctx context.Context) error {
	fmt.Println("Create the first admin user.")

	username, err := promptLine("Username")
	if err != nil {
		return err
	}
	if err := validate.Username(username, ""); err != nil {
		return err
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	confirmation, err := promptPassword("Confirm password")
	if err != nil {
		return err
	}
	if err := validate.Password(password, confirmation); err != nil {
		return err
	}

	user, err := a.api.CreateUser(ctx, username, password)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	// The create-user response carries a session, so the wizard continues
	// logged in.
	a.auth.SetUser(&user)
	fmt.Printf("Created admin user %s\n", user.Username)
	return nil
}

func (a *app) stepLogin(ctx context.Context) error {
	username, err := promptLine("Username")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	if err := a.auth.Login(ctx, username, password); err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("invalid username or password")
		}
		return err
	}
	return nil
}

func (a *app) stepPiholes(ctx context.Context) error {
	fmt.Println("Add your first Pi-hole node, or skip this step for later.")

	addNode, err := promptConfirm("Add a Pi-hole node now?")
	if err != nil {
		return err
	}

	if !addNode {
		if err := a.init.UpdatePiholeInitStatus(ctx, api.PiholeSkipped, true); err != nil {
			return fmt.Errorf("skipping pihole setup: %w", err)
		}
		fmt.Println("Skipped the Pi-hole step, add nodes later with \"pcadmctl node add\".")
		return nil
	}

	if _, err := a.promptAndAddNode(ctx); err != nil {
		return err
	}
	if err := a.init.UpdatePiholeInitStatus(ctx, api.PiholeAdded, true); err != nil {
		return fmt.Errorf("recording pihole setup progress: %w", err)
	}
	return nil
}
