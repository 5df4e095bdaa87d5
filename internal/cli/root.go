// Package cli implements the pcadmctl terminal client for the
// pihole-cluster-admin API: authentication, guided first-run setup, node
// management, and a live cluster-health dashboard.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/config"
	"github.com/auto-dns/pihole-cluster-admin/internal/events"
	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/auto-dns/pihole-cluster-admin/internal/logger"
	"github.com/auto-dns/pihole-cluster-admin/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	api    *api.Client
	auth   *session.Auth
	init   *session.InitState
	events *events.Client
	output string
}

func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pcadmctl",
		Short:         "Terminal client for a Pi-hole cluster admin server",
		Long:          "pcadmctl manages a cluster of Pi-hole instances through the pihole-cluster-admin API:\nauthentication, guided first-run setup, node management, and a live health dashboard.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $XDG_CONFIG_HOME/pihole-cluster-admin/config.yaml)")
	flags.String("server", "", "admin server base URL")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVarP(&a.output, "output", "o", "table", "output format (table, json, yaml)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("server.url", flags.Lookup("server"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newSetupCommand(a),
		newNodeCommand(a),
		newStatusCommand(a),
		newWatchCommand(a),
		newAccountCommand(a),
	)

	return root
}

func (a *app) initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.Setup(&cfg.Log)

	tokens := session.NewTokenFile(cfg.Session.TokenFile)
	a.api = api.New(cfg.Server.URL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Server.Timeout()}),
		api.WithCookieName(cfg.Session.CookieName),
		api.WithSessionToken(tokens.Load()),
		api.WithSessionChangeFunc(func(token string) {
			if err := tokens.Save(token); err != nil {
				a.logger.Warn().Err(err).Msg("persisting session token")
			}
		}),
		api.WithLogger(a.logger.With().Str("component", "api").Logger()),
	)

	a.auth = session.NewAuth(a.api, a.logger.With().Str("component", "auth").Logger())
	a.init = session.NewInitState(a.api, a.logger.With().Str("component", "init").Logger())
	a.init.Bind(a.auth)

	a.events = events.NewClient(a.api,
		events.WithReconnectDelay(a.cfg.Events.ReconnectDelay()),
		events.WithLogger(a.logger.With().Str("component", "events").Logger()),
	)

	return nil
}

// resolveState runs the session probe and the public init probe concurrently
// and returns the resolved guard input.
func (a *app) resolveState(ctx context.Context) (guard.State, error) {
	var wg sync.WaitGroup
	var publicErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.auth.Probe(ctx)
	}()
	go func() {
		defer wg.Done()
		publicErr = a.init.RefreshPublic(ctx)
	}()
	wg.Wait()

	if publicErr != nil {
		return guard.State{}, fmt.Errorf("reaching %s: %w", a.api.BaseURL(), publicErr)
	}

	publicStatus, _ := a.init.PublicStatus()
	return guard.State{
		Resolved:      true,
		Authenticated: a.auth.Authenticated(),
		PublicStatus:  publicStatus,
		FullStatus:    a.init.FullStatus(),
	}, nil
}

// requireRoute gates a command the way the web app gates a page: resolve
// state, run the decision table, and translate a redirect into guidance.
func (a *app) requireRoute(ctx context.Context, req guard.Requirement) error {
	state, err := a.resolveState(ctx)
	if err != nil {
		return err
	}

	decision := guard.Decide(state, req)
	if decision.Allow {
		return nil
	}

	switch decision.Redirect {
	case guard.RouteSetupUser:
		return fmt.Errorf("no admin user exists yet, run \"pcadmctl setup\" first")
	case guard.RouteLogin:
		return fmt.Errorf("not logged in, run \"pcadmctl login\" first")
	case guard.RouteSetupPiholes:
		return fmt.Errorf("setup is not finished, run \"pcadmctl setup\" to complete it")
	default:
		return fmt.Errorf("already set up, nothing to do here")
	}
}

func (a *app) render(v any) error {
	switch a.output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (expected table, json or yaml)", a.output)
	}
}

// structured reports whether --output requested machine-readable rendering.
func (a *app) structured() bool {
	return a.output == "json" || a.output == "yaml"
}
