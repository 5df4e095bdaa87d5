package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/auto-dns/pihole-cluster-admin/internal/health"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live cluster-health dashboard",
		Long:  "Streams health updates over the server's event stream and re-renders on every\npush. Data older than its freshness window is marked stale.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.requireRoute(ctx, guard.Requirement{Protected: true, RequireFullInit: true}); err != nil {
				return err
			}

			if metricsAddr != "" {
				go serveMetrics(a, metricsAddr)
			}

			store := health.NewStore(a.api, a.events,
				health.FreshWindow(a.cfg.Health.PushInterval()),
				a.logger.With().Str("component", "health").Logger(),
			)
			store.Start(ctx)
			defer store.Stop()
			defer a.events.Close()

			renderDashboard(store.Snapshot())
			for {
				select {
				case <-store.Changed():
					renderDashboard(store.Snapshot())
				case <-ctx.Done():
					fmt.Println()
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9101)")
	return cmd
}

func serveMetrics(a *app, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.logger.Warn().Err(err).Str("addr", addr).Msg("metrics server exited")
	}
}

func renderDashboard(snap health.Snapshot) {
	fmt.Print("\033[2J\033[H") // clear screen, cursor home

	if snap.Summary == nil {
		fmt.Println("Cluster: waiting for data...")
	} else {
		staleTag := ""
		if !snap.SummaryFresh {
			staleTag = "  [stale]"
		}
		fmt.Printf("Cluster: %d/%d online (as of %s)%s\n",
			snap.Summary.Online, snap.Summary.Total,
			snap.Summary.UpdatedAt.Local().Format("15:04:05"), staleTag)
	}
	fmt.Println()

	if len(snap.Nodes) == 0 {
		fmt.Println("No node health yet.")
		return
	}
	if !snap.NodesFresh {
		fmt.Println("[node data is stale]")
	}
	_ = printNodeHealthTable(snap.Nodes)
	fmt.Println("\nPress Ctrl-C to exit.")
}
