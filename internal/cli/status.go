package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current cluster health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireRoute(ctx, guard.Requirement{Protected: true, RequireFullInit: true}); err != nil {
				return err
			}

			summary, err := a.api.ClusterHealthSummary(ctx)
			if err != nil {
				return err
			}
			nodes, err := a.api.NodeHealth(ctx)
			if err != nil {
				return err
			}

			if a.structured() {
				return a.render(struct {
					Summary api.HealthSummary `json:"summary" yaml:"summary"`
					Nodes   []api.NodeHealth  `json:"nodes" yaml:"nodes"`
				}{summary, nodes})
			}

			fmt.Printf("Cluster: %d/%d online (as of %s)\n\n", summary.Online, summary.Total, summary.UpdatedAt.Local().Format("15:04:05"))
			return printNodeHealthTable(nodes)
		},
	}
}

func printNodeHealthTable(nodes []api.NodeHealth) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLATENCY\tLAST ERROR")
	for _, nh := range nodes {
		lastErr := nh.LastErr
		if lastErr == "" {
			lastErr = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%dms\t%s\n", nh.Id, nh.Name, nh.Status, nh.LatencyMs, lastErr)
	}
	return w.Flush()
}
