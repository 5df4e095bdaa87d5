package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/guard"
	"github.com/auto-dns/pihole-cluster-admin/internal/urlutil"
	"github.com/spf13/cobra"
)

func newNodeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage Pi-hole nodes in the cluster",
		// Overrides the root hook, so config/app setup runs here too.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initialize(); err != nil {
				return err
			}
			return a.requireRoute(cmd.Context(), guard.Requirement{Protected: true, RequireFullInit: true})
		},
	}

	cmd.AddCommand(
		newNodeListCommand(a),
		newNodeAddCommand(a),
		newNodeEditCommand(a),
		newNodeRemoveCommand(a),
		newNodeTestCommand(a),
	)
	return cmd
}

func newNodeListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered Pi-hole nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := a.api.GetPiholeNodes(cmd.Context())
			if err != nil {
				return err
			}

			if a.structured() {
				return a.render(nodes)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS\tDESCRIPTION")
			for _, node := range nodes {
				address := urlutil.Format(urlutil.ParsedURL{Scheme: node.Scheme, Host: node.Host, Port: node.Port})
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", node.Id, node.Name, address, node.Description)
			}
			return w.Flush()
		},
	}
}

func newNodeAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Register a new Pi-hole node",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.promptAndAddNode(cmd.Context())
			if err != nil {
				return err
			}
			if a.structured() {
				return a.render(node)
			}
			return nil
		},
	}
}

// promptAndAddNode collects node details interactively, offers a connection
// test, and registers the node. Shared with the setup wizard.
func (a *app) promptAndAddNode(ctx context.Context) (api.PiholeNode, error) {
	var zero api.PiholeNode

	address, err := promptLine(`Address (e.g. "pi.hole", "192.168.0.10:8080", "https://host:443")`)
	if err != nil {
		return zero, err
	}
	parsed, err := urlutil.Parse(address)
	if err != nil {
		return zero, err
	}

	name, err := promptLine("Name")
	if err != nil {
		return zero, err
	}
	description, err := promptLine("Description (optional)")
	if err != nil {
		return zero, err
	}
	password, err := promptPassword("Pi-hole password")
	if err != nil {
		return zero, err
	}

	testParams := api.TestConnectionParams{
		Scheme:   parsed.Scheme,
		Host:     parsed.Host,
		Port:     parsed.Port,
		Password: password,
	}
	if err := a.api.TestPiholeConnection(ctx, testParams); err != nil {
		fmt.Printf("Connection test failed: %v\n", err)
		proceed, confirmErr := promptConfirm("Add the node anyway?")
		if confirmErr != nil {
			return zero, confirmErr
		}
		if !proceed {
			return zero, fmt.Errorf("node not added")
		}
	}

	node, err := a.api.AddPiholeNode(ctx, api.AddPiholeParams{
		Scheme:      parsed.Scheme,
		Host:        parsed.Host,
		Port:        parsed.Port,
		Name:        name,
		Description: description,
		Password:    password,
	})
	if err != nil {
		return zero, fmt.Errorf("adding node: %w", err)
	}

	fmt.Printf("Added node %q (id %d)\n", node.Name, node.Id)
	return node, nil
}

func newNodeEditCommand(a *app) *cobra.Command {
	var (
		address     string
		name        string
		description string
		setPassword bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a Pi-hole node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeId(args[0])
			if err != nil {
				return err
			}

			var params api.PatchPiholeParams
			if address != "" {
				parsed, err := urlutil.Parse(address)
				if err != nil {
					return err
				}
				params.Scheme = &parsed.Scheme
				params.Host = &parsed.Host
				params.Port = &parsed.Port
			}
			if name != "" {
				params.Name = &name
			}
			if cmd.Flags().Changed("description") {
				params.Description = &description
			}
			if setPassword {
				password, err := promptPassword("New Pi-hole password")
				if err != nil {
					return err
				}
				params.Password = &password
			}

			node, err := a.api.UpdatePiholeNode(cmd.Context(), id, params)
			if err != nil {
				return err
			}

			if a.structured() {
				return a.render(node)
			}
			fmt.Printf("Updated node %q (id %d)\n", node.Name, node.Id)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "new address (scheme/host/port in one value)")
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().BoolVar(&setPassword, "password", false, "prompt for a new Pi-hole password")
	return cmd
}

func newNodeRemoveCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a Pi-hole node from the cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeId(args[0])
			if err != nil {
				return err
			}

			if !force {
				confirmed, err := promptConfirm(fmt.Sprintf("Remove node %d?", id))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if err := a.api.RemovePiholeNode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Removed node %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func newNodeTestCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Test connectivity and credentials of a stored node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeId(args[0])
			if err != nil {
				return err
			}
			if err := a.api.TestExistingPiholeConnection(cmd.Context(), id, api.PatchPiholeParams{}); err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}
			fmt.Println("Connection OK")
			return nil
		},
	}
}

func parseNodeId(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid node id %q", raw)
	}
	return id, nil
}
