// ABOUTME: Visualization CLI commands
// ABOUTME: Terminal dashboard plus GraphViz output for contacts and the pipeline
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/viz"
)

func newDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Pipeline, workload and receivables at a glance",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			printf(cmd.OutOrStdout(), "%s", viz.RenderDashboard(svc.Dashboard()))
			return nil
		}),
	}
}

func newGraphCommand(opts *RootOptions) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render GraphViz graphs",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.PersistentFlags().StringVar(&format, "format", "dot", "output format: dot or svg")

	write := func(cmd *cobra.Command, svc *app.Service, kind, contactID string) error {
		f, err := viz.ParseFormat(format)
		if err != nil {
			return err
		}
		out, err := svc.Graph(cmd.Context(), kind, contactID, f)
		if err != nil {
			return err
		}
		if output != "" {
			if err := os.WriteFile(output, []byte(out), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			success(cmd.OutOrStdout(), "Wrote %s graph to %s", kind, output)
			return nil
		}
		printf(cmd.OutOrStdout(), "%s\n", out)
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "contacts [contact-id]",
		Short: "Contacts with their companies, deals and invoices",
		Args:  cobra.MaximumNArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			var id string
			if len(args) == 1 {
				var err error
				if id, err = resolveID(svc.GetContacts(), args[0]); err != nil {
					return err
				}
			}
			return write(cmd, svc, app.GraphContacts, id)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pipeline",
		Short: "Deals grouped by stage",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			return write(cmd, svc, app.GraphPipeline, "")
		}),
	})
	return cmd
}
