// ABOUTME: Deal CLI commands
// ABOUTME: Lists the pipeline, adds deals and moves them to the next stage
package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

func newDealsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deals",
		Aliases: []string{"deal"},
		Short:   "Manage the sales pipeline",
	}
	cmd.AddCommand(newDealsListCommand(opts))
	cmd.AddCommand(newDealsAddCommand(opts))
	cmd.AddCommand(newDealsAdvanceCommand(opts))
	return cmd
}

func newDealsListCommand(opts *RootOptions) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			names := contactNames(svc)

			var rows [][]string
			for _, d := range svc.GetDeals() {
				if stage != "" && string(d.Stage) != stage {
					continue
				}
				rows = append(rows, []string{shortID(d.ID), d.Title, string(d.Stage), d.Value.StringFixed(2), orDash(names[d.ContactID]), orDash(d.DueDate)})
			}
			if len(rows) == 0 {
				printf(out, "No deals found.\n")
				return nil
			}
			table(out, []string{"ID", "TITLE", "STAGE", "VALUE", "CONTACT", "DUE"}, rows)
			printf(out, "\nTotal: %d deal(s)\n", len(rows))
			return nil
		}),
	}
	cmd.Flags().StringVar(&stage, "stage", "", "only deals in this stage")
	return cmd
}

func newDealsAddCommand(opts *RootOptions) *cobra.Command {
	var (
		value   string
		stage   string
		contact string
		due     string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a deal",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			amount := decimal.Zero
			if value != "" {
				v, err := decimal.NewFromString(value)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", value, err)
				}
				amount = v
			}
			d := models.Deal{Title: args[0], Value: amount, Stage: models.DealStage(stage), DueDate: due}
			if contact != "" {
				id, err := resolveID(svc.GetContacts(), contact)
				if err != nil {
					return err
				}
				d.ContactID = id
			}
			saved, err := svc.SaveDeal(cmd.Context(), d)
			if err != nil {
				return fmt.Errorf("failed to add deal: %w", err)
			}
			success(cmd.OutOrStdout(), "Added deal %s in %s (%s)", saved.Title, saved.Stage, shortID(saved.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&value, "value", "", "deal value")
	cmd.Flags().StringVar(&stage, "stage", "", "pipeline stage (default Lead)")
	cmd.Flags().StringVar(&contact, "contact", "", "contact ID or prefix")
	cmd.Flags().StringVar(&due, "due", "", "expected close date YYYY-MM-DD")
	return cmd
}

func newDealsAdvanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a deal to the next stage",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			id, err := resolveID(svc.GetDeals(), args[0])
			if err != nil {
				return err
			}
			d, _, err := svc.AdvanceDeal(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to advance deal: %w", err)
			}
			success(cmd.OutOrStdout(), "%s is now %s", d.Title, d.Stage)
			return nil
		}),
	}
}

func contactNames(svc *app.Service) map[string]string {
	names := map[string]string{}
	for _, c := range svc.GetContacts() {
		names[c.ID] = c.Name
	}
	return names
}
