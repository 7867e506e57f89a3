// ABOUTME: Invoice CLI commands
// ABOUTME: Numbering, creation, payment and cancellation through credit notes
package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

func newInvoicesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"invoice"},
		Short:   "Manage invoices",
	}
	cmd.AddCommand(newInvoicesListCommand(opts))
	cmd.AddCommand(newInvoicesNextCommand(opts))
	cmd.AddCommand(newInvoicesCreateCommand(opts))
	cmd.AddCommand(newInvoicesPayCommand(opts))
	cmd.AddCommand(newInvoicesCancelCommand(opts))
	return cmd
}

func newInvoicesListCommand(opts *RootOptions) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			names := contactNames(svc)

			var rows [][]string
			for _, inv := range svc.GetInvoices() {
				if open && !inv.IsOpen() {
					continue
				}
				rows = append(rows, []string{shortID(inv.ID), inv.Number, inv.Date, orDash(names[inv.ContactID]), inv.Amount.StringFixed(2), invoiceStatus(inv)})
			}
			if len(rows) == 0 {
				printf(out, "No invoices found.\n")
				return nil
			}
			table(out, []string{"ID", "NUMBER", "DATE", "CONTACT", "AMOUNT", "STATUS"}, rows)
			printf(out, "\nTotal: %d invoice(s)\n", len(rows))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&open, "open", false, "only invoices awaiting payment")
	return cmd
}

func newInvoicesNextCommand(opts *RootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next invoice number",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			printf(cmd.OutOrStdout(), "%s\n", svc.NextInvoiceNumber(year))
			return nil
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "invoice year (default current year)")
	return cmd
}

func newInvoicesCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		contact     string
		amount      string
		description string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice with the next free number",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			contactID, err := resolveID(svc.GetContacts(), contact)
			if err != nil {
				return err
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			if !value.IsPositive() {
				return fmt.Errorf("amount must be positive")
			}
			inv, err := svc.SaveInvoice(cmd.Context(), models.Invoice{
				ContactID:   contactID,
				Amount:      value,
				Description: description,
				Date:        date,
			})
			if err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
			success(cmd.OutOrStdout(), "Created invoice %s for %s", inv.Number, inv.Amount.StringFixed(2))
			return nil
		}),
	}
	cmd.Flags().StringVar(&contact, "contact", "", "contact ID or prefix (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "invoice amount (required)")
	cmd.Flags().StringVar(&description, "description", "", "line description")
	cmd.Flags().StringVar(&date, "date", "", "invoice date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("contact")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newInvoicesPayCommand(opts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			id, err := resolveID(svc.GetInvoices(), args[0])
			if err != nil {
				return err
			}
			inv, err := svc.MarkInvoicePaid(cmd.Context(), id, date)
			if err != nil {
				return fmt.Errorf("failed to mark invoice paid: %w", err)
			}
			success(cmd.OutOrStdout(), "Invoice %s paid on %s", inv.Number, inv.PaidDate)
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	return cmd
}

func newInvoicesCancelCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an invoice by issuing a credit note",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			id, err := resolveID(svc.GetInvoices(), args[0])
			if err != nil {
				return err
			}
			credit, err := svc.CancelInvoice(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to cancel invoice: %w", err)
			}
			success(cmd.OutOrStdout(), "Credit note %s issued for %s", credit.Number, credit.Amount.StringFixed(2))
			return nil
		}),
	}
}

func invoiceStatus(inv models.Invoice) string {
	switch {
	case inv.IsCreditNote():
		return "credit note"
	case inv.IsCancelled:
		return "cancelled"
	case inv.IsPaid:
		return okStyle.Render("paid")
	case inv.SentDate != "":
		return "sent"
	}
	return "open"
}
