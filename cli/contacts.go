// ABOUTME: Contact CLI commands
// ABOUTME: Lists and adds contacts in the local store
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/models"
)

func newContactsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(newContactsListCommand(opts))
	cmd.AddCommand(newContactsAddCommand(opts))
	return cmd
}

func newContactsListCommand(opts *RootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			query = strings.ToLower(strings.TrimSpace(query))

			var rows [][]string
			for _, c := range svc.GetContacts() {
				if query != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Company+" "+c.Email), query) {
					continue
				}
				rows = append(rows, []string{shortID(c.ID), c.Name, orDash(c.Company), orDash(c.Email), orDash(c.LastContact)})
			}
			if len(rows) == 0 {
				printf(out, "No contacts found.\n")
				return nil
			}
			table(out, []string{"ID", "NAME", "COMPANY", "EMAIL", "LAST CONTACT"}, rows)
			printf(out, "\nTotal: %d contact(s)\n", len(rows))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, company or email")
	return cmd
}

func newContactsAddCommand(opts *RootOptions) *cobra.Command {
	var c models.Contact

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, args []string) error {
			c.Name = args[0]
			saved, err := svc.SaveContact(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("failed to add contact: %w", err)
			}
			success(cmd.OutOrStdout(), "Added contact %s (%s)", saved.Name, shortID(saved.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&c.Email, "email", "", "email address")
	cmd.Flags().StringVar(&c.Company, "company", "", "company name")
	cmd.Flags().StringVar(&c.Role, "role", "", "job title")
	cmd.Flags().StringVar(&c.Notes, "notes", "", "free-form notes")
	return cmd
}

// shortID trims UUIDs for display; commands accept any unique prefix.
func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}
