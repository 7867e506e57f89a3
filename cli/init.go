// ABOUTME: Init command
// ABOUTME: Writes a starter config file and seeds the store with the default dataset
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/config"
)

func newInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and seed the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			path := opts.ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}

			cfg, found, err := config.LoadOrDefault(path)
			if err != nil {
				return err
			}
			if cfg, err = opts.applyFlags(cfg); err != nil {
				return err
			}
			if found {
				printf(out, "Config already exists at %s\n", path)
			} else {
				if err := cfg.Save(path); err != nil {
					return err
				}
				success(out, "Wrote config to %s", path)
			}

			// The config file now exists, so open reads it like any other command.
			opts.ConfigPath = path
			svc, cleanup, err := opts.open(cmd, false)
			if err != nil {
				return fmt.Errorf("failed to initialize %s store: %w", cfg.Backend, err)
			}
			defer cleanup()

			success(out, "Store ready (%s): %d contacts, %d deals, %d tasks, %d invoices",
				cfg.Backend, len(svc.GetContacts()), len(svc.GetDeals()), len(svc.Cache().Tasks.List()), len(svc.GetInvoices()))
			return nil
		},
	}
}
