// ABOUTME: Interactive terminal UI command
// ABOUTME: Refuses to start unless stdin and stdout are terminals
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harperreed/bizcrm/tui"
)

func newTUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the CRM in a full-screen terminal UI",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("tui needs an interactive terminal")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The alternate screen owns the terminal; logs go to the log file only.
			svc, cleanup, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()
			return tui.Run(cmd.Context(), svc)
		},
	}
}
