// ABOUTME: Report CLI command
// ABOUTME: Prints yearly revenue and the pipeline by stage
package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
)

func newReportCommand(opts *RootOptions) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Revenue and pipeline summary",
		Args:  cobra.NoArgs,
		RunE: opts.withService(func(cmd *cobra.Command, svc *app.Service, _ []string) error {
			out := cmd.OutOrStdout()
			rev := svc.RevenueSummary(year)

			title(out, "Revenue "+strconv.Itoa(rev.Year))
			table(out, []string{"PAID", "OPEN", "CANCELLED", "EXPENSES", "NET"}, [][]string{{
				rev.Paid.StringFixed(2),
				rev.Open.StringFixed(2),
				rev.Cancelled.StringFixed(2),
				rev.Expenses.StringFixed(2),
				rev.Net.StringFixed(2),
			}})

			printf(out, "\n")
			title(out, "Pipeline")
			var rows [][]string
			for _, st := range svc.PipelineSummary() {
				rows = append(rows, []string{string(st.Stage), strconv.Itoa(st.Count), st.Value.StringFixed(2)})
			}
			table(out, []string{"STAGE", "DEALS", "VALUE"}, rows)
			return nil
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to report (default current year)")
	return cmd
}
