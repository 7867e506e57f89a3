// ABOUTME: MCP server subcommand
// ABOUTME: Serves CRM tools, resources and prompts over stdio, with optional Prometheus metrics
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/handlers"
)

func newMCPCommand(opts *RootOptions, version string) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if metricsAddr != "" {
				stop := serveMetrics(opts, metricsAddr)
				defer stop()
			}

			opts.logger.Info("starting MCP server", "backend", opts.cfg.Backend)
			return NewMCPServer(svc, version).Run(ctx, &mcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

// NewMCPServer registers every CRM tool, resource and prompt on a new server.
func NewMCPServer(svc *app.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bizcrm",
		Version: version,
	}, nil)

	contacts := handlers.NewContactHandlers(svc)
	deals := handlers.NewDealHandlers(svc)
	tasks := handlers.NewTaskHandlers(svc)
	invoices := handlers.NewInvoiceHandlers(svc)
	calendar := handlers.NewCalendarHandlers(svc)
	charts := handlers.NewVizHandlers(svc)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List contacts, optionally filtered by name, company or email",
	}, contacts.ListContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact",
	}, contacts.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals in the pipeline, optionally for one stage",
	}, deals.ListDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advance_deal",
		Description: "Move a deal to the next pipeline stage",
	}, deals.AdvanceDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks after importing new calendar events",
	}, tasks.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a task; it is pushed to Google Calendar when connected",
	}, tasks.AddTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task completed or reopen it",
	}, tasks.CompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task and its calendar event",
	}, tasks.DeleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_calendar",
		Description: "Import events from the primary Google Calendar",
	}, calendar.SyncCalendar)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_mail",
		Description: "Update contacts' last-contact dates from recent Gmail conversations",
	}, calendar.ScanMail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "integration_status",
		Description: "Show Google connection and last sync state",
	}, calendar.IntegrationStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "next_invoice_number",
		Description: "Preview the next invoice number for a year",
	}, invoices.NextInvoiceNumber)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_invoices",
		Description: "List invoices and credit notes",
	}, invoices.ListInvoices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_invoice",
		Description: "Create an invoice with the next free number",
	}, invoices.CreateInvoice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pay_invoice",
		Description: "Mark an invoice as paid today",
	}, invoices.PayInvoice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_invoice",
		Description: "Cancel an invoice by issuing a credit note",
	}, invoices.CancelInvoice)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render the contacts network or the deal pipeline as GraphViz DOT",
	}, charts.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Summarize pipeline, open tasks, receivables and contacts needing attention",
	}, charts.Dashboard)

	resources := handlers.NewResourceHandlers(svc)
	for _, r := range handlers.Resources {
		server.AddResource(r, resources.ReadResource)
	}
	server.AddResourceTemplate(handlers.ContactTemplate, resources.ReadResource)

	prompts := handlers.NewPromptHandlers(svc)
	for _, p := range handlers.Prompts {
		server.AddPrompt(p, prompts.GetPrompt)
	}

	return server
}

// serveMetrics exposes the command's registry until the returned stop is called.
func serveMetrics(opts *RootOptions, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(opts.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	opts.logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
