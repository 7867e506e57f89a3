// ABOUTME: Root cobra command, global flags and service bootstrap
// ABOUTME: Every subcommand opens the configured backend through RootOptions.open
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/desktop"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string
	DataDir    string
	Verbose    bool

	// Set by open; reused by commands that need them.
	cfg      *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
}

// NewRootCommand creates the root command for the bizcrm CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "bizcrm",
		Short:         "Small-business CRM with Google Calendar sync",
		Long:          "Contacts, deals, tasks and invoices in a local store, with tasks mirrored to Google Calendar.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend: sqlite, badger, charm, firestore, memory")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory for local stores and the Google session")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newContactsCommand(opts))
	cmd.AddCommand(newDealsCommand(opts))
	cmd.AddCommand(newTasksCommand(opts))
	cmd.AddCommand(newInvoicesCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newDashboardCommand(opts))
	cmd.AddCommand(newGraphCommand(opts))
	cmd.AddCommand(newCalendarCommand(opts))
	cmd.AddCommand(newMailCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newTUICommand(opts))
	cmd.AddCommand(newMCPCommand(opts, version))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	return o.applyFlags(cfg)
}

// applyFlags lets global flags override the file and environment.
func (o *RootOptions) applyFlags(cfg *config.Config) (*config.Config, error) {
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads configuration, opens the backend and initializes the service.
// quiet keeps logs off stderr, which the MCP stdio transport owns.
func (o *RootOptions) open(cmd *cobra.Command, quiet bool) (*app.Service, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Prefix: "bizcrm",
		Quiet:  quiet,
	})
	o.cfg = cfg
	o.logger = logger
	o.registry = prometheus.NewRegistry()

	backend, err := app.OpenBackend(cmd.Context(), cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}

	var bridge desktop.Bridge = desktop.NoopBridge{Out: cmd.ErrOrStderr()}
	if b := desktop.Detect(); b.IsDesktop() {
		bridge = b
	}

	svc, err := app.New(cfg, backend, app.Deps{
		Logger:  logger,
		Metrics: metrics.New(o.registry),
		Bridge:  bridge,
	})
	if err == nil {
		err = svc.Init(cmd.Context())
	}
	if err != nil {
		_ = backend.Close()
		_ = logCloser.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
		_ = logCloser.Close()
	}
	return svc, cleanup, nil
}

// withService wraps a command body with open and cleanup.
func (o *RootOptions) withService(fn func(cmd *cobra.Command, svc *app.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := o.open(cmd, false)
		if err != nil {
			return err
		}
		defer cleanup()
		return fn(cmd, svc, args)
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
