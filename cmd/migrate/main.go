// ABOUTME: Migration utility that copies every stored key from one backend to another
// ABOUTME: Provides dry-run, backup and force options for moving between stores safely

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bizcrm/app"
	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/db"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/store"
)

type options struct {
	from   string
	to     string
	dryRun bool
	backup bool
	force  bool
}

func main() {
	configPath := flag.String("config", "", "config file (default "+config.DefaultPath()+")")
	from := flag.String("from", "", "source backend (default: configured backend)")
	to := flag.String("to", "", "destination backend (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the sqlite file before writing to it")
	force := flag.Bool("force", false, "Overwrite keys that already exist in the destination")
	flag.Parse()

	logger, closer := logging.New(logging.Options{Level: "info", Prefix: "migrate"})
	defer func() { _ = closer.Close() }()

	if *to == "" {
		logger.Fatal("-to flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	opts := options{from: *from, to: *to, dryRun: *dryRun, backup: *backup, force: *force}
	if err := migrate(context.Background(), logger, cfg, opts); err != nil {
		logger.Fatal("migration failed", "err", err)
	}
	logger.Info("migration completed successfully")
}

func migrate(ctx context.Context, logger *log.Logger, cfg *config.Config, opts options) error {
	if opts.from == "" {
		opts.from = cfg.Backend
	}
	if opts.from == opts.to {
		return fmt.Errorf("source and destination are both %s", opts.from)
	}
	if opts.from == config.BackendMemory || opts.to == config.BackendMemory {
		return fmt.Errorf("the memory backend does not persist and cannot be migrated")
	}

	src, err := openAs(ctx, cfg, opts.from)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	keys, err := src.Keys()
	if err != nil {
		return fmt.Errorf("failed to list source keys: %w", err)
	}
	logger.Info("found keys", "backend", opts.from, "keys", keys)

	if opts.to == config.BackendSQLite && opts.backup && !opts.dryRun {
		if err := backupFile(logger, cfg.SQLitePath()); err != nil {
			return err
		}
	}

	dst, err := openAs(ctx, cfg, opts.to)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	existing, err := dst.Keys()
	if err != nil {
		return fmt.Errorf("failed to list destination keys: %w", err)
	}
	if len(existing) > 0 && !opts.force {
		logger.Warn("destination already holds data", "backend", opts.to, "keys", existing)
		return fmt.Errorf("destination is not empty; use -force to overwrite")
	}

	if opts.dryRun {
		logger.Info("[DRY RUN] would copy keys", "from", opts.from, "to", opts.to, "count", len(keys))
		return nil
	}

	n, err := store.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("copied %d of %d keys: %w", n, len(keys), err)
	}
	logger.Info("copied keys", "from", opts.from, "to", opts.to, "count", n)
	return nil
}

func openAs(ctx context.Context, cfg *config.Config, backend string) (store.Backend, error) {
	c := *cfg
	c.Backend = backend
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return app.OpenBackend(ctx, &c)
}

func backupFile(logger *log.Logger, path string) error {
	backupPath, err := db.Backup(path, time.Now())
	if err != nil {
		return err
	}
	if backupPath != "" {
		logger.Info("backup created", "path", backupPath)
	}
	return nil
}
