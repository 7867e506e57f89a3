// ABOUTME: Entity cache mirroring every CRM collection held in the store
// ABOUTME: Seeds missing keys on Init and serves all reads from memory
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/store"
)

// Store keys. These names are the on-disk format and must not change.
const (
	KeyContacts       = "contacts"
	KeyDeals          = "deals"
	KeyTasks          = "tasks"
	KeyInvoices       = "invoices"
	KeyExpenses       = "expenses"
	KeyActivities     = "activities"
	KeyUserProfile    = "userProfile"
	KeyProductPresets = "productPresets"
	KeyInvoiceConfig  = "invoiceConfig"
	KeySyncState      = "syncState"
)

// Cache holds one Collection per entity type plus the singleton records.
// Init must be called before any other method.
type Cache struct {
	backend store.Backend
	logger  *log.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	Contacts   *Collection[models.Contact]
	Deals      *Collection[models.Deal]
	Tasks      *Collection[models.Task]
	Invoices   *Collection[models.Invoice]
	Expenses   *Collection[models.Expense]
	Activities *Collection[models.Activity]
	Presets    *Collection[models.ProductPreset]

	profile       *Singleton[models.UserProfile]
	invoiceConfig *Singleton[models.InvoiceConfig]
	syncState     *Singleton[models.SyncState]
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for store failures and fallbacks.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMetrics records store writes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides time.Now for timestamps and seed dates.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache over backend.
func New(backend store.Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Contacts = newCollection[models.Contact](c, KeyContacts)
	c.Deals = newCollection[models.Deal](c, KeyDeals)
	c.Tasks = newCollection[models.Task](c, KeyTasks)
	c.Invoices = newCollection[models.Invoice](c, KeyInvoices)
	c.Expenses = newCollection[models.Expense](c, KeyExpenses)
	c.Activities = newCollection[models.Activity](c, KeyActivities)
	c.Presets = newCollection[models.ProductPreset](c, KeyProductPresets)

	c.profile = newSingleton[models.UserProfile](c, KeyUserProfile)
	c.invoiceConfig = newSingleton[models.InvoiceConfig](c, KeyInvoiceConfig)
	c.syncState = newSingleton[models.SyncState](c, KeySyncState)
	return c
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Init seeds every absent key with the default dataset, then loads every
// collection and singleton into memory. A corrupt key falls back to its
// default without touching the stored value. Calling Init again reloads from
// the store.
func (c *Cache) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seed := DefaultDataset(c.now())
	seeds := []struct {
		key   string
		value any
	}{
		{KeyContacts, seed.Contacts},
		{KeyDeals, seed.Deals},
		{KeyTasks, seed.Tasks},
		{KeyInvoices, seed.Invoices},
		{KeyExpenses, seed.Expenses},
		{KeyActivities, seed.Activities},
		{KeyUserProfile, seed.Profile},
		{KeyProductPresets, seed.Presets},
		{KeyInvoiceConfig, seed.InvoiceConfig},
	}
	for _, s := range seeds {
		ok, err := store.Exists(c.backend, s.key)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", s.key, err)
		}
		if ok {
			continue
		}
		if err := store.Write(c.backend, s.key, s.value); err != nil {
			return fmt.Errorf("failed to seed %s: %w", s.key, err)
		}
		c.logger.Debug("seeded default data", "key", s.key)
	}

	loads := []func() error{
		func() error { return c.Contacts.load(seed.Contacts) },
		func() error { return c.Deals.load(seed.Deals) },
		func() error { return c.Tasks.load(seed.Tasks) },
		func() error { return c.Invoices.load(seed.Invoices) },
		func() error { return c.Expenses.load(seed.Expenses) },
		func() error { return c.Activities.load(seed.Activities) },
		func() error { return c.Presets.load(seed.Presets) },
		func() error { return c.profile.load(seed.Profile) },
		func() error { return c.invoiceConfig.load(seed.InvoiceConfig) },
		func() error { return c.syncState.load(models.SyncState{Status: models.SyncStatusIdle}) },
	}
	for _, load := range loads {
		if err := load(); err != nil {
			return fmt.Errorf("failed to load cache: %w", err)
		}
	}
	return nil
}

// Profile returns the user profile.
func (c *Cache) Profile() models.UserProfile {
	return c.profile.Get()
}

// SaveProfile replaces the user profile.
func (c *Cache) SaveProfile(ctx context.Context, p models.UserProfile) error {
	return c.profile.Save(ctx, p)
}

// InvoiceConfig returns the invoice issuer settings.
func (c *Cache) InvoiceConfig() models.InvoiceConfig {
	return c.invoiceConfig.Get()
}

// SaveInvoiceConfig replaces the invoice issuer settings.
func (c *Cache) SaveInvoiceConfig(ctx context.Context, cfg models.InvoiceConfig) error {
	return c.invoiceConfig.Save(ctx, cfg)
}

// SyncState returns the last calendar sync outcome.
func (c *Cache) SyncState() models.SyncState {
	return c.syncState.Get()
}

// SaveSyncState persists the calendar sync outcome.
func (c *Cache) SaveSyncState(ctx context.Context, st models.SyncState) error {
	return c.syncState.Save(ctx, st)
}

func isCorrupt(err error) bool {
	return errors.Is(err, store.ErrCorrupt)
}
