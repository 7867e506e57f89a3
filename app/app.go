// ABOUTME: Service facade the CLI and MCP server call into
// ABOUTME: Wires cache, Google session, calendar reconciler and mail scanner over one storage backend
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/desktop"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/session"
	"github.com/harperreed/bizcrm/store"
	"github.com/harperreed/bizcrm/sync"
)

// Deps are the collaborators New would otherwise build from configuration.
// Every field is optional.
type Deps struct {
	Logger     *log.Logger
	Metrics    *metrics.Recorder
	Bridge     desktop.Bridge
	Authorizer session.Authorizer
	TokenStore session.TokenStore
	UserInfo   session.UserInfoFetcher
	Revoker    session.Revoker
	Calendar   sync.CalendarProvider
	Mail       sync.MailProvider
	Clock      func() time.Time
}

// Service is the in-process API of the application.
type Service struct {
	backend  store.Backend
	cache    *cache.Cache
	session  *session.Manager
	calendar *sync.Reconciler
	mail     *sync.MailScanner
	bridge   desktop.Bridge
	logger   *log.Logger
	loc      *time.Location
	now      func() time.Time
}

// New builds a service over backend. Call Init before use and Close when done.
func New(cfg *config.Config, backend store.Backend, deps Deps) (*Service, error) {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Bridge == nil {
		deps.Bridge = desktop.NoopBridge{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := sync.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return nil, err
	}

	if deps.Authorizer == nil {
		auth := session.NewOAuthAuthorizer(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectPort, deps.Bridge)
		auth.Logger = deps.Logger.WithPrefix("oauth")
		deps.Authorizer = auth
	}
	if deps.TokenStore == nil {
		deps.TokenStore = session.NewFileTokenStore(cfg.TokenPath())
	}
	if deps.UserInfo == nil {
		deps.UserInfo = session.GoogleUserInfo{}
	}
	if deps.Revoker == nil {
		deps.Revoker = session.GoogleRevoker{}
	}

	c := cache.New(backend,
		cache.WithLogger(deps.Logger.WithPrefix("cache")),
		cache.WithMetrics(deps.Metrics),
		cache.WithClock(deps.Clock),
	)
	mgr := session.New(deps.Authorizer,
		session.WithTokenStore(deps.TokenStore),
		session.WithUserInfo(deps.UserInfo),
		session.WithRevoker(deps.Revoker),
		session.WithLogger(deps.Logger.WithPrefix("session")),
	)
	if deps.Calendar == nil {
		deps.Calendar = sync.NewGoogleCalendar(mgr)
	}
	rec := sync.NewReconciler(c, deps.Calendar, mgr,
		sync.WithPolicy(policy),
		sync.WithLocation(loc),
		sync.WithClock(deps.Clock),
		sync.WithLogger(deps.Logger.WithPrefix("calendar")),
		sync.WithMetrics(deps.Metrics),
	)
	if deps.Mail == nil {
		deps.Mail = sync.NewGoogleMail(mgr, "")
	}
	scanner := sync.NewMailScanner(c, deps.Mail, mgr,
		sync.WithMailLocation(loc),
		sync.WithMailClock(deps.Clock),
		sync.WithMailLogger(deps.Logger.WithPrefix("mail")),
		sync.WithMailMetrics(deps.Metrics),
	)

	return &Service{
		backend:  backend,
		cache:    c,
		session:  mgr,
		calendar: rec,
		mail:     scanner,
		bridge:   deps.Bridge,
		logger:   deps.Logger,
		loc:      loc,
		now:      deps.Clock,
	}, nil
}

// Init seeds and loads every collection.
func (s *Service) Init(ctx context.Context) error {
	if err := s.cache.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// Close releases the storage backend.
func (s *Service) Close() error {
	return s.backend.Close()
}

// Cache exposes the entity cache for read-only reporting.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Session exposes the Google session manager.
func (s *Service) Session() *session.Manager {
	return s.session
}

// Contacts

func (s *Service) GetContacts() []models.Contact {
	return s.cache.Contacts.List()
}

func (s *Service) SaveContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	return s.cache.Contacts.Create(ctx, c)
}

func (s *Service) UpdateContact(ctx context.Context, c models.Contact) (bool, error) {
	return s.cache.Contacts.Update(ctx, c)
}

func (s *Service) DeleteContact(ctx context.Context, id string) (bool, error) {
	return s.cache.Contacts.Delete(ctx, id)
}

// Deals

func (s *Service) GetDeals() []models.Deal {
	return s.cache.Deals.List()
}

func (s *Service) SaveDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	if d.ID == "" {
		d.ID = models.NewID()
	}
	if d.Stage == "" {
		d.Stage = models.StageLead
	}
	if !d.Stage.Valid() {
		return d, fmt.Errorf("unknown deal stage %q", d.Stage)
	}
	return s.cache.Deals.Create(ctx, d)
}

// UpdateDeal records an activity when the deal moves to Won.
func (s *Service) UpdateDeal(ctx context.Context, d models.Deal) (bool, error) {
	return s.cache.UpdateDeal(ctx, d)
}

func (s *Service) DeleteDeal(ctx context.Context, id string) (bool, error) {
	return s.cache.Deals.Delete(ctx, id)
}

// AdvanceDeal moves a deal to the next pipeline stage.
func (s *Service) AdvanceDeal(ctx context.Context, id string) (models.Deal, bool, error) {
	return s.cache.AdvanceDeal(ctx, id)
}

// Expenses

func (s *Service) GetExpenses() []models.Expense {
	return s.cache.Expenses.List()
}

func (s *Service) SaveExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.ID == "" {
		e.ID = models.NewID()
	}
	if e.Category == "" {
		e.Category = models.CategoryOther
	}
	if !e.Category.Valid() {
		return e, fmt.Errorf("unknown expense category %q", e.Category)
	}
	return s.cache.Expenses.Create(ctx, e)
}

func (s *Service) UpdateExpense(ctx context.Context, e models.Expense) (bool, error) {
	return s.cache.Expenses.Update(ctx, e)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) (bool, error) {
	return s.cache.Expenses.Delete(ctx, id)
}

// Activities

func (s *Service) GetActivities() []models.Activity {
	return s.cache.Activities.List()
}

func (s *Service) MarkActivityRead(ctx context.Context, id string) (bool, error) {
	return s.cache.MarkActivityRead(ctx, id)
}

func (s *Service) MarkAllActivitiesRead(ctx context.Context) (int, error) {
	return s.cache.MarkAllActivitiesRead(ctx)
}

func (s *Service) DeleteActivity(ctx context.Context, id string) (bool, error) {
	return s.cache.Activities.Delete(ctx, id)
}

// Product presets

func (s *Service) GetProductPresets() []models.ProductPreset {
	return s.cache.Presets.List()
}

func (s *Service) SaveProductPreset(ctx context.Context, p models.ProductPreset) (models.ProductPreset, error) {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	return s.cache.Presets.Create(ctx, p)
}

func (s *Service) UpdateProductPreset(ctx context.Context, p models.ProductPreset) (bool, error) {
	return s.cache.Presets.Update(ctx, p)
}

func (s *Service) DeleteProductPreset(ctx context.Context, id string) (bool, error) {
	return s.cache.Presets.Delete(ctx, id)
}

// Singletons

func (s *Service) GetUserProfile() models.UserProfile {
	return s.cache.Profile()
}

func (s *Service) SaveUserProfile(ctx context.Context, p models.UserProfile) error {
	return s.cache.SaveProfile(ctx, p)
}

func (s *Service) GetInvoiceConfig() models.InvoiceConfig {
	return s.cache.InvoiceConfig()
}

func (s *Service) SaveInvoiceConfig(ctx context.Context, cfg models.InvoiceConfig) error {
	return s.cache.SaveInvoiceConfig(ctx, cfg)
}
