// ABOUTME: Reconciles the task collection with an external calendar
// ABOUTME: Pulls events into tasks and pushes task creates and deletes best-effort
package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/session"
)

const (
	calendarService = "calendar"
	// pullLimit caps the events fetched per pull.
	pullLimit = 100
)

// Session is the part of the session manager the reconciler needs.
type Session interface {
	IsConnected(svc session.Service) bool
	Invalidate(reason string)
}

// PullResult summarizes one pull.
type PullResult struct {
	Skipped    bool
	SkipReason string
	Fetched    int
	Imported   int
	Updated    int
	Ignored    int // skipped events plus changes rejected by the merge policy
}

// Reconciler keeps calendar-originated tasks aligned with the provider.
type Reconciler struct {
	cache    *cache.Cache
	provider CalendarProvider
	session  Session
	policy   MergePolicy
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
	metrics  *metrics.Recorder

	syncing atomic.Bool
	// tasks serializes a whole pull against task writes and their pushes.
	tasks gosync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPolicy sets how changed events are merged. Default ProviderWins.
func WithPolicy(p MergePolicy) Option {
	return func(r *Reconciler) { r.policy = p }
}

// WithLocation sets the zone task times are expressed in. Default time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) { r.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithMetrics records pulls and pushes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler wires the reconciler to the task cache, provider and session.
func NewReconciler(c *cache.Cache, provider CalendarProvider, sess Session, opts ...Option) *Reconciler {
	r := &Reconciler{
		cache:    c,
		provider: provider,
		session:  sess,
		policy:   ProviderWins,
		loc:      time.Local,
		now:      time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the active merge policy.
func (r *Reconciler) Policy() MergePolicy {
	return r.policy
}

func (r *Reconciler) connected() bool {
	return r.session != nil && r.session.IsConnected(session.ServiceCalendar)
}

// Pull imports events from one month back to three months ahead. It is
// skipped when the calendar is not connected or another pull is running. A
// 401 aborts the pull and invalidates the session; there is no retry.
func (r *Reconciler) Pull(ctx context.Context) (PullResult, error) {
	if !r.connected() {
		r.metrics.CalendarPull(metrics.ResultSkipped, 0)
		return PullResult{Skipped: true, SkipReason: "calendar not connected"}, nil
	}
	if !r.syncing.CompareAndSwap(false, true) {
		r.logger.Debug("calendar pull already running, skipping")
		r.metrics.CalendarPull(metrics.ResultSkipped, 0)
		return PullResult{Skipped: true, SkipReason: "pull in progress"}, nil
	}
	defer r.syncing.Store(false)

	r.tasks.Lock()
	defer r.tasks.Unlock()

	r.saveState(ctx, models.SyncState{Status: models.SyncStatusSyncing})

	now := r.now()
	events, err := r.provider.ListEvents(ctx, now.AddDate(0, -1, 0), now.AddDate(0, 3, 0), pullLimit)
	if err != nil {
		return PullResult{}, r.pullFailed(ctx, err)
	}

	res := PullResult{Fetched: len(events)}
	matcher := NewContactMatcher(r.cache.Contacts.List())
	err = r.cache.Tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, bool) {
		var changed bool
		tasks, changed = r.merge(tasks, events, matcher, &res)
		return tasks, changed
	})
	if err != nil {
		return PullResult{}, r.pullFailed(ctx, fmt.Errorf("failed to save tasks: %w", err))
	}

	synced := r.now()
	r.saveState(ctx, models.SyncState{
		Status:       models.SyncStatusIdle,
		LastSyncTime: &synced,
		Imported:     res.Imported,
		Updated:      res.Updated,
	})
	r.metrics.CalendarPull(metrics.ResultOK, res.Imported)
	r.logger.Info("calendar pull complete", "fetched", res.Fetched, "imported", res.Imported, "updated", res.Updated)

	if res.Imported > 0 {
		if _, err := r.cache.RecordActivity(ctx, models.ActivityCalendarSync, "Calendar synced",
			fmt.Sprintf("%d new events imported", res.Imported)); err != nil {
			r.logger.Warn("failed to record activity", "err", err)
		}
	}
	return res, nil
}

func (r *Reconciler) pullFailed(ctx context.Context, err error) error {
	result := metrics.ResultError
	if errors.Is(err, ErrUnauthorized) {
		result = metrics.ResultUnauthorized
		r.session.Invalidate("calendar rejected token during pull")
	}
	r.metrics.CalendarPull(result, 0)
	r.logger.Error("calendar pull failed", "err", err)
	r.saveState(ctx, models.SyncState{Status: models.SyncStatusError, ErrorMessage: err.Error()})
	return err
}

// merge applies events to tasks and reports whether anything changed.
func (r *Reconciler) merge(tasks []models.Task, events []*calendar.Event, matcher *ContactMatcher, res *PullResult) ([]models.Task, bool) {
	byEvent := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if t.GoogleEventID != "" {
			byEvent[t.GoogleEventID] = i
		}
	}

	now := r.now()
	changed := false
	for _, ev := range events {
		if skip, reason := shouldSkipEvent(ev); skip {
			r.logger.Debug("skipping calendar event", "reason", reason)
			res.Ignored++
			continue
		}
		fields, err := fieldsFromEvent(ev, r.loc)
		if err != nil {
			r.logger.Warn("skipping malformed calendar event", "event", ev.Id, "err", err)
			res.Ignored++
			continue
		}

		i, ok := byEvent[ev.Id]
		if !ok {
			task := models.Task{
				ID:            models.NewID(),
				Type:          models.TaskMeeting,
				Priority:      models.PriorityMedium,
				GoogleEventID: ev.Id,
				CalendarSync:  models.Synced(ev.Id, now),
				UpdatedAt:     now,
			}
			fields.applyTo(&task)
			if c, found := matcher.MatchEvent(ev); found {
				task.ContactID = c.ID
			}
			tasks = append(tasks, task)
			byEvent[ev.Id] = len(tasks) - 1
			res.Imported++
			changed = true
			continue
		}

		if !fields.differs(tasks[i]) {
			continue
		}
		if !r.policy.TakeRemote(tasks[i], eventUpdated(ev)) {
			res.Ignored++
			continue
		}
		fields.applyTo(&tasks[i])
		tasks[i].UpdatedAt = now
		res.Updated++
		changed = true
	}
	return tasks, changed
}

func (r *Reconciler) saveState(ctx context.Context, st models.SyncState) {
	st.Service = calendarService
	if st.LastSyncTime == nil {
		st.LastSyncTime = r.cache.SyncState().LastSyncTime
	}
	if err := r.cache.SaveSyncState(ctx, st); err != nil {
		r.logger.Warn("failed to save sync state", "err", err)
	}
}

// PushCreate creates the provider event for a new task before it is stored.
// It never fails: the task comes back either Synced with its event ID or
// LocalOnly with the reason. Nothing is attempted while disconnected.
func (r *Reconciler) PushCreate(ctx context.Context, task models.Task) models.Task {
	if !r.connected() {
		return task
	}

	ev, err := eventFromTask(task, r.loc)
	if err == nil {
		ev, err = r.provider.InsertEvent(ctx, ev)
	}
	if err != nil {
		r.pushFailed("create", err)
		task.CalendarSync = models.LocalOnly(err.Error(), r.now())
		return task
	}

	task.GoogleEventID = ev.Id
	task.CalendarSync = models.Synced(ev.Id, r.now())
	r.metrics.CalendarPush("create", metrics.ResultOK)
	return task
}

// PushDelete deletes the provider event of a task about to be removed. It
// returns nil when nothing was attempted, Synced when the event is gone and
// LocalOnly when the event may be orphaned. The caller deletes locally regardless.
func (r *Reconciler) PushDelete(ctx context.Context, task models.Task) *models.CalendarLink {
	if task.GoogleEventID == "" || !r.connected() {
		return nil
	}

	if err := r.provider.DeleteEvent(ctx, task.GoogleEventID); err != nil {
		r.pushFailed("delete", err)
		return models.LocalOnly(err.Error(), r.now())
	}
	r.metrics.CalendarPush("delete", metrics.ResultOK)
	return models.Synced(task.GoogleEventID, r.now())
}

// CreateTask pushes task to the calendar and stores it, both while no pull
// can interleave. A stored task already carrying the same event ID is
// replaced, so one event never maps to two tasks.
func (r *Reconciler) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	r.tasks.Lock()
	defer r.tasks.Unlock()

	task = r.PushCreate(ctx, task)
	err := r.cache.Tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, bool) {
		if task.GoogleEventID != "" {
			tasks = slices.DeleteFunc(tasks, func(t models.Task) bool { return t.GoogleEventID == task.GoogleEventID })
		}
		return slices.Insert(tasks, 0, task), true
	})
	return task, err
}

// UpdateTask replaces the stored task with the same ID. The calendar link
// (event ID and sync state) always comes from the stored copy; only a
// confirmed delete or a pull may change it. Edits are not pushed.
func (r *Reconciler) UpdateTask(ctx context.Context, task models.Task) (bool, error) {
	r.tasks.Lock()
	defer r.tasks.Unlock()

	found := false
	err := r.cache.Tasks.Mutate(ctx, func(tasks []models.Task) ([]models.Task, bool) {
		i := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == task.ID })
		if i < 0 {
			return nil, false
		}
		task.GoogleEventID = tasks[i].GoogleEventID
		task.CalendarSync = tasks[i].CalendarSync
		tasks[i] = task
		found = true
		return tasks, true
	})
	return found, err
}

// DeleteTask deletes the linked event and then the task with id, while no
// pull can interleave. A missing task reports false and a nil link.
func (r *Reconciler) DeleteTask(ctx context.Context, id string) (bool, *models.CalendarLink, error) {
	r.tasks.Lock()
	defer r.tasks.Unlock()

	task, ok := r.cache.Tasks.Get(id)
	if !ok {
		return false, nil, nil
	}
	link := r.PushDelete(ctx, task)
	found, err := r.cache.Tasks.Delete(ctx, id)
	return found, link, err
}

func (r *Reconciler) pushFailed(op string, err error) {
	result := metrics.ResultError
	if errors.Is(err, ErrUnauthorized) {
		result = metrics.ResultUnauthorized
		r.session.Invalidate("calendar rejected token during " + op)
	}
	r.metrics.CalendarPush(op, result)
	r.logger.Warn("calendar push failed, keeping task local", "op", op, "err", err)
}
