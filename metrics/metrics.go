// ABOUTME: Prometheus counters for store writes, calendar sync and mail scans
// ABOUTME: A nil *Recorder is valid and records nothing
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK           = "ok"
	ResultError        = "error"
	ResultSkipped      = "skipped"
	ResultUnauthorized = "unauthorized"
)

// Recorder holds the application counters.
type Recorder struct {
	storeWrites      *prometheus.CounterVec
	storeWriteErrors *prometheus.CounterVec
	calendarPulls    *prometheus.CounterVec
	eventsImported   prometheus.Counter
	calendarPush     *prometheus.CounterVec
	mailScans        *prometheus.CounterVec
	contactsTouched  prometheus.Counter
}

// New registers the counters with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		storeWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcrm_store_writes_total",
			Help: "Collection writes persisted to the store",
		}, []string{"key"}),
		storeWriteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcrm_store_write_errors_total",
			Help: "Collection writes that failed and were rolled back",
		}, []string{"key"}),
		calendarPulls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcrm_calendar_pulls_total",
			Help: "Calendar pulls by outcome",
		}, []string{"result"}),
		eventsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizcrm_calendar_events_imported_total",
			Help: "Calendar events imported as new tasks",
		}),
		calendarPush: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcrm_calendar_push_total",
			Help: "Calendar event pushes by operation and outcome",
		}, []string{"op", "result"}),
		mailScans: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcrm_mail_scans_total",
			Help: "Mailbox scans by outcome",
		}, []string{"result"}),
		contactsTouched: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizcrm_mail_contacts_updated_total",
			Help: "Contacts whose last-contact date moved forward from mail",
		}),
	}
}

func (r *Recorder) StoreWrite(key string, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.storeWriteErrors.WithLabelValues(key).Inc()
		return
	}
	r.storeWrites.WithLabelValues(key).Inc()
}

func (r *Recorder) CalendarPull(result string, imported int) {
	if r == nil {
		return
	}
	r.calendarPulls.WithLabelValues(result).Inc()
	if imported > 0 {
		r.eventsImported.Add(float64(imported))
	}
}

func (r *Recorder) CalendarPush(op, result string) {
	if r == nil {
		return
	}
	r.calendarPush.WithLabelValues(op, result).Inc()
}

func (r *Recorder) MailScan(result string, updated int) {
	if r == nil {
		return
	}
	r.mailScans.WithLabelValues(result).Inc()
	if updated > 0 {
		r.contactsTouched.Add(float64(updated))
	}
}
