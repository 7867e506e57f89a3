// ABOUTME: Mail scanner that moves contacts' last-contact dates forward from the mailbox
// ABOUTME: Reads high-signal messages only; a 401 invalidates the shared session
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/gmail/v1"

	"github.com/harperreed/bizcrm/cache"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/metrics"
	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/session"
)

const (
	defaultScanDays = 30
	scanLimit       = 100
)

// MailResult summarizes one scan.
type MailResult struct {
	Skipped    bool
	SkipReason string
	Scanned    int
	HighSignal int
	Matched    int // contacts seen in high-signal mail
	Updated    int // contacts whose LastContact moved forward
}

// MailScanner updates Contact.LastContact from recent conversations.
type MailScanner struct {
	cache    *cache.Cache
	provider MailProvider
	session  Session
	days     int
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
	metrics  *metrics.Recorder

	scanning atomic.Bool
}

// MailOption configures a MailScanner.
type MailOption func(*MailScanner)

// WithScanDays sets how far back a scan looks. Default 30 days.
func WithScanDays(days int) MailOption {
	return func(s *MailScanner) {
		if days > 0 {
			s.days = days
		}
	}
}

func WithMailLocation(loc *time.Location) MailOption {
	return func(s *MailScanner) { s.loc = loc }
}

func WithMailClock(now func() time.Time) MailOption {
	return func(s *MailScanner) { s.now = now }
}

func WithMailLogger(l *log.Logger) MailOption {
	return func(s *MailScanner) { s.logger = l }
}

func WithMailMetrics(m *metrics.Recorder) MailOption {
	return func(s *MailScanner) { s.metrics = m }
}

// NewMailScanner wires the scanner to the contact cache, provider and session.
func NewMailScanner(c *cache.Cache, provider MailProvider, sess Session, opts ...MailOption) *MailScanner {
	s := &MailScanner{
		cache:    c,
		provider: provider,
		session:  sess,
		days:     defaultScanDays,
		loc:      time.Local,
		now:      time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads high-signal mail from the last few days and moves each matched
// contact's LastContact to the newest message date. Dates never move back.
func (s *MailScanner) Scan(ctx context.Context) (MailResult, error) {
	if s.session == nil || !s.session.IsConnected(session.ServiceMail) {
		s.metrics.MailScan(metrics.ResultSkipped, 0)
		return MailResult{Skipped: true, SkipReason: "mail not connected"}, nil
	}
	if !s.scanning.CompareAndSwap(false, true) {
		s.metrics.MailScan(metrics.ResultSkipped, 0)
		return MailResult{Skipped: true, SkipReason: "scan in progress"}, nil
	}
	defer s.scanning.Store(false)

	since := s.now().AddDate(0, 0, -s.days)
	messages, err := s.provider.ListMessages(ctx, BuildHighSignalQuery(since), scanLimit)
	if err != nil {
		return MailResult{}, s.scanFailed(err)
	}

	res := MailResult{Scanned: len(messages)}
	latest := s.latestContact(messages, &res)
	res.Matched = len(latest)

	err = s.cache.Contacts.Mutate(ctx, func(contacts []models.Contact) ([]models.Contact, bool) {
		for i := range contacts {
			day, ok := latest[contacts[i].ID]
			if !ok || day <= contacts[i].LastContact {
				continue
			}
			contacts[i].LastContact = day
			res.Updated++
		}
		return contacts, res.Updated > 0
	})
	if err != nil {
		return MailResult{}, s.scanFailed(fmt.Errorf("failed to save contacts: %w", err))
	}

	s.metrics.MailScan(metrics.ResultOK, res.Updated)
	s.logger.Info("mail scan complete", "scanned", res.Scanned, "matched", res.Matched, "updated", res.Updated)
	if res.Updated > 0 {
		if _, err := s.cache.RecordActivity(ctx, models.ActivityMailScan, "Contacts updated from mail",
			fmt.Sprintf("%d last-contact dates updated", res.Updated)); err != nil {
			s.logger.Warn("failed to record activity", "err", err)
		}
	}
	return res, nil
}

// latestContact maps contact IDs to the newest high-signal message day.
func (s *MailScanner) latestContact(messages []*gmail.Message, res *MailResult) map[string]string {
	matcher := NewContactMatcher(s.cache.Contacts.List())
	latest := map[string]string{}

	for _, msg := range messages {
		if ok, reason := IsHighSignalEmail(msg); !ok {
			s.logger.Debug("skipping message", "reason", reason)
			continue
		}
		res.HighSignal++

		headers := parseHeaders(msg.Payload)
		sent, ok := messageTime(msg, headers)
		if !ok {
			s.logger.Debug("skipping message without date", "id", msg.Id)
			continue
		}
		day := sent.In(s.loc).Format(time.DateOnly)

		for _, c := range matcher.MatchMessage(headers) {
			if day > latest[c.ID] {
				latest[c.ID] = day
			}
		}
	}
	return latest
}

// messageTime prefers Gmail's internal date and falls back to the Date header.
func messageTime(msg *gmail.Message, headers map[string]string) (time.Time, bool) {
	if msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate), true
	}
	t, err := mail.ParseDate(headers["Date"])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *MailScanner) scanFailed(err error) error {
	result := metrics.ResultError
	if errors.Is(err, ErrUnauthorized) {
		result = metrics.ResultUnauthorized
		s.session.Invalidate("mail rejected token during scan")
	}
	s.metrics.MailScan(result, 0)
	s.logger.Error("mail scan failed", "err", err)
	return err
}
