// ABOUTME: Calendar provider interface and its Google Calendar implementation
// ABOUTME: Builds a Calendar service per call from the session's authenticated client
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrUnauthorized means a Google API rejected the bearer token (HTTP 401).
var ErrUnauthorized = errors.New("google rejected token")

// CalendarProvider is the external calendar the reconciler talks to.
type CalendarProvider interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, limit int) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ClientSource hands out authenticated HTTP clients. *session.Manager implements it.
type ClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// GoogleCalendar talks to one Google calendar, "primary" by default.
type GoogleCalendar struct {
	clients    ClientSource
	calendarID string
	endpoint   string
}

// CalendarOption configures a GoogleCalendar.
type CalendarOption func(*GoogleCalendar)

// WithCalendarID selects a calendar other than primary.
func WithCalendarID(id string) CalendarOption {
	return func(g *GoogleCalendar) { g.calendarID = id }
}

// WithEndpoint points the client at another API base URL (tests, proxies).
func WithEndpoint(url string) CalendarOption {
	return func(g *GoogleCalendar) { g.endpoint = url }
}

// NewGoogleCalendar creates a provider using clients for authentication.
func NewGoogleCalendar(clients ClientSource, opts ...CalendarOption) *GoogleCalendar {
	g := &GoogleCalendar{clients: clients, calendarID: "primary"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleCalendar) service(ctx context.Context) (*calendar.Service, error) {
	client, err := g.clients.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}

// ListEvents returns single (expanded) events in the window ordered by start time.
func (g *GoogleCalendar) ListEvents(ctx context.Context, timeMin, timeMax time.Time, limit int) ([]*calendar.Event, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	events, err := svc.Events.List(g.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", mapError(err))
	}
	return events.Items, nil
}

// InsertEvent creates ev and returns it with the provider-assigned ID.
func (g *GoogleCalendar) InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", mapError(err))
	}
	return created, nil
}

// DeleteEvent removes an event. An event that is already gone counts as deleted.
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}

	err = svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete calendar event %s: %w", eventID, mapError(err))
	}
	return nil
}

// mapError turns a 401 into ErrUnauthorized. No other status is special.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}
