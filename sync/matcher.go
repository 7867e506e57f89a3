// ABOUTME: Contact matching for calendar events and mail messages
// ABOUTME: Links a record to an existing contact through email addresses
package sync

import (
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/bizcrm/models"
)

type ContactMatcher struct {
	byEmail map[string]*models.Contact
}

// NewContactMatcher creates a matcher from existing contacts.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{
		byEmail: make(map[string]*models.Contact),
	}

	for i := range contacts {
		email := normalizeEmail(contacts[i].Email)
		if email != "" {
			m.byEmail[email] = &contacts[i]
		}
	}

	return m
}

// FindMatch looks for existing contact by email.
func (m *ContactMatcher) FindMatch(email string) (*models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, false
	}

	contact, found := m.byEmail[normalized]
	return contact, found
}

// MatchEvent returns the first known contact among the event's attendees,
// skipping the calendar owner, then falls back to the organizer.
func (m *ContactMatcher) MatchEvent(ev *calendar.Event) (*models.Contact, bool) {
	for _, a := range ev.Attendees {
		if a == nil || a.Self {
			continue
		}
		if c, ok := m.FindMatch(a.Email); ok {
			return c, true
		}
	}
	if ev.Organizer != nil && !ev.Organizer.Self {
		return m.FindMatch(ev.Organizer.Email)
	}
	return nil, false
}

// MatchMessage returns the distinct contacts addressed in a message's
// From, To and Cc headers, in header order.
func (m *ContactMatcher) MatchMessage(headers map[string]string) []*models.Contact {
	var matched []*models.Contact
	seen := map[string]bool{}
	for _, field := range []string{"From", "To", "Cc"} {
		for _, addr := range splitAddresses(headers[field]) {
			c, found := m.FindMatch(addr)
			if !found || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			matched = append(matched, c)
		}
	}
	return matched
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
