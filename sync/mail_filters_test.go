// ABOUTME: Unit tests for mailbox high-signal filtering
// ABOUTME: Tests query building, message filtering and address parsing
package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func message(mime string, headers map[string]string) *gmail.Message {
	part := &gmail.MessagePart{MimeType: mime}
	for k, v := range headers {
		part.Headers = append(part.Headers, &gmail.MessagePartHeader{Name: k, Value: v})
	}
	return &gmail.Message{Payload: part}
}

func TestBuildHighSignalQuery(t *testing.T) {
	got := BuildHighSignalQuery(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "(from:me is:replied) OR (to:me is:replied) OR is:starred after:2024/03/05 -in:spam -in:trash", got)
}

func TestIsHighSignalEmail(t *testing.T) {
	tests := []struct {
		name    string
		message *gmail.Message
		wantOk  bool
		wantMsg string
	}{
		{"nil message", nil, false, "nil message"},
		{
			"automated sender",
			message("", map[string]string{"From": "notifications@github.com", "To": "me@example.com", "Subject": "New issue opened"}),
			false, "automated sender",
		},
		{
			"group email across To and Cc",
			message("", map[string]string{"From": "person@example.com", "To": "a@x.com, b@x.com, c@x.com", "Cc": "d@x.com, e@x.com", "Subject": "Project update"}),
			false, "group email (5 recipients)",
		},
		{
			"calendar mime type",
			message("text/calendar", map[string]string{"From": "person@example.com", "To": "me@example.com", "Subject": "Meeting tomorrow"}),
			false, "calendar invite",
		},
		{
			"invitation subject",
			message("", map[string]string{"From": "person@example.com", "To": "me@example.com", "Subject": "Invitation: Team Sync"}),
			false, "calendar invite",
		},
		{
			"out of office",
			message("", map[string]string{"From": "person@example.com", "To": "me@example.com", "Subject": "Out of office: vacation"}),
			false, "auto-generated subject",
		},
		{
			"normal conversation",
			message("text/plain", map[string]string{"From": "colleague@example.com", "To": "me@example.com", "Subject": "Quick question about the project"}),
			true, "",
		},
		{
			"small group",
			message("", map[string]string{"From": "person@example.com", "To": "a@x.com, b@x.com", "Cc": "c@x.com", "Subject": "Discussion topic"}),
			true, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := IsHighSignalEmail(tt.message)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	assert.Empty(t, parseHeaders(nil))
	assert.Empty(t, parseHeaders(&gmail.MessagePart{}))

	got := parseHeaders(&gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "From", Value: "sender@example.com"},
		nil,
		{Name: "Subject", Value: "Test email"},
	}})
	assert.Equal(t, map[string]string{"From": "sender@example.com", "Subject": "Test email"}, got)
}

func TestIsAutomatedSender(t *testing.T) {
	for _, from := range []string{"", "noreply@example.com", "no-reply@service.com", "do-not-reply@site.com", "MAILER-DAEMON@mail.example.com", "newsletter@company.com", "support@notifications-service.com"} {
		assert.True(t, isAutomatedSender(from), from)
	}
	for _, from := range []string{"john.doe@example.com", "Jane Smith <jane@example.com>"} {
		assert.False(t, isAutomatedSender(from), from)
	}
}

func TestCountRecipients(t *testing.T) {
	tests := map[string]int{
		"":                               0,
		"user@example.com":               1,
		"a@x.com,  b@x.com,   c@x.com":   3,
		"Alice <a@x.com>, Bob <b@x.com>": 2,
		"a@x.com, b@x.com, ":             2,
		"a@x.com,,,b@x.com":              2,
	}
	for header, want := range tests {
		assert.Equal(t, want, countRecipients(header), header)
	}
}

func TestIsCalendarInvite(t *testing.T) {
	plain := &gmail.Message{Payload: &gmail.MessagePart{MimeType: "text/plain"}}

	assert.False(t, isCalendarInvite("Invitation: x", &gmail.Message{}))
	assert.True(t, isCalendarInvite("Meeting", &gmail.Message{Payload: &gmail.MessagePart{MimeType: "text/calendar"}}))
	for _, subject := range []string{"Invite: Coffee chat", "Updated invitation: Review", "Canceled event: Lunch", "INVITATION: IMPORTANT"} {
		assert.True(t, isCalendarInvite(subject, plain), subject)
	}
	assert.False(t, isCalendarInvite("Please see invitation below", plain))
}

func TestIsAutoGeneratedSubject(t *testing.T) {
	for _, subject := range []string{"", "   ", "Re", "Automatic reply: I'm out", "Delivery Status Notification (Failure)", "Undelivered Mail Returned to Sender"} {
		assert.True(t, isAutoGeneratedSubject(subject), subject)
	}
	for _, subject := range []string{"Hey", "Let's go out for lunch", "The automatic system is broken"} {
		assert.False(t, isAutoGeneratedSubject(subject), subject)
	}
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		field                           string
		wantName, wantEmail, wantDomain string
	}{
		{"", "", "", ""},
		{"user@example.com", "", "user@example.com", "example.com"},
		{`"Jane Smith" <jane@example.com>`, "Jane Smith", "jane@example.com", "example.com"},
		{"Alice <  alice@example.com  >", "Alice", "alice@example.com", "example.com"},
		{"user@EXAMPLE.COM", "", "user@EXAMPLE.COM", "example.com"},
		{"invaliduser", "", "invaliduser", ""},
		{"user@@example.com", "", "user@@example.com", ""},
		{"Just Name <>", "Just Name", "", ""},
		{"Name <email@example.com", "", "Name <email@example.com", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			name, email, domain := ExtractEmailAddress(tt.field)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantEmail, email)
			assert.Equal(t, tt.wantDomain, domain)
		})
	}
}

func TestSplitAddresses(t *testing.T) {
	got := splitAddresses(`Sarah <sarah@northwind.example>, "Chen, David" <david@blueharbor.example>, undisclosed`)
	assert.Equal(t, []string{"sarah@northwind.example", "david@blueharbor.example"}, got)
}
