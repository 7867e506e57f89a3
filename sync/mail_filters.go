// ABOUTME: High-signal filtering for mailbox messages
// ABOUTME: Drops automated senders, group mail, calendar invites and auto-replies
package sync

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// groupThreshold is the recipient count from which a message counts as group mail.
const groupThreshold = 5

var automatedSenderPatterns = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply",
	"notifications", "notify", "mailer-daemon", "postmaster",
	"bounces", "unsubscribe", "newsletter", "marketing",
}

var calendarSubjectPrefixes = []string{
	"invitation:", "invite:", "calendar:", "updated invitation:",
	"canceled event:", "cancelled event:",
}

var autoSubjectPrefixes = []string{
	"automatic reply", "out of office", "delivery status notification",
	"returned mail", "failure notice", "undelivered mail",
}

// BuildHighSignalQuery selects replied threads and starred mail since the given day.
func BuildHighSignalQuery(since time.Time) string {
	return fmt.Sprintf("(from:me is:replied) OR (to:me is:replied) OR is:starred after:%s -in:spam -in:trash",
		since.Format("2006/01/02"))
}

// IsHighSignalEmail reports whether msg looks like a real conversation. When
// it does not, the reason is returned.
func IsHighSignalEmail(msg *gmail.Message) (bool, string) {
	if msg == nil {
		return false, "nil message"
	}
	headers := parseHeaders(msg.Payload)

	if isAutomatedSender(headers["From"]) {
		return false, "automated sender"
	}
	if n := countRecipients(headers["To"]) + countRecipients(headers["Cc"]); n >= groupThreshold {
		return false, fmt.Sprintf("group email (%d recipients)", n)
	}
	if isCalendarInvite(headers["Subject"], msg) {
		return false, "calendar invite"
	}
	if isAutoGeneratedSubject(headers["Subject"]) {
		return false, "auto-generated subject"
	}
	return true, ""
}

func parseHeaders(payload *gmail.MessagePart) map[string]string {
	headers := map[string]string{}
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		if h != nil {
			headers[h.Name] = h.Value
		}
	}
	return headers
}

func isAutomatedSender(from string) bool {
	if strings.TrimSpace(from) == "" {
		return true
	}
	lower := strings.ToLower(from)
	for _, p := range automatedSenderPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func countRecipients(header string) int {
	n := 0
	for _, part := range strings.Split(header, ",") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func isCalendarInvite(subject string, msg *gmail.Message) bool {
	if msg == nil || msg.Payload == nil {
		return false
	}
	if msg.Payload.MimeType == "text/calendar" {
		return true
	}
	return hasAnyPrefix(strings.ToLower(strings.TrimSpace(subject)), calendarSubjectPrefixes)
}

func isAutoGeneratedSubject(subject string) bool {
	trimmed := strings.TrimSpace(subject)
	if len(trimmed) < 3 {
		return true
	}
	return hasAnyPrefix(strings.ToLower(trimmed), autoSubjectPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ExtractEmailAddress splits a header address like `"Jane" <jane@x.com>` into
// name, address and lower-cased domain. Malformed input is returned as the address.
func ExtractEmailAddress(field string) (name, email, domain string) {
	field = strings.TrimSpace(field)
	email = field

	open := strings.LastIndex(field, "<")
	end := strings.LastIndex(field, ">")
	if open >= 0 && end > open {
		name = strings.Trim(strings.TrimSpace(field[:open]), `"`)
		email = strings.TrimSpace(field[open+1 : end])
	}

	if strings.Count(email, "@") == 1 {
		domain = strings.ToLower(email[strings.Index(email, "@")+1:])
	}
	return name, email, domain
}

// splitAddresses returns the bare addresses in a To/Cc style header.
func splitAddresses(header string) []string {
	var out []string
	for _, part := range strings.Split(header, ",") {
		if _, email, domain := ExtractEmailAddress(part); domain != "" {
			out = append(out, email)
		}
	}
	return out
}
