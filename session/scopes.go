// ABOUTME: Service families and the OAuth scopes each one needs
// ABOUTME: Standalone connects request only their own scopes; login requests all of them
package session

import (
	"slices"

	"google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
)

// Service is an external service family sharing the Google token.
type Service string

const (
	ServiceCalendar Service = "calendar"
	ServiceMail     Service = "mail"
)

// Services lists every service family.
var Services = []Service{ServiceCalendar, ServiceMail}

// Gmail scopes. The gmail API package is not imported for two constants.
const (
	scopeGmailModify = "https://www.googleapis.com/auth/gmail.modify"
	scopeGmailSend   = "https://www.googleapis.com/auth/gmail.send"
)

var serviceScopes = map[Service][]string{
	ServiceCalendar: {calendar.CalendarEventsScope},
	ServiceMail:     {scopeGmailModify, scopeGmailSend},
}

// Scopes returns the minimal scopes for svc.
func Scopes(svc Service) []string {
	return slices.Clone(serviceScopes[svc])
}

// LoginScopes returns every scope the app uses plus identity scopes.
func LoginScopes() []string {
	scopes := []string{oauth2api.OpenIDScope, oauth2api.UserinfoEmailScope, oauth2api.UserinfoProfileScope}
	for _, svc := range Services {
		scopes = append(scopes, serviceScopes[svc]...)
	}
	return scopes
}

// State is the connection state of one service.
type State int

const (
	Disconnected State = iota
	Authorizing
	Connected
)

func (s State) String() string {
	switch s {
	case Authorizing:
		return "authorizing"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}
