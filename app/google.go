// ABOUTME: Google integration operations: connect, disconnect, login, logout and mail scan
// ABOUTME: Results are booleans and nil profiles; the session keeps the last error
package app

import (
	"context"

	"github.com/harperreed/bizcrm/models"
	"github.com/harperreed/bizcrm/session"
	"github.com/harperreed/bizcrm/sync"
)

// ConnectGoogle requests consent for svc. It reports false on any failure.
func (s *Service) ConnectGoogle(ctx context.Context, svc session.Service) bool {
	return s.session.ConnectGoogle(ctx, svc)
}

// DisconnectGoogle turns svc off without dropping the token.
func (s *Service) DisconnectGoogle(svc session.Service) {
	s.session.DisconnectGoogle(svc)
}

func (s *Service) GetIntegrationStatus() session.Status {
	return s.session.IntegrationStatus()
}

// LoginWithGoogle connects every service and copies the Google identity into
// the stored profile. Company and role are kept. It returns nil on failure.
func (s *Service) LoginWithGoogle(ctx context.Context) *models.UserProfile {
	p := s.session.LoginWithGoogle(ctx)
	if p == nil {
		return nil
	}

	profile := s.cache.Profile()
	profile.FirstName = p.FirstName
	profile.LastName = p.LastName
	profile.Email = p.Email
	if p.Avatar != "" {
		profile.Avatar = p.Avatar
	}
	if err := s.cache.SaveProfile(ctx, profile); err != nil {
		s.logger.Error("failed to save profile after login", "err", err)
	}
	return &profile
}

// Logout revokes the token and clears the session. Local data is untouched.
func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

// LastError is the reason the most recent session operation failed.
func (s *Service) LastError() error {
	return s.session.LastError()
}

// ScanMail updates contacts' last-contact dates from recent mail.
func (s *Service) ScanMail(ctx context.Context) (sync.MailResult, error) {
	return s.mail.Scan(ctx)
}
