// ABOUTME: Session manager for the shared Google token and per-service connection state
// ABOUTME: Any 401 from the provider clears the token and every service flag
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/models"
)

var (
	// ErrNotConnected is returned when an authenticated client is requested without a token.
	ErrNotConnected = errors.New("google account not connected")
	// ErrInvalidated is recorded as the last error after the token was dropped.
	ErrInvalidated = errors.New("session invalidated")
)

// Authorizer obtains tokens from the identity provider.
type Authorizer interface {
	// Authorize runs a consent flow for exactly the given scopes.
	Authorize(ctx context.Context, scopes []string) (*oauth2.Token, error)
	// TokenSource refreshes tok when it expires.
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// UserInfoFetcher reads the signed-in user's profile with an authenticated client.
type UserInfoFetcher interface {
	FetchUserInfo(ctx context.Context, client *http.Client) (*models.UserProfile, error)
}

// Revoker revokes a token at the provider.
type Revoker interface {
	Revoke(ctx context.Context, tok *oauth2.Token) error
}

// Status is the integration summary shown to the user.
type Status struct {
	Calendar bool   `json:"calendar"`
	Mail     bool   `json:"mail"`
	Email    string `json:"email,omitempty"`
}

// Manager owns the bearer token and the state of each service. Create one per
// process with New and pass it to the components that call Google.
type Manager struct {
	auth     Authorizer
	tokens   TokenStore
	userInfo UserInfoFetcher
	revoker  Revoker
	logger   *log.Logger
	base     *http.Client

	mu      sync.Mutex
	token   *oauth2.Token
	granted map[string]bool
	states  map[Service]State
	email   string
	lastErr error
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenStore persists the session across runs.
func WithTokenStore(s TokenStore) Option {
	return func(m *Manager) { m.tokens = s }
}

// WithUserInfo sets the profile source used by LoginWithGoogle.
func WithUserInfo(u UserInfoFetcher) Option {
	return func(m *Manager) { m.userInfo = u }
}

// WithRevoker sets the token revoker used by Logout.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) { m.revoker = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithHTTPClient sets the base client whose transport carries authenticated requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.base = c }
}

// New creates a manager and restores any stored session.
func New(auth Authorizer, opts ...Option) *Manager {
	m := &Manager{
		auth:    auth,
		logger:  logging.Discard(),
		base:    &http.Client{Timeout: 30 * time.Second},
		granted: map[string]bool{},
		states:  map[Service]State{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	if m.tokens == nil {
		return
	}
	sess, err := m.tokens.Load()
	if err != nil {
		m.logger.Warn("failed to load stored session", "err", err)
		return
	}
	if sess == nil || sess.Token == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = sess.Token
	m.email = sess.Email
	for _, s := range sess.Scopes {
		m.granted[s] = true
	}
	for _, svc := range sess.Connected {
		m.states[svc] = Connected
	}
}

// State returns the connection state of svc.
func (m *Manager) State(svc Service) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[svc]
}

// IsConnected reports whether svc is connected.
func (m *Manager) IsConnected(svc Service) bool {
	return m.State(svc) == Connected
}

// LastError returns the reason of the most recent soft failure.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// HasToken reports whether a bearer token is held.
func (m *Manager) HasToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != nil
}

// IntegrationStatus returns which services are connected.
func (m *Manager) IntegrationStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Calendar: m.states[ServiceCalendar] == Connected,
		Mail:     m.states[ServiceMail] == Connected,
		Email:    m.email,
	}
}

// ConnectGoogle connects svc. A usable token that already carries the
// service's scopes connects immediately; otherwise a consent flow runs for
// exactly those scopes. Failure leaves the service Disconnected, records
// LastError and returns false.
func (m *Manager) ConnectGoogle(ctx context.Context, svc Service) bool {
	needed := Scopes(svc)

	m.mu.Lock()
	if m.usableLocked() && m.coversLocked(needed) {
		m.states[svc] = Connected
		m.persistLocked()
		m.mu.Unlock()
		return true
	}
	m.states[svc] = Authorizing
	m.mu.Unlock()

	tok, err := m.auth.Authorize(ctx, needed)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.states[svc] = Disconnected
		m.lastErr = fmt.Errorf("connect %s: %w", svc, err)
		m.logger.Warn("google authorization failed", "service", svc, "err", err)
		return false
	}

	m.setTokenLocked(tok, needed)
	m.states[svc] = Connected
	m.lastErr = nil
	m.persistLocked()
	m.logger.Info("google service connected", "service", svc)
	return true
}

// LoginWithGoogle requests every scope in one consent step and returns the
// user's profile. It returns nil when consent is cancelled or the profile
// cannot be fetched; LastError holds the reason.
func (m *Manager) LoginWithGoogle(ctx context.Context) *models.UserProfile {
	scopes := LoginScopes()

	m.mu.Lock()
	prev := make(map[Service]State, len(Services))
	for _, svc := range Services {
		prev[svc] = m.states[svc]
		m.states[svc] = Authorizing
	}
	m.mu.Unlock()

	fail := func(err error) *models.UserProfile {
		m.mu.Lock()
		defer m.mu.Unlock()
		for svc, st := range prev {
			m.states[svc] = st
		}
		m.lastErr = fmt.Errorf("login: %w", err)
		m.logger.Warn("google login failed", "err", err)
		return nil
	}

	tok, err := m.auth.Authorize(ctx, scopes)
	if err != nil {
		return fail(err)
	}

	m.mu.Lock()
	m.setTokenLocked(tok, scopes)
	m.persistLocked()
	m.mu.Unlock()

	if m.userInfo == nil {
		return fail(errors.New("no user info source configured"))
	}
	profile, err := m.userInfo.FetchUserInfo(ctx, m.clientFor(ctx, tok))
	if err != nil {
		return fail(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, svc := range Services {
		m.states[svc] = Connected
	}
	m.email = profile.Email
	m.lastErr = nil
	m.persistLocked()
	return profile
}

// DisconnectGoogle clears only the flag for svc. The shared token is kept.
func (m *Manager) DisconnectGoogle(svc Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[svc] = Disconnected
	m.persistLocked()
}

// Invalidate drops the token and disconnects every service. The provider
// issues one token for all scopes, so one rejection invalidates all of them.
func (m *Manager) Invalidate(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasConnected := m.token != nil
	m.token = nil
	m.granted = map[string]bool{}
	m.email = ""
	for _, svc := range Services {
		m.states[svc] = Disconnected
	}
	m.lastErr = fmt.Errorf("%w: %s", ErrInvalidated, reason)

	if m.tokens != nil {
		if err := m.tokens.Clear(); err != nil {
			m.logger.Warn("failed to clear stored session", "err", err)
		}
	}
	if wasConnected {
		m.logger.Warn("google session invalidated", "reason", reason)
	}
}

// Logout revokes the token at the provider and then invalidates the session.
// The session is cleared even when revocation fails; that error is returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	tok := m.token
	m.mu.Unlock()

	var revokeErr error
	if tok != nil && m.revoker != nil {
		if revokeErr = m.revoker.Revoke(ctx, tok); revokeErr != nil {
			m.logger.Warn("token revocation failed", "err", revokeErr)
		}
	}
	m.Invalidate("logout")
	return revokeErr
}

// HTTPClient returns a client that authenticates with the session token and
// invalidates the session on any 401 response.
func (m *Manager) HTTPClient(ctx context.Context) (*http.Client, error) {
	m.mu.Lock()
	tok := m.token
	m.mu.Unlock()

	if tok == nil {
		return nil, ErrNotConnected
	}
	return m.clientFor(ctx, tok), nil
}

func (m *Manager) clientFor(ctx context.Context, tok *oauth2.Token) *http.Client {
	base := m.base.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	src := oauth2.ReuseTokenSource(tok, &savingTokenSource{m: m, src: m.auth.TokenSource(ctx, tok)})

	return &http.Client{
		Timeout: m.base.Timeout,
		Transport: &unauthorizedTransport{
			base:           &oauth2.Transport{Source: src, Base: base},
			onUnauthorized: func() { m.Invalidate("provider returned 401") },
		},
	}
}

// usableLocked reports whether the token can authenticate, directly or after refresh.
func (m *Manager) usableLocked() bool {
	return m.token != nil && (m.token.Valid() || m.token.RefreshToken != "")
}

func (m *Manager) coversLocked(scopes []string) bool {
	for _, s := range scopes {
		if !m.granted[s] {
			return false
		}
	}
	return true
}

// setTokenLocked installs tok. Google only returns a refresh token on first
// consent, so an existing one is carried over.
func (m *Manager) setTokenLocked(tok *oauth2.Token, scopes []string) {
	if tok.RefreshToken == "" && m.token != nil {
		tok.RefreshToken = m.token.RefreshToken
	}
	m.token = tok
	for _, s := range scopes {
		m.granted[s] = true
	}
}

func (m *Manager) persistLocked() {
	if m.tokens == nil || m.token == nil {
		return
	}

	sess := &StoredSession{Token: m.token, Email: m.email}
	for s := range m.granted {
		sess.Scopes = append(sess.Scopes, s)
	}
	slices.Sort(sess.Scopes)
	for _, svc := range Services {
		if m.states[svc] == Connected {
			sess.Connected = append(sess.Connected, svc)
		}
	}

	if err := m.tokens.Save(sess); err != nil {
		m.logger.Warn("failed to save session", "err", err)
	}
}

// refreshed records a token obtained by refresh so the next run reuses it.
func (m *Manager) refreshed(tok *oauth2.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.token.AccessToken == tok.AccessToken {
		return
	}
	m.setTokenLocked(tok, nil)
	m.persistLocked()
}

// savingTokenSource reports refreshed tokens back to the manager.
type savingTokenSource struct {
	m   *Manager
	src oauth2.TokenSource
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.m.refreshed(tok)
	return tok, nil
}
