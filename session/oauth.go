// ABOUTME: Loopback OAuth flow for Google APIs
// ABOUTME: Opens the consent page through the desktop bridge and waits for the redirect
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/harperreed/bizcrm/desktop"
	"github.com/harperreed/bizcrm/logging"
)

var (
	ErrNotConfigured  = errors.New("google OAuth credentials not configured. Set BIZCRM_GOOGLE_CLIENT_ID and BIZCRM_GOOGLE_CLIENT_SECRET")
	ErrConsentDenied  = errors.New("consent denied")
	ErrConsentTimeout = errors.New("timed out waiting for consent")
)

// DefaultConsentTimeout bounds how long the flow waits for the browser redirect.
const DefaultConsentTimeout = 5 * time.Minute

// OAuthAuthorizer runs the installed-app flow with a loopback redirect.
type OAuthAuthorizer struct {
	Config  *oauth2.Config
	Bridge  desktop.Bridge
	Port    int // 0 picks a free port
	Timeout time.Duration
	Logger  *log.Logger
}

// NewOAuthAuthorizer builds an authorizer for the Google endpoints.
func NewOAuthAuthorizer(clientID, clientSecret string, port int, bridge desktop.Bridge) *OAuthAuthorizer {
	return &OAuthAuthorizer{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
		},
		Bridge:  bridge,
		Port:    port,
		Timeout: DefaultConsentTimeout,
		Logger:  logging.Discard(),
	}
}

// TokenSource refreshes tok with the client credentials.
func (a *OAuthAuthorizer) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return a.Config.TokenSource(ctx, tok)
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Authorize opens the consent page for scopes and exchanges the returned code.
func (a *OAuthAuthorizer) Authorize(ctx context.Context, scopes []string) (*oauth2.Token, error) {
	if a.Config.ClientID == "" || a.Config.ClientSecret == "" {
		return nil, ErrNotConfigured
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	addr := ln.Addr().String()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := *a.Config
	cfg.Scopes = scopes
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/oauth/callback", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)
	send := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			send(callbackResult{err: errors.New("oauth state mismatch")})
			return
		}
		if reason := q.Get("error"); reason != "" {
			_, _ = fmt.Fprintf(w, "Authorization was not granted. You can close this window.")
			send(callbackResult{err: fmt.Errorf("%w: %s", ErrConsentDenied, reason)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			send(callbackResult{err: fmt.Errorf("no authorization code received")})
			return
		}

		token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
		if err != nil {
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			send(callbackResult{err: fmt.Errorf("failed to exchange code: %w", err)})
			return
		}
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
		send(callbackResult{token: token})
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			send(callbackResult{err: err})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := desktop.WaitFor(ctx, 5*time.Second, 25*time.Millisecond, listening(addr)); err != nil {
		return nil, fmt.Errorf("callback listener not ready: %w", err)
	}

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	if err := a.Bridge.OpenURL(authURL); err != nil {
		a.Logger.Warn("failed to open browser", "err", err)
		_ = desktop.NoopBridge{}.OpenURL(authURL)
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultConsentTimeout
	}
	select {
	case r := <-results:
		return r.token, r.err
	case <-time.After(timeout):
		return nil, ErrConsentTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func listening(addr string) func() bool {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}
