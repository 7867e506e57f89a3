// ABOUTME: Google user-info lookup and token revocation
// ABOUTME: Turns the identity endpoint response into a UserProfile
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/harperreed/bizcrm/models"
)

// GoogleUserInfo reads the profile from the userinfo endpoint.
type GoogleUserInfo struct {
	// Endpoint overrides the API base URL; empty uses Google.
	Endpoint string
}

func (g GoogleUserInfo) FetchUserInfo(ctx context.Context, client *http.Client) (*models.UserProfile, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return &models.UserProfile{
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		Email:     info.Email,
		Avatar:    info.Picture,
	}, nil
}

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// GoogleRevoker posts a token to the revocation endpoint.
type GoogleRevoker struct {
	URL    string
	Client *http.Client
}

func (g GoogleRevoker) Revoke(ctx context.Context, tok *oauth2.Token) error {
	endpoint := g.URL
	if endpoint == "" {
		endpoint = DefaultRevokeURL
	}
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	// Revoking the refresh token also revokes its access tokens.
	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}
	form := url.Values{"token": {value}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token revocation returned %s", resp.Status)
	}
	return nil
}
