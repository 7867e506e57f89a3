// ABOUTME: HTTP transport that watches for token rejection
// ABOUTME: A 401 response is the only signal that the bearer token expired
package session

import "net/http"

type unauthorizedTransport struct {
	base           http.RoundTripper
	onUnauthorized func()
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		t.onUnauthorized()
	}
	return resp, err
}
