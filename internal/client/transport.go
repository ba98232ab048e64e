package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// ErrSessionExpired is returned by the refresh call when the server no longer
// accepts the refresh cookie.
var ErrSessionExpired = errors.New("session expired")

type retriedKey struct{}

// RefreshTransport adds the bearer token to every request. When a request
// gets a 401 it refreshes the access token once through the cookie jar and
// replays the request. A second 401 is returned as is.
type RefreshTransport struct {
	// Base performs the requests. http.DefaultTransport when nil.
	Base http.RoundTripper
	// Jar holds the refreshToken cookie.
	Jar http.CookieJar
	// RefreshURL is the absolute URL of POST /users/refresh-token.
	RefreshURL string
	// OnSessionExpired runs after a failed refresh, once the stored token has
	// been discarded.
	OnSessionExpired func()
	// Skip lists paths that never trigger a refresh, such as the login call.
	Skip []string

	mu    sync.RWMutex
	token string
}

func (t *RefreshTransport) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *RefreshTransport) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

func (t *RefreshTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RefreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token := t.Token(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || t.skip(req) {
		return resp, err
	}
	if retried, _ := req.Context().Value(retriedKey{}).(bool); retried {
		return resp, nil
	}

	// The body was consumed by the first attempt.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}

	token, rerr := t.refresh(req.Context())
	if rerr != nil {
		t.SetToken("")
		if t.OnSessionExpired != nil {
			t.OnSessionExpired()
		}
		return resp, nil
	}
	t.SetToken(token)

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	ctx := context.WithValue(req.Context(), retriedKey{}, true)
	replay := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		replay.Body = body
	}
	replay.Header.Set("Authorization", "Bearer "+token)

	return t.RoundTrip(replay)
}

func (t *RefreshTransport) skip(req *http.Request) bool {
	if u, err := url.Parse(t.RefreshURL); err == nil && u.Path == req.URL.Path {
		return true
	}
	for _, p := range t.Skip {
		if req.URL.Path == p {
			return true
		}
	}
	return false
}

// refresh calls the refresh endpoint. It goes through Base directly, so the
// refresh call itself is never intercepted.
func (t *RefreshTransport) refresh(ctx context.Context) (string, error) {
	c := &http.Client{Transport: t.base(), Jar: t.Jar}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.RefreshURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrSessionExpired
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("refresh: decode: %w", err)
	}
	if body.Token == "" {
		return "", ErrSessionExpired
	}
	return body.Token, nil
}
