package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fintrack/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/fintrack/internal/auth"
	"github.com/vncsmyrnk/fintrack/internal/core/services"
	"github.com/vncsmyrnk/fintrack/internal/logging"
)

const testSecret = "test-secret"

type testOptions struct {
	revokeOnLogout bool
	rotate         bool
	limiter        ratelimit.Limiter
	now            func() time.Time
}

type testApp struct {
	server *httptest.Server
	store  *memory.Store
	tokens *auth.Issuer
}

func newTestApp(t *testing.T, opts testOptions) *testApp {
	t.Helper()

	now := opts.now
	if now == nil {
		now = time.Now
	}

	store := memory.NewStore()
	tokens := auth.NewIssuer(testSecret, auth.WithClock(now))
	log := logging.Nop()

	sessionSvc := services.NewSessionService(store.Sessions(), tokens,
		services.WithClock(now), services.WithRotation(opts.rotate))
	userSvc := services.NewUserService(store.Users(), sessionSvc, tokens, auth.NewBcryptHasher(4))

	cookies := SessionCookie{MaxAge: services.DefaultSessionTTL}
	handler := NewHandler(RouterConfig{
		Users:          NewUserHandler(userSvc, cookies, log),
		Auth:           NewAuthHandler(sessionSvc, cookies, opts.revokeOnLogout, log),
		Categories:     NewCategoryHandler(services.NewCategoryService(store.Categories()), log),
		PaymentMethods: NewPaymentMethodHandler(services.NewPaymentMethodService(store.PaymentMethods()), log),
		Transactions: NewTransactionHandler(
			services.NewTransactionService(store.Transactions(), store.Categories(), store.PaymentMethods()), log),
		Tokens:         tokens,
		LoginLimiter:   opts.limiter,
		Metrics:        prometheus.NewRegistry(),
		AllowedOrigins: []string{"https://app.example.com"},
		Log:            log,
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testApp{server: server, store: store, tokens: tokens}
}

type request struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
}

func (app *testApp) do(t *testing.T, req request) *http.Response {
	t.Helper()

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	r, err := http.NewRequest(req.method, app.server.URL+req.path, body)
	require.NoError(t, err)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}

	resp, err := app.server.Client().Do(r)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

// signup registers a user and logs in, returning the access token.
func (app *testApp) signup(t *testing.T, email string) string {
	t.Helper()

	resp := app.do(t, request{method: "POST", path: "/users", body: map[string]any{
		"name": "User", "email": email, "password": "password1",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, request{method: "POST", path: "/users/login", body: map[string]any{
		"email": email, "password": "password1",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[loginResponse](t, resp).Token
}
