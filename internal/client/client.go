// Package client talks to the fintrack HTTP API. Requests carry the access
// token and transparently refresh it through RefreshTransport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/vncsmyrnk/fintrack/internal/core/domain"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL   string
	http      *http.Client
	transport *RefreshTransport
}

type Option func(*Client)

// WithBaseTransport sets the transport under the refresh interceptor.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport.Base = rt }
}

// WithSessionExpired sets the hook run when the session can no longer be
// refreshed.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) { c.transport.OnSessionExpired = fn }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	transport := &RefreshTransport{
		Jar:        jar,
		RefreshURL: baseURL + "/users/refresh-token",
		Skip:       []string{"/users/login", "/users"},
	}
	c := &Client{
		baseURL:   baseURL,
		transport: transport,
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the current access token.
func (c *Client) Token() string { return c.transport.Token() }

func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	var user domain.User
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.User, error) {
	var out struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	body := map[string]any{"email": email, "password": password, "rememberMe": rememberMe}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &out); err != nil {
		return nil, err
	}
	c.transport.SetToken(out.Token)
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil)
	c.transport.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Summary(ctx context.Context) (*domain.Summary, error) {
	var summary domain.Summary
	if err := c.do(ctx, http.MethodGet, "/transactions/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (*domain.Category, error) {
	var category domain.Category
	body := map[string]string{"name": name, "color": color}
	if err := c.do(ctx, http.MethodPost, "/categories", body, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) CreatePaymentMethod(ctx context.Context, name string) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod
	if err := c.do(ctx, http.MethodPost, "/payment-methods", map[string]string{"name": name}, &method); err != nil {
		return nil, err
	}
	return &method, nil
}

// NewTransaction is the body of POST /transactions. Date is either RFC 3339
// or YYYY-MM-DD.
type NewTransaction struct {
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
	Date            string  `json:"date"`
	CategoryID      int64   `json:"categoryId"`
	PaymentMethodID int64   `json:"paymentMethodId"`
}

func (c *Client) CreateTransaction(ctx context.Context, in NewTransaction) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/transactions/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
