package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// CredentialProvider supplies the bearer token for each request.
// Implemented by StaticToken and FileToken.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token, typically from configuration.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("empty static token")
	}
	return string(t), nil
}

// FileToken reads the bearer token from a file on every request, so a
// rotated token is picked up without restarting.
type FileToken struct {
	Path string
}

func (t FileToken) Token(context.Context) (string, error) {
	raw, err := os.ReadFile(t.Path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", t.Path)
	}
	return token, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	// Body is the response body, truncated for logging.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the backend.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == http.StatusNotFound
	}
	return false
}

// Client talks to one ChefSync backend.
type Client struct {
	base  *url.URL
	http  *http.Client
	creds CredentialProvider
	log   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client. Tests use this to
// point at an httptest server with no timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithCredentials sets the bearer token source. Without one, requests go
// out unauthenticated.
func WithCredentials(creds CredentialProvider) ClientOption {
	return func(c *Client) { c.creds = creds }
}

// WithLogger sets the structured logger. Default is slog.Default.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the backend at baseURL, which must be
// absolute. The admin-management prefix is appended per request, so pass
// the server root (e.g. https://api.chefsync.example).
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Users returns the user-management service.
func (c *Client) Users() *UsersService { return &UsersService{c: c} }

// Orders returns the order-management service.
func (c *Client) Orders() *OrdersService { return &OrdersService{c: c} }

// Dashboard returns the dashboard service.
func (c *Client) Dashboard() *DashboardService { return &DashboardService{c: c} }

// Notifications returns the notification service.
func (c *Client) Notifications() *NotificationsService { return &NotificationsService{c: c} }

const apiPrefix = "/api/admin-management/"

// do performs one request against the admin-management API. path is
// relative to the admin prefix; body (if non-nil) is sent as JSON; the
// raw response body is returned for the caller to decode.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + apiPrefix + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("credentials: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.log.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(string(raw), 512),
		}
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	_, err := c.do(ctx, http.MethodPatch, path, nil, body)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
