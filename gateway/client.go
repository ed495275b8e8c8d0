package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ieltsline/admincore/credstore"
)

// TokenEntryName is the credential entry the auth decorator reads. It must
// match the name the session manager writes on login.
const TokenEntryName = "access_token"

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the platform API. Message carries the
// server's JSON "message" field when one was present, otherwise the raw
// status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into an *APIError when it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Decorator mutates an outbound request before it is sent. Decorators are
// composed in order; later decorators see earlier decorators' headers.
type Decorator func(*http.Request)

// BearerAuth returns the decorator that reads the current token from creds
// and sets the Authorization header. An absent token leaves the request
// unauthenticated; the server is responsible for rejecting it.
func BearerAuth(creds credstore.Store) Decorator {
	return func(req *http.Request) {
		if tok, ok := creds.Read(TokenEntryName); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}

// RequestID stamps each call with a fresh X-Request-ID for server-side
// correlation.
func RequestID() Decorator {
	return func(req *http.Request) {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
}

// Config holds the fixed client parameters.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/v1.
	BaseURL string
	// Timeout bounds each call end to end. Zero means 30s.
	Timeout time.Duration
	// UserAgent overrides the default admincore user agent when non-empty.
	UserAgent string
}

// Client is the shared API client. Construct it once with [NewClient] and
// hand it to every feature module.
type Client struct {
	base           *url.URL
	http           *http.Client
	userAgent      string
	decorators     []Decorator
	onUnauthorized func()
}

// Option customizes a [Client] at construction time.
type Option func(*Client)

// WithDecorator appends an extra request decorator after the built-in ones.
func WithDecorator(d Decorator) Option {
	return func(c *Client) {
		c.decorators = append(c.decorators, d)
	}
}

// WithOnUnauthorized installs a hook invoked whenever the API answers 401.
// The hook runs before the error returns to the caller; the session manager
// uses it to purge credentials when a token expires mid-session.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient builds the shared client. creds is read on every outbound call;
// it is the same store the session manager writes.
func NewClient(cfg Config, creds credstore.Store, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("gateway base URL must be http or https")
	}
	if creds == nil {
		return nil, errors.New("credential store required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "admincore/1"
	}

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		decorators: []Decorator{
			BearerAuth(creds),
			RequestID(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Secure reports whether the client talks over encrypted transport. The
// credential factory uses it to mark entries Secure.
func (c *Client) Secure() bool {
	return c.base.Scheme == "https"
}

// Get issues a GET for path with optional query parameters, decoding the
// response body into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u, err := c.resolve(path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, decorate := range c.decorators {
		decorate(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}

	base := *c.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(ref), nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	}
	return apiErr
}
