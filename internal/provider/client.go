package provider

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://backend.omnidim.io/api/v1"

	defaultAttemptTimeout    = 10 * time.Second
	defaultOperationDeadline = 90 * time.Second
	maxResponseBodySize      = 4 << 20 // 4MB
)

// ErrMissingAPIKey is returned by NewClient when no bearer token is supplied.
var ErrMissingAPIKey = errors.New("provider API key is required")

// Doer sends a single HTTP request. *http.Client satisfies it; tests swap in fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the conversational-AI provider. It holds no state between
// operations: every call rediscovers endpoints from scratch.
type Client struct {
	apiKey            string
	baseURL           string
	httpClient        Doer
	attemptTimeout    time.Duration
	operationDeadline time.Duration
	logger            *slog.Logger
	tracer            trace.Tracer
	now               func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different provider root (tests, staging).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.httpClient = d
		}
	}
}

// WithTimeouts sets the per-attempt timeout and the overall per-operation deadline.
// Zero values keep the defaults.
func WithTimeouts(attempt, operation time.Duration) Option {
	return func(c *Client) {
		if attempt > 0 {
			c.attemptTimeout = attempt
		}
		if operation > 0 {
			c.operationDeadline = operation
		}
	}
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now, used for mock identifiers.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a provider client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:            apiKey,
		baseURL:           DefaultBaseURL,
		httpClient:        &http.Client{},
		attemptTimeout:    defaultAttemptTimeout,
		operationDeadline: defaultOperationDeadline,
		logger:            slog.Default(),
		tracer:            otel.Tracer("github.com/interviewace/interviewace/internal/provider"),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the provider root every endpoint path is joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// MaskedAPIKey returns a prefix of the bearer token suitable for diagnostics.
func (c *Client) MaskedAPIKey() string {
	const keep = 20
	if len(c.apiKey) <= keep {
		return c.apiKey[:len(c.apiKey)/2] + "..."
	}
	return c.apiKey[:keep] + "..."
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}

// mockID builds the placeholder identifier used when an operation is exhausted.
func (c *Client) mockID(tag string) string {
	return tag + "_" + formatMillis(c.now())
}
