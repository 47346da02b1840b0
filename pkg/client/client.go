package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/allyplatform/ally-config/engine/configstore"
	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/pkg/logger"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = time.Minute

	tenantHeader = "X-Tenant-ID"
)

// Client fetches resolved configuration from the service with a local TTL
// cache in front. Fetches never fail the caller: a dead or slow server
// yields the last cached document, or the compiled-in defaults when nothing
// was ever fetched.
type Client struct {
	http     *resty.Client
	tenantID string
	cacheTTL time.Duration
	fallback document.Document

	mu        sync.RWMutex
	cached    document.Document
	fetchedAt time.Time
}

// Option customizes client construction.
type Option func(*Client)

// WithTenantID scopes every fetch to a tenant.
func WithTenantID(tenantID string) Option {
	return func(c *Client) { c.tenantID = tenantID }
}

// WithTimeout bounds each fetch round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// WithCacheTTL controls how long a fetched document is served locally
// before the next fetch.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithFallback replaces the compiled-in default document used when no
// fetch has ever succeeded.
func WithFallback(doc document.Document) Option {
	return func(c *Client) { c.fallback = doc }
}

// WithHTTPClient substitutes the underlying HTTP client, used by tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		timeout := c.http.GetClient().Timeout
		c.http = resty.NewWithClient(httpClient).SetBaseURL(base)
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// New creates a client against the service base URL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json").
			SetRetryCount(2).
			SetRetryWaitTime(100 * time.Millisecond).
			SetRetryMaxWaitTime(time.Second),
		cacheTTL: defaultCacheTTL,
		fallback: configstore.DefaultDocument(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
	Degraded bool            `json:"degraded"`
}

// Config returns the resolved document for this client's scope. The local
// cache is consulted first; a fetch failure falls back to the last cached
// document and finally to the fallback defaults.
func (c *Client) Config(ctx context.Context) document.Document {
	c.mu.RLock()
	cached, fetchedAt := c.cached, c.fetchedAt
	c.mu.RUnlock()
	if cached != nil && time.Since(fetchedAt) < c.cacheTTL {
		return cached
	}
	doc, err := c.fetch(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("configuration fetch failed, using fallback", "error", err)
		if cached != nil {
			return cached
		}
		return c.fallback.Clone()
	}
	c.mu.Lock()
	c.cached = doc
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return doc
}

// Section returns one top-level section of the resolved document.
func (c *Client) Section(ctx context.Context, name string) (document.Document, bool) {
	return c.Config(ctx).Section(name)
}

// Feature reports one feature flag. Unknown flags are false.
func (c *Client) Feature(ctx context.Context, name string) bool {
	features, ok := c.Section(ctx, "features")
	if !ok {
		return false
	}
	enabled, ok := features[name].(bool)
	return ok && enabled
}

// Purge drops the local cache so the next read fetches fresh.
func (c *Client) Purge() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context) (document.Document, error) {
	req := c.http.R().SetContext(ctx)
	if c.tenantID != "" {
		req.SetHeader(tenantHeader, c.tenantID)
	}
	resp, err := req.Get("/api/v1/config")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("configuration fetch returned status %d", resp.StatusCode())
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("decoding configuration response: %w", err)
	}
	var doc document.Document
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		return nil, fmt.Errorf("decoding configuration document: %w", err)
	}
	return doc, nil
}
