// Package backend is the shared JSON transport for the catalogue services.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinedeck/cinedeck/internal/catalog"
	"github.com/cinedeck/cinedeck/internal/endpoint"
	"github.com/cinedeck/cinedeck/internal/observability"
)

const maxBodyBytes = 32 << 20

// DefaultForwardOrigin is where relative service URLs are sent.
const DefaultForwardOrigin = "http://localhost:3000"

// Config configures the transport.
type Config struct {
	// ForwardOrigin is the origin of the forwarding layer used for services
	// without a base URL.
	ForwardOrigin string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client performs GET requests against the catalogue services.
type Client struct {
	httpClient *http.Client
	resolver   *endpoint.Resolver
	origin     *url.URL
	logger     zerolog.Logger
}

// NewClient creates a new backend client.
func NewClient(cfg Config, resolver *endpoint.Resolver, logger zerolog.Logger) (*Client, error) {
	origin := strings.TrimSpace(cfg.ForwardOrigin)
	if origin == "" {
		origin = DefaultForwardOrigin
	}
	parsed, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse forward origin: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("forward origin %q must be absolute", origin)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		resolver: resolver,
		origin:   parsed,
		logger:   logger.With().Str("component", "backend").Logger(),
	}, nil
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(httpClient *http.Client, resolver *endpoint.Resolver, forwardOrigin string, logger zerolog.Logger) (*Client, error) {
	c, err := NewClient(Config{ForwardOrigin: forwardOrigin}, resolver, logger)
	if err != nil {
		return nil, err
	}
	c.httpClient = httpClient
	return c, nil
}

// Resolver returns the endpoint resolver used by the client.
func (c *Client) Resolver() *endpoint.Resolver {
	return c.resolver
}

// ForwardOrigin returns the origin relative service URLs are sent to.
func (c *Client) ForwardOrigin() string {
	return c.origin.String()
}

// Ping fetches path on svc and discards the body.
func (c *Client) Ping(ctx context.Context, svc endpoint.Service, path string, query url.Values) error {
	_, _, err := c.fetch(ctx, svc, path, query)
	return err
}

// URL returns the absolute URL dialled for path on svc.
func (c *Client) URL(svc endpoint.Service, path string, query url.Values) string {
	raw := c.resolver.URL(svc, path)
	if !c.resolver.Direct(svc) {
		raw = c.origin.String() + raw
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		raw += sep + query.Encode()
	}
	return raw
}

// GetJSON fetches path and decodes a JSON object into out.
func (c *Client) GetJSON(ctx context.Context, svc endpoint.Service, path string, query url.Values, out any) error {
	reqURL, body, err := c.fetch(ctx, svc, path, query)
	if err != nil {
		return err
	}
	if b := bytes.TrimSpace(body); len(b) == 0 || b[0] != '{' {
		return fmt.Errorf("%w: %s: expected an object", ErrPayload, reqURL)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPayload, reqURL, err)
	}
	return nil
}

// GetList fetches path and decodes a JSON array of objects. Elements that are
// not objects are skipped and logged.
func GetList[T any](ctx context.Context, c *Client, svc endpoint.Service, path string, query url.Values) ([]T, error) {
	reqURL, body, err := c.fetch(ctx, svc, path, query)
	if err != nil {
		return nil, err
	}
	items, skipped, err := catalog.DecodeList[T](body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPayload, reqURL, err)
	}
	if skipped > 0 {
		c.logger.Warn().
			Str("service", string(svc)).
			Str("url", reqURL).
			Int("skipped", skipped).
			Msg("Skipped malformed list entries")
	}
	return items, nil
}

func (c *Client) fetch(ctx context.Context, svc endpoint.Service, path string, query url.Values) (string, []byte, error) {
	reqURL := c.URL(svc, path, query)
	start := time.Now()
	defer func() {
		observability.UpstreamDuration.WithLabelValues(string(svc)).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return reqURL, nil, &RequestError{Service: svc, URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("service", string(svc)).Str("url", reqURL).Msg("Requesting catalogue service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome := observability.OutcomeError
		if ctx.Err() != nil {
			outcome = observability.OutcomeCancelled
			err = ctx.Err()
		}
		observability.UpstreamRequests.WithLabelValues(string(svc), outcome).Inc()
		return reqURL, nil, &RequestError{Service: svc, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		outcome := observability.OutcomeError
		if resp.StatusCode == http.StatusNotFound {
			outcome = observability.OutcomeNotFound
		}
		observability.UpstreamRequests.WithLabelValues(string(svc), outcome).Inc()
		return reqURL, nil, &StatusError{Service: svc, URL: reqURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome := observability.OutcomeError
		if ctx.Err() != nil {
			outcome = observability.OutcomeCancelled
			err = ctx.Err()
		}
		observability.UpstreamRequests.WithLabelValues(string(svc), outcome).Inc()
		return reqURL, nil, &RequestError{Service: svc, URL: reqURL, Err: err}
	}

	observability.UpstreamRequests.WithLabelValues(string(svc), observability.OutcomeOK).Inc()
	return reqURL, body, nil
}
