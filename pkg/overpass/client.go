package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/trailscan/brunnels/pkg/core"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/monitoring"
	"github.com/trailscan/brunnels/pkg/tracing"
)

const (
	// DefaultBaseURL is the public Overpass API interpreter endpoint
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// DefaultUserAgent is the default User-Agent string
	DefaultUserAgent = "brunnels/0.1.0"

	// DefaultQueryTimeout is the server-side query timeout in seconds
	DefaultQueryTimeout = 25

	// maxResponseSize caps how much of an Overpass response we will read
	maxResponseSize = 100 << 20 // 100 MB
)

// ClientOptions configures an Overpass client.
type ClientOptions struct {
	BaseURL      string
	UserAgent    string
	QueryTimeout int     // server-side timeout in seconds
	RatePerSec   float64 // requests per second
	Burst        int
	CacheSize    int
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client fetches bridge and tunnel ways from the Overpass API. Requests are
// rate limited, retried with exponential backoff and cached by query text.
type Client struct {
	baseURL      string
	userAgent    string
	queryTimeout int
	limiter      *rate.Limiter
	cache        *queryCache
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a client, filling unset options with defaults.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = DefaultHTTPClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:      opts.BaseURL,
		userAgent:    opts.UserAgent,
		queryTimeout: opts.QueryTimeout,
		limiter:      rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		cache:        newQueryCache(opts.CacheSize),
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger.With("component", "overpass"),
	}
}

// FetchBrunnels returns all bridge and tunnel ways with full geometry within
// the given bounding box.
func (c *Client) FetchBrunnels(ctx context.Context, box geo.BoundingBox) ([]Element, error) {
	query := BrunnelQuery(box, c.queryTimeout)
	return c.Query(ctx, query)
}

// Query executes a raw Overpass QL query and returns the parsed elements.
func (c *Client) Query(ctx context.Context, query string) ([]Element, error) {
	ctx, span := tracing.StartSpan(ctx, "overpass.query",
		trace.WithAttributes(
			attribute.String(tracing.AttrServiceName, tracing.ServiceOverpass),
			attribute.String(tracing.AttrServiceURL, c.baseURL),
			attribute.Int("overpass.query_length", len(query)),
		),
	)
	defer span.End()

	if elements, ok := c.cache.get(query); ok {
		span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
		c.logger.Debug("overpass cache hit", "elements", len(elements))
		return elements, nil
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))

	if err := c.waitForRateLimit(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limit wait cancelled")
		return nil, err
	}

	factory := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(query))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		return req, nil
	}

	start := time.Now()
	resp, err := WithRetryFactory(ctx, factory, c.httpClient, DefaultRetryOptions)
	monitoring.RecordExternalServiceRequest(tracing.ServiceOverpass, "query", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, core.NewError(core.ErrNetworkError, "failed to read Overpass response").
			WithGuidance("The connection dropped mid-response. Please try again")
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		tracing.RecordError(ctx, err)
		return nil, core.Errorf(core.ErrParseError, "invalid Overpass response: %v", err).
			WithGuidance("The API returned malformed JSON, possibly an HTML error page. Try again later")
	}

	span.SetAttributes(attribute.Int("overpass.element_count", len(parsed.Elements)))
	c.logger.Info("overpass query complete",
		"elements", len(parsed.Elements),
		"bytes", len(body),
		"duration", time.Since(start))

	c.cache.add(query, parsed.Elements)
	return parsed.Elements, nil
}

// waitForRateLimit blocks until the limiter admits a request or the context
// is cancelled.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}

	startWait := time.Now()
	tracing.AddEvent(ctx, "rate_limit_wait",
		trace.WithAttributes(
			attribute.String(tracing.AttrRateLimitService, tracing.ServiceOverpass),
		),
	)
	monitoring.RecordRateLimitExceeded(tracing.ServiceOverpass)

	err := c.limiter.Wait(ctx)

	waitDuration := time.Since(startWait)
	monitoring.RecordRateLimitWait(tracing.ServiceOverpass, waitDuration)
	tracing.SetAttributes(ctx,
		attribute.String(tracing.AttrRateLimitService, tracing.ServiceOverpass),
		attribute.Int64(tracing.AttrRateLimitWaitMs, waitDuration.Milliseconds()),
	)

	return err
}

// CheckHealth checks if the Overpass API is available.
func (c *Client) CheckHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create overpass health check request: %w", err)
	}
	req.URL.RawQuery = "data=[out:json];out meta;"
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("overpass health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("overpass health check returned status %d", resp.StatusCode)
	}
	return nil
}
