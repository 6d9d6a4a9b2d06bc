package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

const tracerName = "github.com/donaldgifford/effluent-watch/internal/upstream"

// Client fetches snapshots from the plant monitoring API. It satisfies
// engine.SnapshotProvider.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	horizon time.Duration
	tracer  trace.Tracer
	log     *slog.Logger
	now     func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit caps outgoing requests. Every endpoint call waits on the
// limiter first.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithDefaultHorizon sets the horizon used when the forecast omits its
// timestamps.
func WithDefaultHorizon(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.horizon = d
		}
	}
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithClock overrides the time stamped on fetched snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for the plant API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		horizon: domain.DefaultHorizon,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// Snapshot fetches zone data, TMS values, the forecast and the plant flows.
// Zone and TMS failures fail the fetch. A failed forecast is logged and the
// snapshot falls back to measured values for every prediction; failed flows
// are logged and left nil.
func (c *Client) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.snapshot",
		trace.WithAttributes(attribute.String("upstream.base_url", c.baseURL)))
	defer span.End()

	var zones ZoneDataResponse
	if err := c.get(ctx, ZoneDataPath, &zones); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "zone data")
		return nil, fmt.Errorf("fetching zone data: %w", err)
	}

	var tms TMSResponse
	if err := c.get(ctx, TMSPath, &tms); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tms")
		return nil, fmt.Errorf("fetching tms data: %w", err)
	}

	var forecast *ForecastResponse
	var fr ForecastResponse
	if err := c.get(ctx, ForecastPath, &fr); err != nil {
		span.RecordError(err)
		c.log.Warn("forecast unavailable, using measured values", "error", err)
	} else {
		forecast = &fr
	}

	snap := BuildSnapshot(&zones, &tms, forecast, c.horizon, c.now())

	var ps ProcessStatusResponse
	if err := c.get(ctx, ProcessStatusPath, &ps); err != nil {
		c.log.Warn("process status unavailable", "error", err)
	} else {
		snap.Flows = ps.Flows()
	}

	span.SetAttributes(attribute.Int("upstream.zones", len(snap.Zones)))
	return snap, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(path, outcome).Inc()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plant API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}
