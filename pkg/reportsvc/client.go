package reportsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/httpclient"
	"github.com/bidlens/bidlens/pkg/iohelper"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/retry"
	"github.com/bidlens/bidlens/pkg/ui"
	"github.com/bidlens/bidlens/pkg/workerpool"
)

// httpStatusError is a non-OK response outside the mapped sentinel
// modes (404, 429, 5xx). Permanent; never retried.
type httpStatusError struct {
	code int
	what string
	body string
}

func (e *httpStatusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("reportsvc: HTTP %d fetching %s: %s", e.code, e.what, e.body)
	}
	return fmt.Sprintf("reportsvc: HTTP %d fetching %s", e.code, e.what)
}

// isBatchUnsupported reports whether the batch endpoint itself is
// absent (405/501), as opposed to a failure resolving the ids.
func isBatchUnsupported(err error) bool {
	var se *httpStatusError
	return errors.As(err, &se) &&
		(se.code == http.StatusMethodNotAllowed || se.code == http.StatusNotImplemented)
}

// Config holds client configuration for the reporting service.
type Config struct {
	// BaseURL is the service root (default: defaults.ServiceBaseURL).
	BaseURL string

	// APIKey, when set, is sent as an Authorization bearer token. The
	// header stays confined to the service's origin across redirects.
	APIKey string

	// Timeout is the total per-request timeout (default: duration.HTTPFetch).
	Timeout time.Duration

	// RateLimit is the client-side request budget in requests/second.
	// 0 uses defaults.RateLimitMedium; negative disables limiting.
	RateLimit int

	// Retry overrides the fetch retry policy. Nil uses retry.DefaultConfig().
	Retry *retry.Config

	// Concurrency bounds the per-id fetch fan-out (default:
	// defaults.ConcurrencyLow).
	Concurrency int

	// PerID skips the batch endpoint and always fetches ids one by one,
	// for services without batch support.
	PerID bool

	// Proxy is an optional proxy URL (http, https, socks5).
	Proxy string

	// Insecure skips TLS certificate verification. Leave false except
	// against local dev instances with self-signed certificates.
	Insecure bool

	// HTTPClient overrides the constructed client (tests, custom
	// transports). When set, Timeout/Proxy/Insecure/APIKey are ignored.
	HTTPClient *http.Client
}

// Client is an HTTP client for the reporting service. It owns rate
// limiting and retries; cancellation is the caller's context. Safe for
// concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	retry       retry.Config
	concurrency int
	perID       bool
	logger      *slog.Logger

	// batchUnsupported latches once the service rejects the batch
	// endpoint, so later calls go straight to per-id fetches.
	batchUnsupported atomic.Bool
}

var _ Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a reporting-service client. Zero-value config
// fields fall back to the package defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.ServiceBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = duration.HTTPFetch
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaults.RateLimitMedium
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.ConcurrencyLow
	}

	rcfg := retry.DefaultConfig()
	if cfg.Retry != nil {
		rcfg = *cfg.Retry
	}

	client := cfg.HTTPClient
	if client == nil {
		hcfg := httpclient.DefaultConfig()
		hcfg.Timeout = cfg.Timeout
		hcfg.InsecureSkipVerify = cfg.Insecure
		hcfg.Proxy = cfg.Proxy
		if cfg.APIKey != "" {
			hcfg.AuthHeaders = http.Header{
				"Authorization": []string{"Bearer " + cfg.APIKey},
			}
		}
		client = httpclient.New(hcfg)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        client,
		limiter:     limiter,
		retry:       rcfg,
		concurrency: cfg.Concurrency,
		perID:       cfg.PerID,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every report the service knows about.
func (c *Client) List(ctx context.Context) ([]bidreport.Report, error) {
	var reports []bidreport.Report
	err := c.getJSON(ctx, c.baseURL+"/api/reports", uuid.NewString(), "report listing", &reports)
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Report fetches a single report by id.
func (c *Client) Report(ctx context.Context, id int) (*bidreport.Report, error) {
	return c.report(ctx, id, uuid.NewString())
}

func (c *Client) report(ctx context.Context, id int, reqID string) (*bidreport.Report, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, id)
	}
	var rep bidreport.Report
	url := fmt.Sprintf("%s/api/reports/%d", c.baseURL, id)
	if err := c.getJSON(ctx, url, reqID, fmt.Sprintf("report %d", id), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ReportsByID resolves ids in the given order via one batch request
// (GET /api/reports?ids=...). Services that ignore the ids parameter
// still work: the requested ids are picked out of whatever came back.
// Services that reject the endpoint (405/501) are latched into per-id
// mode, fetched concurrently through the worker pool.
func (c *Client) ReportsByID(ctx context.Context, ids []int) ([]bidreport.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqID := uuid.NewString()
	if c.perID || c.batchUnsupported.Load() {
		return c.fetchEach(ctx, ids, reqID)
	}

	var fetched []bidreport.Report
	url := c.baseURL + "/api/reports?ids=" + joinIDs(ids, ",")
	err := c.getJSON(ctx, url, reqID, "report batch", &fetched)
	if isBatchUnsupported(err) {
		c.batchUnsupported.Store(true)
		c.logger.Debug("batch endpoint unsupported, fetching per id",
			slog.String("request_id", reqID))
		return c.fetchEach(ctx, ids, reqID)
	}
	if err != nil {
		return nil, err
	}
	return selectByID(fetched, ids)
}

// fetchResult pairs one per-id fetch with its outcome.
type fetchResult struct {
	report *bidreport.Report
	err    error
}

// fetchEach fans the ids out over a bounded worker pool, one GET per
// id. Map preserves input order, so the result order matches ids.
func (c *Client) fetchEach(ctx context.Context, ids []int, reqID string) ([]bidreport.Report, error) {
	pool := workerpool.New(min(c.concurrency, len(ids)))
	defer pool.Close()

	results := workerpool.Map(pool, ids, func(id int) fetchResult {
		rep, err := c.report(ctx, id, reqID)
		return fetchResult{report: rep, err: err}
	})

	out := make([]bidreport.Report, 0, len(ids))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, *r.report)
	}
	return out, nil
}

// getJSON issues a rate-limited, retried GET and decodes the response
// into v. what names the resource for error messages ("report 42").
// The correlation id is reused across retry attempts so the service
// can tie them together.
func (c *Client) getJSON(ctx context.Context, url, reqID, what string, v any) error {
	return retry.Do(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Stop(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Stop(fmt.Errorf("reportsvc: building request: %w", err))
		}
		req.Header.Set("Accept", defaults.AcceptJSON)
		req.Header.Set("User-Agent", ui.UserAgent())
		req.Header.Set(defaults.HeaderRequestID, reqID)

		resp, err := c.http.Do(req)
		if err != nil {
			// Transport failures are retryable; classification tags
			// DNS/TLS/proxy modes for the caller.
			return httpclient.Classify(err)
		}
		defer iohelper.DrainAndClose(resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode == http.StatusNotFound:
			return retry.Stop(fmt.Errorf("%w: %s", ErrNotFound, what))
		case resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented:
			// 501 is excluded: a missing endpoint is permanent, not
			// a transient outage.
			return fmt.Errorf("%w: HTTP %d fetching %s", ErrServiceUnavailable, resp.StatusCode, what)
		default:
			body, _ := iohelper.ReadBodySmall(resp.Body)
			return retry.Stop(&httpStatusError{
				code: resp.StatusCode,
				what: what,
				body: strings.TrimSpace(string(body)),
			})
		}

		body, err := iohelper.ReadBody(resp.Body, int64(defaults.BufferMax))
		if err != nil {
			return fmt.Errorf("reportsvc: reading %s: %w", what, err)
		}
		if err := jsonutil.Unmarshal(body, v); err != nil {
			return retry.Stop(fmt.Errorf("%w: %s: %v", ErrDecode, what, err))
		}
		return nil
	})
}
