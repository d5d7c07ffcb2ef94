// Package hooks provides event hooks for real-time integrations.
// Hooks are called while a comparison run executes to send events to
// external systems such as webhooks, Prometheus, and OpenTelemetry
// collectors, and to archive finished runs into local history.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/httpclient"
	"github.com/bidlens/bidlens/pkg/iohelper"
	"github.com/bidlens/bidlens/pkg/jsonutil"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*WebhookHook)(nil)

// WebhookHook sends events to an HTTP endpoint.
// It supports retries with exponential backoff, custom headers,
// and filtering by event type or risk score.
type WebhookHook struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	opts     WebhookOptions
}

// WebhookOptions configures the webhook hook behavior.
type WebhookOptions struct {
	// Headers to include in requests.
	Headers map[string]string

	// Timeout for HTTP requests (default: 10s).
	Timeout time.Duration

	// RetryCount for failed requests (default: 3).
	RetryCount int

	// BestOnly only sends the best-opportunity result event.
	BestOnly bool

	// MinRiskScore skips result events for reports below this risk
	// score. Zero sends everything; non-result events always pass.
	MinRiskScore float64

	// Logger for structured logging (default: slog.Default()).
	Logger *slog.Logger
}

// NewWebhookHook creates a new webhook hook that sends events to the given endpoint.
// The hook is safe for concurrent use.
func NewWebhookHook(endpoint string, opts WebhookOptions) *WebhookHook {
	// Apply defaults
	if opts.Timeout == 0 {
		opts.Timeout = duration.WebhookTimeout
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = defaults.RetryMedium
	}

	return &WebhookHook{
		endpoint: endpoint,
		client:   httpclient.New(httpclient.Config{Timeout: opts.Timeout}),
		logger:   orDefault(opts.Logger),
		opts:     opts,
	}
}

// OnEvent sends the event to the configured webhook endpoint.
// It returns nil on success or if the event should be skipped.
// Delivery failures are logged but never block the run.
func (h *WebhookHook) OnEvent(ctx context.Context, event events.Event) error {
	// Apply BestOnly filter
	if h.opts.BestOnly && !isBestResult(event) {
		return nil
	}

	// Apply MinRiskScore filter
	if h.opts.MinRiskScore > 0 && !h.meetsMinRisk(event) {
		return nil
	}

	// Serialize event to JSON
	body, err := jsonutil.Marshal(event)
	if err != nil {
		h.logger.Warn("webhook: failed to marshal event", slog.String("error", err.Error()))
		return nil // Don't block the run on serialization errors
	}

	// Send with retries
	if err := h.sendWithRetry(ctx, event.EventType(), body); err != nil {
		h.logger.Warn("webhook: failed to send event after retries",
			slog.String("endpoint", h.endpoint),
			slog.String("event_type", string(event.EventType())),
			slog.String("error", err.Error()))
		return nil // Don't block the run on webhook failures
	}

	return nil
}

// EventTypes returns nil to receive all event types.
// Filtering is done in OnEvent based on options.
func (h *WebhookHook) EventTypes() []events.EventType {
	return nil
}

// isBestResult reports whether the event is the winning result of a run.
func isBestResult(event events.Event) bool {
	re, ok := event.(*events.ResultEvent)
	return ok && re.Score.Best
}

// meetsMinRisk checks if the event meets the minimum risk threshold.
// Non-result events pass through untouched.
func (h *WebhookHook) meetsMinRisk(event events.Event) bool {
	re, ok := event.(*events.ResultEvent)
	if !ok {
		return true
	}
	return re.Report.RiskScore >= h.opts.MinRiskScore
}

// sendWithRetry sends the request with exponential backoff retries.
func (h *WebhookHook) sendWithRetry(ctx context.Context, eventType events.EventType, body []byte) error {
	var lastErr error

	for attempt := 0; attempt < h.opts.RetryCount; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		// Set headers
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", defaults.UserAgent(""))
		req.Header.Set("X-BidLens-Event-Type", string(eventType))

		for key, value := range h.opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		status := resp.StatusCode
		_ = iohelper.DrainAndClose(resp.Body)

		// Success
		if status >= 200 && status < 300 {
			return nil
		}

		// Retry on 5xx errors
		if status >= 500 {
			lastErr = fmt.Errorf("server error: %d", status)
			continue
		}

		// Don't retry on 4xx errors
		return fmt.Errorf("client error: %d", status)
	}

	return lastErr
}
