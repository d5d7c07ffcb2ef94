package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes comparison-run metrics for Prometheus scraping.
// It starts an HTTP server that serves metrics at the configured path.
// Metrics include counters for runs/reports/red flags/errors, gauges for
// the best score and average risk, and a histogram of opportunity scores.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	logger   *slog.Logger
	opts     PrometheusOptions

	// Counters
	runsTotal     *prometheus.CounterVec
	reportsTotal  *prometheus.CounterVec
	redFlagsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec

	// Gauges
	bestScore          *prometheus.GaugeVec
	avgRiskScore       *prometheus.GaugeVec
	runDurationSeconds *prometheus.GaugeVec

	// Histograms
	opportunityScore *prometheus.HistogramVec

	// Internal tracking
	mu     sync.Mutex
	source string
	closed bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Port for the metrics server (default: 9090).
	Port int

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration

	// Logger for structured logging (default: slog.Default()).
	Logger *slog.Logger
}

// NewPrometheusHook creates a new Prometheus hook that exposes metrics at the configured endpoint.
// The metrics server starts immediately and runs until Close() is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	// Apply defaults
	if opts.Port == 0 {
		opts.Port = 9090
	}
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = duration.MetricsReadHeader
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = duration.WebhookTimeout
	}

	// Create custom registry (don't pollute default)
	registry := prometheus.NewRegistry()

	hook := &PrometheusHook{
		registry: registry,
		logger:   orDefault(opts.Logger),
		opts:     opts,
		source:   "unknown",
	}

	// Initialize metrics
	if err := hook.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Start HTTP server
	if err := hook.startServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}

	return hook, nil
}

// initMetrics creates and registers all Prometheus metrics.
func (h *PrometheusHook) initMetrics() error {
	// Counters
	h.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidlens_runs_total",
			Help: "Total number of comparison runs started",
		},
		[]string{"source", "operation"},
	)

	h.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidlens_reports_compared_total",
			Help: "Total number of reports ranked across runs",
		},
		[]string{"source"},
	)

	h.redFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidlens_red_flags_total",
			Help: "Total number of red flags seen on compared reports",
		},
		[]string{"source"},
	)

	h.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bidlens_errors_total",
			Help: "Total number of errors during comparison runs",
		},
		[]string{"source", "type"},
	)

	// Gauges
	h.bestScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bidlens_best_score",
			Help: "Composite score of the best opportunity in the last run (lower is better)",
		},
		[]string{"source"},
	)

	h.avgRiskScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bidlens_avg_risk_score",
			Help: "Average analyst risk score across the last compared set (0-10)",
		},
		[]string{"source"},
	)

	h.runDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bidlens_run_duration_seconds",
			Help: "Total comparison run duration in seconds",
		},
		[]string{"source"},
	)

	// Histograms
	h.opportunityScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bidlens_opportunity_score",
			Help:    "Composite opportunity score distribution (lower is better)",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500},
		},
		[]string{"source", "recommendation"},
	)

	// Register all metrics
	collectors := []prometheus.Collector{
		h.runsTotal,
		h.reportsTotal,
		h.redFlagsTotal,
		h.errorsTotal,
		h.bestScore,
		h.avgRiskScore,
		h.runDurationSeconds,
		h.opportunityScore,
	}

	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// startServer starts the HTTP server for metrics.
func (h *PrometheusHook) startServer() error {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	h.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", h.opts.Port),
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Warn("prometheus: metrics server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// OnEvent processes events and updates Prometheus metrics.
func (h *PrometheusHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		return h.handleStart(e)
	case *events.ResultEvent:
		return h.handleResult(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	default:
		return nil
	}
}

// handleStart latches the source label and counts the run.
// Result events carry no source info, so the label is remembered here.
func (h *PrometheusHook) handleStart(start *events.StartEvent) error {
	h.source = sourceLabel(start.Source)
	h.runsTotal.WithLabelValues(h.source, start.Operation).Inc()
	return nil
}

// handleResult processes result events and updates metrics.
func (h *PrometheusHook) handleResult(result *events.ResultEvent) error {
	h.reportsTotal.WithLabelValues(h.source).Inc()

	if n := result.Report.RedFlagCount(); n > 0 {
		h.redFlagsTotal.WithLabelValues(h.source).Add(float64(n))
	}

	rec := result.Report.Recommendation
	if rec == "" {
		rec = "UNRATED"
	}
	h.opportunityScore.WithLabelValues(h.source, rec).Observe(result.Score.Value)

	return nil
}

// handleError processes error events and updates metrics.
func (h *PrometheusHook) handleError(errEvent *events.ErrorEvent) error {
	h.errorsTotal.WithLabelValues(h.source, errEvent.ErrorType).Inc()
	return nil
}

// handleSummary processes summary events and updates final metrics.
func (h *PrometheusHook) handleSummary(summary *events.SummaryEvent) error {
	source := sourceLabel(summary.Source)
	if source == "unknown" {
		source = h.source
	}

	h.bestScore.WithLabelValues(source).Set(summary.Best.Score)
	h.avgRiskScore.WithLabelValues(source).Set(summary.Averages.Risk)
	h.runDurationSeconds.WithLabelValues(source).Set(summary.Timing.DurationSec)

	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeResult,
		events.EventTypeError,
		events.EventTypeSummary,
	}
}

// Close shuts down the metrics server and releases resources.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), duration.ShutdownGrace)
		defer cancel()
		return h.server.Shutdown(ctx)
	}

	return nil
}

// MetricsAddr returns the address where metrics are served.
// Useful for testing and logging.
func (h *PrometheusHook) MetricsAddr() string {
	return fmt.Sprintf("http://localhost:%d%s", h.opts.Port, h.opts.Path)
}

// sourceLabel renders a SourceInfo as a metric label: the host for
// service URLs, the detail verbatim for files, "unknown" when empty.
func sourceLabel(src events.SourceInfo) string {
	if src.Detail == "" {
		return "unknown"
	}
	if src.Kind == events.SourceService {
		return extractHost(src.Detail)
	}
	return src.Detail
}

// extractHost extracts the host from a URL for use as a metric label.
// Returns "unknown" if the URL is empty or malformed.
func extractHost(rawURL string) string {
	if rawURL == "" {
		return "unknown"
	}

	start := 0
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		start = idx + 3
	}

	// Host ends at the first path, query, or fragment separator
	end := len(rawURL)
	for i := start; i < len(rawURL); i++ {
		if rawURL[i] == '/' || rawURL[i] == '?' || rawURL[i] == '#' {
			end = i
			break
		}
	}

	host := rawURL[start:end]
	if host == "" {
		return "unknown"
	}
	return host
}
