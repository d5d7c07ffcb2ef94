package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/duration"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// OTelHook exports run telemetry to an OpenTelemetry collector.
// It creates one root span per comparison run and records ranked
// reports as span events with attributes.
type OTelHook struct {
	opts           OTelOptions
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	// Active span tracking
	mu       sync.Mutex
	rootSpan trace.Span
	rootCtx  context.Context
	closed   bool

	// Run metadata for attributes
	runID     string
	source    string
	startTime time.Time
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// ServiceName is the service name for traces (default: "bidlens").
	ServiceName string

	// Insecure uses insecure connection (no TLS).
	Insecure bool

	// Headers contains additional headers for the OTLP exporter.
	Headers map[string]string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 5s).
	ShutdownTimeout time.Duration

	// ConnectionTimeout is the timeout for establishing connection (default: 10s).
	ConnectionTimeout time.Duration
}

// NewOTelHook creates a new OpenTelemetry hook that exports telemetry to the configured endpoint.
// The exporter connects immediately but handles connection failures gracefully without blocking runs.
func NewOTelHook(opts OTelOptions) (*OTelHook, error) {
	// Apply defaults
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4317"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = duration.ShutdownGrace
	}
	if opts.ConnectionTimeout == 0 {
		opts.ConnectionTimeout = duration.OTelConnect
	}

	// Build gRPC options
	grpcOpts := []grpc.DialOption{}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	// Build exporter options
	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
		otlptracegrpc.WithDialOption(grpcOpts...),
	}

	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	// Create exporter with context timeout for connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectionTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, err
	}

	// Create resource with service info (avoid merging with Default to prevent schema conflicts)
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "engine"),
	)

	// Create tracer provider with batch processor for efficiency
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set as global provider
	otel.SetTracerProvider(tracerProvider)

	hook := &OTelHook{
		opts:           opts,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer("bidlens/engine"),
		startTime:      time.Now(),
	}

	return hook, nil
}

// OnEvent processes events and exports telemetry to the OpenTelemetry collector.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		return h.handleStart(ctx, e)
	case *events.ResultEvent:
		return h.handleResult(e)
	case *events.ErrorEvent:
		return h.handleError(e)
	case *events.SummaryEvent:
		return h.handleSummary(e)
	case *events.CompleteEvent:
		return h.handleComplete(e)
	default:
		return nil
	}
}

// handleStart creates the root span for the run.
func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) error {
	h.runID = start.RunID()
	h.source = sourceLabel(start.Source)
	h.startTime = start.Timestamp()

	spanName := "bidlens.run"
	if start.Operation != "" {
		spanName = "bidlens." + start.Operation
	}

	// Create root span for the entire run
	spanCtx, span := h.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("run_id", h.runID),
			attribute.String("operation", start.Operation),
			attribute.String("source.kind", string(start.Source.Kind)),
			attribute.String("source.detail", start.Source.Detail),
			attribute.IntSlice("report_ids", start.ReportIDs),
			attribute.Int("selection_size", start.SelectionSize),
			attribute.Int("concurrency", start.Config.Concurrency),
			attribute.Int("timeout_sec", start.Config.Timeout),
			attribute.String("filter", start.Config.Filter),
			attribute.StringSlice("exports", start.Config.Exports),
		),
	)

	h.rootSpan = span
	h.rootCtx = spanCtx

	// Add span event for run start
	span.AddEvent("run_started", trace.WithAttributes(
		attribute.String("source", h.source),
		attribute.Int("selection_size", start.SelectionSize),
	))

	return nil
}

// handleResult records ranked reports as span events with detailed attributes.
func (h *OTelHook) handleResult(result *events.ResultEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	eventName := "report_ranked"
	if result.Score.Best {
		eventName = "best_opportunity"
	}

	h.rootSpan.AddEvent(eventName, trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.Int("report_id", result.Report.ID),
		attribute.String("project", result.Report.Project),
		attribute.Int("rank", result.Score.Rank),
		attribute.Float64("score", result.Score.Value),
		attribute.Bool("best", result.Score.Best),
		attribute.Float64("risk_score", result.Report.RiskScore),
		attribute.String("risk_level", result.Report.RiskLevel),
		attribute.String("recommendation", result.Report.Recommendation),
		attribute.Int("red_flags", result.Report.RedFlagCount()),
	))

	return nil
}

// handleError records run errors on the root span.
func (h *OTelHook) handleError(errEvent *events.ErrorEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	h.rootSpan.AddEvent("run_error", trace.WithAttributes(
		attribute.String("run_id", h.runID),
		attribute.String("source", errEvent.Source),
		attribute.String("error_type", errEvent.ErrorType),
		attribute.String("message", errEvent.Message),
		attribute.Bool("fatal", errEvent.Fatal),
	))

	if errEvent.Fatal {
		h.rootSpan.SetStatus(codes.Error, errEvent.Message)
	}

	return nil
}

// handleSummary adds summary attributes to the root span.
func (h *OTelHook) handleSummary(summary *events.SummaryEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	// Add comprehensive summary attributes to root span
	h.rootSpan.SetAttributes(
		attribute.String("source.kind", string(summary.Source.Kind)),
		attribute.String("source.detail", summary.Source.Detail),
		attribute.Int("totals.reports", summary.Totals.Reports),
		attribute.Int("totals.red_flags", summary.Totals.RedFlags),
		attribute.Float64("averages.risk", summary.Averages.Risk),
		attribute.Float64("averages.budget", summary.Averages.Budget),
		attribute.Int("averages.duration_months", summary.Averages.DurationMonths),
		attribute.Int("best.report_id", summary.Best.ReportID),
		attribute.String("best.project", summary.Best.Project),
		attribute.Float64("best.score", summary.Best.Score),
		attribute.String("best.recommendation", summary.Best.Recommendation),
		attribute.Float64("timing.duration_sec", summary.Timing.DurationSec),
		attribute.Int("exit_code", summary.ExitCode),
		attribute.String("exit_reason", summary.ExitReason),
	)

	// Add summary event
	h.rootSpan.AddEvent("run_summary", trace.WithAttributes(
		attribute.Int("reports", summary.Totals.Reports),
		attribute.Int("red_flags", summary.Totals.RedFlags),
		attribute.String("best_project", summary.Best.Project),
		attribute.Float64("best_score", summary.Best.Score),
		attribute.Float64("duration_sec", summary.Timing.DurationSec),
	))

	// Set final span status from the run outcome
	if summary.ExitCode != 0 {
		h.rootSpan.SetStatus(codes.Error, summary.ExitReason)
	} else {
		h.rootSpan.SetStatus(codes.Ok, "Comparison completed")
	}

	return nil
}

// handleComplete finalizes the run span and flushes telemetry.
func (h *OTelHook) handleComplete(complete *events.CompleteEvent) error {
	if h.rootSpan == nil {
		return nil
	}

	// Add completion event
	h.rootSpan.AddEvent("run_completed", trace.WithAttributes(
		attribute.Bool("success", complete.Success),
		attribute.Int("exit_code", complete.ExitCode),
		attribute.String("exit_reason", complete.ExitReason),
	))

	// Set final status based on success
	if complete.Success {
		h.rootSpan.SetStatus(codes.Ok, "Completed successfully")
	} else {
		h.rootSpan.SetStatus(codes.Error, complete.ExitReason)
	}

	// End the root span
	h.rootSpan.End()
	h.rootSpan = nil

	return nil
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeResult,
		events.EventTypeError,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}
}

// Close shuts down the tracer provider and flushes any pending telemetry.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	// End any active span
	if h.rootSpan != nil {
		h.rootSpan.End()
		h.rootSpan = nil
	}

	// Shutdown tracer provider with timeout
	if h.tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.ShutdownTimeout)
		defer cancel()

		if err := h.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("otel: shutdown tracer provider: %w", err)
		}
	}

	return nil
}

// Endpoint returns the OTLP endpoint being used.
// Useful for testing and logging.
func (h *OTelHook) Endpoint() string {
	return h.opts.Endpoint
}

// ServiceName returns the service name being used.
func (h *OTelHook) ServiceName() string {
	return h.opts.ServiceName
}
