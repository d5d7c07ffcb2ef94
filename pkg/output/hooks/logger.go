package hooks

import (
	"context"
	"log/slog"

	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// orDefault returns l if non-nil, otherwise slog.Default().
func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// LoggerHook logs every event for pipeline debugging. Events are
// logged at debug level except errors, which log at warn.
type LoggerHook struct {
	logger *slog.Logger
}

// NewLoggerHook creates a logger hook. A nil logger falls back to
// slog.Default(), which writes to stderr.
func NewLoggerHook(logger *slog.Logger) *LoggerHook {
	return &LoggerHook{logger: orDefault(logger)}
}

// OnEvent logs a one-line record of the event.
func (h *LoggerHook) OnEvent(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.Debug("run started",
			slog.String("run_id", e.RunID()),
			slog.String("operation", e.Operation),
			slog.String("source", string(e.Source.Kind)),
			slog.Int("selection_size", e.SelectionSize))
	case *events.ResultEvent:
		h.logger.Debug("report ranked",
			slog.String("run_id", e.RunID()),
			slog.Int("report_id", e.Report.ID),
			slog.String("project", e.Report.Project),
			slog.Int("rank", e.Score.Rank),
			slog.Float64("score", e.Score.Value),
			slog.Bool("best", e.Score.Best))
	case *events.ErrorEvent:
		h.logger.Warn("run error",
			slog.String("run_id", e.RunID()),
			slog.String("source", e.Source),
			slog.String("error_type", e.ErrorType),
			slog.String("message", e.Message),
			slog.Bool("fatal", e.Fatal))
	case *events.SummaryEvent:
		h.logger.Debug("run summary",
			slog.String("run_id", e.RunID()),
			slog.Int("reports", e.Totals.Reports),
			slog.Int("red_flags", e.Totals.RedFlags),
			slog.String("best_project", e.Best.Project),
			slog.Float64("best_score", e.Best.Score))
	case *events.CompleteEvent:
		h.logger.Debug("run complete",
			slog.String("run_id", e.RunID()),
			slog.Bool("success", e.Success),
			slog.Int("exit_code", e.ExitCode))
	default:
		h.logger.Debug("event",
			slog.String("run_id", event.RunID()),
			slog.String("type", string(event.EventType())))
	}
	return nil
}

// EventTypes returns nil to receive all event types.
func (h *LoggerHook) EventTypes() []events.EventType {
	return nil
}
