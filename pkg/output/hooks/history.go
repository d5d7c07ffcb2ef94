package hooks

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/history"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*HistoryHook)(nil)

// HistoryHook archives finished comparison runs for trend analysis.
// It collects the report payloads carried on result events, and when
// the summary arrives re-derives the full comparison and saves it.
// Re-deriving instead of trusting the event stream keeps archived
// records exactly as deep as direct engine output.
type HistoryHook struct {
	store  *history.Store
	tags   []string
	logger *slog.Logger

	mu      sync.Mutex
	order   []int
	reports map[int]bidreport.Report
}

// HistoryHookOptions configures the history hook.
type HistoryHookOptions struct {
	// StorePath is the directory where archived runs are stored.
	StorePath string

	// Tags are user-defined labels to attach to each archived run.
	Tags []string

	// Logger for structured logging (default: slog.Default()).
	Logger *slog.Logger
}

// NewHistoryHook creates a new history hook.
func NewHistoryHook(opts HistoryHookOptions) (*HistoryHook, error) {
	store, err := history.Open(opts.StorePath)
	if err != nil {
		return nil, err
	}

	return &HistoryHook{
		store:   store,
		tags:    opts.Tags,
		logger:  orDefault(opts.Logger),
		reports: make(map[int]bidreport.Report),
	}, nil
}

// Store exposes the underlying archive, for listing after a run.
func (h *HistoryHook) Store() *history.Store { return h.store }

// OnEvent accumulates result payloads and archives the run when the
// summary arrives.
func (h *HistoryHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		// A new run resets any previously collected state. Selection
		// order is remembered so the archived record matches the
		// original retrieval order, not rank order.
		h.order = append([]int(nil), e.ReportIDs...)
		h.reports = make(map[int]bidreport.Report, len(e.ReportIDs))
	case *events.ResultEvent:
		h.reports[e.Report.ID] = e.Report.Report()
	case *events.SummaryEvent:
		h.archiveLocked(e)
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *HistoryHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeResult,
		events.EventTypeSummary,
	}
}

// archiveLocked rebuilds the comparison from collected payloads and
// saves it. Must be called with mu held.
func (h *HistoryHook) archiveLocked(summary *events.SummaryEvent) {
	if len(h.reports) < 2 {
		h.logger.Debug("history: skipping archive, not enough collected reports",
			slog.String("run_id", summary.RunID()),
			slog.Int("collected", len(h.reports)))
		return
	}

	reports := make([]bidreport.Report, 0, len(h.reports))
	for _, id := range h.order {
		if r, ok := h.reports[id]; ok {
			reports = append(reports, r)
		}
	}
	// Results for reports the start event never announced (or runs
	// with no start event at all) append after the known selection,
	// ordered by id so the archived record and its fingerprint stay
	// deterministic.
	seen := make(map[int]struct{}, len(reports))
	for _, r := range reports {
		seen[r.ID] = struct{}{}
	}
	var rest []int
	for id := range h.reports {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Ints(rest)
	for _, id := range rest {
		reports = append(reports, h.reports[id])
	}

	result, err := compare.Compare(reports)
	if err != nil {
		h.logger.Warn("history: failed to rebuild comparison", slog.String("error", err.Error()))
		return
	}

	record, err := h.store.Save(result, h.tags...)
	if err != nil {
		h.logger.Warn("history: failed to archive run", slog.String("error", err.Error()))
		return
	}

	h.logger.Info("archived comparison run",
		slog.String("id", record.RunID),
		slog.Int("reports", len(record.ReportIDs)),
		slog.String("best_project", record.BestProject))

	// Collected state is spent once archived.
	h.order = nil
	h.reports = make(map[int]bidreport.Report)
}
