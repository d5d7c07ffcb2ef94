package output

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// RunError is a non-fatal per-report failure surfaced in the event
// stream between the start event and the results.
type RunError struct {
	Source  string
	Type    string
	Message string
}

// EmitOptions describes the run being replayed through the dispatcher.
type EmitOptions struct {
	// Operation is the command that produced the result ("compare", "rank").
	Operation string

	// Source identifies where the reports came from.
	Source events.SourceInfo

	// Selection is the requested id set in selection order. Empty means
	// derive it from the result's report order.
	Selection []int

	// RunConfig echoes the effective run settings into the start event.
	RunConfig events.RunConfig

	// Errors are per-report failures tolerated during retrieval.
	Errors []RunError

	// StartedAt is when the run began. Zero means the emit time, which
	// collapses the run duration to zero.
	StartedAt time.Time

	// Version stamped on the summary. Empty means the build default.
	Version string

	ExitCode   int
	ExitReason string
}

// EmitRun replays a completed comparison as the canonical event
// sequence: start, tolerated errors, one result per ranked report,
// summary, complete. It returns the generated run id so callers can
// correlate follow-up events.
func EmitRun(ctx context.Context, d *dispatcher.Dispatcher, result *compare.Result, opts EmitOptions) (string, error) {
	runID := uuid.NewString()
	completed := time.Now().UTC()
	started := opts.StartedAt
	if started.IsZero() {
		started = completed
	}

	version := opts.Version
	if version == "" {
		version = defaults.Version
	}

	selection := opts.Selection
	if len(selection) == 0 {
		selection = make([]int, 0, len(result.Reports))
		for i := range result.Reports {
			selection = append(selection, result.Reports[i].ID)
		}
	}

	start := events.NewStartEvent(runID, opts.Operation, opts.Source, selection, opts.RunConfig)
	if err := d.Dispatch(ctx, start); err != nil {
		return runID, err
	}

	for _, re := range opts.Errors {
		ev := events.NewErrorEvent(runID, re.Source, re.Type, re.Message, false)
		if err := d.Dispatch(ctx, ev); err != nil {
			return runID, err
		}
	}

	for i := range result.Ranking {
		sr := &result.Ranking[i]
		ev := events.NewResultEvent(runID, &sr.Report, events.ScoreInfo{
			Value: sr.Score,
			Rank:  sr.Rank,
			Best:  sr.Rank == 1,
		}, metricCellsFor(result, sr.Report.ID))
		if err := d.Dispatch(ctx, ev); err != nil {
			return runID, err
		}
	}

	summary := &events.SummaryEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeSummary, Time: completed, Run: runID},
		Version:   version,
		Operation: opts.Operation,
		Source:    opts.Source,
		Selection: selection,
		Totals: events.SummaryTotals{
			Reports:  len(result.Reports),
			RedFlags: result.Summary.TotalRedFlags,
		},
		Averages: events.SummaryAverages{
			Risk:           result.Summary.AvgRisk,
			Budget:         result.Summary.AvgBudget,
			DurationMonths: result.Summary.AvgDurationMonths,
		},
		Extremes: metricExtremes(result),
		Best: events.BestOpportunity{
			ReportID:       result.BestOpportunity.Report.ID,
			Project:        result.BestOpportunity.Report.Project,
			Score:          result.BestOpportunity.Score,
			Recommendation: result.BestOpportunity.Report.Recommendation,
		},
		Ranking: rankEntries(result),
		Timing: events.SummaryTiming{
			StartedAt:   started,
			CompletedAt: completed,
			DurationSec: completed.Sub(started).Seconds(),
		},
		ExitCode:   opts.ExitCode,
		ExitReason: opts.ExitReason,
	}
	if err := d.Dispatch(ctx, summary); err != nil {
		return runID, err
	}

	complete := events.NewCompleteEvent(runID, opts.ExitCode == 0, opts.ExitCode, opts.ExitReason, summary)
	return runID, d.Dispatch(ctx, complete)
}

// EmitError dispatches a standalone error event, for failures that
// abort a run before any result exists.
func EmitError(ctx context.Context, d *dispatcher.Dispatcher, runID, source, errorType, message string, fatal bool) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	return d.Dispatch(ctx, events.NewErrorEvent(runID, source, errorType, message, fatal))
}

// metricCellsFor collects the report's row of the comparison matrix as
// event cells, in canonical metric order.
func metricCellsFor(result *compare.Result, reportID int) []events.MetricCell {
	cells := make([]events.MetricCell, 0, len(result.Metrics))
	for _, row := range result.Metrics {
		for _, c := range row.Cells {
			if c.ReportID != reportID {
				continue
			}
			cells = append(cells, events.MetricCell{
				Metric:         string(row.Metric),
				Value:          c.Value,
				Classification: c.Classification,
			})
			break
		}
	}
	return cells
}

// metricExtremes flattens the matrix rows into per-metric extreme
// entries, naming every report tied at each end.
func metricExtremes(result *compare.Result) []events.MetricExtreme {
	extremes := make([]events.MetricExtreme, 0, len(result.Metrics))
	for _, row := range result.Metrics {
		ex := events.MetricExtreme{
			Metric:     string(row.Metric),
			BestValue:  row.Best,
			WorstValue: row.Worst,
		}
		for _, c := range row.Cells {
			switch c.Classification {
			case events.ClassificationBest:
				ex.BestIDs = append(ex.BestIDs, c.ReportID)
			case events.ClassificationWorst:
				ex.WorstIDs = append(ex.WorstIDs, c.ReportID)
			}
		}
		extremes = append(extremes, ex)
	}
	return extremes
}

// rankEntries projects the scored ranking into summary rows.
func rankEntries(result *compare.Result) []events.RankEntry {
	entries := make([]events.RankEntry, 0, len(result.Ranking))
	for i := range result.Ranking {
		sr := &result.Ranking[i]
		entries = append(entries, events.RankEntry{
			Rank:     sr.Rank,
			ReportID: sr.Report.ID,
			Project:  sr.Report.Project,
			Score:    sr.Score,
		})
	}
	return entries
}
