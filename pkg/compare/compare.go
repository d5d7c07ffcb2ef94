// Package compare orchestrates a full comparison: per-metric
// classification, opportunity ranking, and the aggregate summary over
// one selected set of bid reports.
//
// A Result is a pure function of its input reports. It carries no run
// id, timestamp, or other nondeterminism; identical inputs produce
// deeply equal results. Run identity belongs to the event and history
// layers.
package compare

import (
	"context"
	"errors"
	"fmt"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/metric"
	"github.com/bidlens/bidlens/pkg/scoring"
	"github.com/bidlens/bidlens/pkg/summary"
)

// ErrInsufficientSelection indicates fewer than 2 distinct reports
// were selected. The CLI surfaces this as a usage error and sends the
// user back to selection. Callers should use errors.Is() to check it.
var ErrInsufficientSelection = errors.New("compare: at least 2 distinct reports required")

// Source is the injected retrieval capability: one batch fetch keyed
// by report ids. reportsvc.Client and reportsvc.FileSource implement
// it; tests supply fakes.
type Source interface {
	ReportsByID(ctx context.Context, ids []int) ([]bidreport.Report, error)
}

// Cell is one report's standing on one metric.
type Cell struct {
	ReportID       int                   `json:"report_id"`
	Value          float64               `json:"value"`
	Classification metric.Classification `json:"classification"`
}

// MetricComparison is one ordered row of the comparison matrix: the
// metric's extremes plus a cell per report, parallel to Result.Reports.
// Rows are slices, not maps, so encoded output is deterministic.
type MetricComparison struct {
	Metric metric.Metric `json:"metric"`
	Best   float64       `json:"best"`
	Worst  float64       `json:"worst"`
	Cells  []Cell        `json:"cells"`
}

// Result is the complete outcome of one comparison.
type Result struct {
	// Reports is the distinct input set in retrieval order.
	Reports []bidreport.Report `json:"reports"`

	// Metrics holds one row per comparison metric, in canonical
	// metric order; each row's cells parallel Reports.
	Metrics []MetricComparison `json:"metrics"`

	// Ranking is ascending by composite score, stable on ties.
	Ranking []scoring.ScoredReport `json:"ranking"`

	// BestOpportunity is the top-ranked entry.
	BestOpportunity scoring.ScoredReport `json:"best_opportunity"`

	// Summary aggregates the whole set.
	Summary summary.Aggregate `json:"summary"`
}

// DistinctIDs collapses duplicate ids to their first occurrence,
// preserving order. Selection surfaces use it before cap checks so a
// repeated id cannot inflate the selection size.
func DistinctIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// distinctReports collapses duplicate report ids to their first
// occurrence, preserving order.
func distinctReports(reports []bidreport.Report) []bidreport.Report {
	seen := make(map[int]struct{}, len(reports))
	out := make([]bidreport.Report, 0, len(reports))
	for _, r := range reports {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Compare runs the full comparison over an already-retrieved report
// set. Duplicate ids collapse to their first occurrence before the
// distinctness check; fewer than 2 distinct reports returns
// ErrInsufficientSelection. The input slice is never mutated, and the
// engine places no upper ceiling on the set — selection caps are the
// UI's concern.
func Compare(reports []bidreport.Report) (*Result, error) {
	distinct := distinctReports(reports)
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientSelection, len(distinct))
	}

	result := &Result{Reports: distinct}

	for _, m := range metric.All() {
		extremes, err := metric.ExtremesFor(m, distinct)
		if err != nil {
			return nil, fmt.Errorf("compare: %s extremes: %w", m, err)
		}

		row := MetricComparison{
			Metric: m,
			Best:   extremes.Best,
			Worst:  extremes.Worst,
			Cells:  make([]Cell, len(distinct)),
		}
		for i := range distinct {
			v, err := metric.Value(m, &distinct[i])
			if err != nil {
				return nil, fmt.Errorf("compare: %s value: %w", m, err)
			}
			row.Cells[i] = Cell{
				ReportID:       distinct[i].ID,
				Value:          v,
				Classification: extremes.Classify(v),
			}
		}
		result.Metrics = append(result.Metrics, row)
	}

	ranked, err := scoring.Rank(distinct)
	if err != nil {
		return nil, fmt.Errorf("compare: ranking: %w", err)
	}
	result.Ranking = ranked
	result.BestOpportunity = ranked[0]

	agg, err := summary.Summarize(distinct)
	if err != nil {
		return nil, fmt.Errorf("compare: summarizing: %w", err)
	}
	result.Summary = agg

	return result, nil
}

// CompareByID resolves ids through the source, then runs Compare.
// Duplicate ids collapse to their first occurrence and the selection
// is validated BEFORE any retrieval, so an insufficient selection
// never touches the network.
func CompareByID(ctx context.Context, src Source, ids []int) (*Result, error) {
	distinct := DistinctIDs(ids)
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientSelection, len(distinct))
	}

	reports, err := src.ReportsByID(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("compare: fetching reports: %w", err)
	}

	return Compare(reports)
}
