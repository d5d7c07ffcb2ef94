// Package summary aggregates a report set into the headline figures
// shown beneath every comparison.
package summary

import (
	"errors"
	"math"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// ErrEmptyInput indicates Summarize was invoked with zero reports.
// Callers should use errors.Is() to check for it.
var ErrEmptyInput = errors.New("summary: empty report set")

// Aggregate holds the cross-report figures. AvgDurationMonths is
// carried display-rounded to the nearest whole month; red flags are
// summed, never averaged.
type Aggregate struct {
	AvgRisk           float64 `json:"avg_risk"`
	AvgBudget         float64 `json:"avg_budget"`
	AvgDurationMonths int     `json:"avg_duration_months"`
	TotalRedFlags     int     `json:"total_red_flags"`
}

// Summarize computes the aggregate over the set. AvgBudget averages
// per-report budget midpoints (min+max)/2, not the raw bounds.
func Summarize(reports []bidreport.Report) (Aggregate, error) {
	if len(reports) == 0 {
		return Aggregate{}, ErrEmptyInput
	}

	var risk, budget, duration float64
	var redFlags int
	for i := range reports {
		r := &reports[i]
		risk += r.RiskScore
		budget += r.BudgetMidpoint()
		duration += r.DurationMonths
		redFlags += r.RedFlagCount()
	}

	n := float64(len(reports))
	return Aggregate{
		AvgRisk:           risk / n,
		AvgBudget:         budget / n,
		AvgDurationMonths: int(math.Round(duration / n)),
		TotalRedFlags:     redFlags,
	}, nil
}
