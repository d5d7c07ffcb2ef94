package events

import "time"

// SummaryEvent represents the final run summary.
// It contains the aggregate figures for the compared set, the
// per-metric extremes, the full ranking, and the best opportunity.
type SummaryEvent struct {
	BaseEvent
	Version    string          `json:"version,omitempty"`
	Operation  string          `json:"operation,omitempty"`
	Source     SourceInfo      `json:"source"`
	Selection  []int           `json:"selection"`
	Totals     SummaryTotals   `json:"totals"`
	Averages   SummaryAverages `json:"averages"`
	Extremes   []MetricExtreme `json:"extremes,omitempty"`
	Best       BestOpportunity `json:"best_opportunity"`
	Ranking    []RankEntry     `json:"ranking"`
	Timing     SummaryTiming   `json:"timing"`
	ExitCode   int             `json:"exit_code"`
	ExitReason string          `json:"exit_reason,omitempty"`
}

// SummaryTotals contains aggregate counts for the compared set.
type SummaryTotals struct {
	Reports  int `json:"reports"`
	RedFlags int `json:"red_flags"`
}

// SummaryAverages contains the mean figures across the set. Budget
// averages per-report midpoints; duration is rounded to whole months.
type SummaryAverages struct {
	Risk           float64 `json:"risk"`
	Budget         float64 `json:"budget"`
	DurationMonths int     `json:"duration_months"`
}

// MetricExtreme names the winners and losers of one metric. Plural
// because tied reports share a classification.
type MetricExtreme struct {
	Metric     string  `json:"metric"`
	BestValue  float64 `json:"best_value"`
	WorstValue float64 `json:"worst_value"`
	BestIDs    []int   `json:"best_ids"`
	WorstIDs   []int   `json:"worst_ids"`
}

// BestOpportunity identifies the top-ranked bid of the run.
type BestOpportunity struct {
	ReportID       int     `json:"report_id"`
	Project        string  `json:"project"`
	Score          float64 `json:"score"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// RankEntry is one row of the final ranking, best first.
type RankEntry struct {
	Rank     int     `json:"rank"`
	ReportID int     `json:"report_id"`
	Project  string  `json:"project"`
	Score    float64 `json:"score"`
}

// SummaryTiming contains timing information for the run.
type SummaryTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationSec float64   `json:"duration_sec"`
}
