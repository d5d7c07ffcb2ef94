package events

import (
	"time"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// ResultEvent represents a single ranked report within a run.
// It carries the full report payload, the composite opportunity score,
// and the report's standing on every comparison metric, so consumers
// never need a second fetch.
type ResultEvent struct {
	BaseEvent
	Report  ReportInfo   `json:"report"`
	Score   ScoreInfo    `json:"score"`
	Metrics []MetricCell `json:"metrics"`
}

// ReportInfo is the flattened bid report carried on a ResultEvent.
// Red flags are the analyst's findings verbatim; the count is implied
// by the slice length.
type ReportInfo struct {
	ID             int       `json:"id"`
	Project        string    `json:"project"`
	Client         string    `json:"client,omitempty"`
	Location       string    `json:"location,omitempty"`
	BudgetMin      float64   `json:"budget_min"`
	BudgetMax      float64   `json:"budget_max"`
	DurationMonths float64   `json:"duration_months"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level,omitempty"`
	Recommendation string    `json:"recommendation"`
	RedFlags       []string  `json:"red_flags,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	DeadlineDate   time.Time `json:"deadline_date,omitzero"`
}

// ScoreInfo contains the ranking outcome for one report: the composite
// opportunity score (lower = more favorable), the 1-based rank, and
// whether this report is the run's best opportunity.
type ScoreInfo struct {
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
	Best  bool    `json:"best,omitempty"`
}

// MetricCell records how one metric classified this report.
type MetricCell struct {
	Metric         string         `json:"metric"`
	Value          float64        `json:"value"`
	Classification Classification `json:"classification"`
}

// NewReportInfo flattens a bid report into its event payload.
func NewReportInfo(r *bidreport.Report) ReportInfo {
	return ReportInfo{
		ID:             r.ID,
		Project:        r.Project,
		Client:         r.Client,
		Location:       r.Location,
		BudgetMin:      r.BudgetMin,
		BudgetMax:      r.BudgetMax,
		DurationMonths: r.DurationMonths,
		RiskScore:      r.RiskScore,
		RiskLevel:      r.RiskLevel,
		Recommendation: r.Recommendation,
		RedFlags:       append([]string(nil), r.RiskAssessment.RedFlags...),
		Notes:          r.RiskAssessment.Notes,
		DeadlineDate:   r.DeadlineDate,
	}
}

// Report reconstructs the bid report from its event payload. The
// round-trip through NewReportInfo is lossless, which the history hook
// relies on to re-derive the full comparison from the event stream.
func (ri ReportInfo) Report() bidreport.Report {
	return bidreport.Report{
		ID:             ri.ID,
		Project:        ri.Project,
		Client:         ri.Client,
		Location:       ri.Location,
		BudgetMin:      ri.BudgetMin,
		BudgetMax:      ri.BudgetMax,
		DurationMonths: ri.DurationMonths,
		RiskScore:      ri.RiskScore,
		RiskLevel:      ri.RiskLevel,
		Recommendation: ri.Recommendation,
		RiskAssessment: bidreport.RiskAssessment{
			RedFlags: append([]string(nil), ri.RedFlags...),
			Notes:    ri.Notes,
		},
		DeadlineDate: ri.DeadlineDate,
	}
}

// RedFlagCount returns the number of red flags on the report payload.
func (ri ReportInfo) RedFlagCount() int { return len(ri.RedFlags) }

// BudgetMidpoint returns the midpoint of the budget range, the figure
// aggregate summaries average over.
func (ri ReportInfo) BudgetMidpoint() float64 { return (ri.BudgetMin + ri.BudgetMax) / 2 }

// NewResultEvent builds the event for one ranked report.
func NewResultEvent(runID string, report *bidreport.Report, score ScoreInfo, metrics []MetricCell) *ResultEvent {
	return &ResultEvent{
		BaseEvent: newBase(EventTypeResult, runID),
		Report:    NewReportInfo(report),
		Score:     score,
		Metrics:   metrics,
	}
}
