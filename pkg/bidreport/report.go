package bidreport

import "time"

// Recommendation values produced by the upstream risk analysis.
// Any other string is treated as neutral by scoring.
const (
	RecommendationYes   = "YES"
	RecommendationNo    = "NO"
	RecommendationMaybe = "MAYBE"
)

// Report describes a single analyzed bid as delivered by the
// reporting service. Budget values are major currency units
// (dollars, not cents); display formatting is the presentation
// layer's concern.
type Report struct {
	ID       int    `json:"id"`
	Project  string `json:"project"`
	Client   string `json:"client,omitempty"`
	Location string `json:"location,omitempty"`

	// BudgetMin <= BudgetMax is expected from the service but not
	// enforced here; the engine compares whatever it is given.
	BudgetMin      float64 `json:"budget_min"`
	BudgetMax      float64 `json:"budget_max"`
	DurationMonths float64 `json:"duration_months"`

	// RiskScore is conventionally [0,10]; lower = safer.
	// RiskLevel is a free-text label for display only.
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level,omitempty"`

	// Recommendation is "YES", "NO", or "MAYBE".
	Recommendation string `json:"recommendation"`

	RiskAssessment RiskAssessment `json:"risk_assessment"`

	DeadlineDate time.Time `json:"deadline_date,omitempty"`
}

// RiskAssessment carries the analyst findings attached to a report.
// Only the red-flag COUNT participates in scoring; the flag text is
// display-only.
type RiskAssessment struct {
	RedFlags []string `json:"red_flags,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// RedFlagCount returns the number of red flags raised against the bid.
func (r *Report) RedFlagCount() int {
	return len(r.RiskAssessment.RedFlags)
}

// BudgetMidpoint returns (BudgetMin + BudgetMax) / 2, the per-report
// value aggregated by the summarizer.
func (r *Report) BudgetMidpoint() float64 {
	return (r.BudgetMin + r.BudgetMax) / 2
}

// Clone returns a deep copy of the report. Stores hand out clones so
// callers can never mutate archived state.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	if r.RiskAssessment.RedFlags != nil {
		c.RiskAssessment.RedFlags = append([]string(nil), r.RiskAssessment.RedFlags...)
	}
	return &c
}

// CloneSlice deep-copies a report slice. A nil input stays nil.
func CloneSlice(reports []Report) []Report {
	if reports == nil {
		return nil
	}
	out := make([]Report, len(reports))
	for i := range reports {
		out[i] = *reports[i].Clone()
	}
	return out
}
