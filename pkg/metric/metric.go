package metric

import (
	"errors"
	"fmt"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// Sentinel errors. Callers should use errors.Is() to check for these.
var (
	// ErrEmptyInput indicates a comparator operation was invoked with
	// zero reports; extremes are undefined on an empty set.
	ErrEmptyInput = errors.New("metric: empty report set")

	// ErrUnknownMetric indicates a metric name outside the
	// directionality table.
	ErrUnknownMetric = errors.New("metric: unknown metric")
)

// Metric identifies one comparison dimension.
type Metric string

const (
	// RiskScore compares analyst risk scores; lower is better.
	RiskScore Metric = "risk_score"

	// DurationMonths compares project durations; shorter is better.
	DurationMonths Metric = "duration_months"

	// BudgetMax compares budget ceilings; HIGHER is better — a larger
	// ceiling means more revenue headroom, unlike every other metric.
	BudgetMax Metric = "budget_max"

	// BudgetMin compares budget floors; lower is better (cheaper entry).
	BudgetMin Metric = "budget_min"

	// RedFlags compares red-flag counts; fewer is better.
	RedFlags Metric = "red_flags"
)

// Classification is a report's standing on one metric within a set.
type Classification string

const (
	Best    Classification = "best"
	Worst   Classification = "worst"
	Neutral Classification = "neutral"
)

// String returns the classification as a string.
func (c Classification) String() string { return string(c) }

type direction int

const (
	lowerIsBetter direction = iota
	higherIsBetter
)

// directions is the single source of truth for metric directionality.
// Adding a metric means one entry here plus an extractor below.
var directions = map[Metric]direction{
	RiskScore:      lowerIsBetter,
	DurationMonths: lowerIsBetter,
	BudgetMax:      higherIsBetter,
	BudgetMin:      lowerIsBetter,
	RedFlags:       lowerIsBetter,
}

// extractors pulls each metric's value out of a report.
var extractors = map[Metric]func(*bidreport.Report) float64{
	RiskScore:      func(r *bidreport.Report) float64 { return r.RiskScore },
	DurationMonths: func(r *bidreport.Report) float64 { return r.DurationMonths },
	BudgetMax:      func(r *bidreport.Report) float64 { return r.BudgetMax },
	BudgetMin:      func(r *bidreport.Report) float64 { return r.BudgetMin },
	RedFlags:       func(r *bidreport.Report) float64 { return float64(r.RedFlagCount()) },
}

// displayNames maps metrics to human-readable column labels.
var displayNames = map[Metric]string{
	RiskScore:      "Risk Score",
	DurationMonths: "Duration (months)",
	BudgetMax:      "Budget Max",
	BudgetMin:      "Budget Min",
	RedFlags:       "Red Flags",
}

// all lists the metrics in canonical presentation order. Comparison
// output iterates this, never the maps, so rendering stays stable.
var all = []Metric{RiskScore, DurationMonths, BudgetMax, BudgetMin, RedFlags}

// All returns the metrics in canonical order. The caller gets a copy.
func All() []Metric {
	return append([]Metric(nil), all...)
}

// IsValid reports whether m is a recognized metric.
func (m Metric) IsValid() bool {
	_, ok := directions[m]
	return ok
}

// DisplayName returns the human-readable label for column headers.
func (m Metric) DisplayName() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}

// IsCurrency reports whether the metric's values are money amounts.
// Renderers use this to pick currency formatting.
func (m Metric) IsCurrency() bool {
	return m == BudgetMax || m == BudgetMin
}

// String returns the metric as a string.
func (m Metric) String() string { return string(m) }

// Value extracts the metric's value from a single report.
func Value(m Metric, r *bidreport.Report) (float64, error) {
	extract, ok := extractors[m]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	return extract(r), nil
}

// Extremes carries the precomputed best and worst values of one metric
// over a report set, so the orchestrator scans the set once per metric
// and classifies every report against the same pair.
type Extremes struct {
	Metric Metric  `json:"metric"`
	Best   float64 `json:"best"`
	Worst  float64 `json:"worst"`
}

// Classify places a value relative to the extremes. Best is checked
// before worst, so when best == worst (single report, or all values
// equal) the classification is Best.
func (e Extremes) Classify(value float64) Classification {
	switch value {
	case e.Best:
		return Best
	case e.Worst:
		return Worst
	}
	return Neutral
}

// ExtremesFor scans the report set once and returns the metric's
// extremes. Every report sharing an extreme value classifies the same;
// there is no secondary tie-break key.
func ExtremesFor(m Metric, reports []bidreport.Report) (Extremes, error) {
	if len(reports) == 0 {
		return Extremes{}, fmt.Errorf("%w: %s", ErrEmptyInput, m)
	}
	dir, ok := directions[m]
	if !ok {
		return Extremes{}, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
	}
	extract := extractors[m]

	lo := extract(&reports[0])
	hi := lo
	for i := 1; i < len(reports); i++ {
		v := extract(&reports[i])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	e := Extremes{Metric: m, Best: lo, Worst: hi}
	if dir == higherIsBetter {
		e.Best, e.Worst = hi, lo
	}
	return e, nil
}

// BestValue returns the winning value of the metric across the set.
func BestValue(m Metric, reports []bidreport.Report) (float64, error) {
	e, err := ExtremesFor(m, reports)
	if err != nil {
		return 0, err
	}
	return e.Best, nil
}

// WorstValue returns the losing value of the metric across the set.
func WorstValue(m Metric, reports []bidreport.Report) (float64, error) {
	e, err := ExtremesFor(m, reports)
	if err != nil {
		return 0, err
	}
	return e.Worst, nil
}

// Classify places a value relative to the set's extremes for the
// metric. Convenience wrapper over ExtremesFor for one-off checks; the
// orchestrator precomputes extremes instead.
func Classify(value float64, m Metric, reports []bidreport.Report) (Classification, error) {
	e, err := ExtremesFor(m, reports)
	if err != nil {
		return "", err
	}
	return e.Classify(value), nil
}
