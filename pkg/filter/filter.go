// Package filter evaluates sandboxed Tengo expressions against bid
// reports, e.g. `risk_score < 5 && budget_max >= 1e6 && recommendation
// != "NO"`. An expression is compiled once and cloned per report, so
// one Expr is safe for concurrent evaluation. Expressions run in a
// sandboxed VM with only safe stdlib modules.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/workerpool"
)

// safeModules are the only Tengo stdlib modules available to
// expressions. No file I/O, no network, no OS access.
var safeModules = stdlib.GetModuleMap("text", "fmt", "math", "times")

const maxAllocs = 10_000_000

const resultVar = "__match__"

// Expr is a compiled filter expression.
type Expr struct {
	src      string
	compiled *tengo.Compiled
}

// Compile compiles a filter expression. Syntax errors and references
// to unknown fields are reported here, before any report is touched.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, errors.New("filter: empty expression")
	}
	if len(src) > defaults.BufferSmall {
		return nil, fmt.Errorf("filter: expression too large (%d bytes, limit %d)", len(src), defaults.BufferSmall)
	}

	wrapper := fmt.Sprintf("%s := (%s)", resultVar, src)
	script := tengo.NewScript([]byte(wrapper))
	script.SetImports(safeModules)
	script.SetMaxAllocs(maxAllocs)
	for name, zero := range fields(bidreport.Report{}) {
		if err := script.Add(name, zero); err != nil {
			return nil, fmt.Errorf("filter: declaring %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return &Expr{src: src, compiled: compiled}, nil
}

// String returns the original expression source.
func (e *Expr) String() string { return e.src }

// Match evaluates the expression against one report. The expression
// must produce a boolean.
func (e *Expr) Match(r bidreport.Report) (bool, error) {
	c := e.compiled.Clone()
	for name, value := range fields(r) {
		if err := c.Set(name, value); err != nil {
			return false, fmt.Errorf("filter: binding %s for report %d: %w", name, r.ID, err)
		}
	}
	if err := c.Run(); err != nil {
		return false, fmt.Errorf("filter: evaluating report %d: %w", r.ID, err)
	}

	v := c.Get(resultVar)
	matched, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter: expression %q evaluates to %s, want bool", e.src, v.ValueType())
	}
	return matched, nil
}

// Filter returns the reports the expression matches, in input order.
func (e *Expr) Filter(reports []bidreport.Report) ([]bidreport.Report, error) {
	out := make([]bidreport.Report, 0, len(reports))
	for _, r := range reports {
		matched, err := e.Match(r)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, r)
		}
	}
	return out, nil
}

// FilterParallel evaluates reports on the pool's workers, preserving
// input order. A nil pool or a trivial input falls back to Filter.
func (e *Expr) FilterParallel(pool *workerpool.Pool, reports []bidreport.Report) ([]bidreport.Report, error) {
	if pool == nil || len(reports) < 2 {
		return e.Filter(reports)
	}

	type verdict struct {
		matched bool
		err     error
	}
	verdicts := workerpool.Map(pool, reports, func(r bidreport.Report) verdict {
		matched, err := e.Match(r)
		return verdict{matched: matched, err: err}
	})

	out := make([]bidreport.Report, 0, len(reports))
	for i, v := range verdicts {
		if v.err != nil {
			return nil, v.err
		}
		if v.matched {
			out = append(out, reports[i])
		}
	}
	return out, nil
}

// Fields lists the report fields expressions can reference, sorted.
func Fields() []string {
	m := fields(bidreport.Report{})
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fields maps expression variable names to one report's values. Names
// follow the report's JSON fields; red_flags is the flag count, same
// vocabulary as the comparison metric.
func fields(r bidreport.Report) map[string]any {
	return map[string]any{
		"id":              r.ID,
		"project":         r.Project,
		"client":          r.Client,
		"location":        r.Location,
		"budget_min":      r.BudgetMin,
		"budget_max":      r.BudgetMax,
		"budget_mid":      r.BudgetMidpoint(),
		"duration_months": r.DurationMonths,
		"risk_score":      r.RiskScore,
		"risk_level":      r.RiskLevel,
		"recommendation":  r.Recommendation,
		"red_flags":       r.RedFlagCount(),
		"notes":           r.RiskAssessment.Notes,
		"deadline":        r.DeadlineDate,
	}
}
