// Package bidreport provides the shared bid-report types consumed
// by the comparison engine and its adapters.
//
// Reports are externally supplied and read-only: the engine packages
// (metric, scoring, summary, compare) never mutate them, and every
// derived value is recomputed per comparison.
package bidreport
