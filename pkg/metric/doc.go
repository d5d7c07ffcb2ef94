// Package metric classifies bid reports as best, worst, or neutral
// per comparison metric.
//
// Directionality is table-driven: a single package-level map declares
// whether lower or higher wins for each metric, and every comparator
// operation reads that table. Red-flag count rides through the same
// scheme as a fifth lower-is-better metric rather than being special-
// cased in the scorer.
package metric
