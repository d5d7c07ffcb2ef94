// Package history archives completed comparison runs on local disk.
//
// Each run is stored as its own JSON file named by run id, with a
// compact index.json alongside for fast listings. The archive holds
// engine OUTPUT only — it never caches fetched reports, so every
// comparison still retrieves fresh data from its source.
//
// All writes go through a temp file and rename, so a crash mid-write
// never corrupts the archive. Reads hand out copies; callers cannot
// mutate archived state.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/defaults"
	"github.com/bidlens/bidlens/pkg/jsonutil"
)

// Sentinel errors for archive operations.
// Callers should use errors.Is() to check for these.
var (
	// ErrRunNotFound indicates no archived run matches the given id.
	ErrRunNotFound = errors.New("history: run not found")

	// ErrNoRuns indicates the archive is empty.
	ErrNoRuns = errors.New("history: no archived runs")
)

const indexFile = "index.json"

// IndexEntry is the compact per-run line kept in index.json: enough to
// render history listings without loading full results.
type IndexEntry struct {
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	ReportIDs     []int     `json:"report_ids"`
	Fingerprint   string    `json:"fingerprint"`
	BestReportID  int       `json:"best_report_id"`
	BestProject   string    `json:"best_project"`
	BestScore     float64   `json:"best_score"`
	AvgRisk       float64   `json:"avg_risk"`
	AvgBudget     float64   `json:"avg_budget"`
	TotalRedFlags int       `json:"total_red_flags"`
	Tags          []string  `json:"tags,omitempty"`
}

// Record is a fully archived run: the index line plus the complete
// comparison result.
type Record struct {
	IndexEntry
	Result *compare.Result `json:"result"`
}

// TrendPoint is one report's standing in one archived run.
type TrendPoint struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
	Best      bool      `json:"best"`
}

// Stats summarizes the archive.
type Stats struct {
	Runs            int       `json:"runs"`
	DistinctReports int       `json:"distinct_reports"`
	Oldest          time.Time `json:"oldest,omitempty"`
	Newest          time.Time `json:"newest,omitempty"`
	DiskBytes       int64     `json:"disk_bytes"`
}

// Store is the on-disk run archive. Safe for concurrent use.
type Store struct {
	dir string

	mu sync.RWMutex
	// index holds runs in append (chronological) order.
	index []IndexEntry
}

// Open opens the archive at dir, creating it when missing and loading
// the existing index.
func Open(dir string) (*Store, error) {
	if err := jsonutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	s := &Store{dir: dir}
	path := filepath.Join(dir, indexFile)
	if _, err := os.Stat(path); err == nil {
		if err := jsonutil.ReadFile(path, &s.index); err != nil {
			return nil, fmt.Errorf("history: loading index: %w", err)
		}
	}
	return s, nil
}

// Dir returns the archive directory.
func (s *Store) Dir() string { return s.dir }

// Fingerprint hashes the input report set of a result. Identical
// inputs produce identical fingerprints, so re-runs over unchanged
// data are recognizable across the archive.
func Fingerprint(result *compare.Result) string {
	data, err := jsonutil.Marshal(result.Reports)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("mmh3:%016x", murmur3.Sum64(data))
}

// Save archives a completed comparison run and returns its record.
func (s *Store) Save(result *compare.Result, tags ...string) (*Record, error) {
	if result == nil {
		return nil, fmt.Errorf("history: nil result")
	}

	entry := IndexEntry{
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		ReportIDs:     make([]int, 0, len(result.Reports)),
		Fingerprint:   Fingerprint(result),
		BestReportID:  result.BestOpportunity.Report.ID,
		BestProject:   result.BestOpportunity.Report.Project,
		BestScore:     result.BestOpportunity.Score,
		AvgRisk:       result.Summary.AvgRisk,
		AvgBudget:     result.Summary.AvgBudget,
		TotalRedFlags: result.Summary.TotalRedFlags,
	}
	for _, r := range result.Reports {
		entry.ReportIDs = append(entry.ReportIDs, r.ID)
	}
	if len(tags) > 0 {
		entry.Tags = append([]string(nil), tags...)
	}

	record := &Record{IndexEntry: entry, Result: result}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := jsonutil.WriteFileAtomic(s.runPath(entry.RunID), record, 0o644); err != nil {
		return nil, fmt.Errorf("history: writing run: %w", err)
	}
	s.index = append(s.index, entry)
	if err := s.writeIndexLocked(); err != nil {
		return nil, err
	}
	return record, nil
}

// Get loads a full archived run by id.
func (s *Store) Get(runID string) (*Record, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var record Record
	if err := jsonutil.ReadFile(s.runPath(runID), &record); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("history: %w", err)
	}
	return &record, nil
}

// List returns index entries newest first. A non-positive limit uses
// defaults.HistoryListDefault.
func (s *Store) List(limit int) []IndexEntry {
	if limit <= 0 {
		limit = defaults.HistoryListDefault
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.index))
	out := make([]IndexEntry, 0, n)
	for i := len(s.index) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneEntry(s.index[i]))
	}
	return out
}

// Latest loads the most recent archived run.
func (s *Store) Latest() (*Record, error) {
	s.mu.RLock()
	if len(s.index) == 0 {
		s.mu.RUnlock()
		return nil, ErrNoRuns
	}
	runID := s.index[len(s.index)-1].RunID
	s.mu.RUnlock()

	return s.Get(runID)
}

// Trend returns how one report scored across archived runs, oldest
// first, so successive comparisons show the bid's movement. A
// non-positive limit uses defaults.HistoryListDefault.
func (s *Store) Trend(reportID int, limit int) ([]TrendPoint, error) {
	if limit <= 0 {
		limit = defaults.HistoryListDefault
	}

	s.mu.RLock()
	var runIDs []string
	for _, e := range s.index {
		for _, id := range e.ReportIDs {
			if id == reportID {
				runIDs = append(runIDs, e.RunID)
				break
			}
		}
	}
	s.mu.RUnlock()

	if len(runIDs) > limit {
		runIDs = runIDs[len(runIDs)-limit:]
	}

	points := make([]TrendPoint, 0, len(runIDs))
	for _, runID := range runIDs {
		record, err := s.Get(runID)
		if err != nil {
			return nil, err
		}
		for _, scored := range record.Result.Ranking {
			if scored.Report.ID != reportID {
				continue
			}
			points = append(points, TrendPoint{
				RunID:     record.RunID,
				CreatedAt: record.CreatedAt,
				Score:     scored.Score,
				Rank:      scored.Rank,
				Best:      record.BestReportID == reportID,
			})
			break
		}
	}
	return points, nil
}

// Delete removes one archived run.
func (s *Store) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, e := range s.index {
		if e.RunID == runID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err := os.Remove(s.runPath(runID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("history: removing run: %w", err)
	}
	s.index = append(s.index[:idx], s.index[idx+1:]...)
	return s.writeIndexLocked()
}

// Prune keeps the newest keep runs and deletes the rest, returning how
// many were removed. A non-positive keep uses defaults.HistoryKeepDefault.
func (s *Store) Prune(keep int) (int, error) {
	if keep <= 0 {
		keep = defaults.HistoryKeepDefault
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.index) <= keep {
		return 0, nil
	}

	drop := s.index[:len(s.index)-keep]
	for _, e := range drop {
		if err := os.Remove(s.runPath(e.RunID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("history: pruning run %s: %w", e.RunID, err)
		}
	}
	removed := len(drop)
	s.index = append([]IndexEntry(nil), s.index[removed:]...)
	if err := s.writeIndexLocked(); err != nil {
		return 0, err
	}
	return removed, nil
}

// Stats summarizes the archive: run count, distinct report ids, time
// span, and bytes on disk.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Runs: len(s.index)}
	if len(s.index) == 0 {
		return stats
	}

	distinct := make(map[int]struct{})
	for _, e := range s.index {
		for _, id := range e.ReportIDs {
			distinct[id] = struct{}{}
		}
		if fi, err := os.Stat(s.runPath(e.RunID)); err == nil {
			stats.DiskBytes += fi.Size()
		}
	}
	stats.DistinctReports = len(distinct)
	stats.Oldest = s.index[0].CreatedAt
	stats.Newest = s.index[len(s.index)-1].CreatedAt
	return stats
}

// FindByFingerprint returns index entries whose input fingerprint
// matches, newest first. Useful for spotting re-runs over identical
// report data.
func (s *Store) FindByFingerprint(fingerprint string) []IndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []IndexEntry
	for i := len(s.index) - 1; i >= 0; i-- {
		if s.index[i].Fingerprint == fingerprint {
			out = append(out, cloneEntry(s.index[i]))
		}
	}
	return out
}

func (s *Store) runPath(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// writeIndexLocked persists the index. Caller holds s.mu.
func (s *Store) writeIndexLocked() error {
	// Keep the on-disk index sorted chronologically even if entries
	// were loaded from an older, hand-edited file.
	sort.SliceStable(s.index, func(i, j int) bool {
		return s.index[i].CreatedAt.Before(s.index[j].CreatedAt)
	})
	if err := jsonutil.WriteFileAtomic(filepath.Join(s.dir, indexFile), s.index, 0o644); err != nil {
		return fmt.Errorf("history: writing index: %w", err)
	}
	return nil
}

func cloneEntry(e IndexEntry) IndexEntry {
	c := e
	c.ReportIDs = append([]int(nil), e.ReportIDs...)
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	return c
}
