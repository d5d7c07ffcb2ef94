package reportsvc

import (
	"context"
	"fmt"
	"os"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/jsonutil"
)

// FileSource serves reports from a JSON array on disk. It satisfies the
// same Source seam as Client, so comparisons run offline against an
// exported report file exactly as they would against the live service.
// Safe for concurrent use; the loaded set is immutable and callers
// receive deep copies.
type FileSource struct {
	path    string
	reports []bidreport.Report
	byID    map[int]int
}

var _ Source = (*FileSource)(nil)

// NewFileSource loads the JSON report array at path.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reportsvc: reading %s: %w", path, err)
	}

	var reports []bidreport.Report
	if err := jsonutil.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	byID := make(map[int]int, len(reports))
	for i := range reports {
		byID[reports[i].ID] = i
	}
	return &FileSource{path: path, reports: reports, byID: byID}, nil
}

// List returns every report in file order.
func (s *FileSource) List(_ context.Context) ([]bidreport.Report, error) {
	return bidreport.CloneSlice(s.reports), nil
}

// Report returns a single report by id, or ErrNotFound.
func (s *FileSource) Report(_ context.Context, id int) (*bidreport.Report, error) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, id)
	}
	return s.reports[idx].Clone(), nil
}

// ReportsByID resolves ids in the given order; any id absent from the
// file fails the whole call with ErrNotFound naming the missing ids.
func (s *FileSource) ReportsByID(_ context.Context, ids []int) ([]bidreport.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]bidreport.Report, 0, len(ids))
	var missing []int
	for _, id := range ids {
		idx, ok := s.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, *s.reports[idx].Clone())
	}
	if len(missing) > 0 {
		return nil, notFoundErr(missing)
	}
	return out, nil
}
