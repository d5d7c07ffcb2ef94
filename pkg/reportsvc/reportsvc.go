// Package reportsvc provides access to analyzed bid reports. It is the
// only package that knows how reports are stored or served; everything
// else consumes them through the Source interface (or its narrow
// compare.Source subset).
//
// Two implementations exist: Client speaks the reporting service's HTTP
// API with rate limiting and retries, FileSource serves a JSON file from
// disk for offline use, demos, and tests.
package reportsvc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// Sentinel errors for report retrieval failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrNotFound indicates one or more requested report ids do not
	// exist at the source.
	ErrNotFound = errors.New("reportsvc: report not found")

	// ErrServiceUnavailable indicates the reporting service answered
	// with a retryable failure (5xx, 429) and retries were exhausted.
	ErrServiceUnavailable = errors.New("reportsvc: service unavailable")

	// ErrDecode indicates the source returned data that is not valid
	// report JSON. The service owns the report contract; the engine
	// never sees a malformed report.
	ErrDecode = errors.New("reportsvc: malformed report data")
)

// Source is the full retrieval surface the CLI and MCP tools consume.
// The comparison engine needs only the ReportsByID subset
// (compare.Source); both implementations here satisfy both.
type Source interface {
	// List returns every report the source knows about.
	List(ctx context.Context) ([]bidreport.Report, error)

	// Report returns a single report by id, or ErrNotFound.
	Report(ctx context.Context, id int) (*bidreport.Report, error)

	// ReportsByID resolves ids in the given order. Any id the source
	// cannot resolve fails the whole call with ErrNotFound.
	ReportsByID(ctx context.Context, ids []int) ([]bidreport.Report, error)
}

// notFoundErr builds the ErrNotFound wrap for one or more missing ids.
func notFoundErr(ids []int) error {
	if len(ids) == 1 {
		return fmt.Errorf("%w: report %d", ErrNotFound, ids[0])
	}
	return fmt.Errorf("%w: reports %s", ErrNotFound, joinIDs(ids, ", "))
}

// joinIDs renders ids separated by sep ("1,2,3" for URLs, "1, 2, 3"
// for error messages).
func joinIDs(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

// selectByID picks the requested ids out of fetched, in request order.
// Extra reports the source returned are dropped; missing ids fail with
// ErrNotFound naming every absent id.
func selectByID(fetched []bidreport.Report, ids []int) ([]bidreport.Report, error) {
	byID := make(map[int]int, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = i
	}

	out := make([]bidreport.Report, 0, len(ids))
	var missing []int
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, fetched[idx])
	}
	if len(missing) > 0 {
		return nil, notFoundErr(missing)
	}
	return out, nil
}
