// Package history defines the record kept for each push and the store that
// persists them.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
)

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("push record not found")

// Record is one completed push, kept for later review.
type Record struct {
	ID        string    `json:"id"`
	RundownID string    `json:"rundown_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	// Lines is the rendered report. Errors do not survive encoding, so the
	// text is captured at record time.
	Lines []string    `json:"lines"`
	Steps []push.Step `json:"steps"`
}

// FromReport builds a record for report.
func FromReport(id string, report *push.Report, dryRun bool) Record {
	return Record{
		ID:        id,
		RundownID: report.RundownID,
		Started:   report.Started,
		Finished:  report.Finished,
		DryRun:    dryRun,
		Created:   report.Count(push.StepCreated),
		Skipped:   report.Count(push.StepSkipped),
		Failed:    report.Count(push.StepFailed),
		Lines:     report.Lines(),
		Steps:     report.Steps,
	}
}

// HasFailures returns true if any create in the push failed.
func (r *Record) HasFailures() bool {
	return r.Failed > 0
}

// Duration is the wall time the push took.
func (r *Record) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Store persists push records, newest first.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, record Record, maxEntries int) error
	Clear(ctx context.Context) error
	LastFailed(ctx context.Context) (Record, error)
}
