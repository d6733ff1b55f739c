package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

func TestFromReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	report := &push.Report{
		RundownID: "rd-1",
		Started:   start,
		Finished:  start.Add(time.Second),
		Steps: []push.Step{
			{Kind: push.StepCursor, Time: start, Type: "after", ID: "ev-0"},
			{Kind: push.StepCreated, Time: start, Type: "event", Title: "A", ID: "ev-1"},
			{Kind: push.StepSkipped, Time: start, Type: "event", Title: "B", Reason: "title already in rundown"},
			{
				Kind: push.StepFailed, Time: start, Type: "event", Title: "C",
				Err: &httpjson.StatusError{Code: 500, Body: "boom"},
			},
		},
	}

	rec := FromReport("k3x9", report, false)

	assert.Equal(t, "k3x9", rec.ID)
	assert.Equal(t, "rd-1", rec.RundownID)
	assert.Equal(t, 1, rec.Created)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 1, rec.Failed)
	assert.True(t, rec.HasFailures())
	assert.Equal(t, time.Second, rec.Duration())
	assert.Len(t, rec.Lines, 4)
	assert.Equal(t, "[09:00:00] Failed event: C: API error (500): boom", rec.Lines[3])
}
