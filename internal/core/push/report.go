package push

import (
	"fmt"
	"time"

	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

// StepKind classifies one outcome of a push.
type StepKind int

const (
	// StepCursor is a reference repositioning the cursor.
	StepCursor StepKind = iota
	// StepCreated is a successful create.
	StepCreated
	// StepSkipped is an item not sent, for example a title already present.
	StepSkipped
	// StepFailed is a create the destination rejected or never answered.
	StepFailed
)

func (k StepKind) String() string {
	switch k {
	case StepCursor:
		return "cursor"
	case StepCreated:
		return "created"
	case StepSkipped:
		return "skipped"
	case StepFailed:
		return "failed"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *StepKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "cursor":
		*k = StepCursor
	case "created":
		*k = StepCreated
	case "skipped":
		*k = StepSkipped
	case "failed":
		*k = StepFailed
	default:
		return fmt.Errorf("unknown step kind %q", b)
	}
	return nil
}

// Step is one entry of a push report.
type Step struct {
	Kind StepKind  `json:"kind"`
	Time time.Time `json:"time"`
	// Type is "event" or "group" for creates, the reference mode for cursor
	// steps.
	Type  string `json:"type"`
	Title string `json:"title"`
	// ID is the created id, or the referenced id for cursor steps.
	ID     string `json:"id,omitempty"`
	Parent string `json:"parent,omitempty"`
	After  string `json:"after,omitempty"`
	// Group is the title of the enclosing group for group children.
	Group  string `json:"group,omitempty"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// Line renders the step as a timestamped log line.
func (s Step) Line() string {
	ts := s.Time.Format("15:04:05")
	name := s.Title
	if s.Group != "" {
		name = s.Group + " / " + s.Title
	}

	switch s.Kind {
	case StepCursor:
		return fmt.Sprintf("[%s] Set Context: Mode %s ID %s", ts, s.Type, s.ID)
	case StepCreated:
		return fmt.Sprintf("[%s] Created %s: %s (%s)", ts, s.Type, name, s.ID)
	case StepSkipped:
		return fmt.Sprintf("[%s] Skipped %s: %s (%s)", ts, s.Type, name, s.Reason)
	case StepFailed:
		return fmt.Sprintf("[%s] Failed %s: %s: %s", ts, s.Type, name, httpjson.Describe(s.Err))
	default:
		return fmt.Sprintf("[%s] %s", ts, name)
	}
}

// Report is the outcome of one push.
type Report struct {
	RundownID string    `json:"rundown_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Steps     []Step    `json:"steps"`
}

// Count returns how many steps have kind k.
func (r *Report) Count(k StepKind) int {
	n := 0
	for _, s := range r.Steps {
		if s.Kind == k {
			n++
		}
	}
	return n
}

// Failed reports whether any create failed.
func (r *Report) Failed() bool {
	return r.Count(StepFailed) > 0
}

// Lines renders every step.
func (r *Report) Lines() []string {
	out := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, s.Line())
	}
	return out
}

// Summary is a one-line count of outcomes.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d created, %d skipped, %d failed",
		r.Count(StepCreated), r.Count(StepSkipped), r.Count(StepFailed))
}
