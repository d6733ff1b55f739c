// Package push turns a draft into create calls against the rundown API.
//
// Items are walked once, in order. A cursor tracks where the next entry
// attaches: after a sibling, or inside a parent. References move the cursor
// without creating anything. Standalone entries and groups advance it to the
// id they were given. Group children chain on a second cursor rooted at the
// new group, so the outer chain resumes at the group rather than its last
// child.
package push

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/core/logging"
	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
)

// ErrRundownUnresolved is returned when the current rundown id cannot be
// determined. No create is attempted in that case.
var ErrRundownUnresolved = errors.New("could not resolve current rundown")

// Destination is the rundown API as seen by the engine.
type Destination interface {
	CurrentRundown(ctx context.Context) (ontime.Rundown, error)
	CreateEntry(ctx context.Context, rundownID string, entry ontime.CreateEntry) (ontime.Created, error)
}

// Snapshot is the remote rundown's existing entries in flat order, as
// parallel id and title lists.
type Snapshot struct {
	IDs    []string
	Titles []string
}

// SnapshotFromRundown builds a Snapshot from a fetched rundown. Untitled
// entries are listed under their display title, "<type> (<id>)".
func SnapshotFromRundown(r ontime.Rundown) Snapshot {
	var s Snapshot
	for _, e := range r.Ordered() {
		s.IDs = append(s.IDs, e.ID)
		s.Titles = append(s.Titles, e.DisplayTitle())
	}
	return s
}

// Last returns the last existing id, or "" for an empty rundown.
func (s Snapshot) Last() string {
	if len(s.IDs) == 0 {
		return ""
	}
	return s.IDs[len(s.IDs)-1]
}

// HasTitle reports whether an existing entry has exactly this title.
func (s Snapshot) HasTitle(title string) bool {
	return slices.Contains(s.Titles, title)
}

// cursor is the attachment point for the next create. At most one of after
// and parent is set by references; after a create inside a parent both are.
type cursor struct {
	after  string
	parent string
}

func (c cursor) attach(p ontime.CreateEntry) ontime.CreateEntry {
	p.After = c.after
	p.Parent = c.parent
	return p
}

// Observer receives each step as it is recorded.
type Observer func(Step)

// Engine executes pushes against a Destination.
type Engine struct {
	dest     Destination
	log      zerolog.Logger
	now      func() time.Time
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a callback for live progress.
func WithObserver(fn Observer) Option {
	return func(e *Engine) { e.observer = fn }
}

// WithClock replaces time.Now for step timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine that creates entries on dest.
func NewEngine(dest Destination, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{dest: dest, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the state of a single push.
type run struct {
	*Engine
	ctx       context.Context
	rundownID string
	snap      Snapshot
	report    *Report
}

// Push reads the current rundown once and creates items in order against it.
// Per-item failures are recorded in the report and do not stop the walk; the
// only error returned is ErrRundownUnresolved. Once the rundown is resolved
// the walk is not interrupted by ctx cancellation.
func (e *Engine) Push(ctx context.Context, items []formatter.Item) (*Report, error) {
	started := e.now()

	rundown, err := e.dest.CurrentRundown(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("resolve current rundown")
		return &Report{Started: started}, fmt.Errorf("%w: %w", ErrRundownUnresolved, err)
	}
	return e.walk(ctx, started, rundown, items)
}

// PushTo is Push against a rundown the caller already fetched. Its id is the
// target of every create and its entries are the duplicate-title snapshot.
func (e *Engine) PushTo(ctx context.Context, rundown ontime.Rundown, items []formatter.Item) (*Report, error) {
	return e.walk(ctx, e.now(), rundown, items)
}

func (e *Engine) walk(ctx context.Context, started time.Time, rundown ontime.Rundown, items []formatter.Item) (*Report, error) {
	report := &Report{Started: started}
	if rundown.ID == "" {
		e.log.Error().Msg("current rundown has no id")
		return report, fmt.Errorf("%w: empty id", ErrRundownUnresolved)
	}
	report.RundownID = rundown.ID

	snap := SnapshotFromRundown(rundown)
	r := &run{
		Engine:    e,
		ctx:       logging.WithRundownID(context.WithoutCancel(ctx), rundown.ID),
		rundownID: rundown.ID,
		snap:      snap,
		report:    report,
	}

	cur := cursor{after: snap.Last()}
	e.log.Debug().Ctx(r.ctx).
		Str("after", cur.after).
		Int("items", len(items)).
		Msg("push started")

	for _, item := range items {
		cur = r.item(cur, item)
	}

	report.Finished = e.now()
	e.log.Info().Ctx(r.ctx).
		Int("created", report.Count(StepCreated)).
		Int("skipped", report.Count(StepSkipped)).
		Int("failed", report.Count(StepFailed)).
		Msg("push finished")
	return report, nil
}

func (r *run) item(cur cursor, item formatter.Item) cursor {
	switch it := item.(type) {
	case *formatter.Reference:
		return r.reference(it)
	case *formatter.Standalone:
		if id, ok := r.event(cur, it.Entry, ""); ok {
			cur.after = id
		}
		return cur
	case *formatter.Group:
		return r.group(cur, it)
	default:
		panic(fmt.Sprintf("push: unknown item type %T", item))
	}
}

func (r *run) reference(ref *formatter.Reference) cursor {
	var next cursor
	switch ref.Mode {
	case formatter.ModeInto:
		next = cursor{parent: ref.ID}
	default:
		next = cursor{after: ref.ID}
	}

	r.log.Debug().Ctx(r.ctx).Str("mode", string(ref.Mode)).Str("id", ref.ID).Msg("cursor moved")
	r.record(Step{Kind: StepCursor, Type: string(ref.Mode), Title: ref.Title, ID: ref.ID})
	return next
}

// event creates one entry and returns its id. Duplicate titles and failures
// return ok=false and leave the caller's cursor alone.
func (r *run) event(cur cursor, entry formatter.TimedEntry, group string) (string, bool) {
	if r.snap.HasTitle(entry.Name) {
		r.log.Info().Ctx(r.ctx).Str("title", entry.Name).Msg("skipping duplicate title")
		r.record(Step{
			Kind:   StepSkipped,
			Type:   ontime.TypeEvent,
			Title:  entry.Name,
			Group:  group,
			Reason: "title already in rundown",
		})
		return "", false
	}

	// Times were validated on entry into the draft; a bad value here sends 0.
	duration, _ := timecode.ToMillis(entry.Duration)
	timeEnd, _ := timecode.ToMillis(entry.EndTime)

	payload := cur.attach(ontime.NewEvent(entry.Name, duration, timeEnd, entry.CountToEnd, entry.LinkStart))
	return r.create(payload, group)
}

func (r *run) group(cur cursor, g *formatter.Group) cursor {
	id, ok := r.create(cur.attach(ontime.NewGroup(g.Name, g.Color)), "")
	if !ok {
		for _, child := range g.Entries {
			r.record(Step{
				Kind:   StepSkipped,
				Type:   ontime.TypeEvent,
				Title:  child.Name,
				Group:  g.Name,
				Reason: "parent group not created",
			})
		}
		return cur
	}

	inner := cursor{parent: id}
	for _, child := range g.Entries {
		if childID, ok := r.event(inner, child, g.Name); ok {
			inner.after = childID
		}
	}

	cur.after = id
	return cur
}

func (r *run) create(payload ontime.CreateEntry, group string) (string, bool) {
	step := Step{
		Type:   payload.Type,
		Title:  payload.Title,
		Parent: payload.Parent,
		After:  payload.After,
		Group:  group,
	}

	created, err := r.dest.CreateEntry(r.ctx, r.rundownID, payload)
	if err != nil {
		r.log.Warn().Ctx(r.ctx).Err(err).Str("type", payload.Type).Str("title", payload.Title).Msg("create failed")
		step.Kind = StepFailed
		step.Err = err
		step.Reason = err.Error()
		r.record(step)
		return "", false
	}

	r.log.Info().Ctx(r.ctx).
		Str("type", payload.Type).
		Str("title", payload.Title).
		Str("id", created.ID).
		Str("parent", payload.Parent).
		Str("after", payload.After).
		Msg("entry created")
	step.Kind = StepCreated
	step.ID = created.ID
	r.record(step)
	return created.ID, true
}

func (r *run) record(s Step) {
	s.Time = r.now()
	r.report.Steps = append(r.report.Steps, s)
	if r.observer != nil {
		r.observer(s)
	}
}
