package push

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

// recorder is a Destination that records every create and assigns ids
// "<title>-id". Its rundown is built from existing.
type recorder struct {
	rundownID  string
	rundownErr error
	existing   Snapshot
	reads      int
	fail       map[string]bool
	calls      []ontime.CreateEntry
}

func newRecorder() *recorder {
	return &recorder{rundownID: "rd", fail: map[string]bool{}}
}

func (r *recorder) CurrentRundown(context.Context) (ontime.Rundown, error) {
	r.reads++
	if r.rundownErr != nil {
		return ontime.Rundown{}, r.rundownErr
	}
	return rundownOf(r.rundownID, r.existing), nil
}

func rundownOf(id string, snap Snapshot) ontime.Rundown {
	rd := ontime.Rundown{ID: id, Entries: map[string]ontime.Entry{}}
	for i, eid := range snap.IDs {
		rd.FlatOrder = append(rd.FlatOrder, eid)
		rd.Entries[eid] = ontime.Entry{ID: eid, Type: ontime.TypeEvent, Title: snap.Titles[i]}
	}
	return rd
}

func (r *recorder) CreateEntry(ctx context.Context, rundownID string, e ontime.CreateEntry) (ontime.Created, error) {
	r.calls = append(r.calls, e)
	if err := ctx.Err(); err != nil {
		return ontime.Created{}, err
	}
	if rundownID != r.rundownID {
		return ontime.Created{}, fmt.Errorf("wrong rundown %q", rundownID)
	}
	if r.fail[e.Title] {
		return ontime.Created{}, &httpjson.StatusError{Code: 500, Body: "boom"}
	}
	return ontime.Created{ID: e.Title + "-id"}, nil
}

func (r *recorder) titles() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.Title)
	}
	return out
}

func (r *recorder) call(t *testing.T, title string) ontime.CreateEntry {
	t.Helper()
	for _, c := range r.calls {
		if c.Title == title {
			return c
		}
	}
	t.Fatalf("no create call for %q", title)
	return ontime.CreateEntry{}
}

func standalone(name string) *formatter.Standalone {
	return &formatter.Standalone{Entry: timed(name)}
}

func timed(name string) formatter.TimedEntry {
	return formatter.TimedEntry{
		ItemID:    name,
		Name:      name,
		Duration:  "00:05:00",
		EndTime:   "00:00:00",
		LinkStart: true,
	}
}

func group(name string, children ...string) *formatter.Group {
	g := &formatter.Group{ID: "group-1", Name: name, Color: formatter.DefaultGroupColor}
	for _, c := range children {
		g.Entries = append(g.Entries, timed(c))
	}
	return g
}

func push(t *testing.T, dest *recorder, items []formatter.Item, existing Snapshot) *Report {
	t.Helper()
	dest.existing = existing
	report, err := NewEngine(dest, zerolog.Nop()).Push(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, dest.reads, "rundown should be read once per push")
	return report
}

func TestPush_EndToEndScenario(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		standalone("A"),
		group("G", "B", "C"),
		standalone("D"),
	}

	report := push(t, dest, items, Snapshot{})

	require.Equal(t, []string{"A", "G", "B", "C", "D"}, dest.titles())

	a := dest.call(t, "A")
	assert.Equal(t, ontime.TypeEvent, a.Type)
	assert.Empty(t, a.Parent)
	assert.Empty(t, a.After)

	g := dest.call(t, "G")
	assert.Equal(t, ontime.TypeGroup, g.Type)
	assert.Equal(t, "A-id", g.After)
	assert.Empty(t, g.Parent)
	assert.Equal(t, formatter.DefaultGroupColor, g.Colour)

	b := dest.call(t, "B")
	assert.Equal(t, "G-id", b.Parent)
	assert.Empty(t, b.After)

	c := dest.call(t, "C")
	assert.Equal(t, "G-id", c.Parent)
	assert.Equal(t, "B-id", c.After)

	d := dest.call(t, "D")
	assert.Equal(t, "G-id", d.After)
	assert.Empty(t, d.Parent)

	assert.Equal(t, "rd", report.RundownID)
	assert.Equal(t, 5, report.Count(StepCreated))
	assert.False(t, report.Failed())
}

func TestPush_DuplicateChildKeepsInnerCursor(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		standalone("A"),
		group("G", "B", "C"),
		standalone("D"),
	}
	snap := Snapshot{IDs: []string{"x"}, Titles: []string{"B"}}

	report := push(t, dest, items, snap)

	require.Equal(t, []string{"A", "G", "C", "D"}, dest.titles())

	assert.Equal(t, "x", dest.call(t, "A").After)

	c := dest.call(t, "C")
	assert.Equal(t, "G-id", c.Parent)
	assert.Empty(t, c.After)

	assert.Equal(t, 1, report.Count(StepSkipped))
}

func TestPush_StandaloneChain(t *testing.T) {
	dest := newRecorder()
	names := []string{"one", "two", "three", "four"}
	items := make([]formatter.Item, 0, len(names))
	for _, n := range names {
		items = append(items, standalone(n))
	}

	push(t, dest, items, Snapshot{IDs: []string{"e1", "e2"}, Titles: []string{"x", "y"}})

	require.Len(t, dest.calls, len(names))
	prev := "e2"
	for i, call := range dest.calls {
		assert.Equal(t, prev, call.After, "call %d", i)
		assert.Empty(t, call.Parent, "call %d", i)
		prev = call.Title + "-id"
	}
}

func TestPush_ReferenceAfter(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		standalone("first"),
		&formatter.Reference{ID: "X", Title: "Remote", Mode: formatter.ModeAfter},
		standalone("second"),
	}

	push(t, dest, items, Snapshot{IDs: []string{"X", "Y"}, Titles: []string{"Remote", "Other"}})

	assert.Equal(t, "Y", dest.call(t, "first").After)
	second := dest.call(t, "second")
	assert.Equal(t, "X", second.After)
	assert.Empty(t, second.Parent)
}

func TestPush_ReferenceInto(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		&formatter.Reference{ID: "X", Title: "Remote group", ItemType: "group", Mode: formatter.ModeInto},
		standalone("first"),
		standalone("second"),
	}

	push(t, dest, items, Snapshot{IDs: []string{"X"}, Titles: []string{"Remote group"}})

	first := dest.call(t, "first")
	assert.Equal(t, "X", first.Parent)
	assert.Empty(t, first.After)

	second := dest.call(t, "second")
	assert.Equal(t, "X", second.Parent, "parent is kept after a create")
	assert.Equal(t, "first-id", second.After)
}

func TestPush_ReferenceAfterClearsParent(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		&formatter.Reference{ID: "P", Mode: formatter.ModeInto},
		&formatter.Reference{ID: "Q", Mode: formatter.ModeAfter},
		standalone("s"),
	}

	report := push(t, dest, items, Snapshot{})

	s := dest.call(t, "s")
	assert.Equal(t, "Q", s.After)
	assert.Empty(t, s.Parent)
	assert.Equal(t, 2, report.Count(StepCursor))
}

func TestPush_DuplicateStandaloneNotSent(t *testing.T) {
	dest := newRecorder()
	items := []formatter.Item{
		standalone("A"),
		standalone("Dup"),
		standalone("B"),
	}

	push(t, dest, items, Snapshot{IDs: []string{"r1"}, Titles: []string{"Dup"}})

	assert.Equal(t, []string{"A", "B"}, dest.titles())
	assert.Equal(t, "A-id", dest.call(t, "B").After, "skip leaves the cursor on the last create")
}

func TestPush_DuplicateIsCaseSensitive(t *testing.T) {
	dest := newRecorder()
	push(t, dest, []formatter.Item{standalone("welcome")}, Snapshot{IDs: []string{"r"}, Titles: []string{"Welcome"}})
	assert.Equal(t, []string{"welcome"}, dest.titles())
}

func TestPush_FailureLeavesCursor(t *testing.T) {
	dest := newRecorder()
	dest.fail["broken"] = true
	items := []formatter.Item{
		standalone("A"),
		standalone("broken"),
		standalone("B"),
	}

	report := push(t, dest, items, Snapshot{})

	assert.Equal(t, []string{"A", "broken", "B"}, dest.titles())
	assert.Equal(t, "A-id", dest.call(t, "B").After)
	assert.True(t, report.Failed())
	assert.Equal(t, 2, report.Count(StepCreated))

	lines := report.Lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "API error (500): boom")
}

func TestPush_FailedGroupSkipsChildren(t *testing.T) {
	dest := newRecorder()
	dest.fail["G"] = true
	items := []formatter.Item{
		standalone("A"),
		group("G", "B", "C"),
		standalone("D"),
	}

	report := push(t, dest, items, Snapshot{})

	assert.Equal(t, []string{"A", "G", "D"}, dest.titles())
	assert.Equal(t, "A-id", dest.call(t, "D").After)
	assert.Equal(t, 2, report.Count(StepSkipped))
	assert.Equal(t, 1, report.Count(StepFailed))
}

func TestPush_FailedChildKeepsInnerCursor(t *testing.T) {
	dest := newRecorder()
	dest.fail["B"] = true

	push(t, dest, []formatter.Item{group("G", "B", "C")}, Snapshot{})

	c := dest.call(t, "C")
	assert.Equal(t, "G-id", c.Parent)
	assert.Empty(t, c.After)
}

func TestPush_GroupTitleNotDeduplicated(t *testing.T) {
	dest := newRecorder()
	push(t, dest, []formatter.Item{group("G")}, Snapshot{IDs: []string{"old"}, Titles: []string{"G"}})
	assert.Equal(t, []string{"G"}, dest.titles())
}

func TestPush_EventPayload(t *testing.T) {
	dest := newRecorder()
	entry := formatter.TimedEntry{
		Name:       "Sermon",
		Duration:   "00:35:00",
		EndTime:    "11:30:00",
		CountToEnd: true,
	}

	push(t, dest, []formatter.Item{&formatter.Standalone{Entry: entry}}, Snapshot{})

	call := dest.call(t, "Sermon")
	require.NotNil(t, call.Duration)
	require.NotNil(t, call.TimeEnd)
	assert.Equal(t, int64(35*60*1000), *call.Duration)
	assert.Equal(t, int64((11*3600+30*60)*1000), *call.TimeEnd)
	assert.True(t, *call.CountToEnd)
	assert.False(t, *call.LinkStart)
}

func TestPush_RundownUnresolvedIsFatal(t *testing.T) {
	dest := newRecorder()
	dest.rundownErr = errors.New("connection refused")

	_, err := NewEngine(dest, zerolog.Nop()).Push(context.Background(), []formatter.Item{standalone("A")})

	require.ErrorIs(t, err, ErrRundownUnresolved)
	assert.Empty(t, dest.calls)
}

func TestPush_EmptyRundownIDIsFatal(t *testing.T) {
	dest := newRecorder()
	dest.rundownID = ""

	_, err := NewEngine(dest, zerolog.Nop()).Push(context.Background(), []formatter.Item{standalone("A")})

	require.ErrorIs(t, err, ErrRundownUnresolved)
	assert.Empty(t, dest.calls)
}

func TestPush_ObserverAndClock(t *testing.T) {
	dest := newRecorder()
	clock := time.Date(2026, 10, 4, 9, 30, 0, 0, time.UTC)

	var seen []StepKind
	engine := NewEngine(dest, zerolog.Nop(),
		WithObserver(func(s Step) { seen = append(seen, s.Kind) }),
		WithClock(func() time.Time { return clock }),
	)

	report, err := engine.Push(context.Background(), []formatter.Item{
		&formatter.Reference{ID: "X", Mode: formatter.ModeAfter},
		standalone("A"),
	})
	require.NoError(t, err)

	assert.Equal(t, []StepKind{StepCursor, StepCreated}, seen)
	lines := report.Lines()
	assert.Equal(t, "[09:30:00] Set Context: Mode after ID X", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[09:30:00] Created event: A"))
	assert.Equal(t, "1 created, 0 skipped, 0 failed", report.Summary())
}

func TestPush_ContinuesAfterCancel(t *testing.T) {
	dest := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	engine := NewEngine(dest, zerolog.Nop(), WithObserver(func(Step) { cancel() }))
	report, err := engine.Push(ctx, []formatter.Item{standalone("A"), standalone("B")})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Count(StepCreated))
}

func TestSnapshotFromRundown(t *testing.T) {
	r := ontime.Rundown{
		FlatOrder: []string{"a", "ghost", "d1"},
		Entries: map[string]ontime.Entry{
			"a":  {ID: "a", Type: ontime.TypeEvent, Title: "Alpha"},
			"d1": {ID: "d1", Type: "delay", Title: ""},
		},
	}

	snap := SnapshotFromRundown(r)
	assert.Equal(t, []string{"a", "d1"}, snap.IDs)
	assert.Equal(t, []string{"Alpha", "delay (d1)"}, snap.Titles)
	assert.Equal(t, "d1", snap.Last())
	assert.True(t, snap.HasTitle("Alpha"))
	assert.False(t, snap.HasTitle("alpha"))
	assert.False(t, snap.HasTitle(""))
	assert.Equal(t, "", Snapshot{}.Last())
}

func TestPush_UntitledRemoteEntryIsNotADuplicate(t *testing.T) {
	dest := newRecorder()
	dest.existing = Snapshot{IDs: []string{"d1"}, Titles: []string{""}}

	report, err := NewEngine(dest, zerolog.Nop()).Push(context.Background(), []formatter.Item{standalone("")})
	require.NoError(t, err)

	require.Len(t, dest.calls, 1)
	assert.Equal(t, "d1", dest.calls[0].After)
	assert.Equal(t, 0, report.Count(StepSkipped))
}

func TestPushTo_UsesGivenRundown(t *testing.T) {
	dest := newRecorder()
	rd := rundownOf("rd", Snapshot{IDs: []string{"x"}, Titles: []string{"Dup"}})

	report, err := NewEngine(dest, zerolog.Nop()).PushTo(context.Background(), rd,
		[]formatter.Item{standalone("Dup"), standalone("New")})
	require.NoError(t, err)

	assert.Zero(t, dest.reads)
	assert.Equal(t, "rd", report.RundownID)
	assert.Equal(t, []string{"New"}, dest.titles())
	assert.Equal(t, "x", dest.call(t, "New").After)

	_, err = NewEngine(dest, zerolog.Nop()).PushTo(context.Background(), ontime.Rundown{}, []formatter.Item{standalone("A")})
	require.ErrorIs(t, err, ErrRundownUnresolved)
}
