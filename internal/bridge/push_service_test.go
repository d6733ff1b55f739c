package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
)

// buildServiceDraft drafts: songs into Worship, then a Message group after
// Welcome.
func buildServiceDraft(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	rundown := env.ontime.Rundown()
	_, err := env.app.Draft.AddReference(ctx, rundown.Entries["worship"], "")
	require.NoError(t, err)
	_, err = env.app.Draft.AddItems(ctx, playlist("Amazing Grace", "Song A").Items, AddOptions{})
	require.NoError(t, err)

	_, err = env.app.Draft.AddReference(ctx, rundown.Entries["intro"], "")
	require.NoError(t, err)
	_, err = env.app.Draft.AddGroup(ctx, "Message", "#ff8800")
	require.NoError(t, err)
	_, err = env.app.Draft.AddItems(ctx, playlist("Sermon").Items, AddOptions{})
	require.NoError(t, err)
}

func TestPushService_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	ctx := context.Background()

	var observed []push.StepKind
	res, err := env.app.Push.Push(ctx, PushOptions{
		Observer: func(s push.Step) { observed = append(observed, s.Kind) },
	})
	require.NoError(t, err)

	assert.Equal(t, []push.StepKind{
		push.StepCursor,  // into Worship
		push.StepSkipped, // Amazing Grace already exists
		push.StepCreated, // Song A
		push.StepCursor,  // after Welcome
		push.StepCreated, // Message
		push.StepCreated, // Sermon
	}, observed)

	reqs := env.ontime.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "Song A", reqs[0].Title)
	assert.Equal(t, "worship", reqs[0].Parent)
	assert.Empty(t, reqs[0].After)

	assert.Equal(t, ontime.TypeGroup, reqs[1].Type)
	assert.Equal(t, "intro", reqs[1].After)
	assert.Equal(t, "#ff8800", reqs[1].Colour)

	assert.Equal(t, "Sermon", reqs[2].Title)
	assert.Equal(t, "group-2", reqs[2].Parent)
	require.NotNil(t, reqs[2].TimeEnd)
	assert.Equal(t, int64((10*60+5)*60*1000), *reqs[2].TimeEnd)

	assert.Equal(t,
		[]string{"intro", "group-2", "event-3", "worship", "event-1", "song-old"},
		res.Rundown.FlatOrder, "result carries the refreshed rundown")

	assert.Equal(t, []time.Duration{env.cfg.SettleDelay}, env.slept)

	m, err := env.app.Draft.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len(), "draft is cleared after a push")

	records, err := env.history.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "push1", records[0].ID)
	assert.Equal(t, "default", records[0].RundownID)
	assert.Equal(t, 3, records[0].Created)
	assert.Equal(t, 1, records[0].Skipped)

	restored, ok, err := env.app.Draft.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, restored.Len())

	has, err := env.kv.Has(ctx, pushLockKey)
	require.NoError(t, err)
	assert.False(t, has, "lock is released")
}

func TestPushService_FailuresStillClear(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	env.ontime.FailTitles["Message"] = true
	ctx := context.Background()

	res, err := env.app.Push.Push(ctx, PushOptions{})
	require.NoError(t, err)

	assert.True(t, res.Report.Failed())
	assert.Equal(t, 1, res.Record.Failed)
	assert.Equal(t, 2, res.Record.Skipped, "duplicate plus the orphaned Sermon")

	m, err := env.app.Draft.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	last, err := env.history.LastFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Record.ID, last.ID)
}

func TestPushService_KeepDraft(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	ctx := context.Background()

	_, err := env.app.Push.Push(ctx, PushOptions{KeepDraft: true})
	require.NoError(t, err)

	m, err := env.app.Draft.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())
}

func TestPushService_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	ctx := context.Background()

	res, err := env.app.Push.Push(ctx, PushOptions{DryRun: true})
	require.NoError(t, err)

	assert.Empty(t, env.ontime.Requests(), "dry run sends nothing")
	assert.Empty(t, env.slept)
	assert.True(t, res.Record.DryRun)
	assert.Equal(t, 3, res.Record.Created)

	var planned []string
	for _, s := range res.Report.Steps {
		if s.Kind == push.StepCreated {
			planned = append(planned, s.ID)
		}
	}
	assert.Equal(t, []string{"planned-event-1", "planned-group-2", "planned-event-3"}, planned)
	assert.Equal(t, "planned-group-2", res.Report.Steps[5].Parent, "children chain onto planned ids")

	m, err := env.app.Draft.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())

	records, err := env.history.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPushService_EmptyDraft(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.app.Push.Push(context.Background(), PushOptions{})
	require.ErrorIs(t, err, ErrEmptyDraft)
}

func TestPushService_Locked(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	ctx := context.Background()

	require.NoError(t, env.kv.SetTTL(ctx, pushLockKey, "other", time.Minute))

	_, err := env.app.Push.Push(ctx, PushOptions{})
	require.ErrorIs(t, err, ErrPushInProgress)
	assert.Empty(t, env.ontime.Requests())

	// Dry runs do not take the lock.
	_, err = env.app.Push.Push(ctx, PushOptions{DryRun: true})
	require.NoError(t, err)
}

func TestPushService_RundownUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)
	env.ontime.Unavailable = true
	ctx := context.Background()

	_, err := env.app.Push.Push(ctx, PushOptions{})
	require.ErrorIs(t, err, push.ErrRundownUnresolved)

	m, err := env.app.Draft.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len(), "draft survives a push that never started")

	_, err = env.history.List(ctx)
	require.NoError(t, err)
	_, err = env.history.LastFailed(ctx)
	assert.ErrorIs(t, err, history.ErrNotFound)

	has, err := env.kv.Has(ctx, pushLockKey)
	require.NoError(t, err)
	assert.False(t, has)
}

// readCounter counts rundown reads made before the first create.
type readCounter struct {
	RundownAPI
	reads       int
	readsBefore int
	created     bool
}

func (c *readCounter) CurrentRundown(ctx context.Context) (ontime.Rundown, error) {
	c.reads++
	return c.RundownAPI.CurrentRundown(ctx)
}

func (c *readCounter) CreateEntry(ctx context.Context, rundownID string, e ontime.CreateEntry) (ontime.Created, error) {
	if !c.created {
		c.created = true
		c.readsBefore = c.reads
	}
	return c.RundownAPI.CreateEntry(ctx, rundownID, e)
}

func TestPushService_SingleRundownRead(t *testing.T) {
	env := newTestEnv(t)
	env.seedService()
	buildServiceDraft(t, env)

	counter := &readCounter{RundownAPI: env.app.Push.dest}
	env.app.Push.dest = counter

	res, err := env.app.Push.Push(context.Background(), PushOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, counter.readsBefore, "creates are planned from one rundown read")
	assert.Equal(t, env.ontime.Rundown().ID, res.Record.RundownID)
	assert.Equal(t, 1, res.Report.Count(push.StepSkipped), "Amazing Grace comes from the same read")
}
