package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
)

func (e *cliEnv) draftSongs(t *testing.T) {
	t.Helper()
	e.source.AddPlaylist("Sunday", "Song A", "Song B")
	e.mustRun(t, "draft", "add", "--all", "Sunday")
}

func TestPush_EmptyDraft(t *testing.T) {
	e := newCLIEnv(t)

	_, status := e.mustRun(t, "push", "--yes")
	assert.Contains(t, status, "Nothing to push")
	assert.Empty(t, e.ontime.Requests())
}

func TestPush_RequiresConfirmationWithoutTerminal(t *testing.T) {
	e := newCLIEnv(t)
	e.draftSongs(t)

	_, _, err := e.run(t, "push")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, e.ontime.Requests())
}

func TestPush_DryRun(t *testing.T) {
	e := newCLIEnv(t)
	e.seedRundown()
	e.draftSongs(t)

	_, status := e.mustRun(t, "push", "--dry-run")
	assert.Contains(t, status, "Dry run against")
	assert.Contains(t, status, "Created event: Song A")
	assert.Contains(t, status, "Dry run complete")
	assert.Empty(t, e.ontime.Requests())

	m, err := e.app.Draft.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	records, err := e.app.History.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPush_CreatesAndRecords(t *testing.T) {
	e := newCLIEnv(t)
	e.seedRundown()
	e.draftSongs(t)

	out, status := e.mustRun(t, "push", "--yes")
	assert.Contains(t, status, "Pushing to")
	assert.Contains(t, status, "Created event: Song A")
	assert.Contains(t, status, "Created event: Song B")
	assert.Contains(t, status, "Push complete")
	assert.Contains(t, out, "Song B")

	reqs := e.ontime.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Song A", reqs[0].Title)
	assert.Equal(t, "Song B", reqs[1].Title)

	m, err := e.app.Draft.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	out, _ = e.mustRun(t, "history", "ls")
	assert.Contains(t, out, "CREATED")
	assert.Contains(t, out, "push")

	out, _ = e.mustRun(t, "history", "show")
	assert.Contains(t, out, "# Push")
	assert.Contains(t, out, "Created event: Song A")

	_, status = e.mustRun(t, "draft", "restore")
	assert.Contains(t, status, "Draft restored 2 items")

	t.Run("second push skips existing titles", func(t *testing.T) {
		_, status := e.mustRun(t, "push", "--yes")
		assert.Contains(t, status, "Skipped event: Song A")
		assert.Len(t, e.ontime.Requests(), 2)
	})
}

func TestPush_KeepDraft(t *testing.T) {
	e := newCLIEnv(t)
	e.draftSongs(t)

	e.mustRun(t, "push", "--yes", "--keep")

	m, err := e.app.Draft.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestPush_FailuresExitNonZero(t *testing.T) {
	e := newCLIEnv(t)
	e.ontime.FailTitles["Song A"] = true
	e.draftSongs(t)

	_, status, err := e.run(t, "push", "--yes")
	require.Error(t, err)

	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())

	assert.Contains(t, status, "Failed event: Song A")
	assert.Contains(t, status, "Created event: Song B")
	assert.Contains(t, status, "Push finished with failures")

	out, _ := e.mustRun(t, "history", "show", "failed")
	assert.Contains(t, out, "Failed event: Song A")
}

func TestPush_JSON(t *testing.T) {
	e := newCLIEnv(t)
	e.draftSongs(t)

	out, _ := e.mustRun(t, "push", "--yes", "--json")

	var rec history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 2, rec.Created)
	assert.False(t, rec.DryRun)
}

func TestPush_RundownUnavailable(t *testing.T) {
	e := newCLIEnv(t)
	e.ontime.Unavailable = true
	e.draftSongs(t)

	_, _, err := e.run(t, "push", "--yes")
	require.Error(t, err)
	assert.Empty(t, e.ontime.Requests())

	m, err := e.app.Draft.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestHistory_Empty(t *testing.T) {
	e := newCLIEnv(t)

	_, status := e.mustRun(t, "history", "ls")
	assert.Contains(t, status, "No pushes recorded")

	_, _, err := e.run(t, "history", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching push recorded")
}

func TestHistory_Clear(t *testing.T) {
	e := newCLIEnv(t)
	e.draftSongs(t)
	e.mustRun(t, "push", "--yes")

	_, status := e.mustRun(t, "history", "clear")
	assert.Contains(t, status, "History cleared")

	records, err := e.app.History.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
