package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
	"github.com/zurielbm/pp2ot-bridge/internal/data/stores"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
	"github.com/zurielbm/pp2ot-bridge/internal/mockapi"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/internal/store/jsonfile"
)

type cliEnv struct {
	flags  *Flags
	app    *bridge.App
	ontime *mockapi.Ontime
	source *mockapi.ProPresenter
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	stdinIsTerminal = func() bool { return false }

	ot := mockapi.NewOntime()
	pp := mockapi.NewProPresenter()
	otSrv := httptest.NewServer(ot.Handler())
	ppSrv := httptest.NewServer(pp.Handler())
	t.Cleanup(otSrv.Close)
	t.Cleanup(ppSrv.Close)

	dataDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.SettleDelay = 0

	database, err := db.Open(dataDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	log := zerolog.Nop()
	app := bridge.NewAppWith(
		&cfg,
		propresenter.NewClient(ppSrv.URL+"/v1", 5*time.Second, log),
		ontime.NewClient(otSrv.URL+"/data", 5*time.Second, log),
		stores.NewKVStore(database),
		jsonfile.NewHistoryStore(cfg.HistoryFile()),
		log,
	)

	return &cliEnv{
		flags: &Flags{
			Config:     &cfg,
			ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
			DataDir:    dataDir,
		},
		app:    app,
		ontime: ot,
		source: pp,
	}
}

// run executes one command line against a fresh command tree, returning
// stdout, printer output and the error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return e.runCtx(context.Background(), args...)
}

func (e *cliEnv) runCtx(ctx context.Context, args ...string) (string, string, error) {
	var out, status bytes.Buffer

	root := &cli.Command{
		Name:           "pp2ot",
		Writer:         &out,
		ErrWriter:      &status,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = RegisterAll(root, e.flags, e.app)

	ctx = printer.NewContext(ctx, printer.New(&status))
	err := root.Run(ctx, append([]string{"pp2ot"}, args...))
	return out.String(), status.String(), err
}

// mustRun fails the test on error and returns stdout and printer output.
func (e *cliEnv) mustRun(t *testing.T, args ...string) (string, string) {
	t.Helper()
	out, status, err := e.run(t, args...)
	require.NoError(t, err, "pp2ot %v\nstatus: %s", args, status)
	return out, status
}

func strPtr(s string) *string { return &s }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// seedRundown puts a small rundown on the fake scheduler.
func (e *cliEnv) seedRundown() {
	e.ontime.Seed(
		ontime.Entry{ID: "intro", Type: ontime.TypeEvent, Title: "Welcome", Cue: "1", Duration: 300000, TimeEnd: 36000000},
		ontime.Entry{ID: "worship", Type: ontime.TypeGroup, Title: "Worship", Colour: "#779BE7"},
		ontime.Entry{ID: "song-old", Type: ontime.TypeEvent, Title: "Amazing Grace", Parent: strPtr("worship")},
	)
}
