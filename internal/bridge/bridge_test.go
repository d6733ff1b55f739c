package bridge

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
	"github.com/zurielbm/pp2ot-bridge/internal/data/stores"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
	"github.com/zurielbm/pp2ot-bridge/internal/mockapi"
	"github.com/zurielbm/pp2ot-bridge/internal/store/jsonfile"
)

type testEnv struct {
	app     *App
	kv      *stores.KVStore
	ontime  *mockapi.Ontime
	source  *mockapi.ProPresenter
	slept   []time.Duration
	cfg     *config.Config
	history *jsonfile.HistoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ot := mockapi.NewOntime()
	pp := mockapi.NewProPresenter()

	otSrv := httptest.NewServer(ot.Handler())
	t.Cleanup(otSrv.Close)
	ppSrv := httptest.NewServer(pp.Handler())
	t.Cleanup(ppSrv.Close)

	dataDir := t.TempDir()
	database, err := db.Open(dataDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir

	store := stores.NewKVStore(database)
	hist := jsonfile.NewHistoryStore(cfg.HistoryFile())

	app := NewAppWith(
		&cfg,
		propresenter.NewClient(ppSrv.URL+"/v1", time.Second, zerolog.Nop()),
		ontime.NewClient(otSrv.URL+"/data", time.Second, zerolog.Nop()),
		store, hist, zerolog.Nop(),
	)

	env := &testEnv{app: app, kv: store, ontime: ot, source: pp, cfg: &cfg, history: hist}

	ids := 0
	app.Push.sleep = func(d time.Duration) { env.slept = append(env.slept, d) }
	app.Push.newID = func() string {
		ids++
		return fmt.Sprintf("push%d", ids)
	}
	app.Push.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return env
}

func strPtr(s string) *string { return &s }

// seedService puts a small service rundown in the fake.
func (e *testEnv) seedService() {
	e.ontime.Seed(
		ontime.Entry{ID: "intro", Type: ontime.TypeEvent, Title: "Welcome", TimeEnd: 10 * 60 * 60 * 1000},
		ontime.Entry{ID: "worship", Type: ontime.TypeGroup, Title: "Worship"},
		ontime.Entry{ID: "song-old", Type: ontime.TypeEvent, Title: "Amazing Grace", Parent: strPtr("worship")},
	)
}
