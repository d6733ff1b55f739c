// Package bridge wires the playlist source, the rundown destination and the
// local draft into the services the CLI commands call.
package bridge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/core/logging"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
)

// SourceAPI is the playlist side as the services use it.
type SourceAPI interface {
	BaseURL() string
	Playlists(ctx context.Context) ([]propresenter.PlaylistInfo, error)
	Playlist(ctx context.Context, name string) (propresenter.Playlist, error)
	Ping(ctx context.Context) error
}

// RundownAPI is the rundown side as the services use it.
type RundownAPI interface {
	BaseURL() string
	CurrentRundown(ctx context.Context) (ontime.Rundown, error)
	CreateEntry(ctx context.Context, rundownID string, entry ontime.CreateEntry) (ontime.Created, error)
	Ping(ctx context.Context) error
}

// App is the central entry point for all bridge operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Draft   *DraftService
	Push    *PushService
	Source  *SourceService
	Rundown *RundownService

	Config  *config.Config
	History history.Store
}

// NewApp builds an App whose API clients point at the configured hosts.
func NewApp(cfg *config.Config, store kv.KV, hist history.Store, log zerolog.Logger) *App {
	source := propresenter.NewClient(cfg.SourceBaseURL(), cfg.RequestTimeout, logging.API("propresenter", cfg.SourceBaseURL()))
	dest := ontime.NewClient(cfg.DestinationBaseURL(), cfg.RequestTimeout, logging.API("ontime", cfg.DestinationBaseURL()))
	return NewAppWith(cfg, source, dest, store, hist, log)
}

// NewAppWith builds an App from explicit API implementations.
func NewAppWith(cfg *config.Config, source SourceAPI, dest RundownAPI, store kv.KV, hist history.Store, log zerolog.Logger) *App {
	drafts := NewDraftService(store, cfg, log)
	rundowns := NewRundownService(dest)

	return &App{
		Draft:   drafts,
		Push:    NewPushService(dest, drafts, store, hist, cfg, log),
		Source:  NewSourceService(source, store, log),
		Rundown: rundowns,
		Config:  cfg,
		History: hist,
	}
}
