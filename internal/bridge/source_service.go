package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
)

// PlaylistCacheTTL is how long a fetched playlist is reused by commands that
// address items by position.
const PlaylistCacheTTL = 10 * time.Minute

// SourceService reads playlists from the presentation API.
type SourceService struct {
	api   SourceAPI
	cache *kv.TypedKV[propresenter.Playlist]
	log   zerolog.Logger
}

func NewSourceService(api SourceAPI, store kv.KV, log zerolog.Logger) *SourceService {
	return &SourceService{
		api:   api,
		cache: kv.Scoped[propresenter.Playlist](store, "playlist"),
		log:   log,
	}
}

// BaseURL is the source API root.
func (s *SourceService) BaseURL() string {
	return s.api.BaseURL()
}

// Playlists lists all playlists.
func (s *SourceService) Playlists(ctx context.Context) ([]propresenter.PlaylistInfo, error) {
	return s.api.Playlists(ctx)
}

// Playlist fetches a playlist and caches it, so item numbers shown to the
// user stay valid for a later `draft add`.
func (s *SourceService) Playlist(ctx context.Context, name string) (propresenter.Playlist, error) {
	pl, err := s.api.Playlist(ctx, name)
	if err != nil {
		return propresenter.Playlist{}, err
	}

	if err := s.cache.SetTTL(ctx, name, pl, PlaylistCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("playlist", name).Msg("cache playlist")
	}
	return pl, nil
}

// CachedPlaylist returns the playlist as last shown, fetching it when the
// cache is empty or expired.
func (s *SourceService) CachedPlaylist(ctx context.Context, name string) (propresenter.Playlist, error) {
	pl, err := s.cache.Get(ctx, name)
	switch {
	case err == nil:
		s.log.Debug().Str("playlist", name).Msg("using cached playlist")
		return pl, nil
	case kv.IsNotFound(err):
		return s.Playlist(ctx, name)
	default:
		return propresenter.Playlist{}, fmt.Errorf("read playlist cache: %w", err)
	}
}

// Ping checks that the source API answers.
func (s *SourceService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}
