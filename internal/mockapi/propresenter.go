package mockapi

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-chi/chi/v5"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
)

// ProPresenter is a fake playlist source.
type ProPresenter struct {
	mu        sync.Mutex
	playlists map[string]propresenter.Playlist
}

// NewProPresenter returns a fake with no playlists.
func NewProPresenter() *ProPresenter {
	return &ProPresenter{playlists: map[string]propresenter.Playlist{}}
}

// AddPlaylist registers a playlist whose items have the given names. Every
// item gets type "presentation".
func (p *ProPresenter) AddPlaylist(name string, items ...string) propresenter.Playlist {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl := propresenter.Playlist{
		ID: propresenter.Identifier{
			UUID:  fmt.Sprintf("pl-%d", len(p.playlists)+1),
			Name:  name,
			Index: len(p.playlists),
		},
	}
	for i, item := range items {
		pl.Items = append(pl.Items, propresenter.Item{
			ID: propresenter.Identifier{
				UUID:  fmt.Sprintf("%s-item-%d", pl.ID.UUID, i+1),
				Name:  item,
				Index: i,
			},
			Type: "presentation",
		})
	}
	p.playlists[name] = pl
	return pl
}

// Generate fills the fake with n random playlists drawn from seed.
func (p *ProPresenter) Generate(seed int64, n int) {
	faker := gofakeit.New(seed)
	for i := 0; i < n; i++ {
		items := make([]string, faker.Number(3, 10))
		for j := range items {
			items[j] = faker.HipsterSentence(3)
		}
		p.AddPlaylist(fmt.Sprintf("%s %s", faker.WeekDay(), faker.HipsterWord()), items...)
	}
}

// Routes mounts the API under /v1.
func (p *ProPresenter) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/playlists", p.handleList)
		r.Get("/playlist/{name}", p.handleGet)
	})
}

// Handler returns a standalone router serving the fake.
func (p *ProPresenter) Handler() http.Handler {
	r := chi.NewRouter()
	p.Routes(r)
	return r
}

func (p *ProPresenter) handleList(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]propresenter.PlaylistInfo, 0, len(p.playlists))
	for _, pl := range p.playlists {
		out = append(out, propresenter.PlaylistInfo{ID: pl.ID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Index < out[j].ID.Index })
	writeJSON(w, http.StatusOK, out)
}

func (p *ProPresenter) handleGet(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, "bad playlist name", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pl, ok := p.playlists[name]
	if !ok {
		http.Error(w, fmt.Sprintf("playlist %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}
