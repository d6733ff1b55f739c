// Package mockapi provides in-memory stand-ins for the rundown scheduler and
// the presentation playlist APIs. They back the `mock` command and the
// end-to-end tests.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
)

// Ontime is a fake rundown scheduler. It assigns sequential ids and keeps
// flatOrder consistent with the parent/after fields of created entries.
type Ontime struct {
	mu       sync.Mutex
	rundown  ontime.Rundown
	nextID   int
	requests []ontime.CreateEntry

	// FailTitles makes creates with these titles answer 500.
	FailTitles map[string]bool
	// Unavailable makes GET /rundowns/current answer 503.
	Unavailable bool
}

// NewOntime returns a fake with an empty rundown.
func NewOntime() *Ontime {
	return &Ontime{
		rundown: ontime.Rundown{
			ID:        "default",
			Title:     "Default rundown",
			FlatOrder: []string{},
			Entries:   map[string]ontime.Entry{},
		},
		FailTitles: map[string]bool{},
	}
}

// Seed appends entries as if they already existed. Entries with a parent are
// placed after their parent's last descendant.
func (o *Ontime) Seed(entries ...ontime.Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, e := range entries {
		pos := len(o.rundown.FlatOrder)
		if e.Parent != nil {
			pos = o.endOf(*e.Parent)
		}
		o.insert(e, pos)
	}
}

// Requests returns every create payload received, in order.
func (o *Ontime) Requests() []ontime.CreateEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.requests)
}

// Rundown returns a copy of the current state.
func (o *Ontime) Rundown() ontime.Rundown {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// Routes mounts the API under /data.
func (o *Ontime) Routes(r chi.Router) {
	r.Route("/data/rundowns", func(r chi.Router) {
		r.Get("/current", o.handleCurrent)
		r.Post("/{rundownID}/entry", o.handleCreate)
	})
}

// Handler returns a standalone router serving the fake.
func (o *Ontime) Handler() http.Handler {
	r := chi.NewRouter()
	o.Routes(r)
	return r
}

func (o *Ontime) handleCurrent(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.Unavailable {
		http.Error(w, "rundown unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, o.snapshot())
}

func (o *Ontime) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ontime.CreateEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests = append(o.requests, req)

	if id := chi.URLParam(r, "rundownID"); id != o.rundown.ID {
		http.Error(w, fmt.Sprintf("rundown %q not found", id), http.StatusNotFound)
		return
	}
	if req.Type != ontime.TypeEvent && req.Type != ontime.TypeGroup {
		http.Error(w, fmt.Sprintf("unsupported entry type %q", req.Type), http.StatusBadRequest)
		return
	}
	if o.FailTitles[req.Title] {
		http.Error(w, "internal error creating "+req.Title, http.StatusInternalServerError)
		return
	}

	entry, pos, err := o.place(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	o.insert(entry, pos)
	o.rundown.Revision++
	writeJSON(w, http.StatusOK, entry)
}

// place resolves the new entry's parent and flat-order position.
func (o *Ontime) place(req ontime.CreateEntry) (ontime.Entry, int, error) {
	o.nextID++
	entry := ontime.Entry{
		ID:     fmt.Sprintf("%s-%d", req.Type, o.nextID),
		Type:   req.Type,
		Title:  req.Title,
		Colour: req.Colour,
	}
	if req.Duration != nil {
		entry.Duration = *req.Duration
	}
	if req.TimeEnd != nil {
		entry.TimeEnd = *req.TimeEnd
		entry.TimeStart = max(entry.TimeEnd-entry.Duration, 0)
	}

	parent := req.Parent
	if parent != "" {
		p, ok := o.rundown.Entries[parent]
		if !ok {
			return ontime.Entry{}, 0, fmt.Errorf("parent %q not found", parent)
		}
		if p.Type != ontime.TypeGroup {
			return ontime.Entry{}, 0, fmt.Errorf("parent %q is not a group", parent)
		}
		if req.Type == ontime.TypeGroup {
			return ontime.Entry{}, 0, fmt.Errorf("groups cannot be nested")
		}
	}

	switch {
	case req.After != "":
		after, ok := o.rundown.Entries[req.After]
		if !ok {
			return ontime.Entry{}, 0, fmt.Errorf("after %q not found", req.After)
		}
		if parent == "" {
			parent = after.ParentID()
		}
		if parent != "" {
			entry.Parent = &parent
		}
		return entry, o.endOf(req.After), nil
	case parent != "":
		entry.Parent = &parent
		return entry, slices.Index(o.rundown.FlatOrder, parent) + 1, nil
	default:
		return entry, len(o.rundown.FlatOrder), nil
	}
}

// endOf returns the flat-order index just past id and its children.
func (o *Ontime) endOf(id string) int {
	pos := slices.Index(o.rundown.FlatOrder, id)
	if pos < 0 {
		return len(o.rundown.FlatOrder)
	}
	pos++
	for pos < len(o.rundown.FlatOrder) {
		if o.rundown.Entries[o.rundown.FlatOrder[pos]].ParentID() != id {
			break
		}
		pos++
	}
	return pos
}

func (o *Ontime) insert(e ontime.Entry, pos int) {
	o.rundown.FlatOrder = slices.Insert(o.rundown.FlatOrder, pos, e.ID)
	o.rundown.Entries[e.ID] = e

	o.rundown.Order = o.rundown.Order[:0]
	for _, id := range o.rundown.FlatOrder {
		if o.rundown.Entries[id].Parent == nil {
			o.rundown.Order = append(o.rundown.Order, id)
		}
	}
}

func (o *Ontime) snapshot() ontime.Rundown {
	r := o.rundown
	r.Order = slices.Clone(o.rundown.Order)
	r.FlatOrder = slices.Clone(o.rundown.FlatOrder)
	r.Entries = make(map[string]ontime.Entry, len(o.rundown.Entries))
	for id, e := range o.rundown.Entries {
		r.Entries[id] = e
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
