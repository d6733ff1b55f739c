// Package ontime talks to the rundown scheduler's REST API.
package ontime

import "fmt"

// Entry types reported and accepted by the API.
const (
	TypeEvent = "event"
	TypeGroup = "group"
	TypeDelay = "delay"
)

// Entry is one element of a rundown. Times are in milliseconds.
type Entry struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Cue       string  `json:"cue"`
	Note      string  `json:"note"`
	Colour    string  `json:"colour"`
	Duration  int64   `json:"duration"`
	TimeStart int64   `json:"timeStart"`
	TimeEnd   int64   `json:"timeEnd"`
	Parent    *string `json:"parent"`
}

// DisplayTitle returns the title, or "<type> (<id>)" for untitled entries.
func (e Entry) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("%s (%s)", e.Type, e.ID)
}

// ParentID returns the parent id or "" for top-level entries.
func (e Entry) ParentID() string {
	if e.Parent == nil {
		return ""
	}
	return *e.Parent
}

// Rundown is the document returned by GET /rundowns/current.
type Rundown struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Order     []string         `json:"order"`
	FlatOrder []string         `json:"flatOrder"`
	Revision  int64            `json:"revision"`
	Entries   map[string]Entry `json:"entries"`
}

// Ordered returns entries in flat order, skipping ids with no entry.
func (r Rundown) Ordered() []Entry {
	out := make([]Entry, 0, len(r.FlatOrder))
	for _, id := range r.FlatOrder {
		if e, ok := r.Entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// CreateEntry is the body of POST /rundowns/{id}/entry. Event fields are
// pointers so a group payload carries only type, title and colour.
type CreateEntry struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Duration   *int64 `json:"duration,omitempty"`
	TimeEnd    *int64 `json:"timeEnd,omitempty"`
	CountToEnd *bool  `json:"countToEnd,omitempty"`
	LinkStart  *bool  `json:"linkStart,omitempty"`
	Colour     string `json:"colour,omitempty"`
	Parent     string `json:"parent,omitempty"`
	After      string `json:"after,omitempty"`
}

// NewEvent builds an event payload.
func NewEvent(title string, durationMs, timeEndMs int64, countToEnd, linkStart bool) CreateEntry {
	return CreateEntry{
		Type:       TypeEvent,
		Title:      title,
		Duration:   &durationMs,
		TimeEnd:    &timeEndMs,
		CountToEnd: &countToEnd,
		LinkStart:  &linkStart,
	}
}

// NewGroup builds a group payload.
func NewGroup(title, colour string) CreateEntry {
	return CreateEntry{
		Type:   TypeGroup,
		Title:  title,
		Colour: colour,
	}
}

// Created is the part of a create response the bridge needs.
type Created struct {
	ID string `json:"id"`
}
