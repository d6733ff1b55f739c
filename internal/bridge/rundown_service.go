package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
)

var (
	ErrNoMatch   = errors.New("no rundown entry matches")
	ErrAmbiguous = errors.New("query matches more than one rundown entry")
)

// RundownService reads the destination rundown.
type RundownService struct {
	api RundownAPI
}

func NewRundownService(api RundownAPI) *RundownService {
	return &RundownService{api: api}
}

// BaseURL is the rundown API root.
func (s *RundownService) BaseURL() string {
	return s.api.BaseURL()
}

// Current fetches the current rundown.
func (s *RundownService) Current(ctx context.Context) (ontime.Rundown, error) {
	return s.api.CurrentRundown(ctx)
}

// Snapshot fetches the current rundown and reduces it to the id and title
// lists the push engine checks against.
func (s *RundownService) Snapshot(ctx context.Context) (push.Snapshot, ontime.Rundown, error) {
	r, err := s.api.CurrentRundown(ctx)
	if err != nil {
		return push.Snapshot{}, ontime.Rundown{}, err
	}
	return push.SnapshotFromRundown(r), r, nil
}

// Ping checks that the rundown API answers.
func (s *RundownService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}

// Row is one line of a rendered rundown.
type Row struct {
	Entry ontime.Entry
	Depth int
}

// Tree lists entries in flat order with their nesting depth.
func Tree(r ontime.Rundown) []Row {
	ordered := r.Ordered()
	rows := make([]Row, 0, len(ordered))
	for _, e := range ordered {
		depth := 0
		if e.ParentID() != "" {
			depth = 1
		}
		rows = append(rows, Row{Entry: e, Depth: depth})
	}
	return rows
}

// Find resolves query to one entry: an exact id, then an exact title, then
// the closest fuzzy title match. A fuzzy tie between different entries is
// reported as ErrAmbiguous.
func Find(r ontime.Rundown, query string) (ontime.Entry, error) {
	if e, ok := r.Entries[query]; ok {
		return e, nil
	}

	ordered := r.Ordered()
	titles := make([]string, len(ordered))
	var exact []ontime.Entry
	for i, e := range ordered {
		titles[i] = e.DisplayTitle()
		if titles[i] == query {
			exact = append(exact, e)
		}
	}
	switch len(exact) {
	case 1:
		return exact[0], nil
	case 0:
	default:
		return ontime.Entry{}, fmt.Errorf("%w: %q is the title of %d entries, use an id", ErrAmbiguous, query, len(exact))
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return ontime.Entry{}, fmt.Errorf("%w %q", ErrNoMatch, query)
	}
	sort.Stable(ranks)

	best := ranks[0]
	var tied []string
	for _, rk := range ranks {
		if rk.Distance != best.Distance {
			break
		}
		tied = append(tied, fmt.Sprintf("%s (%s)", rk.Target, ordered[rk.OriginalIndex].ID))
	}
	if len(tied) > 1 {
		return ontime.Entry{}, fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(tied, ", "))
	}
	return ordered[best.OriginalIndex], nil
}
