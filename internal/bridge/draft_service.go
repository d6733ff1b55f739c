package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
)

// Draft keys under the "draft" namespace.
const (
	DraftCurrent    = "current"
	DraftLastPushed = "last-pushed"
)

var ErrNothingSelected = errors.New("no playlist items selected")

// DraftService keeps the draft in the KV store between invocations.
type DraftService struct {
	drafts *kv.TypedKV[*formatter.Model]
	cfg    *config.Config
	log    zerolog.Logger
}

func NewDraftService(store kv.KV, cfg *config.Config, log zerolog.Logger) *DraftService {
	return &DraftService{
		drafts: kv.Scoped[*formatter.Model](store, "draft"),
		cfg:    cfg,
		log:    log,
	}
}

// Load returns the current draft, or an empty one.
func (s *DraftService) Load(ctx context.Context) (*formatter.Model, error) {
	return s.load(ctx, DraftCurrent)
}

func (s *DraftService) load(ctx context.Context, key string) (*formatter.Model, error) {
	m, err := s.drafts.GetOr(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if m == nil {
		m = formatter.NewModel()
	}
	return m, nil
}

// Save replaces the current draft.
func (s *DraftService) Save(ctx context.Context, m *formatter.Model) error {
	if err := s.drafts.Set(ctx, DraftCurrent, m); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Update loads the draft, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *DraftService) Update(ctx context.Context, fn func(m *formatter.Model) error) (*formatter.Model, error) {
	m, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Clear empties the current draft.
func (s *DraftService) Clear(ctx context.Context) error {
	_, err := s.Update(ctx, func(m *formatter.Model) error {
		m.Clear()
		return nil
	})
	return err
}

// Archive keeps a copy of m as the last pushed draft.
func (s *DraftService) Archive(ctx context.Context, m *formatter.Model) error {
	if err := s.drafts.Set(ctx, DraftLastPushed, m); err != nil {
		return fmt.Errorf("archive draft: %w", err)
	}
	return nil
}

// Restore replaces the current draft with the last pushed one and reports
// whether there was one.
func (s *DraftService) Restore(ctx context.Context) (*formatter.Model, bool, error) {
	has, err := s.drafts.Has(ctx, DraftLastPushed)
	if err != nil {
		return nil, false, fmt.Errorf("restore draft: %w", err)
	}
	if !has {
		return nil, false, nil
	}

	m, err := s.load(ctx, DraftLastPushed)
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(ctx, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// AddOptions selects playlist items and the times given to them.
type AddOptions struct {
	// Indexes are 1-based positions in the playlist.
	Indexes []int
	// Match are glob patterns tested against item names, case-insensitively.
	Match []string
	All   bool

	// Group is the draft index to add into. Nil adds to the selected group;
	// formatter.NoGroup forces top level.
	Group *int

	// Duration and EndTime override the configured defaults when set.
	Duration string
	EndTime  string
}

// AddResult reports which items were added and which were already present.
type AddResult struct {
	Added   []string
	Skipped []string
}

// SelectItems picks playlist items by position, glob or all, keeping
// playlist order and dropping repeats.
func SelectItems(pl propresenter.Playlist, opts AddOptions) ([]propresenter.Item, error) {
	picked := make([]bool, len(pl.Items))

	for _, n := range opts.Indexes {
		if n < 1 || n > len(pl.Items) {
			return nil, fmt.Errorf("item %d out of range 1-%d", n, len(pl.Items))
		}
		picked[n-1] = true
	}

	for _, pattern := range opts.Match {
		pattern = strings.ToLower(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		for i, item := range pl.Items {
			if ok, _ := doublestar.Match(pattern, strings.ToLower(item.ID.Name)); ok {
				picked[i] = true
			}
		}
	}

	var out []propresenter.Item
	for i, item := range pl.Items {
		if opts.All || picked[i] {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, ErrNothingSelected
	}
	return out, nil
}

// AddItems adds playlist items to the draft. Duration defaults to the
// configured default; end time defaults to the suggestion from the last
// reference, or the configured default end time when there is none.
func (s *DraftService) AddItems(ctx context.Context, items []propresenter.Item, opts AddOptions) (AddResult, error) {
	var res AddResult

	_, err := s.Update(ctx, func(m *formatter.Model) error {
		duration := opts.Duration
		if duration == "" {
			duration = s.cfg.DefaultDuration
		}

		endTime := opts.EndTime
		if endTime == "" {
			endTime = m.SuggestedEndTime(s.cfg.DefaultDuration)
			if timecode.IsZero(endTime) {
				endTime = s.cfg.DefaultEndTime
			}
		}

		for _, item := range items {
			entry, err := formatter.NewTimedEntry(item.ID.UUID, item.ID.Name, item.Type, duration, endTime)
			if err != nil {
				return err
			}

			var added bool
			if opts.Group != nil {
				added = m.AddEntry(entry, *opts.Group)
			} else {
				added = m.AddToSelection(entry)
			}

			if added {
				res.Added = append(res.Added, entry.Name)
			} else {
				res.Skipped = append(res.Skipped, entry.Name)
			}
		}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}

	s.log.Debug().Int("added", len(res.Added)).Int("skipped", len(res.Skipped)).Msg("draft items added")
	return res, nil
}

// AddGroup appends a group, which becomes the selection, and returns its index.
func (s *DraftService) AddGroup(ctx context.Context, name, color string) (int, error) {
	if color != "" {
		if _, err := colorful.Hex(color); err != nil {
			return 0, fmt.Errorf("invalid colour %q: want #rrggbb", color)
		}
	}

	var idx int
	_, err := s.Update(ctx, func(m *formatter.Model) error {
		idx = m.AddGroup(name, color)
		return nil
	})
	return idx, err
}

// AddReference marks an existing rundown entry as the insertion point for the
// items that follow. An empty mode picks one from the entry type.
func (s *DraftService) AddReference(ctx context.Context, e ontime.Entry, mode formatter.Mode) (bool, error) {
	if mode == "" {
		mode = formatter.ModeForEntryType(e.Type)
	}
	if !mode.IsValid() {
		return false, fmt.Errorf("unknown mode %q (valid: %s, %s)", mode, formatter.ModeAfter, formatter.ModeInto)
	}
	if mode == formatter.ModeInto && e.Type != ontime.TypeGroup {
		return false, fmt.Errorf("cannot insert into %s %q: only groups have children", e.Type, e.DisplayTitle())
	}

	var added bool
	_, err := s.Update(ctx, func(m *formatter.Model) error {
		added = m.AddReference(e.ID, e.DisplayTitle(), e.Type, mode, e.TimeEnd)
		return nil
	})
	return added, err
}
