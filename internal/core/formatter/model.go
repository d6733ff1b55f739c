package formatter

import (
	"errors"
	"fmt"

	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
)

// NoGroup passed to AddEntry appends the entry at the top level.
const NoGroup = -1

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNotGroup        = errors.New("item is not a group")
	ErrNotEntry        = errors.New("item has no timed entry")
)

// Model is the ordered draft list plus the currently selected group. It is
// not safe for concurrent use; callers hand Items() snapshots to the push
// engine.
type Model struct {
	items    []Item
	selected int
}

// NewModel returns an empty draft with no selection.
func NewModel() *Model {
	return &Model{selected: NoGroup}
}

// Len returns the number of top-level items.
func (m *Model) Len() int {
	return len(m.items)
}

// Items returns a deep copy of the draft, safe to read while the model keeps
// changing.
func (m *Model) Items() []Item {
	out := make([]Item, len(m.items))
	for i, it := range m.items {
		out[i] = cloneItem(it)
	}
	return out
}

// Item returns a copy of the item at idx.
func (m *Model) Item(idx int) (Item, error) {
	if err := m.checkIndex(idx); err != nil {
		return nil, err
	}
	return cloneItem(m.items[idx]), nil
}

// IsAdded reports whether a source item is already in the draft, either as a
// standalone entry or inside any group. References never match.
func (m *Model) IsAdded(itemID string) bool {
	for _, item := range m.items {
		switch it := item.(type) {
		case *Standalone:
			if it.Entry.ItemID == itemID {
				return true
			}
		case *Group:
			for _, e := range it.Entries {
				if e.ItemID == itemID {
					return true
				}
			}
		case *Reference:
		}
	}
	return false
}

// AddEntry inserts a timed entry. If groupIndex points at a group the entry is
// appended to that group, otherwise it becomes a new standalone item at the
// end. Entries already in the draft are ignored; the return value reports
// whether anything was added.
func (m *Model) AddEntry(entry TimedEntry, groupIndex int) bool {
	if m.IsAdded(entry.ItemID) {
		return false
	}

	if groupIndex >= 0 && groupIndex < len(m.items) {
		if g, ok := m.items[groupIndex].(*Group); ok {
			g.Entries = append(g.Entries, entry)
			return true
		}
	}

	m.items = append(m.items, &Standalone{Entry: entry})
	return true
}

// AddToSelection calls AddEntry with the currently selected group.
func (m *Model) AddToSelection(entry TimedEntry) bool {
	return m.AddEntry(entry, m.selected)
}

// AddGroup appends an empty group, selects it and returns its index. The id is
// derived from the number of groups currently present, so it is a display
// label rather than a unique key. An empty name or color gets a default.
func (m *Model) AddGroup(name, color string) int {
	n := 0
	for _, item := range m.items {
		if _, ok := item.(*Group); ok {
			n++
		}
	}

	if name == "" {
		name = fmt.Sprintf("GROUP %d", n+1)
	}
	if color == "" {
		color = DefaultGroupColor
	}

	m.items = append(m.items, &Group{
		ID:    fmt.Sprintf("group-%d", n+1),
		Name:  name,
		Color: color,
	})
	m.selected = len(m.items) - 1
	return m.selected
}

// AddReference appends an insertion marker for an existing remote entry. A
// second reference to the same remote id is ignored.
func (m *Model) AddReference(remoteID, title, itemType string, mode Mode, timeEnd int64) bool {
	for _, item := range m.items {
		if ref, ok := item.(*Reference); ok && ref.ID == remoteID {
			return false
		}
	}

	m.items = append(m.items, &Reference{
		ID:       remoteID,
		Title:    title,
		ItemType: itemType,
		Mode:     mode,
		TimeEnd:  timeEnd,
	})
	return true
}

// SuggestedEndTime returns the end time to prefill for the next added entry:
// the most recent reference with a known end time plus defaultDuration, or the
// zero sentinel when there is none.
func (m *Model) SuggestedEndTime(defaultDuration string) string {
	for i := len(m.items) - 1; i >= 0; i-- {
		ref, ok := m.items[i].(*Reference)
		if !ok || ref.TimeEnd == 0 {
			continue
		}

		delta, err := timecode.ToMillis(defaultDuration)
		if err != nil {
			delta = 0
		}
		return timecode.AddClock(ref.TimeEnd, delta)
	}
	return timecode.Zero
}

// Move removes the item at src and reinserts it at dst. A selected item
// follows the move; a selection sitting on dst is cleared; other selections
// are shifted so they keep pointing at the same group.
func (m *Model) Move(src, dst int) error {
	if err := m.checkIndex(src); err != nil {
		return err
	}
	if err := m.checkIndex(dst); err != nil {
		return err
	}
	if src == dst {
		return nil
	}

	item := m.items[src]
	m.items = append(m.items[:src], m.items[src+1:]...)
	m.items = append(m.items[:dst], append([]Item{item}, m.items[dst:]...)...)

	switch sel := m.selected; {
	case sel == NoGroup:
	case sel == src:
		m.selected = dst
	case sel == dst:
		m.selected = NoGroup
	case src < sel && sel < dst:
		m.selected--
	case dst < sel && sel < src:
		m.selected++
	}
	return nil
}

// Remove deletes the item at idx. Removing the selected group clears the
// selection.
func (m *Model) Remove(idx int) error {
	if err := m.checkIndex(idx); err != nil {
		return err
	}

	m.items = append(m.items[:idx], m.items[idx+1:]...)

	switch {
	case m.selected == idx:
		m.selected = NoGroup
	case m.selected > idx:
		m.selected--
	}
	return nil
}

// RemoveEntry deletes entry sub from the group at idx.
func (m *Model) RemoveEntry(idx, sub int) error {
	g, err := m.group(idx)
	if err != nil {
		return err
	}
	if sub < 0 || sub >= len(g.Entries) {
		return fmt.Errorf("group %d entry %d: %w", idx, sub, ErrIndexOutOfRange)
	}
	g.Entries = append(g.Entries[:sub], g.Entries[sub+1:]...)
	return nil
}

// Clear empties the draft and the selection.
func (m *Model) Clear() {
	m.items = nil
	m.selected = NoGroup
}

// Select marks the group at idx as the target for new entries.
func (m *Model) Select(idx int) error {
	if _, err := m.group(idx); err != nil {
		return err
	}
	m.selected = idx
	return nil
}

// ClearSelection returns to top-level insertion.
func (m *Model) ClearSelection() {
	m.selected = NoGroup
}

// Selected returns the selected group index, if any.
func (m *Model) Selected() (int, bool) {
	if m.selected < 0 || m.selected >= len(m.items) {
		return NoGroup, false
	}
	return m.selected, true
}

// RenameGroup changes a group's title.
func (m *Model) RenameGroup(idx int, name string) error {
	g, err := m.group(idx)
	if err != nil {
		return err
	}
	g.Name = name
	return nil
}

// SetGroupColor changes a group's colour.
func (m *Model) SetGroupColor(idx int, color string) error {
	g, err := m.group(idx)
	if err != nil {
		return err
	}
	g.Color = color
	return nil
}

// ToggleCollapsed flips a group's collapsed display flag.
func (m *Model) ToggleCollapsed(idx int) error {
	g, err := m.group(idx)
	if err != nil {
		return err
	}
	g.Collapsed = !g.Collapsed
	return nil
}

// SetTime validates value and stores it in the chosen field of an entry.
// sub selects an entry inside a group and is ignored for standalone items.
func (m *Model) SetTime(idx, sub int, field TimeField, value string) error {
	if err := timecode.Validate(value); err != nil {
		return err
	}
	return m.updateEntry(idx, sub, func(e *TimedEntry) {
		switch field {
		case FieldDuration:
			e.Duration = value
		case FieldEndTime:
			e.EndTime = value
		}
	})
}

// SetFlags updates the count-to-end and link-start flags of an entry.
func (m *Model) SetFlags(idx, sub int, countToEnd, linkStart bool) error {
	return m.updateEntry(idx, sub, func(e *TimedEntry) {
		e.CountToEnd = countToEnd
		e.LinkStart = linkStart
	})
}

// RenameEntry changes an entry's title.
func (m *Model) RenameEntry(idx, sub int, name string) error {
	return m.updateEntry(idx, sub, func(e *TimedEntry) {
		e.Name = name
	})
}

func (m *Model) updateEntry(idx, sub int, fn func(*TimedEntry)) error {
	if err := m.checkIndex(idx); err != nil {
		return err
	}

	switch it := m.items[idx].(type) {
	case *Standalone:
		fn(&it.Entry)
		return nil
	case *Group:
		if sub < 0 || sub >= len(it.Entries) {
			return fmt.Errorf("group %d entry %d: %w", idx, sub, ErrIndexOutOfRange)
		}
		fn(&it.Entries[sub])
		return nil
	case *Reference:
		return fmt.Errorf("item %d: %w", idx, ErrNotEntry)
	default:
		panic(fmt.Sprintf("formatter: unknown item type %T", it))
	}
}

func (m *Model) group(idx int) (*Group, error) {
	if err := m.checkIndex(idx); err != nil {
		return nil, err
	}
	g, ok := m.items[idx].(*Group)
	if !ok {
		return nil, fmt.Errorf("item %d: %w", idx, ErrNotGroup)
	}
	return g, nil
}

func (m *Model) checkIndex(idx int) error {
	if idx < 0 || idx >= len(m.items) {
		return fmt.Errorf("item %d of %d: %w", idx, len(m.items), ErrIndexOutOfRange)
	}
	return nil
}
