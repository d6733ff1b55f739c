// Package formatter holds the draft of rundown items a user is preparing to
// push: standalone entries, groups of entries, and reference markers that
// point the insertion cursor at entries already in the remote rundown.
package formatter

import (
	"fmt"

	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
)

// DefaultGroupColor is the colour given to groups created without one.
const DefaultGroupColor = "#779BE7"

// TimedEntry is a single schedulable item taken from the source playlist.
type TimedEntry struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	ItemType   string `json:"item_type"`
	Duration   string `json:"duration"`
	EndTime    string `json:"end_time"`
	CountToEnd bool   `json:"count_to_end"`
	LinkStart  bool   `json:"link_start"`
}

// NewTimedEntry builds an entry with validated times. New entries are linked
// to the previous entry's end by default.
func NewTimedEntry(itemID, name, itemType, duration, endTime string) (TimedEntry, error) {
	e := TimedEntry{
		ItemID:    itemID,
		Name:      name,
		ItemType:  itemType,
		Duration:  duration,
		EndTime:   endTime,
		LinkStart: true,
	}
	if err := e.Validate(); err != nil {
		return TimedEntry{}, err
	}
	return e, nil
}

// Validate checks that both time fields are well-formed.
func (e TimedEntry) Validate() error {
	if err := timecode.Validate(e.Duration); err != nil {
		return fmt.Errorf("entry %q duration: %w", e.Name, err)
	}
	if err := timecode.Validate(e.EndTime); err != nil {
		return fmt.Errorf("entry %q end time: %w", e.Name, err)
	}
	return nil
}

// Mode controls how a Reference repositions the insertion cursor.
type Mode string

const (
	// ModeAfter makes following items siblings after the referenced entry.
	ModeAfter Mode = "after"
	// ModeInto makes following items children of the referenced entry.
	ModeInto Mode = "into"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAfter, ModeInto:
		return true
	default:
		return false
	}
}

// ModeForEntryType picks the natural insertion mode for a remote entry:
// groups are inserted into, everything else is inserted after.
func ModeForEntryType(entryType string) Mode {
	if entryType == "group" {
		return ModeInto
	}
	return ModeAfter
}

// TimeField selects which time of an entry SetTime edits.
type TimeField int

const (
	FieldDuration TimeField = iota
	FieldEndTime
)

func (f TimeField) String() string {
	switch f {
	case FieldDuration:
		return "duration"
	case FieldEndTime:
		return "end time"
	default:
		return fmt.Sprintf("TimeField(%d)", int(f))
	}
}

// Item is one element of the draft. It is implemented only by *Standalone,
// *Group and *Reference; consumers switch over the three.
type Item interface {
	isItem()
}

// Standalone is a single entry created at the current cursor position.
type Standalone struct {
	Entry TimedEntry
}

// Group is a named container whose entries are created as its children.
type Group struct {
	ID        string
	Name      string
	Color     string
	Entries   []TimedEntry
	Collapsed bool
}

// Reference marks an existing remote entry. It is never created; it only
// moves the insertion cursor.
type Reference struct {
	ID       string
	Title    string
	ItemType string
	Mode     Mode
	// TimeEnd is the referenced entry's end time in milliseconds.
	TimeEnd int64
}

func (*Standalone) isItem() {}
func (*Group) isItem()      {}
func (*Reference) isItem()  {}

// cloneItem returns a deep copy so snapshots do not alias the model.
func cloneItem(item Item) Item {
	switch it := item.(type) {
	case *Standalone:
		c := *it
		return &c
	case *Group:
		c := *it
		c.Entries = append([]TimedEntry(nil), it.Entries...)
		return &c
	case *Reference:
		c := *it
		return &c
	default:
		panic(fmt.Sprintf("formatter: unknown item type %T", item))
	}
}
