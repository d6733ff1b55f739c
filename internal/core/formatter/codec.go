package formatter

import (
	"encoding/json"
	"fmt"
)

const (
	kindStandalone = "standalone"
	kindGroup      = "group"
	kindReference  = "reference"
)

// itemJSON is the on-disk form of an Item; Kind selects which payload is set.
type itemJSON struct {
	Kind      string         `json:"kind"`
	Entry     *TimedEntry    `json:"entry,omitempty"`
	Group     *groupJSON     `json:"group,omitempty"`
	Reference *referenceJSON `json:"reference,omitempty"`
}

type groupJSON struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	Entries   []TimedEntry `json:"entries"`
	Collapsed bool         `json:"collapsed"`
}

type referenceJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ItemType string `json:"item_type"`
	Mode     Mode   `json:"mode"`
	TimeEnd  int64  `json:"time_end"`
}

type modelJSON struct {
	Items    []itemJSON `json:"items"`
	Selected *int       `json:"selected,omitempty"`
}

// MarshalJSON encodes the draft and its selection.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := modelJSON{Items: make([]itemJSON, 0, len(m.items))}
	for _, item := range m.items {
		out.Items = append(out.Items, encodeItem(item))
	}
	if sel, ok := m.Selected(); ok {
		out.Selected = &sel
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces the model with a decoded draft. Entries with
// malformed times and unknown kinds are rejected.
func (m *Model) UnmarshalJSON(data []byte) error {
	var in modelJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	items := make([]Item, 0, len(in.Items))
	for i, raw := range in.Items {
		item, err := decodeItem(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	m.items = items
	m.selected = NoGroup
	if in.Selected != nil {
		if _, err := m.group(*in.Selected); err == nil {
			m.selected = *in.Selected
		}
	}
	return nil
}

func encodeItem(item Item) itemJSON {
	switch it := item.(type) {
	case *Standalone:
		e := it.Entry
		return itemJSON{Kind: kindStandalone, Entry: &e}
	case *Group:
		entries := it.Entries
		if entries == nil {
			entries = []TimedEntry{}
		}
		return itemJSON{Kind: kindGroup, Group: &groupJSON{
			ID:        it.ID,
			Name:      it.Name,
			Color:     it.Color,
			Entries:   entries,
			Collapsed: it.Collapsed,
		}}
	case *Reference:
		return itemJSON{Kind: kindReference, Reference: &referenceJSON{
			ID:       it.ID,
			Title:    it.Title,
			ItemType: it.ItemType,
			Mode:     it.Mode,
			TimeEnd:  it.TimeEnd,
		}}
	default:
		panic(fmt.Sprintf("formatter: unknown item type %T", item))
	}
}

func decodeItem(raw itemJSON) (Item, error) {
	switch raw.Kind {
	case kindStandalone:
		if raw.Entry == nil {
			return nil, fmt.Errorf("standalone item missing entry")
		}
		if err := raw.Entry.Validate(); err != nil {
			return nil, err
		}
		return &Standalone{Entry: *raw.Entry}, nil
	case kindGroup:
		if raw.Group == nil {
			return nil, fmt.Errorf("group item missing group")
		}
		for _, e := range raw.Group.Entries {
			if err := e.Validate(); err != nil {
				return nil, err
			}
		}
		return &Group{
			ID:        raw.Group.ID,
			Name:      raw.Group.Name,
			Color:     raw.Group.Color,
			Entries:   raw.Group.Entries,
			Collapsed: raw.Group.Collapsed,
		}, nil
	case kindReference:
		if raw.Reference == nil {
			return nil, fmt.Errorf("reference item missing reference")
		}
		if !raw.Reference.Mode.IsValid() {
			return nil, fmt.Errorf("reference %q: invalid mode %q", raw.Reference.ID, raw.Reference.Mode)
		}
		return &Reference{
			ID:       raw.Reference.ID,
			Title:    raw.Reference.Title,
			ItemType: raw.Reference.ItemType,
			Mode:     raw.Reference.Mode,
			TimeEnd:  raw.Reference.TimeEnd,
		}, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", raw.Kind)
	}
}
