package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/core/styles"
	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
)

const titleWidth = 32

// view renders draft and rundown listings. Styling is applied only when the
// target writer is a terminal so piped output stays plain.
type view struct {
	w     io.Writer
	color bool
}

func newView(w io.Writer) *view {
	return &view{w: w, color: printer.IsTerminal(w)}
}

func (v *view) paint(style lipgloss.Style, s string) string {
	if !v.color {
		return s
	}
	return style.Render(s)
}

func (v *view) line(format string, args ...any) {
	_, _ = fmt.Fprintf(v.w, format+"\n", args...)
}

// pad truncates or pads s to n runes.
func pad(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

// Draft prints the draft as a numbered tree. Positions match what the draft
// subcommands accept: "2" for a top-level item, "2.1" for a group entry.
func (v *view) Draft(m *formatter.Model) {
	if m.Len() == 0 {
		v.line("%s", v.paint(styles.MutedStyle, "Draft is empty"))
		return
	}

	sel, hasSel := m.Selected()
	v.line("%s", v.paint(styles.HeaderStyle, fmt.Sprintf("Draft (%d items)", m.Len())))

	for i, item := range m.Items() {
		num := v.paint(styles.MutedStyle, fmt.Sprintf("%3d", i+1))

		switch it := item.(type) {
		case *formatter.Standalone:
			v.line("%s  %s %s", num, styles.IconEvent, v.entry(it.Entry))
		case *formatter.Group:
			marker := ""
			if hasSel && sel == i {
				marker = " " + v.paint(styles.SelectedStyle, styles.IconPointer+" selected")
			}
			title := v.paint(styles.GroupStyle(it.Color), it.Name)
			v.line("%s  %s %s %s%s", num, styles.IconGroup, title, v.paint(styles.MutedStyle, it.Color), marker)

			if it.Collapsed {
				v.line("       %s", v.paint(styles.MutedStyle, fmt.Sprintf("(%d entries hidden)", len(it.Entries))))
				continue
			}
			for j, e := range it.Entries {
				sub := v.paint(styles.MutedStyle, fmt.Sprintf("%d.%d", i+1, j+1))
				v.line("      %s %s %s", sub, styles.IconEvent, v.entry(e))
			}
		case *formatter.Reference:
			ref := fmt.Sprintf("%s REF %s %s", styles.IconRef, it.Mode, it.Title)
			v.line("%s  %s %s", num, v.paint(styles.RefStyle, ref), v.paint(styles.IDStyle, "("+it.ID+")"))
		}
	}
}

func (v *view) entry(e formatter.TimedEntry) string {
	var flags []string
	if e.CountToEnd {
		flags = append(flags, "count")
	}
	if e.LinkStart {
		flags = append(flags, "link")
	}

	s := pad(e.Name, titleWidth) + " " +
		v.paint(styles.TimeStyle, e.Duration) + " " + styles.IconArrow + " " +
		v.paint(styles.TimeStyle, e.EndTime)
	if len(flags) > 0 {
		s += " " + v.paint(styles.MutedStyle, "["+strings.Join(flags, ",")+"]")
	}
	return s
}

// Rundown prints the remote rundown in flat order. Entries referenced by the
// draft carry a REF mark.
func (v *view) Rundown(r ontime.Rundown, draft *formatter.Model) {
	refs := map[string]formatter.Mode{}
	if draft != nil {
		for _, item := range draft.Items() {
			if ref, ok := item.(*formatter.Reference); ok {
				refs[ref.ID] = ref.Mode
			}
		}
	}

	v.line("%s %s", v.paint(styles.HeaderStyle, r.Title), v.paint(styles.IDStyle, "("+r.ID+")"))

	rows := bridge.Tree(r)
	if len(rows) == 0 {
		v.line("%s", v.paint(styles.MutedStyle, "  no entries"))
		return
	}

	v.line("%s", v.paint(styles.MutedStyle, fmt.Sprintf("  %-6s %-*s %-8s   %-8s %s", "CUE", titleWidth+2, "TITLE", "DURATION", "END", "ID")))
	for _, row := range rows {
		e := row.Entry
		indent := strings.Repeat("  ", row.Depth)

		var title string
		switch e.Type {
		case ontime.TypeGroup:
			title = styles.IconGroup + " " + pad(e.DisplayTitle(), titleWidth-len(indent))
			title = v.paint(styles.GroupStyle(e.Colour), title)
		default:
			title = styles.IconEvent + " " + pad(e.DisplayTitle(), titleWidth-len(indent))
		}

		times := strings.Repeat(" ", 19)
		if e.Type == ontime.TypeEvent {
			times = v.paint(styles.TimeStyle, timecode.FromMillis(e.Duration)) + " " + styles.IconArrow + " " +
				v.paint(styles.TimeStyle, timecode.FromMillis(e.TimeEnd))
		}

		line := fmt.Sprintf("  %-6s %s%s %s %s", pad(e.Cue, 6), indent, title, times, v.paint(styles.IDStyle, e.ID))
		if mode, ok := refs[e.ID]; ok {
			line += " " + v.paint(styles.RefStyle, "REF "+string(mode))
		}
		v.line("%s", line)
	}
}
