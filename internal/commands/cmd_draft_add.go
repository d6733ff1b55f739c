package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/core/styles"
	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/propresenter"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
)

func (cmd *DraftCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add playlist items to the draft",
		UsageText: "pp2ot draft add <playlist> [N...] [--match glob] [--all] [options]",
		Description: `Adds items of a playlist, chosen by number (as shown by 'pp2ot playlist'),
by glob pattern on the item name, or all of them. With none of these and a
terminal attached, a picker is shown.

Duration defaults to the configured default_duration. End time defaults to
the end of the last referenced rundown entry plus the default duration,
or default_end_time when the draft has no timed reference.

Items already in the draft are skipped.

Examples:
  pp2ot draft add "Sunday AM" 1 2 5
  pp2ot draft add "Sunday AM" --match "*grace*" --duration 00:04:00
  pp2ot draft add "Sunday AM" --all --top`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "match",
				Aliases:     []string{"m"},
				Usage:       "glob on item names, case-insensitive (repeatable)",
				Destination: &cmd.addMatch,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "add every item of the playlist",
				Destination: &cmd.addAll,
			},
			&cli.IntFlag{
				Name:        "group",
				Aliases:     []string{"g"},
				Usage:       "add into the group at this position instead of the selection",
				Destination: &cmd.addGroup,
			},
			&cli.BoolFlag{
				Name:        "top",
				Usage:       "add at the top level even if a group is selected",
				Destination: &cmd.addTop,
			},
			&cli.StringFlag{
				Name:        "duration",
				Aliases:     []string{"d"},
				Usage:       "duration as HH:MM:SS",
				Destination: &cmd.addDuration,
			},
			&cli.StringFlag{
				Name:        "end",
				Aliases:     []string{"e"},
				Usage:       "end time as HH:MM:SS",
				Destination: &cmd.addEnd,
			},
			&cli.BoolFlag{
				Name:        "refresh",
				Usage:       "fetch the playlist again instead of using the cached copy",
				Destination: &cmd.addRefresh,
			},
		},
		ShellComplete: PlaylistNameCompleter(cmd.app),
		Action:        cmd.runAdd,
	}
}

func (cmd *DraftCmd) groupCmd() *cli.Command {
	return &cli.Command{
		Name:      "group",
		Usage:     "Add a group and select it",
		UsageText: "pp2ot draft group [name] [--color #rrggbb]",
		Description: `Adds a group at the end of the draft. Entries added afterwards go into
it until another group is selected or 'pp2ot draft select --none' is run.

Without a name a form is shown on a terminal; otherwise the group is
named "GROUP n".`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "color",
				Aliases:     []string{"c"},
				Usage:       "group colour as #rrggbb",
				Destination: &cmd.groupColor,
			},
		},
		Action: cmd.runGroup,
	}
}

func (cmd *DraftCmd) refCmd() *cli.Command {
	return &cli.Command{
		Name:      "ref",
		Usage:     "Insert following items relative to an existing rundown entry",
		UsageText: "pp2ot draft ref <id | title> [--mode after|into]",
		Description: `Adds a reference to an entry already in the rundown. Items after the
reference are created after that entry, or inside it for groups.

The entry is found by exact id, then exact title, then the closest
fuzzy title match. The mode defaults to "into" for groups and "after"
for everything else.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "after or into",
				Destination: &cmd.refMode,
			},
		},
		Action: cmd.runRef,
	}
}

func (cmd *DraftCmd) setCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Change times, flags or names of a draft item",
		UsageText: "pp2ot draft set <N | N.M> [options]",
		Description: `Edits an entry (times, count-to-end, link-start, name) or a group
(name, colour, collapsed). With no options on a terminal, a form is shown
with the configured favourite times as suggestions.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "duration",
				Aliases:     []string{"d"},
				Usage:       "duration as HH:MM:SS",
				Destination: &cmd.setDuration,
			},
			&cli.StringFlag{
				Name:        "end",
				Aliases:     []string{"e"},
				Usage:       "end time as HH:MM:SS",
				Destination: &cmd.setEnd,
			},
			&cli.BoolFlag{
				Name:        "count-to-end",
				Usage:       "count down to the end time",
				Destination: &cmd.setCount,
			},
			&cli.BoolFlag{
				Name:        "link-start",
				Usage:       "start when the previous entry ends",
				Destination: &cmd.setLink,
			},
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "new title",
				Destination: &cmd.setName,
			},
			&cli.StringFlag{
				Name:        "color",
				Aliases:     []string{"c"},
				Usage:       "group colour as #rrggbb",
				Destination: &cmd.setColor,
			},
			&cli.BoolFlag{
				Name:        "collapse",
				Usage:       "toggle whether a group's entries are listed",
				Destination: &cmd.setCollapse,
			},
		},
		Action: cmd.runSet,
	}
}

func (cmd *DraftCmd) runAdd(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := requireArgs(c, 1); err != nil {
		return err
	}
	name := c.Args().First()

	opts := bridge.AddOptions{
		Match:    cmd.addMatch,
		All:      cmd.addAll,
		Duration: cmd.addDuration,
		EndTime:  cmd.addEnd,
	}
	for _, arg := range c.Args().Tail() {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid item number %q", arg)
		}
		opts.Indexes = append(opts.Indexes, n)
	}

	switch {
	case cmd.addTop:
		top := formatter.NoGroup
		opts.Group = &top
	case c.IsSet("group"):
		idx, err := parseIndex(strconv.Itoa(cmd.addGroup))
		if err != nil {
			return err
		}
		opts.Group = &idx
	}

	var (
		pl  propresenter.Playlist
		err error
	)
	if cmd.addRefresh {
		pl, err = cmd.app.Source.Playlist(ctx, name)
	} else {
		pl, err = cmd.app.Source.CachedPlaylist(ctx, name)
	}
	if err != nil {
		return err
	}

	if len(opts.Indexes) == 0 && len(opts.Match) == 0 && !opts.All {
		if !interactive(c) {
			return fmt.Errorf("%w: pass item numbers, --match or --all", bridge.ErrNothingSelected)
		}
		if err := cmd.pickItems(pl, &opts); err != nil {
			if aborted(err) {
				return nil
			}
			return err
		}
	}

	items, err := bridge.SelectItems(pl, opts)
	if err != nil {
		return err
	}

	res, err := cmd.app.Draft.AddItems(ctx, items, opts)
	if err != nil {
		return err
	}

	if len(res.Added) > 0 {
		p.Success(fmt.Sprintf("Added %d item(s)", len(res.Added)), strings.Join(res.Added, ", "))
	}
	if len(res.Skipped) > 0 {
		p.Warnf("%d already in draft: %s", len(res.Skipped), strings.Join(res.Skipped, ", "))
	}
	return nil
}

// pickItems asks for playlist items and, when favourites are configured,
// the times to give them.
func (cmd *DraftCmd) pickItems(pl propresenter.Playlist, opts *bridge.AddOptions) error {
	options := make([]huh.Option[int], len(pl.Items))
	for i, item := range pl.Items {
		options[i] = huh.NewOption(fmt.Sprintf("%d. %s", i+1, item.ID.Name), i+1)
	}

	fields := []huh.Field{
		huh.NewMultiSelect[int]().
			Title("Items from " + pl.ID.Name).
			Options(options...).
			Validate(func(v []int) error {
				if len(v) == 0 {
					return errors.New("select at least one item")
				}
				return nil
			}).
			Value(&opts.Indexes),
	}

	cfg := cmd.app.Config
	if opts.Duration == "" && len(cfg.FavoriteDurations) > 0 {
		fields = append(fields, favoriteSelect("Duration", cfg.DefaultDuration, cfg.FavoriteDurations, &opts.Duration))
	}
	if opts.EndTime == "" && len(cfg.FavoriteEndTimes) > 0 {
		fields = append(fields, favoriteSelect("End time", "", cfg.FavoriteEndTimes, &opts.EndTime))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme()).Run()
}

// favoriteSelect offers the default followed by the favourites. An empty
// default value leaves the choice to the caller's own defaulting.
func favoriteSelect(title, def string, favorites []string, value *string) huh.Field {
	label := "default"
	if def != "" {
		label = "default (" + def + ")"
	}
	options := []huh.Option[string]{huh.NewOption(label, "")}
	for _, f := range favorites {
		options = append(options, huh.NewOption(f, f))
	}
	return huh.NewSelect[string]().Title(title).Options(options...).Value(value)
}

func (cmd *DraftCmd) runGroup(ctx context.Context, c *cli.Command) error {
	name := strings.Join(c.Args().Slice(), " ")
	color := cmd.groupColor

	if name == "" && interactive(c) {
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Group name").
				Value(&name),
			huh.NewInput().
				Title("Colour").
				Placeholder(formatter.DefaultGroupColor).
				Validate(validColor).
				Value(&color),
		)).WithTheme(styles.FormTheme()).Run()
		if err != nil {
			if aborted(err) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	idx, err := cmd.app.Draft.AddGroup(ctx, strings.TrimSpace(name), color)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Success(fmt.Sprintf("Added group %d", idx+1), "selected")
	return nil
}

func validColor(s string) error {
	if s == "" {
		return nil
	}
	if _, err := colorful.Hex(s); err != nil {
		return fmt.Errorf("want #rrggbb")
	}
	return nil
}

func (cmd *DraftCmd) runRef(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	query := strings.Join(c.Args().Slice(), " ")

	r, err := cmd.app.Rundown.Current(ctx)
	if err != nil {
		return fmt.Errorf("fetch rundown: %w", err)
	}

	entry, err := bridge.Find(r, query)
	if err != nil {
		return err
	}

	mode := formatter.Mode(cmd.refMode)
	if mode == "" {
		mode = formatter.ModeForEntryType(entry.Type)
	}

	added, err := cmd.app.Draft.AddReference(ctx, entry, mode)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if !added {
		p.Warnf("%s is already referenced", entry.DisplayTitle())
		return nil
	}
	p.Success(fmt.Sprintf("Reference added: %s %s", mode, entry.DisplayTitle()), entry.ID)
	return nil
}

func (cmd *DraftCmd) runSet(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	pos := c.Args().First()
	idx, sub, err := parsePosition(pos)
	if err != nil {
		return err
	}

	m, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return err
	}
	item, err := m.Item(idx)
	if err != nil {
		return err
	}

	changed := false
	for _, name := range []string{"duration", "end", "count-to-end", "link-start", "name", "color", "collapse"} {
		changed = changed || c.IsSet(name)
	}

	if _, ok := item.(*formatter.Group); ok && sub < 0 {
		if !changed {
			return fmt.Errorf("nothing to change: pass --name, --color or --collapse for a group")
		}
		if err := cmd.setGroup(c, m, idx); err != nil {
			return err
		}
		if err := cmd.app.Draft.Save(ctx, m); err != nil {
			return err
		}
		printer.Ctx(ctx).Successf("Updated group %d", idx+1)
		return nil
	}

	entry, err := entryAt(item, sub)
	if err != nil {
		return fmt.Errorf("item %s: %w", pos, err)
	}

	if !changed {
		if !interactive(c) {
			return fmt.Errorf("nothing to change: pass at least one option")
		}
		if err := cmd.editForm(&entry); err != nil {
			if aborted(err) {
				return nil
			}
			return err
		}
	} else {
		cmd.applyFlags(c, &entry)
	}

	if err := setEntry(m, idx, sub, entry); err != nil {
		return err
	}
	if err := cmd.app.Draft.Save(ctx, m); err != nil {
		return err
	}

	printer.Ctx(ctx).Success("Updated "+entry.Name, fmt.Sprintf("%s %s %s", entry.Duration, styles.IconArrow, entry.EndTime))
	return nil
}

func (cmd *DraftCmd) setGroup(c *cli.Command, m *formatter.Model, idx int) error {
	if c.IsSet("duration") || c.IsSet("end") || c.IsSet("count-to-end") || c.IsSet("link-start") {
		return fmt.Errorf("groups have no times; address an entry as N.M")
	}
	if c.IsSet("name") {
		if err := m.RenameGroup(idx, cmd.setName); err != nil {
			return err
		}
	}
	if c.IsSet("color") {
		if err := validColor(cmd.setColor); err != nil {
			return fmt.Errorf("invalid colour %q: %w", cmd.setColor, err)
		}
		if err := m.SetGroupColor(idx, cmd.setColor); err != nil {
			return err
		}
	}
	if cmd.setCollapse {
		return m.ToggleCollapsed(idx)
	}
	return nil
}

func (cmd *DraftCmd) applyFlags(c *cli.Command, e *formatter.TimedEntry) {
	if c.IsSet("duration") {
		e.Duration = cmd.setDuration
	}
	if c.IsSet("end") {
		e.EndTime = cmd.setEnd
	}
	if c.IsSet("count-to-end") {
		e.CountToEnd = cmd.setCount
	}
	if c.IsSet("link-start") {
		e.LinkStart = cmd.setLink
	}
	if c.IsSet("name") {
		e.Name = cmd.setName
	}
}

func (cmd *DraftCmd) editForm(e *formatter.TimedEntry) error {
	cfg := cmd.app.Config
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&e.Name),
		huh.NewInput().
			Title("Duration").
			Suggestions(cfg.FavoriteDurations).
			Validate(timecode.Validate).
			Value(&e.Duration),
		huh.NewInput().
			Title("End time").
			Suggestions(cfg.FavoriteEndTimes).
			Validate(timecode.Validate).
			Value(&e.EndTime),
		huh.NewConfirm().
			Title("Count to end").
			Value(&e.CountToEnd),
		huh.NewConfirm().
			Title("Link start to previous").
			Value(&e.LinkStart),
	)).WithTheme(styles.FormTheme()).Run()
}

// entryAt returns the timed entry of a standalone item, or entry sub of a
// group.
func entryAt(item formatter.Item, sub int) (formatter.TimedEntry, error) {
	switch it := item.(type) {
	case *formatter.Standalone:
		if sub >= 0 {
			return formatter.TimedEntry{}, formatter.ErrNotGroup
		}
		return it.Entry, nil
	case *formatter.Group:
		if sub < 0 || sub >= len(it.Entries) {
			return formatter.TimedEntry{}, formatter.ErrIndexOutOfRange
		}
		return it.Entries[sub], nil
	default:
		return formatter.TimedEntry{}, formatter.ErrNotEntry
	}
}

// setEntry writes every editable field of e back through the model so times
// are validated.
func setEntry(m *formatter.Model, idx, sub int, e formatter.TimedEntry) error {
	if err := m.SetTime(idx, sub, formatter.FieldDuration, e.Duration); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if err := m.SetTime(idx, sub, formatter.FieldEndTime, e.EndTime); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if err := m.SetFlags(idx, sub, e.CountToEnd, e.LinkStart); err != nil {
		return err
	}
	return m.RenameEntry(idx, sub, e.Name)
}
