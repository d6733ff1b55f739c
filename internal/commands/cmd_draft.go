package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

type DraftCmd struct {
	flags *Flags
	app   *bridge.App
	fr    *iojson.FileReader[formatter.Model]

	jsonOutput bool

	// add flags
	addMatch    []string
	addAll      bool
	addGroup    int
	addTop      bool
	addDuration string
	addEnd      string
	addRefresh  bool

	// group flags
	groupColor string

	// ref flags
	refMode string

	// select flags
	selectNone bool

	// set flags
	setDuration string
	setEnd      string
	setCount    bool
	setLink     bool
	setName     string
	setColor    string
	setCollapse bool

	// export flags
	exportOutput string
}

// NewDraftCmd creates a new draft command.
func NewDraftCmd(flags *Flags, app *bridge.App) *DraftCmd {
	return &DraftCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[formatter.Model]{},
	}
}

// Register adds the draft command to the application.
func (cmd *DraftCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "draft",
		Usage: "Build the list of items to push",
		Description: `The draft is the ordered list of entries, groups and references that
'pp2ot push' sends to the rundown. It is kept between invocations.

Positions are 1-based as shown by 'pp2ot draft ls'. Entries inside a
group are addressed as N.M (entry M of group N).

New entries go into the selected group when there is one. Creating a
group selects it; use 'pp2ot draft select --none' to add at the top
level again.`,
		Commands: []*cli.Command{
			cmd.lsCmd(),
			cmd.addCmd(),
			cmd.groupCmd(),
			cmd.refCmd(),
			cmd.selectCmd(),
			cmd.moveCmd(),
			cmd.rmCmd(),
			cmd.setCmd(),
			cmd.clearCmd(),
			cmd.restoreCmd(),
			cmd.exportCmd(),
			cmd.importCmd(),
		},
	})

	return app
}

func (cmd *DraftCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "Show the draft",
		UsageText: "pp2ot draft ls [--json]",
		Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
		Action:    cmd.runLs,
	}
}

func (cmd *DraftCmd) selectCmd() *cli.Command {
	return &cli.Command{
		Name:      "select",
		Usage:     "Choose the group new entries are added to",
		UsageText: "pp2ot draft select <N> | --none",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "none",
				Usage:       "add new entries at the top level",
				Destination: &cmd.selectNone,
			},
		},
		Action: cmd.runSelect,
	}
}

func (cmd *DraftCmd) moveCmd() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a top-level item to another position",
		UsageText: "pp2ot draft move <from> <to>",
		Action:    cmd.runMove,
	}
}

func (cmd *DraftCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove an item or a group entry",
		UsageText: "pp2ot draft rm <N | N.M>",
		Action:    cmd.runRm,
	}
}

func (cmd *DraftCmd) clearCmd() *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove everything from the draft",
		UsageText: "pp2ot draft clear",
		Action:    cmd.runClear,
	}
}

func (cmd *DraftCmd) restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Bring back the draft from the last push",
		UsageText: "pp2ot draft restore",
		Description: `Replaces the current draft with the one sent by the last completed push.
Useful for re-sending after fixing a connection problem.`,
		Action: cmd.runRestore,
	}
}

func (cmd *DraftCmd) exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the draft as JSON",
		UsageText: "pp2ot draft export [-o file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to file instead of stdout",
				Destination: &cmd.exportOutput,
			},
		},
		Action: cmd.runExport,
	}
}

func (cmd *DraftCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the draft with one read from JSON",
		UsageText: "pp2ot draft import [-f file]",
		Description: `Reads a draft written by 'pp2ot draft export' from a file or stdin.
Entries with malformed times are rejected and the current draft is kept.`,
		Flags:  []cli.Flag{cmd.fr.Flag()},
		Action: cmd.runImport,
	}
}

func (cmd *DraftCmd) runLs(ctx context.Context, c *cli.Command) error {
	m, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.Write(c.Root().Writer, m)
	}

	newView(c.Root().Writer).Draft(m)
	return nil
}

func (cmd *DraftCmd) runSelect(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.selectNone {
		if _, err := cmd.app.Draft.Update(ctx, func(m *formatter.Model) error {
			m.ClearSelection()
			return nil
		}); err != nil {
			return err
		}
		p.Successf("New entries go to the top level")
		return nil
	}

	if err := requireArgs(c, 1); err != nil {
		return err
	}
	idx, err := parseIndex(c.Args().First())
	if err != nil {
		return err
	}

	if _, err := cmd.app.Draft.Update(ctx, func(m *formatter.Model) error {
		return m.Select(idx)
	}); err != nil {
		return fmt.Errorf("select group: %w", err)
	}

	p.Successf("Selected group %d", idx+1)
	return nil
}

func (cmd *DraftCmd) runMove(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	src, err := parseIndex(c.Args().Get(0))
	if err != nil {
		return err
	}
	dst, err := parseIndex(c.Args().Get(1))
	if err != nil {
		return err
	}

	if _, err := cmd.app.Draft.Update(ctx, func(m *formatter.Model) error {
		return m.Move(src, dst)
	}); err != nil {
		return fmt.Errorf("move item: %w", err)
	}

	printer.Ctx(ctx).Successf("Moved item %d to %d", src+1, dst+1)
	return nil
}

func (cmd *DraftCmd) runRm(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	pos := c.Args().First()
	idx, sub, err := parsePosition(pos)
	if err != nil {
		return err
	}

	if _, err := cmd.app.Draft.Update(ctx, func(m *formatter.Model) error {
		if sub >= 0 {
			return m.RemoveEntry(idx, sub)
		}
		return m.Remove(idx)
	}); err != nil {
		return fmt.Errorf("remove %s: %w", pos, err)
	}

	printer.Ctx(ctx).Successf("Removed %s", pos)
	return nil
}

func (cmd *DraftCmd) runClear(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.Draft.Clear(ctx); err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("Draft cleared")
	return nil
}

func (cmd *DraftCmd) runRestore(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	m, ok, err := cmd.app.Draft.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		p.Warnf("No pushed draft to restore")
		return nil
	}

	p.Success("Draft restored", fmt.Sprintf("%d items", m.Len()))
	return nil
}

func (cmd *DraftCmd) runExport(ctx context.Context, c *cli.Command) error {
	m, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return err
	}

	if cmd.exportOutput == "" {
		return iojson.Write(c.Root().Writer, m)
	}

	f, err := os.Create(cmd.exportOutput)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := iojson.Write(f, m); err != nil {
		return err
	}
	printer.Ctx(ctx).Success("Draft exported", cmd.exportOutput)
	return nil
}

func (cmd *DraftCmd) runImport(ctx context.Context, c *cli.Command) error {
	m := formatter.NewModel()
	if err := cmd.fr.ReadInto(m); err != nil {
		return fmt.Errorf("read draft: %w", err)
	}

	if err := cmd.app.Draft.Save(ctx, m); err != nil {
		return err
	}
	printer.Ctx(ctx).Success("Draft imported", fmt.Sprintf("%d items", m.Len()))
	return nil
}
