package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
	"github.com/zurielbm/pp2ot-bridge/internal/core/styles"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

type PushCmd struct {
	flags *Flags
	app   *bridge.App

	dryRun     bool
	yes        bool
	keep       bool
	jsonOutput bool
}

// NewPushCmd creates a new push command.
func NewPushCmd(flags *Flags, app *bridge.App) *PushCmd {
	return &PushCmd{flags: flags, app: app}
}

// Register adds the push command to the application.
func (cmd *PushCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "push",
		Usage:     "Create the draft's entries in the current rundown",
		UsageText: "pp2ot push [--dry-run] [--yes] [--keep] [--json]",
		Description: `Sends the draft to the rundown scheduler in order. Entries go after the
last rundown entry unless a reference in the draft points elsewhere.

An entry whose title already exists in the rundown is skipped. A failed
create is reported and the push carries on with the next item. Children
of a group that could not be created are skipped.

After the push the draft is cleared (use --keep to keep it) and the run is
recorded in 'pp2ot history'. 'pp2ot draft restore' brings back the pushed
draft.

--dry-run shows the creates that would be sent without sending them.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dry-run",
				Aliases:     []string{"n"},
				Usage:       "plan the push without creating anything",
				Destination: &cmd.dryRun,
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "keep",
				Usage:       "keep the draft after pushing",
				Destination: &cmd.keep,
			},
			jsonFlag(&cmd.jsonOutput),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PushCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if !cmd.dryRun && !cmd.yes {
		ok, err := cmd.confirm(ctx, c)
		if err != nil {
			if aborted(err) {
				return nil
			}
			return err
		}
		if !ok {
			p.Infof("Push cancelled")
			return nil
		}
	}

	opts := bridge.PushOptions{
		DryRun:    cmd.dryRun,
		KeepDraft: cmd.keep,
	}
	if !cmd.jsonOutput {
		if cmd.dryRun {
			p.Section("Dry run against " + cmd.app.Rundown.BaseURL())
		} else {
			p.Section("Pushing to " + cmd.app.Rundown.BaseURL())
		}
		opts.Observer = stepPrinter(p)
	}

	res, err := cmd.app.Push.Push(ctx, opts)
	if err != nil {
		if errors.Is(err, bridge.ErrEmptyDraft) {
			p.Warnf("Nothing to push: the draft is empty")
			return nil
		}
		return fmt.Errorf("push: %w", err)
	}

	if cmd.jsonOutput {
		if err := iojson.Write(c.Root().Writer, res.Record); err != nil {
			return err
		}
		return exitOnFailures(res.Report)
	}

	p.Printf("\n")
	summary := res.Report.Summary()
	switch {
	case res.Report.Failed():
		p.Errorf("Push finished with failures: %s", summary)
	case cmd.dryRun:
		p.Success("Dry run complete", summary)
	default:
		p.Success("Push complete", summary)
		p.Infof("Recorded as %s", res.Record.ID)
	}

	if res.Rundown.ID != "" && !cmd.dryRun {
		_, _ = fmt.Fprintln(c.Root().Writer)
		newView(c.Root().Writer).Rundown(res.Rundown, nil)
	}

	return exitOnFailures(res.Report)
}

func (cmd *PushCmd) confirm(ctx context.Context, c *cli.Command) (bool, error) {
	if !interactive(c) {
		return false, fmt.Errorf("refusing to push without confirmation; pass --yes")
	}

	m, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return false, err
	}

	ok := true
	err = huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Push %d draft items to %s?", m.Len(), cmd.app.Rundown.BaseURL())).
			Affirmative("Push").
			Negative("Cancel").
			Value(&ok),
	)).WithTheme(styles.FormTheme()).Run()
	return ok, err
}

// stepPrinter prints each step as the engine records it.
func stepPrinter(p *printer.Printer) push.Observer {
	return func(s push.Step) {
		line := s.Line()
		switch s.Kind {
		case push.StepCreated:
			p.CheckItem(line, "")
		case push.StepSkipped:
			p.WarnItem(line, "")
		case push.StepFailed:
			p.FailItem(line, "")
		default:
			p.Infof("  %s %s", styles.IconArrow, line)
		}
	}
}

func exitOnFailures(r *push.Report) error {
	if r.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}
