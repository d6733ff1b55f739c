package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
	"github.com/zurielbm/pp2ot-bridge/internal/core/styles"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

const timeLayout = "2006-01-02 15:04:05"

type HistoryCmd struct {
	flags *Flags
	app   *bridge.App

	jsonOutput bool
	raw        bool
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags, app *bridge.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "Review past pushes",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List recorded pushes, newest first",
				UsageText: "pp2ot history ls [--json]",
				Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
				Action:    cmd.runLs,
			},
			{
				Name:      "show",
				Usage:     "Show the log of one push",
				UsageText: "pp2ot history show [id] [--raw] [--json]",
				Description: `Prints the report of a push. The id may be any unique prefix. With no
id the most recent push is shown; use "failed" for the most recent push
with failures.`,
				Flags: []cli.Flag{
					jsonFlag(&cmd.jsonOutput),
					&cli.BoolFlag{
						Name:        "raw",
						Usage:       "print markdown without rendering",
						Destination: &cmd.raw,
					},
				},
				Action: cmd.runShow,
			},
			{
				Name:      "clear",
				Usage:     "Delete all recorded pushes",
				UsageText: "pp2ot history clear",
				Action:    cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) runLs(ctx context.Context, c *cli.Command) error {
	records, err := cmd.app.History.List(ctx)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, records)
	}

	if len(records) == 0 {
		printer.Ctx(ctx).Infof("No pushes recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tRUNDOWN\tCREATED\tSKIPPED\tFAILED\tMODE")
	for _, r := range records {
		mode := "push"
		if r.DryRun {
			mode = "dry-run"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Started.Local().Format(timeLayout), r.RundownID, r.Created, r.Skipped, r.Failed, mode)
	}
	return w.Flush()
}

func (cmd *HistoryCmd) runShow(ctx context.Context, c *cli.Command) error {
	record, err := cmd.lookup(ctx, c.Args().First())
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no matching push recorded")
		}
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, record)
	}

	md := reportMarkdown(record)
	if cmd.raw || !printer.IsTerminal(out) {
		_, err := io.WriteString(out, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func (cmd *HistoryCmd) lookup(ctx context.Context, id string) (history.Record, error) {
	switch id {
	case "":
		records, err := cmd.app.History.List(ctx)
		if err != nil {
			return history.Record{}, err
		}
		if len(records) == 0 {
			return history.Record{}, history.ErrNotFound
		}
		return records[0], nil
	case "failed":
		return cmd.app.History.LastFailed(ctx)
	default:
		return cmd.app.History.Get(ctx, id)
	}
}

func (cmd *HistoryCmd) runClear(ctx context.Context, c *cli.Command) error {
	if err := cmd.app.History.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	printer.Ctx(ctx).Successf("History cleared")
	return nil
}

// reportMarkdown renders a push record as a markdown document.
func reportMarkdown(r history.Record) string {
	var b strings.Builder

	title := "Push " + r.ID
	if r.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Rundown:** %s\n", r.RundownID)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.Started.Local().Format(timeLayout))
	fmt.Fprintf(&b, "- **Took:** %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "- **Result:** %d created, %d skipped, %d failed\n\n", r.Created, r.Skipped, r.Failed)

	b.WriteString("## Log\n\n```\n")
	for _, line := range r.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	return b.String()
}
