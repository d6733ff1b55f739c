package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

type StatusCmd struct {
	flags *Flags
	app   *bridge.App
}

// NewStatusCmd creates a new status command.
func NewStatusCmd(flags *Flags, app *bridge.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application.
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "status",
		Usage:     "Check both APIs and summarise the draft",
		UsageText: "pp2ot status",
		Description: `Pings the playlist and rundown APIs and prints the draft size and the
last push. Exits 1 when either API is unreachable.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *StatusCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	healthy := true

	p.Section("Connections")
	checks := []struct {
		name string
		url  string
		ping func(context.Context) error
	}{
		{"ProPresenter", cmd.app.Source.BaseURL(), cmd.app.Source.Ping},
		{"Ontime", cmd.app.Rundown.BaseURL(), cmd.app.Rundown.Ping},
	}
	for _, check := range checks {
		if err := check.ping(ctx); err != nil {
			healthy = false
			p.FailItem(check.name, fmt.Sprintf("%s: %s", check.url, httpjson.Describe(err)))
			continue
		}
		p.CheckItem(check.name, check.url)
	}

	p.Section("Draft")
	m, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		p.FailItem("draft", err.Error())
	} else {
		p.CheckItem(fmt.Sprintf("%d items", m.Len()), draftSelection(m))
	}

	p.Section("Last push")
	records, err := cmd.app.History.List(ctx)
	switch {
	case err != nil:
		p.FailItem("history", err.Error())
	case len(records) == 0:
		p.WarnItem("none recorded", "")
	default:
		r := records[0]
		detail := fmt.Sprintf("%s, %d created, %d skipped, %d failed",
			r.Started.Local().Format(timeLayout), r.Created, r.Skipped, r.Failed)
		if r.HasFailures() {
			p.FailItem(r.ID, detail)
		} else {
			p.CheckItem(r.ID, detail)
		}
	}

	if !healthy {
		return cli.Exit("", 1)
	}
	return nil
}

func draftSelection(m *formatter.Model) string {
	idx, ok := m.Selected()
	if !ok {
		return "adding at top level"
	}
	item, err := m.Item(idx)
	if err != nil {
		return ""
	}
	if g, ok := item.(*formatter.Group); ok {
		return fmt.Sprintf("adding to group %d %s", idx+1, g.Name)
	}
	return ""
}
