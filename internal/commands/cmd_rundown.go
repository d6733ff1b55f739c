package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

type RundownCmd struct {
	flags *Flags
	app   *bridge.App

	jsonOutput bool
}

// NewRundownCmd creates a new rundown command.
func NewRundownCmd(flags *Flags, app *bridge.App) *RundownCmd {
	return &RundownCmd{flags: flags, app: app}
}

// Register adds the rundown command to the application.
func (cmd *RundownCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rundown",
		Usage:     "Show the current rundown on the scheduler",
		UsageText: "pp2ot rundown [--json]",
		Description: `Prints the current rundown in playback order with cue, duration,
end time and id. Group children are indented. Entries the draft references
are marked REF with the reference mode.

Use the ids or titles shown here with 'pp2ot draft ref'.`,
		Flags:  []cli.Flag{jsonFlag(&cmd.jsonOutput)},
		Action: cmd.run,
	})

	return app
}

func (cmd *RundownCmd) run(ctx context.Context, c *cli.Command) error {
	r, err := cmd.app.Rundown.Current(ctx)
	if err != nil {
		return fmt.Errorf("fetch rundown: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.Write(c.Root().Writer, r)
	}

	draft, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return err
	}

	newView(c.Root().Writer).Rundown(r, draft)
	return nil
}
