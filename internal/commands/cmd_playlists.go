package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

type PlaylistsCmd struct {
	flags *Flags
	app   *bridge.App

	jsonOutput bool
}

// NewPlaylistsCmd creates the playlists and playlist commands.
func NewPlaylistsCmd(flags *Flags, app *bridge.App) *PlaylistsCmd {
	return &PlaylistsCmd{flags: flags, app: app}
}

// Register adds the playlist commands to the application.
func (cmd *PlaylistsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "playlists",
			Usage:     "List playlists on the presentation host",
			UsageText: "pp2ot playlists [--json]",
			Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
			Action:    cmd.runList,
		},
		&cli.Command{
			Name:      "playlist",
			Usage:     "Show the items of a playlist",
			UsageText: "pp2ot playlist <name> [--json]",
			Description: `Fetches a playlist and prints its items with the numbers that
'pp2ot draft add' accepts. Items already in the draft are marked.

The playlist is cached for a few minutes so the numbers stay stable while
you build the draft.`,
			Flags:         []cli.Flag{jsonFlag(&cmd.jsonOutput)},
			ShellComplete: PlaylistNameCompleter(cmd.app),
			Action:        cmd.runShow,
		},
	)

	return app
}

func (cmd *PlaylistsCmd) runList(ctx context.Context, c *cli.Command) error {
	playlists, err := cmd.app.Source.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("list playlists: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, playlists)
	}

	if len(playlists) == 0 {
		printer.Ctx(ctx).Infof("No playlists found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tUUID")
	for i, pl := range playlists {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, pl.ID.Name, pl.ID.UUID)
	}
	return w.Flush()
}

func (cmd *PlaylistsCmd) runShow(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	name := c.Args().First()

	pl, err := cmd.app.Source.Playlist(ctx, name)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, pl)
	}

	draft, err := cmd.app.Draft.Load(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tTYPE\tDRAFT")
	for i, item := range pl.Items {
		mark := ""
		if draft.IsAdded(item.ID.UUID) {
			mark = "added"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, item.ID.Name, item.Type, mark)
	}
	return w.Flush()
}
