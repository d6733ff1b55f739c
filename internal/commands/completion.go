package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
)

// PlaylistNameCompleter suggests playlist names for the first positional
// argument. Flags complete as usual once the user starts typing "-".
func PlaylistNameCompleter(app *bridge.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		args := cmd.Args().Slice()
		if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "-") {
			cli.DefaultCompleteWithFlags(ctx, cmd)
			return
		}
		if len(args) > 0 {
			return
		}

		playlists, err := app.Source.Playlists(ctx)
		if err != nil {
			return
		}
		for _, pl := range playlists {
			_, _ = fmt.Fprintln(cmd.Root().Writer, pl.ID.Name)
		}
	}
}
