package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
)

// RegisterAll adds every subcommand to root. app may be an empty value that
// the root Before hook fills in; commands only dereference it when they run.
func RegisterAll(root *cli.Command, flags *Flags, app *bridge.App) *cli.Command {
	root = NewPlaylistsCmd(flags, app).Register(root)
	root = NewRundownCmd(flags, app).Register(root)
	root = NewDraftCmd(flags, app).Register(root)
	root = NewPushCmd(flags, app).Register(root)
	root = NewHistoryCmd(flags, app).Register(root)
	root = NewStatusCmd(flags, app).Register(root)
	root = NewConfigCmd(flags).Register(root)
	root = NewMockCmd(flags).Register(root)
	return root
}
