package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/core/logging"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/internal/mockapi"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
)

type MockCmd struct {
	flags *Flags

	sourceAddr string
	destAddr   string
	seed       int64
	playlists  int
	empty      bool
}

// NewMockCmd creates a new mock command.
func NewMockCmd(flags *Flags) *MockCmd {
	return &MockCmd{flags: flags}
}

// Register adds the mock command to the application.
func (cmd *MockCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "mock",
		Usage:     "Run fake presentation and rundown servers",
		UsageText: "pp2ot mock [--source-addr addr] [--dest-addr addr] [--seed n]",
		Description: `Starts in-memory stand-ins for both APIs so the bridge can be tried
without the real applications. Point pp_host/pp_port and ot_host/ot_port at
the printed addresses. State is lost when the command exits.

The playlist server is filled with generated playlists; the same seed
gives the same playlists. The rundown starts with a few sample entries
unless --empty is set.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "source-addr",
				Usage:       "listen address for the playlist API",
				Value:       "127.0.0.1:1025",
				Destination: &cmd.sourceAddr,
			},
			&cli.StringFlag{
				Name:        "dest-addr",
				Usage:       "listen address for the rundown API",
				Value:       "127.0.0.1:4001",
				Destination: &cmd.destAddr,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "seed for generated playlists",
				Value:       1,
				Destination: &cmd.seed,
			},
			&cli.IntFlag{
				Name:        "playlists",
				Usage:       "number of generated playlists",
				Value:       3,
				Destination: &cmd.playlists,
			},
			&cli.BoolFlag{
				Name:        "empty",
				Usage:       "start with an empty rundown",
				Destination: &cmd.empty,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *MockCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	log := logging.Component("mock")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pp := mockapi.NewProPresenter()
	pp.Generate(cmd.seed, cmd.playlists)

	ot := mockapi.NewOntime()
	if !cmd.empty {
		ot.Seed(sampleRundown()...)
	}

	servers := []*mockapi.Server{
		mockapi.NewServer("propresenter", cmd.sourceAddr, pp, log),
		mockapi.NewServer("ontime", cmd.destAddr, ot, log),
	}

	var started []*mockapi.Server
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		for _, s := range started {
			if err := s.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown mock server")
			}
		}
	}()

	for _, s := range servers {
		if err := s.Start(ctx); err != nil {
			return err
		}
		started = append(started, s)
	}

	p.Section("Mock servers")
	p.CheckItem("propresenter", fmt.Sprintf("http://%s/v1", servers[0].Addr()))
	p.CheckItem("ontime", fmt.Sprintf("http://%s/data", servers[1].Addr()))
	p.Printf("\n")
	p.Infof("Press Ctrl+C to stop")

	<-ctx.Done()
	return nil
}

func sampleRundown() []ontime.Entry {
	parent := "mock-worship"
	return []ontime.Entry{
		{ID: "mock-welcome", Type: ontime.TypeEvent, Title: "Welcome", Cue: "1", Duration: 300000, TimeEnd: 36300000},
		{ID: parent, Type: ontime.TypeGroup, Title: "Worship", Colour: "#779BE7"},
		{ID: "mock-opening", Type: ontime.TypeEvent, Title: "Opening Song", Cue: "2", Duration: 240000, TimeEnd: 36540000, Parent: &parent},
		{ID: "mock-delay", Type: ontime.TypeDelay, Duration: 60000},
	}
}
