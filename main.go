package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/bridge"
	"github.com/zurielbm/pp2ot-bridge/internal/commands"
	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/core/logging"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
	"github.com/zurielbm/pp2ot-bridge/internal/data/stores"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/internal/store/jsonfile"
	"github.com/zurielbm/pp2ot-bridge/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := printer.NewContext(context.Background(), printer.New(os.Stderr))

	var (
		logCloser func()
		bridgeApp = &bridge.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "pp2ot",
		Usage:     "Send ProPresenter playlists to an Ontime rundown",
		UsageText: "pp2ot [global options] command [command options]",
		Description: `pp2ot builds a draft from ProPresenter playlist items and pushes it into
the current Ontime rundown as events and groups.

Start with 'pp2ot playlists' and 'pp2ot draft add <playlist>', check the
result with 'pp2ot draft ls', then run 'pp2ot push'.

Settings can also be given through a .env file in the working directory.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PP2OT_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/pp2ot.log)",
				Sources:     cli.EnvVars("PP2OT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PP2OT_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("PP2OT_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogPath(), logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				// The config commands are how a broken file gets fixed, so
				// they run on defaults instead of failing here.
				if c.Args().First() != "config" {
					return ctx, fmt.Errorf("load config: %w", err)
				}
				log.Warn().Err(err).Str("path", flags.ConfigPath).Msg("config invalid, using defaults")
				defaults := config.DefaultConfig()
				defaults.DataDir = flags.DataDir
				cfg = &defaults
				flags.ConfigErr = err
			}
			flags.Config = cfg

			database, err = stores.OpenWithRecovery(cfg.DataDir, db.DefaultOpenOptions(), logging.Component("db"))
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			kvStore := stores.NewKVStore(database)
			if n, err := kvStore.SweepExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("sweep expired kv entries")
			} else if n > 0 {
				log.Debug().Int64("count", n).Msg("swept expired kv entries")
			}

			hist := jsonfile.NewHistoryStore(cfg.HistoryFile())

			// Commands already hold a pointer to bridgeApp.
			*bridgeApp = *bridge.NewApp(cfg, kvStore, hist, logging.Component("bridge"))

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.RegisterAll(app, flags, bridgeApp)

	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		printer.Ctx(ctx).Errorf("%s", err)
		exitCode = 1
	}

	os.Exit(exitCode)
}
