package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/printer"
	"github.com/zurielbm/pp2ot-bridge/pkg/iojson"
)

type ConfigCmd struct {
	flags *Flags

	jsonOutput bool
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print the active settings",
				UsageText: "pp2ot config show [--json]",
				Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
				Action:    cmd.runShow,
			},
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "pp2ot config validate [--json]",
				Description: "Validates the configuration file: hosts, ports, time presets, timeouts and the data directory.",
				Flags:       []cli.Flag{jsonFlag(&cmd.jsonOutput)},
				Action:      cmd.runValidate,
			},
			{
				Name:      "set",
				Usage:     "Change a setting and save the config file",
				UsageText: "pp2ot config set <key> <value>",
				Description: "Keys: " + strings.Join(config.Keys(), ", ") + `

Durations for request_timeout and settle_delay use Go syntax (10s, 500ms).
Times use HH:MM:SS.`,
				Action: cmd.runSet,
			},
			{
				Name:  "favorite",
				Usage: "Manage favourite time presets offered by the forms",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a preset",
						UsageText: "pp2ot config favorite add <duration|end_time> <HH:MM:SS>",
						Action:    cmd.runFavoriteAdd,
					},
					{
						Name:      "rm",
						Usage:     "Remove a preset",
						UsageText: "pp2ot config favorite rm <duration|end_time> <HH:MM:SS>",
						Action:    cmd.runFavoriteRm,
					},
				},
			},
		},
	})

	return app
}

// settings returns every setting as key/value pairs in display order.
func settings(cfg *config.Config) [][2]string {
	var out [][2]string
	for _, key := range config.Keys() {
		v, _ := cfg.Get(key)
		out = append(out, [2]string{key, v})
	}
	out = append(out,
		[2]string{"favorite_durations", strings.Join(cfg.FavoriteDurations, ", ")},
		[2]string{"favorite_end_times", strings.Join(cfg.FavoriteEndTimes, ", ")},
		[2]string{"data_dir", cfg.DataDir},
	)
	return out
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	out := c.Root().Writer

	if cmd.jsonOutput {
		doc := map[string]any{}
		for _, kv := range settings(cfg) {
			doc[kv[0]] = kv[1]
		}
		doc["favorite_durations"] = cfg.FavoriteDurations
		doc["favorite_end_times"] = cfg.FavoriteEndTimes
		doc["config_file"] = cmd.flags.ConfigPath
		return iojson.Write(out, doc)
	}

	if cmd.flags.ConfigErr != nil {
		printer.Ctx(ctx).Warnf("Config file is invalid, showing defaults: %v", cmd.flags.ConfigErr)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "config_file\t%s\n", cmd.flags.ConfigPath)
	for _, kv := range settings(cfg) {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", kv[0], kv[1])
	}
	_, _ = fmt.Fprintf(w, "source_url\t%s\n", cfg.SourceBaseURL())
	_, _ = fmt.Fprintf(w, "rundown_url\t%s\n", cfg.DestinationBaseURL())
	return w.Flush()
}

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	var issues []validationIssue
	cfg, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err == nil {
		err = cfg.ValidateDeep(cmd.flags.ConfigPath)
	}
	if err != nil {
		issues = fieldIssues(err)
	}

	if cmd.jsonOutput {
		out := struct {
			Valid  bool              `json:"valid"`
			Errors []validationIssue `json:"errors,omitempty"`
		}{Valid: len(issues) == 0, Errors: issues}
		if err := iojson.Write(c.Root().Writer, out); err != nil {
			return err
		}
		if len(issues) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	p.Section("Configuration")
	if len(issues) > 0 {
		for _, is := range issues {
			p.FailItem(is.Field, is.Message)
		}
		p.Printf("\n")
		p.Errorf("%d error(s) found", len(issues))
		return cli.Exit("", 1)
	}

	file := cmd.flags.ConfigPath
	if _, err := os.Stat(file); err != nil {
		file = "not found, using defaults"
	}
	p.CheckItem("config file", file)
	p.CheckItem("data directory", cfg.DataDir)
	p.CheckItem("source api", cfg.SourceBaseURL())
	p.CheckItem("rundown api", cfg.DestinationBaseURL())
	p.Printf("\n")
	p.Successf("Configuration is valid")
	return nil
}

// fieldIssues flattens a validation error into per-field messages.
func fieldIssues(err error) []validationIssue {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []validationIssue{{Field: "config_file", Message: err.Error()}}
	}

	issues := make([]validationIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, validationIssue{Field: fe.Field, Message: fe.Err.Error()})
	}
	return issues
}

// update applies fn to a copy of the config, validates it and saves it.
func (cmd *ConfigCmd) update(fn func(cfg *config.Config) error) error {
	if cmd.flags.ConfigErr != nil {
		return fmt.Errorf("config file is invalid, fix it first (see 'pp2ot config validate'): %w", cmd.flags.ConfigErr)
	}

	next := *cmd.flags.Config
	next.FavoriteDurations = append([]string(nil), next.FavoriteDurations...)
	next.FavoriteEndTimes = append([]string(nil), next.FavoriteEndTimes...)

	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := next.Save(cmd.flags.ConfigPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	*cmd.flags.Config = next
	return nil
}

func (cmd *ConfigCmd) runSet(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	if err := cmd.update(func(cfg *config.Config) error {
		return cfg.Set(key, value)
	}); err != nil {
		return err
	}

	printer.Ctx(ctx).Success(fmt.Sprintf("Set %s = %s", key, value), cmd.flags.ConfigPath)
	return nil
}

func (cmd *ConfigCmd) runFavoriteAdd(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	kind, value := c.Args().Get(0), c.Args().Get(1)

	var added bool
	if err := cmd.update(func(cfg *config.Config) error {
		var err error
		added, err = cfg.AddFavorite(kind, value)
		return err
	}); err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if !added {
		p.Infof("%s is already a favourite %s", value, kind)
		return nil
	}
	p.Successf("Added favourite %s %s", kind, value)
	return nil
}

func (cmd *ConfigCmd) runFavoriteRm(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	kind, value := c.Args().Get(0), c.Args().Get(1)

	var removed bool
	if err := cmd.update(func(cfg *config.Config) error {
		var err error
		removed, err = cfg.RemoveFavorite(kind, value)
		return err
	}); err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	if !removed {
		p.Warnf("%s is not a favourite %s", value, kind)
		return nil
	}
	p.Successf("Removed favourite %s %s", kind, value)
	return nil
}
