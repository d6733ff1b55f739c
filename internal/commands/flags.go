package commands

import (
	"os"
	"path/filepath"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
)

const appDirName = "pp2ot"

// Flags holds the global options shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook.
	Config *config.Config

	// ConfigErr is set when the config file failed to load and defaults are
	// in use. Only the config commands run in that state.
	ConfigErr error
}

// LogPath is the explicit --log-file, or pp2ot.log in the data directory.
func (f *Flags) LogPath() string {
	if f.LogFile != "" {
		return f.LogFile
	}
	return filepath.Join(f.DataDir, appDirName+".log")
}

func DefaultConfigPath() string {
	return filepath.Join(xdgHome("XDG_CONFIG_HOME", ".config"), appDirName, "config.yaml")
}

func DefaultDataDir() string {
	return filepath.Join(xdgHome("XDG_DATA_HOME", ".local", "share"), appDirName)
}

// xdgHome returns $env, or the fallback path under the user's home.
func xdgHome(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}
