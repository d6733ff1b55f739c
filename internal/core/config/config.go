// Package config handles loading, saving and validating pp2ot settings.
//
// The settings document is flat. It is read as YAML, so a JSON settings file
// from earlier releases loads unchanged.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
)

// Favorite kinds accepted by AddFavorite.
const (
	FavoriteDuration = "duration"
	FavoriteEndTime  = "end_time"
)

// Config holds the application configuration.
type Config struct {
	PPHost string `yaml:"pp_host"`
	PPPort string `yaml:"pp_port"`
	OTHost string `yaml:"ot_host"`
	OTPort string `yaml:"ot_port"`

	DefaultDuration   string   `yaml:"default_duration"`
	DefaultEndTime    string   `yaml:"default_end_time"`
	FavoriteDurations []string `yaml:"favorite_durations"`
	FavoriteEndTimes  []string `yaml:"favorite_end_times"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	HistoryLimit   int           `yaml:"history_limit"`

	DataDir string `yaml:"-"` // set by caller, not from config file
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PPHost:            "localhost",
		PPPort:            "1025",
		OTHost:            "localhost",
		OTPort:            "4001",
		DefaultDuration:   "00:05:00",
		DefaultEndTime:    timecode.Zero,
		FavoriteDurations: []string{},
		FavoriteEndTimes:  []string{},
		RequestTimeout:    10 * time.Second,
		SettleDelay:       500 * time.Millisecond,
		HistoryLimit:      50,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
// Empty time strings fall back the same way the settings screen did.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.PPPort == "" {
		c.PPPort = defaults.PPPort
	}
	if c.OTPort == "" {
		c.OTPort = defaults.OTPort
	}
	if c.PPHost == "" {
		c.PPHost = defaults.PPHost
	}
	if c.OTHost == "" {
		c.OTHost = defaults.OTHost
	}
	if strings.TrimSpace(c.DefaultDuration) == "" {
		c.DefaultDuration = defaults.DefaultDuration
	}
	if strings.TrimSpace(c.DefaultEndTime) == "" {
		c.DefaultEndTime = defaults.DefaultEndTime
	}
	if c.FavoriteDurations == nil {
		c.FavoriteDurations = []string{}
	}
	if c.FavoriteEndTimes == nil {
		c.FavoriteEndTimes = []string{}
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = defaults.SettleDelay
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
}

// Save writes the configuration to path, creating parent directories. Paths
// ending in .json are written as JSON, anything else as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		// Round-trip through a generic map so durations stay human readable.
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = append(data, '\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename config file: %w", err)
	}
	return nil
}

// SourceBaseURL is the root of the playlist API.
func (c *Config) SourceBaseURL() string {
	return "http://" + net.JoinHostPort(c.PPHost, c.PPPort) + "/v1"
}

// DestinationBaseURL is the root of the rundown API.
func (c *Config) DestinationBaseURL() string {
	return "http://" + net.JoinHostPort(c.OTHost, c.OTPort) + "/data"
}

// HistoryFile returns the path to the push history JSON file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history.json")
}

// Keys lists the settings accepted by Set, in display order.
func Keys() []string {
	return []string{
		"pp_host", "pp_port", "ot_host", "ot_port",
		"default_duration", "default_end_time",
		"request_timeout", "settle_delay", "history_limit",
	}
}

// Set assigns a scalar setting by its file key. The result is not validated;
// call Validate before saving.
func (c *Config) Set(key, value string) error {
	switch key {
	case "pp_host":
		c.PPHost = value
	case "pp_port":
		c.PPPort = value
	case "ot_host":
		c.OTHost = value
	case "ot_port":
		c.OTPort = value
	case "default_duration":
		c.DefaultDuration = value
	case "default_end_time":
		c.DefaultEndTime = value
	case "request_timeout", "settle_delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "request_timeout" {
			c.RequestTimeout = d
		} else {
			c.SettleDelay = d
		}
	case "history_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.HistoryLimit = n
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Get returns a scalar setting as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "pp_host":
		return c.PPHost, nil
	case "pp_port":
		return c.PPPort, nil
	case "ot_host":
		return c.OTHost, nil
	case "ot_port":
		return c.OTPort, nil
	case "default_duration":
		return c.DefaultDuration, nil
	case "default_end_time":
		return c.DefaultEndTime, nil
	case "request_timeout":
		return c.RequestTimeout.String(), nil
	case "settle_delay":
		return c.SettleDelay.String(), nil
	case "history_limit":
		return strconv.Itoa(c.HistoryLimit), nil
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}

// AddFavorite appends a time preset. Duplicates are ignored; the return value
// reports whether the list changed.
func (c *Config) AddFavorite(kind, value string) (bool, error) {
	if err := timecode.Validate(value); err != nil {
		return false, err
	}

	var list *[]string
	switch kind {
	case FavoriteDuration:
		list = &c.FavoriteDurations
	case FavoriteEndTime:
		list = &c.FavoriteEndTimes
	default:
		return false, fmt.Errorf("unknown favorite kind %q (valid: %s, %s)", kind, FavoriteDuration, FavoriteEndTime)
	}

	if slices.Contains(*list, value) {
		return false, nil
	}
	*list = append(*list, value)
	return true, nil
}

// RemoveFavorite deletes a time preset, reporting whether it was present.
func (c *Config) RemoveFavorite(kind, value string) (bool, error) {
	var list *[]string
	switch kind {
	case FavoriteDuration:
		list = &c.FavoriteDurations
	case FavoriteEndTime:
		list = &c.FavoriteEndTimes
	default:
		return false, fmt.Errorf("unknown favorite kind %q", kind)
	}

	idx := slices.Index(*list, value)
	if idx < 0 {
		return false, nil
	}
	*list = slices.Delete(*list, idx, idx+1)
	return true, nil
}
