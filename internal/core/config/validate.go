package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hay-kot/criterio"

	"github.com/zurielbm/pp2ot-bridge/internal/core/timecode"
)

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.PPHost == "" {
		errs = errs.Append("pp_host", errors.New("cannot be empty"))
	}
	if c.OTHost == "" {
		errs = errs.Append("ot_host", errors.New("cannot be empty"))
	}
	if err := validPort(c.PPPort); err != nil {
		errs = errs.Append("pp_port", err)
	}
	if err := validPort(c.OTPort); err != nil {
		errs = errs.Append("ot_port", err)
	}

	if err := timecode.Validate(c.DefaultDuration); err != nil {
		errs = errs.Append("default_duration", err)
	}
	if err := timecode.Validate(c.DefaultEndTime); err != nil {
		errs = errs.Append("default_end_time", err)
	}
	for i, v := range c.FavoriteDurations {
		if err := timecode.Validate(v); err != nil {
			errs = errs.Append(fmt.Sprintf("favorite_durations[%d]", i), err)
		}
	}
	for i, v := range c.FavoriteEndTimes {
		if err := timecode.Validate(v); err != nil {
			errs = errs.Append(fmt.Sprintf("favorite_end_times[%d]", i), err)
		}
	}

	if c.RequestTimeout <= 0 {
		errs = errs.Append("request_timeout", errors.New("must be positive"))
	}
	if c.SettleDelay < 0 {
		errs = errs.Append("settle_delay", errors.New("cannot be negative"))
	}
	if c.HistoryLimit < 1 {
		errs = errs.Append("history_limit", errors.New("must be at least 1"))
	}

	if c.DataDir == "" {
		errs = errs.Append("data_dir", errors.New("data directory cannot be empty"))
	}

	return errs.ToError()
}

// ValidateDeep runs Validate and then checks the config file and data
// directory on disk.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validPort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("%q is not a number", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%d is out of range 1-65535", n)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
