package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBot(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.MoviesDir == "" {
		return errors.New("paths.movies_dir must be set")
	}
	return nil
}

func (c *Config) validateBot() error {
	if c.Bot.MaxFileSizeMiB < 0 {
		return errors.New("bot.max_file_size_mib must not be negative")
	}
	seen := make(map[int64]struct{}, len(c.Bot.AdminIDs))
	for _, id := range c.Bot.AdminIDs {
		if id <= 0 {
			return fmt.Errorf("bot.admin_ids contains invalid id %d", id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("bot.admin_ids contains duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c *Config) validateLanguages() error {
	for _, lang := range c.Languages.Supported {
		if c.Languages.Default == lang {
			return nil
		}
	}
	return fmt.Errorf("languages.default %q must be one of languages.supported", c.Languages.Default)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
