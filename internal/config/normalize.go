package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBot()
	c.normalizeLanguages()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MoviesDir) == "" {
		c.Paths.MoviesDir = defaultMoviesDir
	}
	if c.Paths.MoviesDir, err = expandPath(c.Paths.MoviesDir); err != nil {
		return fmt.Errorf("paths.movies_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Bot.SocketPath) != "" {
		if c.Bot.SocketPath, err = expandPath(c.Bot.SocketPath); err != nil {
			return fmt.Errorf("bot.socket_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeBot() {
	c.Bot.Channel = strings.TrimSpace(strings.TrimPrefix(c.Bot.Channel, "@"))
	c.Bot.ChannelURL = strings.TrimSpace(c.Bot.ChannelURL)
	c.Bot.Instagram = strings.TrimSpace(c.Bot.Instagram)
	if c.Bot.Channel != "" && c.Bot.ChannelURL == "" {
		c.Bot.ChannelURL = "https://t.me/" + c.Bot.Channel
	}
}

func (c *Config) normalizeLanguages() {
	c.Languages.Default = strings.ToLower(strings.TrimSpace(c.Languages.Default))
	if c.Languages.Default == "" {
		c.Languages.Default = defaultLanguage
	}
	seen := make(map[string]struct{}, len(c.Languages.Supported))
	normalized := make([]string, 0, len(c.Languages.Supported))
	for _, lang := range c.Languages.Supported {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		normalized = append(normalized, lang)
	}
	if len(normalized) == 0 {
		normalized = append(normalized, defaultSupportedLanguages...)
	}
	c.Languages.Supported = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
