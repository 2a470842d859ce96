package config

const (
	defaultDataDir        = "~/.local/share/kinobot"
	defaultMoviesDir      = "~/.local/share/kinobot/movies"
	defaultStagingDir     = "~/.local/share/kinobot/staging"
	defaultLogDir         = "~/.local/share/kinobot/logs"
	defaultMaxFileSizeMiB = 50
	defaultLanguage       = "uz"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

var defaultSupportedLanguages = []string{"uz", "ru", "en"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	supported := make([]string, len(defaultSupportedLanguages))
	copy(supported, defaultSupportedLanguages)

	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			MoviesDir:  defaultMoviesDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Bot: Bot{
			MaxFileSizeMiB: defaultMaxFileSizeMiB,
		},
		Languages: Languages{
			Default:   defaultLanguage,
			Supported: supported,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
