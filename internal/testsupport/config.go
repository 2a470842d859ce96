package testsupport

import (
	"path/filepath"
	"testing"

	"kinobot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.MoviesDir = filepath.Join(base, "movies")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAdmins sets the admin allow-list on the test config.
func WithAdmins(ids ...int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Bot.AdminIDs = ids
	}
}

// WithMaxFileSizeMiB overrides the upload size cap on the test config.
func WithMaxFileSizeMiB(mib int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Bot.MaxFileSizeMiB = mib
	}
}
