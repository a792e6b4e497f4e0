package store

import (
	"path/filepath"
	"testing"

	"github.com/flarelog/insight-cli/internal/config"
)

func configStore(t *testing.T, driver string) config.StoreConfig {
	t.Helper()
	return config.StoreConfig{
		Driver:      driver,
		DatabaseURL: filepath.Join(t.TempDir(), "test.db"),
	}
}
