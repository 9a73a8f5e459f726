package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithMemoryDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "32919", cfg.Port)
	assert.Equal(t, 5, cfg.VoteMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.NotifyDedupWindow)
	assert.Equal(t, 5*time.Second, cfg.SideEffectTimeout)
	assert.Equal(t, "karma_events", cfg.KarmaQueue)
	assert.True(t, cfg.IsDev())
}

func TestLoadReadsDotEnvAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "DATABASE_URL=postgres://u:p@localhost/agora\nVOTE_MAX_ATTEMPTS=3\nNOTIFY_DEDUP_WINDOW=1h\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Setenv("VOTE_MAX_ATTEMPTS", "7")

	cfg, err := LoadFrom(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://u:p@localhost/agora", cfg.DatabaseURL)
	assert.Equal(t, 7, cfg.VoteMaxAttempts)
	assert.Equal(t, time.Hour, cfg.NotifyDedupWindow)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadFrom(viper.New(), t.TempDir())
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = LoadFrom(viper.New(), t.TempDir())
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("VOTE_MAX_ATTEMPTS", "0")
	_, err = LoadFrom(viper.New(), t.TempDir())
	assert.Error(t, err)
}
