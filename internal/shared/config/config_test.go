package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 0.85, cfg.ClassifierFuzzyThreshold)
	assert.Equal(t, 30, cfg.WindowShort)
	assert.Equal(t, 150, cfg.WindowLong)
	assert.Equal(t, "hash", cfg.Embedder)
	assert.Equal(t, "local", cfg.ObjectStoreType)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("CLASSIFIER_MIN_CONFIDENCE", "0.7")
	t.Setenv("WINDOW_SHORT", "12")
	t.Setenv("BATCH_CONCURRENCY", "not-a-number")
	t.Setenv("OBJECT_STORE", "S3")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 0.7, cfg.ClassifierMinConfidence)
	assert.Equal(t, 12, cfg.WindowShort)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, "s3", cfg.ObjectStoreType)
}

func TestLoadDatabasePool(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, DBPool{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
	}, cfg.DBPool)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9000\nWINDOW_LONG=200\n"), 0o600))
	t.Setenv("PORT", "7000")
	t.Setenv("WINDOW_LONG", "")
	os.Unsetenv("WINDOW_LONG")

	cfg := Load()

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 200, cfg.WindowLong)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "threshold above one", mutate: func(c *Config) { c.ClassifierFuzzyThreshold = 1.5 }},
		{name: "zero window", mutate: func(c *Config) { c.WindowShort = 0 }},
		{name: "long window shorter than short", mutate: func(c *Config) { c.WindowLong = 10 }},
		{name: "unknown embedder", mutate: func(c *Config) { c.Embedder = "openai" }},
		{name: "gemini without key", mutate: func(c *Config) { c.Embedder = "gemini" }},
		{name: "s3 without bucket", mutate: func(c *Config) { c.ObjectStoreType = "s3" }},
		{name: "negative pool size", mutate: func(c *Config) { c.DBPool.MaxOpenConns = -1 }},
		{name: "negative idle time", mutate: func(c *Config) { c.DBPool.ConnMaxIdleTime = -time.Second }},
		{name: "ping timeout too long", mutate: func(c *Config) { c.DBPool.PingTimeout = 2 * time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
