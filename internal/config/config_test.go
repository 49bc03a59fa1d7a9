package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("USER", "tester")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/thresholds.json", cfg.Paths.ThresholdsFile)
	assert.Equal(t, "data/threshold_history.json", cfg.Paths.HistoryFile)
	assert.Equal(t, "data/safety_dictionary.json", cfg.Paths.DictionaryFile)
	assert.Equal(t, "data/relist.db", cfg.Store.DatabasePath)
	assert.Equal(t, 4, cfg.Batch.MaxWorkers)
	assert.Equal(t, 0, cfg.Batch.Limit)
	assert.Equal(t, "", cfg.Metrics.Textfile)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "tester", cfg.User)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
paths:
  thresholds_file: /var/lib/relist/thresholds.json
log:
  level: debug
  format: console
batch:
  max_workers: 16
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/relist/thresholds.json", cfg.Paths.ThresholdsFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 16, cfg.Batch.MaxWorkers)
	// Defaults still apply for unset values
	assert.Equal(t, "data/relist.db", cfg.Store.DatabasePath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  database_path: file.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RELIST_STORE_DATABASE_PATH", "env.db")
	t.Setenv("RELIST_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "env.db", cfg.Store.DatabasePath)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RELIST_BATCH_MAX_WORKERS", "12")
	t.Setenv("RELIST_USER", "ops-bot")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Batch.MaxWorkers)
	assert.Equal(t, "ops-bot", cfg.User)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Paths.ThresholdsFile = "t.json"
	cfg.Paths.HistoryFile = "h.json"
	cfg.Paths.DictionaryFile = "d.json"
	cfg.Store.DatabasePath = "r.db"
	cfg.Batch.MaxWorkers = 4
	return cfg
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"thresholds", "safety", "store", "classify"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Paths.HistoryFile = ""
	cfg.Store.DatabasePath = ""

	err := cfg.Validate("classify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths.history_file")
	assert.Contains(t, err.Error(), "store.database_path")

	assert.NoError(t, cfg.Validate("safety"))
}

func TestValidate_WorkerBounds(t *testing.T) {
	tests := []struct {
		workers int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{256, false},
		{257, true},
	}
	for _, tt := range tests {
		cfg := validDefaults()
		cfg.Batch.MaxWorkers = tt.workers
		err := cfg.Validate("classify")
		if tt.wantErr {
			assert.Error(t, err, "workers=%d", tt.workers)
		} else {
			assert.NoError(t, err, "workers=%d", tt.workers)
		}
	}

	cfg := validDefaults()
	cfg.Batch.Limit = -1
	assert.Error(t, cfg.Validate("classify"))
}

func TestValidateUnknownMode(t *testing.T) {
	assert.Error(t, validDefaults().Validate("serve"))
}
