package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "extracted_data", cfg.Pipeline.RawPrefix)
	assert.Equal(t, "transformed_data", cfg.Pipeline.NormalizedPrefix)
	assert.Equal(t, "aggregated_data", cfg.Pipeline.AggregatedPrefix)
	assert.Equal(t, "stg.stock_data", cfg.Database.WatermarkTable)
	assert.True(t, cfg.Pipeline.SeedWindows)

	// Built-in company dimension table when nothing is configured.
	assert.Equal(t, DefaultCompanyMapping(), cfg.Companies.Mapping)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: text
  output: stdout
database:
  host: warehouse.internal
  port: 5433
  user: etl
  name: marketdata
  watermark_table: stg.stock_data
companies:
  mapping:
    "Tesla Inc.": 6
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "warehouse.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, int64(6), cfg.Companies.Mapping["Tesla Inc."])
	// Configured mapping replaces the built-in table wholesale.
	assert.NotContains(t, cfg.Companies.Mapping, "Apple Inc.")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
`), 0644))

	t.Setenv("ETL_LOGGING_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad logging output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"missing file path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }},
		{"empty prefix", func(c *Config) { c.Pipeline.NormalizedPrefix = "" }},
		{"bad port", func(c *Config) { c.Database.Port = 0 }},
		{"missing host", func(c *Config) { c.Database.Host = "" }},
		{"invalid company id", func(c *Config) { c.Companies.Mapping = map[string]int64{"Bad Corp.": 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestNewPaths(t *testing.T) {
	dir := t.TempDir()

	paths, err := NewPaths(PathsConfig{
		DataDir:       dir,
		RawDir:        "raw",
		NormalizedDir: "normalized",
		AggregatedDir: "aggregated",
		StateDir:      "state",
		LogsDir:       "logs",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(dir, "state", "window_seed.json"), paths.WindowSeedFile)

	require.NoError(t, paths.EnsureDirectories())
	for _, d := range []string{paths.RawDir, paths.NormalizedDir, paths.AggregatedDir, paths.StateDir, paths.LogsDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewPathsAbsoluteSubdir(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere")

	paths, err := NewPaths(PathsConfig{DataDir: dir, RawDir: abs})
	require.NoError(t, err)
	assert.Equal(t, abs, paths.RawDir)
}
