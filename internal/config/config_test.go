package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/trendalarm/internal/config"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trendalarm.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
poll_interval = 600
history_weeks = 3
horizon = 5
catalog_url = "http://catalog.local/DeviceCatalog"
telemetry_url = "http://adaptor.local:8081"
alarms_topic = "greenhouse/alarms"
broker_address = "tcp://broker.local:1883"
log_level = "debug"

[marker]
backend = "sqlite"
path = "/tmp/marker.db"

[audit]
backend = "file"
success_log = "/tmp/ok.log"
error_log = "/tmp/err.log"
`)
	t.Setenv("TRENDALARM_CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 600, cfg.PollInterval)
	assert.Equal(t, 3, cfg.HistoryWeeks)
	assert.Equal(t, 21, cfg.WindowDays())
	assert.Equal(t, 5, cfg.Horizon)
	assert.Equal(t, "http://catalog.local/DeviceCatalog", cfg.CatalogURL)
	assert.Equal(t, "http://adaptor.local:8081", cfg.TelemetryURL)
	assert.Equal(t, "greenhouse/alarms", cfg.AlarmsTopic)
	assert.Equal(t, "tcp://broker.local:1883", cfg.BrokerAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Marker.Backend)
	assert.Equal(t, "/tmp/marker.db", cfg.Marker.Path)
	assert.Equal(t, "/tmp/ok.log", cfg.Audit.SuccessLog)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRENDALARM_CONFIG", "")

	cfg, err := config.Load([]string{
		"--catalog-url", "http://catalog.local/DeviceCatalog",
		"--telemetry-url", "http://adaptor.local",
	})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, config.DefaultHistoryWeeks, cfg.HistoryWeeks)
	assert.Equal(t, config.DefaultHorizon, cfg.Horizon)
	assert.Empty(t, cfg.AlarmsTopic, "resolved later")
	assert.Empty(t, cfg.BrokerAddress, "resolved later")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "file", cfg.Marker.Backend)
	assert.Equal(t, "file", cfg.Audit.Backend)
	assert.False(t, cfg.Once)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
poll_interval = 600
catalog_url = "http://catalog.local"
telemetry_url = "http://adaptor.local"
`)

	cfg, err := config.Load([]string{"--config", path, "--interval", "30", "--once"})
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.PollInterval)
	assert.True(t, cfg.Once)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
catalog_url = "http://catalog.local"
telemetry_url = "http://adaptor.local"

[marker]
backend = "file"
`)
	t.Setenv("TRENDALARM_CONFIG", path)
	t.Setenv("TRENDALARM_MARKER_BACKEND", "redis")

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Marker.Backend)
}

func TestServiceCatalogReplacesEndpoints(t *testing.T) {
	t.Setenv("TRENDALARM_CONFIG", "")

	cfg, err := config.Load([]string{"--service-catalog-url", "http://registry.local/ServiceCatalog"})
	require.NoError(t, err)
	assert.Empty(t, cfg.CatalogURL)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("TRENDALARM_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidationCollectsAllProblems(t *testing.T) {
	path := writeConfig(t, `
poll_interval = 0
log_level = "loud"

[marker]
backend = "etcd"
`)
	t.Setenv("TRENDALARM_CONFIG", path)

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

	msg := err.Error()
	assert.Contains(t, msg, "PollInterval")
	assert.Contains(t, msg, "Backend")
	assert.Contains(t, msg, "loud")
	assert.Contains(t, msg, "catalog_url is required")
}

func TestDurations(t *testing.T) {
	cfg := config.Config{PollInterval: 3600, RequestTimeout: 5, HistoryWeeks: 2}

	assert.Equal(t, "1h0m0s", cfg.PollEvery().String())
	assert.Equal(t, "5s", cfg.Timeout().String())
	assert.Equal(t, 14, cfg.WindowDays())
}
