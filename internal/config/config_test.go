package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "iot_simulator", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Simulation.TickInterval)
	assert.Equal(t, 256, cfg.Simulation.ChannelBuffer)
	assert.Equal(t, "telemetry:readings", cfg.Simulation.Stream)
	assert.Equal(t, 60, cfg.Aggregation.Interval)
	assert.Equal(t, "power_consumption", cfg.Aggregation.Key)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("SIM_TICK_INTERVAL", "10")
	t.Setenv("AGG_KEY", "temperature")
	t.Setenv("MQTT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Simulation.TickInterval)
	assert.Equal(t, "temperature", cfg.Aggregation.Key)
	assert.True(t, cfg.MQTT.Enabled)
}

func TestLoadInvalidTickInterval(t *testing.T) {
	t.Setenv("SIM_TICK_INTERVAL", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_interval")
}

func TestLoadConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  host: file-db
  port: 15432
simulation:
  tick_interval: 2
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-db", cfg.Database.Host)
	assert.Equal(t, 15432, cfg.Database.Port)
	assert.Equal(t, 2, cfg.Simulation.TickInterval)
	// 文件未覆盖的字段保留默认值
	assert.Equal(t, "telemetry:readings", cfg.Simulation.Stream)
}

func TestLoadConfigFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")

	_, err := Load()
	require.Error(t, err)
}
