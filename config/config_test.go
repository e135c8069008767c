package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleBrandon/w1-reporter/internal/scheduler"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfigSettingsJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"api": {"host": "api.example.com", "port": 8080, "path": "/ingest", "credential": "dXNlcjpwYXNz"},
		"schedule": {"mode": "interval", "interval_seconds": 30},
		"devices": [{"address": "28-0316a2795aff", "name": "Water", "calibration_offset_celsius": 0.5}],
		"origin_patterns": ["localhost:*"]
	}`)

	cfg, err := LoadConfigSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "api.example.com", cfg.API.Host)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "dXNlcjpwYXNz", cfg.API.Credential)
	assert.Equal(t, scheduler.MODE_INTERVAL, cfg.Schedule.Mode)
	assert.Equal(t, 30, cfg.Schedule.IntervalSeconds)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, 0.5, cfg.Devices[0].CalibrationOffsetCelsius)
	assert.Equal(t, DefaultRetentionDays, cfg.History.RetentionDays)
	assert.NoError(t, Validate(&cfg))
}

func TestLoadConfigSettingsYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  host: 10.0.0.5
  path: /readings
schedule:
  mode: cron
  cron: "*/30 * * * * *"
bus:
  driver: mock
  mock_devices:
    - address: "0x28ff123456789abc"
      temperature_c: 20.5
history:
  retention_days: 7
`)

	cfg, err := LoadConfigSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.API.Host)
	assert.Equal(t, scheduler.MODE_CRON, cfg.Schedule.Mode)
	assert.Equal(t, sensor.DRIVERTYPE_MOCK, cfg.Bus.Driver)
	require.Len(t, cfg.Bus.MockDevices, 1)
	assert.Equal(t, 20.5, cfg.Bus.MockDevices[0].TemperatureC)
	assert.Equal(t, 7, cfg.History.RetentionDays)
	assert.NoError(t, Validate(&cfg))
}

func TestLoadConfigSettingsErrors(t *testing.T) {
	_, err := LoadConfigSettings(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfigSettings(writeFile(t, "bad.json", `{"api": `))
	assert.Error(t, err)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := LoadConfigSettings("config.json")
	require.NoError(t, err)
	assert.NoError(t, Validate(&cfg))
}

func TestApplyEnv(t *testing.T) {
	cfg := Config{}
	cfg.API.Credential = "from-file"
	cfg.MQTT.Password = "file-pass"

	cfg.ApplyEnv(EnvSettings{})
	assert.Equal(t, "from-file", cfg.API.Credential)

	cfg.ApplyEnv(EnvSettings{APIBasicAuth: "from-env", MQTTPassword: "env-pass"})
	assert.Equal(t, "from-env", cfg.API.Credential)
	assert.Equal(t, "env-pass", cfg.MQTT.Password)
}

func TestLoadEnvSettings(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "sqlite:///tmp/w1.db")
	t.Setenv("CONFIG_FILE_LOCATION", "unused")
	require.NoError(t, os.Unsetenv("CONFIG_FILE_LOCATION"))

	settings, err := LoadEnvSettings()
	require.NoError(t, err)

	assert.Equal(t, "9090", settings.ServerPort)
	assert.Equal(t, "sqlite:///tmp/w1.db", settings.DatabaseURL)
	assert.Equal(t, DefaultConfigFileLocation, settings.ConfigFileLocation)
}
