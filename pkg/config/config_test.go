package config

import (
	"os"
	"testing"
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, envlimits.ProfileCanonical, cfg.Limits.Profile)
	assert.Equal(t, float64(60), cfg.Measurement.WindowSeconds)
	assert.Equal(t, float64(2.0), cfg.Measurement.MinEpisodeDuration)
	assert.Equal(t, 0, cfg.Measurement.AverageSamples)
	assert.Equal(t, int64(1500000), cfg.Mock.StartVolume)
	assert.Equal(t, 512, cfg.Mock.Regulator)
	assert.Equal(t, 250*time.Millisecond, cfg.Mock.SampleRate)
}

func TestEnvLimits(t *testing.T) {
	cfg := Default()
	lim, err := cfg.EnvLimits()
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), lim.PoolFull)

	cfg.Limits.Profile = envlimits.ProfileLegacy
	lim, err = cfg.EnvLimits()
	require.NoError(t, err)
	assert.Equal(t, int64(500000), lim.PoolFull)

	cfg.Limits.Profile = "bogus"
	_, err = cfg.EnvLimits()
	assert.Error(t, err)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"

limits:
  profile: legacy

measurement:
  window_seconds: 30
  min_episode_duration: 1.5
  average_samples: 4

mock:
  seed: 42
  start_volume: 200000
  inflow_bias: 500
  motor_on: true
  regulator: 800
  sample_rate: 100ms
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, envlimits.ProfileLegacy, cfg.Limits.Profile)
	assert.Equal(t, float64(30), cfg.Measurement.WindowSeconds)
	assert.Equal(t, float64(1.5), cfg.Measurement.MinEpisodeDuration)
	assert.Equal(t, 4, cfg.Measurement.AverageSamples)
	assert.Equal(t, int64(42), cfg.Mock.Seed)
	assert.Equal(t, int64(200000), cfg.Mock.StartVolume)
	assert.Equal(t, int64(500), cfg.Mock.InflowBias)
	assert.True(t, cfg.Mock.MotorOn)
	assert.Equal(t, 800, cfg.Mock.Regulator)
	assert.Equal(t, 100*time.Millisecond, cfg.Mock.SampleRate)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, envlimits.ProfileCanonical, cfg.Limits.Profile)         // default
	assert.Equal(t, float64(60), cfg.Measurement.WindowSeconds)             // default
	assert.Equal(t, 250*time.Millisecond, cfg.Mock.SampleRate)              // default
	assert.Equal(t, float64(2.0), cfg.Measurement.MinEpisodeDuration)       // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Measurement.WindowSeconds = 15

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float64(15), loaded.Measurement.WindowSeconds)
}
