package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/gopem/pkg/envlimits"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Limits      LimitsConfig      `yaml:"limits"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration. The baud rate is fixed
// by the rig's wiring contract and is not configurable.
type SerialConfig struct {
	Port string `yaml:"port"`
}

// LimitsConfig selects the environment limit profile the monitor uses to
// classify telemetry.
type LimitsConfig struct {
	Profile string `yaml:"profile"` // "canonical" or "legacy"
}

// MeasurementConfig contains measurement parameters.
type MeasurementConfig struct {
	WindowSeconds      float64 `yaml:"window_seconds"`
	MinEpisodeDuration float64 `yaml:"min_episode_duration"` // Minimum net-flow episode duration in seconds (filters noise)
	AverageSamples     int     `yaml:"average_samples"`      // Number of samples to average (0 = disabled, default)
}

// MockConfig contains mock rig configuration.
type MockConfig struct {
	Seed        int64         `yaml:"seed"`         // Pseudo-random seed (0 = time-based)
	StartVolume int64         `yaml:"start_volume"` // Initial reservoir volume
	InflowBias  int64         `yaml:"inflow_bias"`  // Constant inflow added every interval
	MotorOn     bool          `yaml:"motor_on"`     // Motor running at start
	Regulator   int           `yaml:"regulator"`    // Simulated speed regulator reading (0-1023)
	SampleRate  time.Duration `yaml:"sample_rate"`  // Frame emission rate
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
		},
		Limits: LimitsConfig{
			Profile: envlimits.ProfileCanonical,
		},
		Measurement: MeasurementConfig{
			WindowSeconds:      60,
			MinEpisodeDuration: 2.0, // Filter episodes shorter than 2 seconds
			AverageSamples:     0,   // No averaging by default
		},
		Mock: MockConfig{
			Seed:        0,
			StartVolume: 1500000,
			InflowBias:  0,
			MotorOn:     false,
			Regulator:   512,
			SampleRate:  250 * time.Millisecond,
		},
	}
}

// EnvLimits resolves the configured limit profile.
func (c *Config) EnvLimits() (envlimits.Limits, error) {
	lim, err := envlimits.Profile(c.Limits.Profile)
	if err != nil {
		return envlimits.Limits{}, err
	}
	if err := lim.Validate(); err != nil {
		return envlimits.Limits{}, fmt.Errorf("limits profile %q: %w", c.Limits.Profile, err)
	}
	return lim, nil
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}

	if c.Limits.Profile == "" {
		c.Limits.Profile = def.Limits.Profile
	}

	if c.Measurement.WindowSeconds == 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}
	if c.Measurement.MinEpisodeDuration == 0 {
		c.Measurement.MinEpisodeDuration = def.Measurement.MinEpisodeDuration
	}

	if c.Mock.StartVolume == 0 {
		c.Mock.StartVolume = def.Mock.StartVolume
	}
	if c.Mock.Regulator == 0 {
		c.Mock.Regulator = def.Mock.Regulator
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
}
