// Package config loads the simulator's process configuration from YAML.
// Scenario content (vehicle, pingers, noise) lives in its own JSON file
// referenced from here; this file covers addresses and runtime knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Scenario string    `yaml:"scenario"`
	API      APIConfig `yaml:"api"`
	UDP      UDPConfig `yaml:"udp"`
	Sim      SimConfig `yaml:"sim"`
	Log      LogConfig `yaml:"log"`
}

type APIConfig struct {
	Listen        string `yaml:"listen"`
	MetricsListen string `yaml:"metrics_listen"`
}

type UDPConfig struct {
	// Dest is where observation frames are sent. Empty disables the
	// UDP publisher.
	Dest string `yaml:"dest"`
	// Listen is where position-set frames are received. Empty disables
	// the UDP inbound channel.
	Listen string `yaml:"listen"`
}

type SimConfig struct {
	Tick        time.Duration `yaml:"tick"`
	Duration    time.Duration `yaml:"duration"` // 0 runs until interrupted
	Accelerated bool          `yaml:"accelerated"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Scenario == "" {
		return Config{}, fmt.Errorf("scenario is required")
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = ":8080"
	}
	if cfg.API.MetricsListen == "" {
		cfg.API.MetricsListen = ":9090"
	}

	if cfg.Sim.Tick == 0 {
		cfg.Sim.Tick = 100 * time.Millisecond
	}
	if cfg.Sim.Tick < 0 {
		return Config{}, fmt.Errorf("sim.tick must be > 0")
	}
	if cfg.Sim.Duration < 0 {
		return Config{}, fmt.Errorf("sim.duration must be >= 0")
	}

	return cfg, nil
}
