// Package config loads the YAML configuration of the planner: scenario
// parameters for the scene generator, batch run settings and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"online-planner/internal/scene"
	"online-planner/internal/search"
)

// Config holds all planner configuration.
type Config struct {
	Scenario ScenarioConfig `yaml:"scenario"`
	Run      RunConfig      `yaml:"run"`
	Server   ServerConfig   `yaml:"server"`
}

// ScenarioConfig configures random scene generation.
type ScenarioConfig struct {
	Obstacles     int     `yaml:"obstacles"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	MinVertices   int     `yaml:"min_vertices"`
	MaxVertices   int     `yaml:"max_vertices"`
	MinRadius     float64 `yaml:"min_radius"`
	MaxRadius     float64 `yaml:"max_radius"`
	SpawnAttempts int     `yaml:"spawn_attempts"`
}

// RunConfig configures batch evaluation.
type RunConfig struct {
	Episodes   int      `yaml:"episodes"`
	Workers    int      `yaml:"workers"`
	MaxSteps   int      `yaml:"max_steps"`
	Seed       int64    `yaml:"seed"`
	Strategies []string `yaml:"strategies"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string  `yaml:"addr"`
	ReplayRate   float64 `yaml:"replay_rate"` // steps per second streamed on /replay
	ReadTimeout  string  `yaml:"read_timeout"`
	WriteTimeout string  `yaml:"write_timeout"`
}

// Default returns the reference scenario configuration.
func Default() *Config {
	p := scene.DefaultParams()
	return &Config{
		Scenario: ScenarioConfig{
			Obstacles:     p.Obstacles,
			Width:         p.Width,
			Height:        p.Height,
			MinVertices:   p.MinVertices,
			MaxVertices:   p.MaxVertices,
			MinRadius:     p.MinRadius,
			MaxRadius:     p.MaxRadius,
			SpawnAttempts: p.SpawnAttempts,
		},
		Run: RunConfig{
			Episodes:   10,
			Workers:    4,
			MaxSteps:   10000,
			Seed:       1,
			Strategies: []string{search.HillClimbingName, search.LRTAName},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReplayRate:   5,
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	s := c.Scenario
	switch {
	case s.Obstacles < 0:
		return fmt.Errorf("scenario.obstacles must be >= 0, got %d", s.Obstacles)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("scenario width and height must be positive")
	case s.MinVertices < 3 || s.MaxVertices > 6 || s.MinVertices > s.MaxVertices:
		return fmt.Errorf("scenario vertex range must lie within [3,6], got [%d,%d]", s.MinVertices, s.MaxVertices)
	case s.MinRadius <= 0 || s.MinRadius > s.MaxRadius:
		return fmt.Errorf("scenario radius range is invalid: [%v,%v]", s.MinRadius, s.MaxRadius)
	case s.SpawnAttempts <= 0:
		return fmt.Errorf("scenario.spawn_attempts must be positive")
	}

	r := c.Run
	switch {
	case r.Episodes <= 0:
		return fmt.Errorf("run.episodes must be positive")
	case r.Workers <= 0:
		return fmt.Errorf("run.workers must be positive")
	case r.MaxSteps <= 0:
		return fmt.Errorf("run.max_steps must be positive")
	case len(r.Strategies) == 0:
		return fmt.Errorf("run.strategies must not be empty")
	}
	for _, name := range r.Strategies {
		if _, ok := search.Factories[name]; !ok {
			return fmt.Errorf("unknown strategy %q", name)
		}
	}

	if c.Server.ReplayRate <= 0 {
		return fmt.Errorf("server.replay_rate must be positive")
	}
	if _, _, err := c.Server.Timeouts(); err != nil {
		return err
	}
	return nil
}

// Params converts the scenario section for the scene generator.
func (s ScenarioConfig) Params() scene.Params {
	return scene.Params{
		Obstacles:     s.Obstacles,
		Width:         s.Width,
		Height:        s.Height,
		MinVertices:   s.MinVertices,
		MaxVertices:   s.MaxVertices,
		MinRadius:     s.MinRadius,
		MaxRadius:     s.MaxRadius,
		SpawnAttempts: s.SpawnAttempts,
	}
}

// Timeouts parses the read and write timeouts.
func (s ServerConfig) Timeouts() (read, write time.Duration, err error) {
	read, err = time.ParseDuration(s.ReadTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("server.read_timeout: %w", err)
	}
	write, err = time.ParseDuration(s.WriteTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("server.write_timeout: %w", err)
	}
	return read, write, nil
}
