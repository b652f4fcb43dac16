package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-planner/internal/scene"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, scene.DefaultParams(), cfg.Scenario.Params())
	assert.Equal(t, 10000, cfg.Run.MaxSteps)
	assert.Equal(t, []string{"hill-climbing", "lrta"}, cfg.Run.Strategies)
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")

	cfg := Default()
	cfg.Scenario.Obstacles = 3
	cfg.Run.Seed = 99
	cfg.Run.Strategies = []string{"lrta"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario:\n  obstacles: 2\nrun:\n  episodes: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Scenario.Obstacles)
	assert.Equal(t, 3, cfg.Run.Episodes)
	assert.Equal(t, 1000.0, cfg.Scenario.Width)
	assert.Equal(t, 4, cfg.Run.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scenario: [unclosed"), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	outOfRange := filepath.Join(dir, "range.yaml")
	require.NoError(t, os.WriteFile(outOfRange, []byte("scenario:\n  max_vertices: 9\n"), 0644))
	_, err = Load(outOfRange)
	assert.ErrorContains(t, err, "vertex range")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative obstacles", func(c *Config) { c.Scenario.Obstacles = -1 }, "obstacles"},
		{"zero width", func(c *Config) { c.Scenario.Width = 0 }, "width"},
		{"inverted vertices", func(c *Config) { c.Scenario.MinVertices = 5; c.Scenario.MaxVertices = 4 }, "vertex range"},
		{"inverted radius", func(c *Config) { c.Scenario.MinRadius = 300 }, "radius"},
		{"no spawn attempts", func(c *Config) { c.Scenario.SpawnAttempts = 0 }, "spawn_attempts"},
		{"no episodes", func(c *Config) { c.Run.Episodes = 0 }, "episodes"},
		{"no workers", func(c *Config) { c.Run.Workers = 0 }, "workers"},
		{"no steps", func(c *Config) { c.Run.MaxSteps = 0 }, "max_steps"},
		{"no strategies", func(c *Config) { c.Run.Strategies = nil }, "strategies"},
		{"unknown strategy", func(c *Config) { c.Run.Strategies = []string{"astar"} }, "unknown strategy"},
		{"replay rate", func(c *Config) { c.Server.ReplayRate = 0 }, "replay_rate"},
		{"timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "read_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestTimeouts(t *testing.T) {
	read, write, err := Default().Server.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, read)
	assert.Equal(t, 30*time.Second, write)
}
