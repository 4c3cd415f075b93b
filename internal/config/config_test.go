package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "server.yaml", `
simulation:
  timestep: 0.01
  frame_rate: 120
debug:
  enabled: true
  transport: quic
  port: 6000
  timeout: 3s
scenes:
  root: /srv/scenes
  preload: [arena.yaml, hills.toml]
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, float32(0.01), cfg.Simulation.Timestep)
	require.Equal(t, 120, cfg.Simulation.FrameRate)
	require.Equal(t, float32(1.0), cfg.Simulation.DefaultDensity)
	require.Equal(t, [3]float32{0, -9.81, 0}, cfg.Simulation.Gravity)
	require.Equal(t, "quic", cfg.Debug.Transport)
	require.Equal(t, uint16(6000), cfg.Debug.Port)
	require.Equal(t, 3*time.Second, cfg.Debug.Timeout)
	require.Equal(t, []string{"arena.yaml", "hills.toml"}, cfg.Scenes.Preload)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "server.toml", `
[simulation]
timestep = 0.02
angular_damping = 0.25

[material]
restitution = 0.6

[logging]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, float32(0.02), cfg.Simulation.Timestep)
	require.Equal(t, float32(0.25), cfg.Simulation.AngularDamping)
	require.Equal(t, float32(0.6), cfg.Material.Restitution)
	require.Equal(t, float32(0.5), cfg.Material.StaticFriction)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "server.ini", "x=1"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeFile(t, "bad.yaml", "simulation: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "zero.yaml", "simulation:\n  timestep: 0\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative density", func(c *Config) { c.Simulation.DefaultDensity = -1 }, false},
		{"zero frame rate", func(c *Config) { c.Simulation.FrameRate = 0 }, false},
		{"negative threads", func(c *Config) { c.Simulation.DispatcherThreads = -2 }, false},
		{"unknown transport", func(c *Config) { c.Debug.Enabled = true; c.Debug.Transport = "udp" }, false},
		{"debug without port", func(c *Config) { c.Debug.Enabled = true; c.Debug.Port = 0 }, false},
		{"transport ignored while disabled", func(c *Config) { c.Debug.Transport = "udp" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
