package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Material   MaterialConfig   `yaml:"material" toml:"material"`
	Cooking    CookingConfig    `yaml:"cooking" toml:"cooking"`
	Debug      DebugConfig      `yaml:"debug" toml:"debug"`
	Scenes     ScenesConfig     `yaml:"scenes" toml:"scenes"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
}

type SimulationConfig struct {
	Timestep          float32    `yaml:"timestep" toml:"timestep"` // seconds per engine step
	Gravity           [3]float32 `yaml:"gravity" toml:"gravity"`
	DispatcherThreads int        `yaml:"dispatcher_threads" toml:"dispatcher_threads"`
	DefaultDensity    float32    `yaml:"default_density" toml:"default_density"`
	AngularDamping    float32    `yaml:"angular_damping" toml:"angular_damping"`
	FrameRate         int        `yaml:"frame_rate" toml:"frame_rate"` // host Update calls per second
}

type MaterialConfig struct {
	StaticFriction  float32 `yaml:"static_friction" toml:"static_friction"`
	DynamicFriction float32 `yaml:"dynamic_friction" toml:"dynamic_friction"`
	Restitution     float32 `yaml:"restitution" toml:"restitution"`
}

type CookingConfig struct {
	WeldTolerance float32 `yaml:"weld_tolerance" toml:"weld_tolerance"`
}

type DebugConfig struct {
	Enabled        bool          `yaml:"enabled" toml:"enabled"`
	Transport      string        `yaml:"transport" toml:"transport"` // "websocket" or "quic"
	Host           string        `yaml:"host" toml:"host"`
	Port           uint16        `yaml:"port" toml:"port"`
	Timeout        time.Duration `yaml:"timeout" toml:"timeout"`
	FullConnection bool          `yaml:"full_connection" toml:"full_connection"`
}

type ScenesConfig struct {
	Root    string   `yaml:"root" toml:"root"`
	Preload []string `yaml:"preload" toml:"preload"`
	Load    []string `yaml:"load" toml:"load"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" or "console"
}

// Load reads a YAML or TOML file, chosen by extension, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Simulation.Timestep <= 0:
		return fmt.Errorf("%w: simulation.timestep must be positive", ErrInvalidConfig)
	case c.Simulation.DefaultDensity <= 0:
		return fmt.Errorf("%w: simulation.default_density must be positive", ErrInvalidConfig)
	case c.Simulation.FrameRate <= 0:
		return fmt.Errorf("%w: simulation.frame_rate must be positive", ErrInvalidConfig)
	case c.Simulation.DispatcherThreads < 0:
		return fmt.Errorf("%w: simulation.dispatcher_threads must not be negative", ErrInvalidConfig)
	case c.Cooking.WeldTolerance < 0:
		return fmt.Errorf("%w: cooking.weld_tolerance must not be negative", ErrInvalidConfig)
	}
	if c.Debug.Enabled {
		if c.Debug.Transport != "websocket" && c.Debug.Transport != "quic" {
			return fmt.Errorf("%w: debug.transport %q", ErrInvalidConfig, c.Debug.Transport)
		}
		if c.Debug.Port == 0 {
			return fmt.Errorf("%w: debug.port is required", ErrInvalidConfig)
		}
	}
	return nil
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Timestep:          1.0 / 60.0,
			Gravity:           [3]float32{0, -9.81, 0},
			DispatcherThreads: 2,
			DefaultDensity:    1.0,
			AngularDamping:    0.5,
			FrameRate:         30,
		},
		Material: MaterialConfig{
			StaticFriction:  0.5,
			DynamicFriction: 0.5,
			Restitution:     0.1,
		},
		Cooking: CookingConfig{
			WeldTolerance: 0.001,
		},
		Debug: DebugConfig{
			Enabled:   false,
			Transport: "websocket",
			Host:      "127.0.0.1",
			Port:      5425,
			Timeout:   10 * time.Second,
		},
		Scenes: ScenesConfig{
			Root: "data/scenes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
