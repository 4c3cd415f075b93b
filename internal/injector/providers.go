package injector

import (
	"time"

	"github.com/google/wire"

	"github.com/zeusync/rigidscene/internal/config"
	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/clock"
	"github.com/zeusync/rigidscene/internal/core/physics/debug"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
	"github.com/zeusync/rigidscene/internal/core/physics/engine/sandbox"
	"github.com/zeusync/rigidscene/internal/core/scene"
	"github.com/zeusync/rigidscene/internal/core/scenedesc"
)

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEngine,
	ProvideClock,
	ProvideLoader,
	ProvideCache,
	ProvideSceneOptions,
	scene.New,
	NewApp,
)

// App is everything the host needs to run one scene.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Cache  *scenedesc.Cache
	Scene  *scene.Scene
}

func NewApp(cfg *config.Config, logger *log.Logger, cache *scenedesc.Cache, s *scene.Scene) *App {
	return &App{Config: cfg, Logger: logger, Cache: cache, Scene: s}
}

// Timestep is the configured step size.
func (a *App) Timestep() float32 { return a.Config.Simulation.Timestep }

// FrameInterval is the period between host Update calls.
func (a *App) FrameInterval() time.Duration {
	return time.Second / time.Duration(a.Config.Simulation.FrameRate)
}

// Debug returns the debug link settings, or nil when disabled.
func (a *App) Debug() *debug.Config {
	d := a.Config.Debug
	if !d.Enabled {
		return nil
	}
	return &debug.Config{
		Transport:      debug.Transport(d.Transport),
		Host:           d.Host,
		Port:           d.Port,
		Timeout:        d.Timeout,
		FullConnection: d.FullConnection,
	}
}

func ProvideLogger(cfg *config.Config) (*log.Logger, error) {
	return log.Configure(log.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
}

func ProvideEngine() engine.Engine {
	return sandbox.New(sandbox.Options{})
}

func ProvideClock() clock.Clock {
	return clock.System()
}

func ProvideLoader(cfg *config.Config) scenedesc.Loader {
	return scenedesc.FileLoader{Root: cfg.Scenes.Root}
}

func ProvideCache(loader scenedesc.Loader, logger log.Log) *scenedesc.Cache {
	return scenedesc.NewCache(loader, logger, scenedesc.CacheOptions{})
}

func ProvideSceneOptions(cfg *config.Config, eng engine.Engine, clk clock.Clock, logger log.Log, cache *scenedesc.Cache) scene.Options {
	sim := cfg.Simulation
	gravity := physics.Vec3(sim.Gravity[0], sim.Gravity[1], sim.Gravity[2])
	return scene.Options{
		Engine:  eng,
		Clock:   clk,
		Logger:  logger,
		Cache:   cache,
		Gravity: &gravity,
		Material: engine.MaterialParams{
			StaticFriction:  cfg.Material.StaticFriction,
			DynamicFriction: cfg.Material.DynamicFriction,
			Restitution:     cfg.Material.Restitution,
		},
		WeldTolerance:     cfg.Cooking.WeldTolerance,
		DispatcherThreads: sim.DispatcherThreads,
		DefaultDensity:    sim.DefaultDensity,
		AngularDamping:    sim.AngularDamping,
	}
}
