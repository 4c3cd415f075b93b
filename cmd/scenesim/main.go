package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/rigidscene/internal/config"
	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/scene"
	"github.com/zeusync/rigidscene/internal/injector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config/scenesim.yaml", "path to a YAML or TOML config file, empty for defaults")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	s := app.Scene
	if dbg := app.Debug(); dbg != nil {
		err = s.InitWithDebug(app.Timestep(), *dbg)
	} else {
		err = s.Init(app.Timestep())
	}
	if err != nil {
		return err
	}
	defer s.Release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.Scenes.Preload) > 0 {
		if err = app.Cache.Preload(ctx, cfg.Scenes.Preload...); err != nil {
			logger.Warn("preload incomplete", log.Error(err))
		}
	}
	for _, key := range cfg.Scenes.Load {
		results, err := s.CreateScene(ctx, key)
		if err != nil {
			logger.Error("scene not loaded", log.String("key", key), log.Error(err))
			continue
		}
		logger.Info("scene loaded",
			log.String("key", key),
			log.Int("actors", len(results)-len(scene.Failed(results))),
			log.Int("static_objects", s.GetStaticObjectCount(key)),
		)
	}

	ticker := time.NewTicker(app.FrameInterval())
	defer ticker.Stop()
	logger.Info("simulation running",
		log.Uint32("scene", s.ID()),
		log.Duration("frame", app.FrameInterval()),
		log.Float32("timestep", s.Timestep()),
	)

	for {
		select {
		case <-ctx.Done():
			st := s.Stats()
			logger.Info("shutting down",
				log.Uint64("updates", st.Updates),
				log.Uint64("steps", st.Steps),
				log.Duration("simulated", st.SimulatedTime),
				log.Int("actors", st.Actors),
				log.Uint64("failures", st.Failures),
			)
			return nil
		case <-ticker.C:
			if err := s.Update(); err != nil {
				logger.Error("update failed", log.Error(err))
			}
		}
	}
}
