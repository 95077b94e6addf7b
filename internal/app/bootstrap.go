// Package app wires the location store, scene file, land mask and globe the
// same way for every command.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/signalsfoundry/logistics-globe/core"
	"github.com/signalsfoundry/logistics-globe/internal/config"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/kb"
)

// Runtime is a ready-to-animate globe and the data it was built from.
type Runtime struct {
	Store  *kb.LocationStore
	Globe  *core.Globe
	Scene  *core.LoadedScene
	Config core.GlobeConfig
}

// Close detaches the globe from the store.
func (r *Runtime) Close() {
	if r != nil && r.Globe != nil {
		r.Globe.Close()
	}
}

// Bootstrap loads the scene named by cfg (or the built-in one), applies the
// seed override and land mask, and builds the globe.
func Bootstrap(ctx context.Context, cfg config.Config, log logging.Logger, recorder core.FrameRecorder) (*Runtime, error) {
	if log == nil {
		log = logging.Noop()
	}
	store := kb.NewLocationStore()

	scene, err := loadScene(store, cfg.ScenePath)
	if err != nil {
		return nil, err
	}
	for _, name := range scene.Normalized {
		log.Warn(ctx, "location coordinates normalized", logging.String("location", name))
	}

	gcfg := scene.Config
	if cfg.Seed != 0 {
		gcfg.Seed = cfg.Seed
	}

	opts := []core.GlobeOption{core.WithLogger(log)}
	if recorder != nil {
		opts = append(opts, core.WithFrameRecorder(recorder))
	}
	if cfg.MaskPath != "" {
		mask, err := loadMask(cfg.MaskPath, gcfg.SurfaceColumns, gcfg.SurfaceRows)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithLandMask(mask))
	}

	globe, err := core.NewGlobe(store, gcfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("build globe: %w", err)
	}
	built := globe.Scene()
	gcfg.Seed = built.Seed

	log.Info(ctx, "globe ready",
		logging.String("origin", built.Origin.Location.Name),
		logging.Int("locations", len(built.Markers)),
		logging.Int("routes", len(built.Routes)),
		logging.Int("surface_points", len(globe.Surface())),
		logging.Uint64("seed", built.Seed),
	)
	return &Runtime{Store: store, Globe: globe, Scene: scene, Config: gcfg}, nil
}

func loadScene(store *kb.LocationStore, path string) (*core.LoadedScene, error) {
	if path == "" {
		return core.LoadDefaultScene(store)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene %q: %w", path, err)
	}
	defer f.Close()

	scene, err := core.LoadScene(store, f)
	if err != nil {
		return nil, fmt.Errorf("load scene %q: %w", path, err)
	}
	return scene, nil
}

func loadMask(path string, cols, rows int) (*core.LandMask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open land mask %q: %w", path, err)
	}
	defer f.Close()

	mask, err := core.DecodeLandMask(f, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("decode land mask %q: %w", path, err)
	}
	return mask, nil
}
