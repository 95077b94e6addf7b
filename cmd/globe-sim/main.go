package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/logistics-globe/internal/app"
	"github.com/signalsfoundry/logistics-globe/internal/config"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/observability"
	"github.com/signalsfoundry/logistics-globe/internal/render"
	"github.com/signalsfoundry/logistics-globe/timectrl"
)

// simOptions are the globe-sim specific flags.
type simOptions struct {
	Duration time.Duration
	Every    int  // print every n-th frame; 0 prints none
	Trail    bool // include trail buffers in printed frames
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}
	cfg.Accelerated = true
	cfg.RegisterFlags(flag.CommandLine)

	var opts simOptions
	flag.DurationVar(&opts.Duration, "duration", 10*time.Second, "total animation time to simulate")
	flag.IntVar(&opts.Every, "every", 0, "print every n-th frame as a JSON line (0 prints only the summary)")
	flag.BoolVar(&opts.Trail, "trail", false, "include trail alpha and colour buffers in printed frames")
	flag.Parse()

	ctx := context.Background()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	tracing := observability.TracingConfigFromEnv("globe-sim")
	tracing.Output = os.Stderr
	shutdownTracing, err := observability.InitTracing(ctx, tracing, log)
	if err != nil {
		log.Error(ctx, "tracing setup failed", logging.Err(err))
		os.Exit(1)
	}

	err = run(ctx, cfg, opts, log, os.Stdout)
	observability.ShutdownWithTimeout(ctx, shutdownTracing, log)
	if err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// Summary is printed as the last JSON line.
type Summary struct {
	Seed     uint64         `json:"seed"`
	Frames   uint64         `json:"frames"`
	Elapsed  float64        `json:"elapsedSeconds"`
	Arrivals map[string]int `json:"arrivals"`
	Routes   []string       `json:"routes"`
}

// arrivalCounter records arrivals for the summary.
type arrivalCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (a *arrivalCounter) ObserveFrame(time.Duration, int) {}

func (a *arrivalCounter) RecordArrival(routeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[routeID]++
}

func run(ctx context.Context, cfg config.Config, opts simOptions, log logging.Logger, out io.Writer) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("duration %v must be positive", opts.Duration)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, span := observability.Tracer("globe-sim").Start(ctx, "globe-sim.run")
	defer span.End()

	arrivals := &arrivalCounter{counts: make(map[string]int)}
	rt, err := app.Bootstrap(ctx, cfg, log, arrivals)
	if err != nil {
		return err
	}
	defer rt.Close()

	palette, err := render.NewPalette(rt.Scene.Colors)
	if err != nil {
		return err
	}
	scene := rt.Globe.Scene()
	enc := json.NewEncoder(out)

	mode := timectrl.Accelerated
	if !cfg.Accelerated {
		mode = timectrl.RealTime
	}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := timectrl.NewTimeController(start, cfg.FrameInterval, mode)

	var encErr error
	clock.AddListener(func(_ time.Time, delta time.Duration) {
		snap := rt.Globe.Frame(delta)
		if opts.Every <= 0 || encErr != nil || snap.Frame%uint64(opts.Every) != 0 {
			return
		}
		encErr = enc.Encode(render.NewFramePayload(snap, scene, render.FrameOptions{
			Trails:     opts.Trail,
			RouteColor: palette.Route,
		}))
	})

	<-clock.Start(ctx, opts.Duration)
	if encErr != nil {
		return fmt.Errorf("write frame: %w", encErr)
	}

	snap := rt.Globe.Snapshot()
	summary := Summary{
		Seed:     scene.Seed,
		Frames:   snap.Frame,
		Elapsed:  snap.Elapsed.Seconds(),
		Arrivals: arrivals.counts,
	}
	for _, r := range scene.Routes {
		summary.Routes = append(summary.Routes, r.Definition.ID)
	}
	sort.Strings(summary.Routes)

	span.SetAttributes(
		attribute.Int64("globe.seed", int64(summary.Seed)),
		attribute.Int64("globe.frames", int64(summary.Frames)),
		attribute.Int("globe.routes", len(summary.Routes)),
	)
	log.Info(ctx, "simulation finished",
		logging.Uint64("frames", summary.Frames),
		logging.Float64("elapsed_seconds", summary.Elapsed),
	)
	return enc.Encode(summary)
}
