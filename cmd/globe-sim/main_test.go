package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/signalsfoundry/logistics-globe/internal/config"
	"github.com/signalsfoundry/logistics-globe/internal/logging"
	"github.com/signalsfoundry/logistics-globe/internal/render"
)

func simConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 77
	cfg.Accelerated = true
	cfg.FrameInterval = 20 * time.Millisecond
	return cfg
}

// TestRunReportsArrivals simulates ten seconds at 50 fps. The slowest route
// first arrives after 1.9 s and again at most 7 s later.
func TestRunReportsArrivals(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), simConfig(), simOptions{Duration: 10 * time.Second}, logging.Noop(), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary %q: %v", out.String(), err)
	}
	if summary.Seed != 77 || summary.Frames != 500 || len(summary.Routes) != 5 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, id := range summary.Routes {
		if summary.Arrivals[id] < 2 {
			t.Fatalf("route %s arrived %d times, want >= 2", id, summary.Arrivals[id])
		}
	}
}

func TestRunPrintsFrames(t *testing.T) {
	var out bytes.Buffer
	opts := simOptions{Duration: time.Second, Every: 25, Trail: true}
	if err := run(context.Background(), simConfig(), opts, logging.Noop(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<22)
	var lines [][]byte
	for sc.Scan() {
		lines = append(lines, append([]byte(nil), sc.Bytes()...))
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 2 frames + summary", len(lines))
	}
	var frame render.FramePayload
	if err := json.Unmarshal(lines[0], &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Frame != 25 || len(frame.Routes[0].Alpha) == 0 {
		t.Fatalf("first printed frame = %d with %d alpha values", frame.Frame, len(frame.Routes[0].Alpha))
	}
}

func TestRunSeedIsReproducible(t *testing.T) {
	var a, b bytes.Buffer
	opts := simOptions{Duration: 2 * time.Second, Every: 60}
	if err := run(context.Background(), simConfig(), opts, logging.Noop(), &a); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if err := run(context.Background(), simConfig(), opts, logging.Noop(), &b); err != nil {
		t.Fatalf("run b: %v", err)
	}
	if a.String() != b.String() {
		t.Fatalf("same seed produced different output")
	}
}

func TestRunRejectsBadDuration(t *testing.T) {
	if err := run(context.Background(), simConfig(), simOptions{}, logging.Noop(), &bytes.Buffer{}); err == nil {
		t.Fatalf("run accepted zero duration")
	}
}
