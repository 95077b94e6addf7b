package core

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestNewRouteAnimationStateRanges(t *testing.T) {
	cfg := DefaultAnimationConfig()
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		s := NewRouteAnimationState(rng, cfg)
		if s.Speed < cfg.SpeedMin || s.Speed >= cfg.SpeedMax {
			t.Fatalf("speed %v outside [%v, %v)", s.Speed, cfg.SpeedMin, cfg.SpeedMax)
		}
		if s.Delay < cfg.DelayMin || s.Delay >= cfg.DelayMax {
			t.Fatalf("delay %v outside [%v, %v)", s.Delay, cfg.DelayMin, cfg.DelayMax)
		}
		if s.Head != 0 || s.MarkerOpacity != 0 {
			t.Fatalf("fresh state = %+v, want zero head and opacity", s)
		}
		if got, want := s.CycleLength(), 1+s.Delay; got != want {
			t.Fatalf("CycleLength = %v, want %v", got, want)
		}
	}
}

func TestNewRouteAnimationStateSeeded(t *testing.T) {
	cfg := DefaultAnimationConfig()
	a := NewRouteAnimationState(rand.New(rand.NewPCG(7, 7)), cfg)
	b := NewRouteAnimationState(rand.New(rand.NewPCG(7, 7)), cfg)
	if a != b {
		t.Fatalf("same seed gave %+v and %+v", a, b)
	}
}

func TestAdvancePeriodicity(t *testing.T) {
	cfg := DefaultAnimationConfig()
	for _, speed := range []float64{1, 0.8, 0.55} {
		s := RouteAnimationState{Head: 0.3, Speed: speed, Delay: 0.7}
		start := s.Head

		// Advancing by one cycle's worth of time returns the head to where
		// it started.
		total := s.CycleLength() / speed
		const steps = 170
		for i := 0; i < steps; i++ {
			s.Advance(total/steps, cfg)
		}
		if math.Abs(s.Head-start) > 1e-9 && math.Abs(s.Head-start-s.CycleLength()) > 1e-9 {
			t.Fatalf("speed %v: head = %v after one cycle, want %v", speed, s.Head, start)
		}
	}
}

func TestAdvanceHeadStaysInCycle(t *testing.T) {
	cfg := DefaultAnimationConfig()
	rng := rand.New(rand.NewPCG(3, 4))
	s := NewRouteAnimationState(rng, cfg)
	for i := 0; i < 10000; i++ {
		s.Advance(rng.Float64()*0.5, cfg)
		if s.Head < 0 || s.Head >= s.CycleLength() {
			t.Fatalf("frame %d: head %v outside [0, %v)", i, s.Head, s.CycleLength())
		}
		if s.MarkerOpacity < 0 || s.MarkerOpacity > 1 {
			t.Fatalf("frame %d: opacity %v outside [0, 1]", i, s.MarkerOpacity)
		}
	}
}

func TestAdvanceIgnoresNonPositiveDelta(t *testing.T) {
	cfg := DefaultAnimationConfig()
	s := RouteAnimationState{Head: 0.4, Speed: 1, Delay: 1, MarkerOpacity: 0.5}
	before := s
	s.Advance(0, cfg)
	s.Advance(-0.2, cfg)
	s.Advance(math.NaN(), cfg)
	if s != before {
		t.Fatalf("state changed: %+v, want %+v", s, before)
	}
}

func TestPhaseBoundaries(t *testing.T) {
	s := RouteAnimationState{Speed: 1, Delay: 1}
	for head, want := range map[float64]RoutePhase{
		0:     PhaseFlying,
		0.999: PhaseFlying,
		1:     PhasePaused,
		1.9:   PhasePaused,
	} {
		s.Head = head
		if got := s.Phase(); got != want {
			t.Fatalf("Phase at %v = %v, want %v", head, got, want)
		}
	}
}

func TestMarkerFlashesOnArrival(t *testing.T) {
	cfg := DefaultAnimationConfig()
	s := RouteAnimationState{Head: 0.9, Speed: 1, Delay: 1}

	if s.Advance(0.02, cfg) {
		t.Fatalf("arrival reported at head %v", s.Head)
	}
	if !s.Advance(0.05, cfg) {
		t.Fatalf("no arrival reported at head %v", s.Head)
	}
	if s.MarkerOpacity != 1 {
		t.Fatalf("opacity = %v at arrival, want 1", s.MarkerOpacity)
	}
	// Still inside the window: no second arrival.
	if s.Advance(0.02, cfg) {
		t.Fatalf("arrival reported twice at head %v", s.Head)
	}

	scale, halo := s.MarkerHalo()
	if scale != 2 || math.Abs(halo-0.3) > 1e-12 {
		t.Fatalf("MarkerHalo = (%v, %v), want (2, 0.3)", scale, halo)
	}
}

func TestMarkerDecayMonotonic(t *testing.T) {
	cfg := DefaultAnimationConfig()
	s := RouteAnimationState{Head: 1.1, Speed: 0.01, Delay: 2, MarkerOpacity: 1}

	prev := s.MarkerOpacity
	for i := 0; i < 200; i++ {
		s.Advance(0.05, cfg)
		if s.MarkerOpacity > prev {
			t.Fatalf("frame %d: opacity rose from %v to %v", i, prev, s.MarkerOpacity)
		}
		if s.MarkerOpacity < 0 {
			t.Fatalf("frame %d: opacity %v is negative", i, s.MarkerOpacity)
		}
		prev = s.MarkerOpacity
	}
	if s.MarkerOpacity > 1e-6 {
		t.Fatalf("opacity = %v after 10s, want ~0", s.MarkerOpacity)
	}
}

func TestMarkerDecayLongFrameClamps(t *testing.T) {
	cfg := DefaultAnimationConfig()
	s := RouteAnimationState{Head: 1.2, Speed: 0.001, Delay: 2, MarkerOpacity: 1}
	s.Advance(3, cfg)
	if s.MarkerOpacity != 0 {
		t.Fatalf("opacity = %v after a 3s frame, want 0", s.MarkerOpacity)
	}
}

func TestTrailIntensity(t *testing.T) {
	const head, trail = 0.6, 0.3
	cases := []struct {
		t, want float64
	}{
		{0, 0},
		{0.2, 0},
		{0.3, 0},
		{0.45, 0.5},
		{0.6, 1},
		{0.61, 0},
		{1, 0},
	}
	for _, c := range cases {
		if got := TrailIntensity(c.t, head, trail); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("TrailIntensity(%v) = %v, want %v", c.t, got, c.want)
		}
	}

	// The lit segment ramps up towards the head.
	prev := 0.0
	for x := 0.3; x <= head; x += 0.01 {
		got := TrailIntensity(x, head, trail)
		if got < prev {
			t.Fatalf("intensity fell from %v to %v at %v", prev, got, x)
		}
		prev = got
	}
}

func TestAnimationConfigValidate(t *testing.T) {
	if err := DefaultAnimationConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []func(*AnimationConfig){
		func(c *AnimationConfig) { c.SpeedMin = 0 },
		func(c *AnimationConfig) { c.SpeedMax = 0.1 },
		func(c *AnimationConfig) { c.DelayMin = -1 },
		func(c *AnimationConfig) { c.TrailLength = 0 },
		func(c *AnimationConfig) { c.TrailLength = 2 },
		func(c *AnimationConfig) { c.ArrivalEnd = 0.5 },
		func(c *AnimationConfig) { c.MarkerDecayRate = -1 },
	}
	for i, mutate := range bad {
		cfg := DefaultAnimationConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidAnimation) {
			t.Fatalf("case %d: Validate err = %v, want ErrInvalidAnimation", i, err)
		}
	}
}

func TestAnimationConfigApplyDefaults(t *testing.T) {
	got := AnimationConfig{}.ApplyDefaults()
	if got != DefaultAnimationConfig() {
		t.Fatalf("ApplyDefaults() = %+v, want %+v", got, DefaultAnimationConfig())
	}

	custom := AnimationConfig{SpeedMin: 2, SpeedMax: 3}.ApplyDefaults()
	if custom.SpeedMin != 2 || custom.TrailLength != 0.3 {
		t.Fatalf("ApplyDefaults overwrote or skipped fields: %+v", custom)
	}
}
