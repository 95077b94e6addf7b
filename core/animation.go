package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidAnimation is returned by AnimationConfig.Validate.
var ErrInvalidAnimation = errors.New("invalid animation config")

// AnimationConfig holds the ranges and constants of the route animation.
// Progress is measured in curve-parameter units: 1.0 is one full flight.
type AnimationConfig struct {
	SpeedMin float64 `yaml:"speed_min" json:"speedMin"` // progress units per second
	SpeedMax float64 `yaml:"speed_max" json:"speedMax"`

	// A route's cycle is 1 + delay, the delay drawn from [DelayMin, DelayMax).
	DelayMin float64 `yaml:"delay_min" json:"delayMin"`
	DelayMax float64 `yaml:"delay_max" json:"delayMax"`

	TrailLength float64 `yaml:"trail_length" json:"trailLength"`

	ArrivalStart float64 `yaml:"arrival_start" json:"arrivalStart"`
	ArrivalEnd   float64 `yaml:"arrival_end" json:"arrivalEnd"`

	MarkerDecayRate float64 `yaml:"marker_decay_rate" json:"markerDecayRate"` // per second
}

// DefaultAnimationConfig returns the site's animation constants.
func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		SpeedMin:        0.5,
		SpeedMax:        1.0,
		DelayMin:        0.5,
		DelayMax:        2.5,
		TrailLength:     0.3,
		ArrivalStart:    0.95,
		ArrivalEnd:      1.05,
		MarkerDecayRate: 5,
	}
}

// ApplyDefaults fills zero fields from DefaultAnimationConfig.
func (c AnimationConfig) ApplyDefaults() AnimationConfig {
	d := DefaultAnimationConfig()
	if c.SpeedMin == 0 && c.SpeedMax == 0 {
		c.SpeedMin, c.SpeedMax = d.SpeedMin, d.SpeedMax
	}
	if c.DelayMin == 0 && c.DelayMax == 0 {
		c.DelayMin, c.DelayMax = d.DelayMin, d.DelayMax
	}
	if c.TrailLength == 0 {
		c.TrailLength = d.TrailLength
	}
	if c.ArrivalStart == 0 && c.ArrivalEnd == 0 {
		c.ArrivalStart, c.ArrivalEnd = d.ArrivalStart, d.ArrivalEnd
	}
	if c.MarkerDecayRate == 0 {
		c.MarkerDecayRate = d.MarkerDecayRate
	}
	return c
}

// Validate checks that every range is well formed.
func (c AnimationConfig) Validate() error {
	switch {
	case !(c.SpeedMin > 0) || c.SpeedMax < c.SpeedMin:
		return fmt.Errorf("speed range [%v, %v): %w", c.SpeedMin, c.SpeedMax, ErrInvalidAnimation)
	case c.DelayMin < 0 || c.DelayMax < c.DelayMin:
		return fmt.Errorf("delay range [%v, %v): %w", c.DelayMin, c.DelayMax, ErrInvalidAnimation)
	case !(c.TrailLength > 0) || c.TrailLength > 1:
		return fmt.Errorf("trail length %v: %w", c.TrailLength, ErrInvalidAnimation)
	case c.ArrivalEnd < c.ArrivalStart:
		return fmt.Errorf("arrival window [%v, %v]: %w", c.ArrivalStart, c.ArrivalEnd, ErrInvalidAnimation)
	case c.MarkerDecayRate < 0:
		return fmt.Errorf("marker decay rate %v: %w", c.MarkerDecayRate, ErrInvalidAnimation)
	}
	return nil
}

// RoutePhase is the coarse state of a route's comet.
type RoutePhase int

const (
	PhaseFlying RoutePhase = iota // head in [0, 1)
	PhasePaused                   // head in [1, cycle): arrived, waiting to relaunch
)

func (p RoutePhase) String() string {
	if p == PhasePaused {
		return "paused"
	}
	return "flying"
}

// RouteAnimationState is the mutable per-route animation record. It is owned
// by whoever drives the frames; nothing else writes it.
type RouteAnimationState struct {
	Head          float64 // always in [0, CycleLength())
	Speed         float64
	Delay         float64
	MarkerOpacity float64 // in [0, 1]

	inArrival bool
}

// NewRouteAnimationState draws the route's speed and delay from rng.
func NewRouteAnimationState(rng *rand.Rand, cfg AnimationConfig) RouteAnimationState {
	return RouteAnimationState{
		Speed: uniform(rng, cfg.SpeedMin, cfg.SpeedMax),
		Delay: uniform(rng, cfg.DelayMin, cfg.DelayMax),
	}
}

// CycleLength is one flight plus the route's pause.
func (s *RouteAnimationState) CycleLength() float64 {
	return 1 + s.Delay
}

// Phase reports whether the comet is in flight or waiting.
func (s *RouteAnimationState) Phase() RoutePhase {
	if s.Head < 1 {
		return PhaseFlying
	}
	return PhasePaused
}

// Advance moves the head by dt seconds and updates the arrival marker. It
// reports whether the head entered the arrival window during this frame.
// Non-positive dt leaves the state untouched.
func (s *RouteAnimationState) Advance(dt float64, cfg AnimationConfig) (arrived bool) {
	if !(dt > 0) {
		return false
	}

	s.Head = math.Mod(s.Head+dt*s.Speed, s.CycleLength())

	if s.Head >= cfg.ArrivalStart && s.Head <= cfg.ArrivalEnd {
		arrived = !s.inArrival
		s.inArrival = true
		s.MarkerOpacity = 1
		return arrived
	}

	s.inArrival = false
	s.MarkerOpacity = lerp(s.MarkerOpacity, 0, math.Min(1, dt*cfg.MarkerDecayRate))
	return false
}

// MarkerHalo returns the scale and opacity of the glow drawn around the
// arrival marker.
func (s *RouteAnimationState) MarkerHalo() (scale, opacity float64) {
	return 1 + s.MarkerOpacity, s.MarkerOpacity * 0.3
}

// TrailIntensity returns the comet's alpha at curve progress t: a smooth ramp
// over [head-trail, head] and nothing ahead of the head.
func TrailIntensity(t, head, trail float64) float64 {
	if t > head {
		return 0
	}
	return smoothstep(head-trail, head, t)
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 <= edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
