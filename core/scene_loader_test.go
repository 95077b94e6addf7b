package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/logistics-globe/kb"
	"github.com/signalsfoundry/logistics-globe/model"
)

func TestLoadSceneConfigFile(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "configs", "scene.yaml"))
	if err != nil {
		t.Fatalf("open scene file: %v", err)
	}
	defer f.Close()

	store := kb.NewLocationStore()
	res, err := LoadScene(store, f)
	if err != nil {
		t.Fatalf("LoadScene error: %v", err)
	}

	if res.Config != withSeed(DefaultGlobeConfig(), 0) {
		t.Fatalf("config = %+v, want defaults", res.Config)
	}
	if res.Colors != DefaultSceneColors() {
		t.Fatalf("colors = %+v, want %+v", res.Colors, DefaultSceneColors())
	}
	if len(res.Normalized) != 0 {
		t.Fatalf("normalized = %v, want none", res.Normalized)
	}

	want := DefaultLocations()
	got := store.ListLocations()
	if len(got) != len(want) {
		t.Fatalf("locations = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("location %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func withSeed(cfg GlobeConfig, seed uint64) GlobeConfig {
	cfg.Seed = seed
	return cfg
}

func TestLoadSceneDefaultsAndOrigin(t *testing.T) {
	const doc = `
seed: 7
arc_radius: 4
locations:
  - { name: Hub, lat: 10, lon: 20, color: "#ff0000" }
  - { name: Spoke, lat: -10, lon: -20 }
`
	store := kb.NewLocationStore()
	res, err := LoadScene(store, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadScene error: %v", err)
	}
	if res.Config.Seed != 7 || res.Config.ArcRadius != 4 || res.Config.Radius != GlobeRadius {
		t.Fatalf("config = %+v", res.Config)
	}
	if res.Config.Animation != DefaultAnimationConfig() {
		t.Fatalf("animation = %+v, want defaults", res.Config.Animation)
	}

	origin, err := store.Origin()
	if err != nil {
		t.Fatalf("Origin error: %v", err)
	}
	if origin.Name != "Hub" || origin.Color != "#ff0000" {
		t.Fatalf("origin = %+v, want Hub with colour", origin)
	}
	spoke, _ := store.GetLocation("Spoke")
	if spoke.Role != model.RoleDestination {
		t.Fatalf("Spoke role = %v, want destination", spoke.Role)
	}
}

func TestLoadSceneNormalizesCoordinates(t *testing.T) {
	const doc = `
origin: A
locations:
  - { name: A, lat: 0, lon: 0 }
  - { name: B, lat: 95, lon: 190 }
`
	store := kb.NewLocationStore()
	res, err := LoadScene(store, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadScene error: %v", err)
	}
	if len(res.Normalized) != 1 || res.Normalized[0] != "B" {
		t.Fatalf("normalized = %v, want [B]", res.Normalized)
	}
	b, _ := store.GetLocation("B")
	if b.Latitude != 90 || b.Longitude != -170 {
		t.Fatalf("B = (%v, %v), want (90, -170)", b.Latitude, b.Longitude)
	}
}

func TestLoadSceneRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"unknown field":     "colour: red\nlocations: [{name: A, lat: 0, lon: 0}]",
		"no locations":      "radius: 2.5",
		"missing lat":       "locations: [{name: A, lon: 0}]",
		"empty name":        "locations: [{name: ' ', lat: 0, lon: 0}]",
		"duplicate":         "locations: [{name: A, lat: 0, lon: 0}, {name: A, lat: 1, lon: 1}]",
		"unknown origin":    "origin: Z\nlocations: [{name: A, lat: 0, lon: 0}]",
		"arc inside sphere": "arc_radius: 2\nlocations: [{name: A, lat: 0, lon: 0}]",
		"negative radius":   "radius: -1\nlocations: [{name: A, lat: 0, lon: 0}]",
		"too few samples":   "samples: 1\nlocations: [{name: A, lat: 0, lon: 0}]",
		"bad animation":     "animation: {trail_length: 2}\nlocations: [{name: A, lat: 0, lon: 0}]",
		"nan latitude":      "locations: [{name: A, lat: .nan, lon: 0}]",
		"not yaml":          "::: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			store := kb.NewLocationStore()
			_, err := LoadScene(store, strings.NewReader(doc))
			if !errors.Is(err, ErrInvalidScene) {
				t.Fatalf("LoadScene err = %v, want ErrInvalidScene", err)
			}
			if store.Len() != 0 {
				t.Fatalf("store has %d locations after failed load", store.Len())
			}
		})
	}
}

func TestLoadSceneNilStore(t *testing.T) {
	if _, err := LoadScene(nil, strings.NewReader("")); err == nil {
		t.Fatalf("LoadScene(nil) returned no error")
	}
	if _, err := LoadDefaultScene(nil); err == nil {
		t.Fatalf("LoadDefaultScene(nil) returned no error")
	}
}
