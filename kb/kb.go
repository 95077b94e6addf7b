package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/logistics-globe/model"
)

var (
	// ErrLocationExists is returned when a location name is already registered.
	ErrLocationExists = errors.New("location already exists")
	// ErrLocationNotFound is returned when a location name is unknown.
	ErrLocationNotFound = errors.New("location not found")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventLocationAdded EventType = iota
	EventLocationUpdated
)

// Event is emitted to subscribers when a location changes.
type Event struct {
	Type     EventType
	Location model.Location
}

// LocationStore is an in-memory, thread-safe registry of globe locations.
type LocationStore struct {
	mu sync.RWMutex

	locations map[string]*model.Location
	order     []string // insertion order, used for stable listings

	subs      []subscriber
	nextSubID int
}

// NewLocationStore constructs an empty store.
func NewLocationStore() *LocationStore {
	return &LocationStore{
		locations: make(map[string]*model.Location),
	}
}

// AddLocation registers a new location. It returns ErrLocationExists if the
// name is already taken.
func (s *LocationStore) AddLocation(loc model.Location) error {
	if loc.Name == "" {
		return fmt.Errorf("add location: empty name")
	}

	s.mu.Lock()
	if _, exists := s.locations[loc.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("add location %q: %w", loc.Name, ErrLocationExists)
	}
	stored := loc
	s.locations[loc.Name] = &stored
	s.order = append(s.order, loc.Name)
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	notify(subs, Event{Type: EventLocationAdded, Location: loc})
	return nil
}

// GetLocation returns a copy of the named location.
func (s *LocationStore) GetLocation(name string) (model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[name]
	if !ok {
		return model.Location{}, fmt.Errorf("get location %q: %w", name, ErrLocationNotFound)
	}
	return *loc, nil
}

// ListLocations returns a snapshot of all locations in insertion order.
func (s *LocationStore) ListLocations() []model.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.Location, 0, len(s.order))
	for _, name := range s.order {
		res = append(res, *s.locations[name])
	}
	return res
}

// Origin returns the first location with RoleOrigin.
func (s *LocationStore) Origin() (model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.order {
		if loc := s.locations[name]; loc.Role == model.RoleOrigin {
			return *loc, nil
		}
	}
	return model.Location{}, fmt.Errorf("origin: %w", ErrLocationNotFound)
}

// Destinations returns every non-origin location, sorted by name so route
// order does not depend on registration order.
func (s *LocationStore) Destinations() []model.Location {
	s.mu.RLock()
	res := make([]model.Location, 0, len(s.order))
	for _, name := range s.order {
		if loc := s.locations[name]; loc.Role == model.RoleDestination {
			res = append(res, *loc)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// UpdateLocation replaces a location's coordinates and colour and notifies
// subscribers.
func (s *LocationStore) UpdateLocation(loc model.Location) error {
	s.mu.Lock()
	existing, ok := s.locations[loc.Name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update location %q: %w", loc.Name, ErrLocationNotFound)
	}
	*existing = loc
	event := Event{Type: EventLocationUpdated, Location: loc}
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	notify(subs, event)
	return nil
}

// Len returns the number of registered locations.
func (s *LocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe registers a callback for store events. It returns an unsubscribe function.
func (s *LocationStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

type subscriber struct {
	id int
	fn func(Event)
}

func notify(subs []subscriber, e Event) {
	for _, sub := range subs {
		sub.fn(e)
	}
}
