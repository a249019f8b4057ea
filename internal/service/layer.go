package service

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadySeeded is returned when Seed is called on a populated state.
var ErrAlreadySeeded = errors.New("layer state already seeded")

// LayerState owns the points, areas and layers of a session and is the only
// place layer visibility is changed.
type LayerState struct {
	mu             sync.RWMutex
	points         []Point
	areas          []Area
	layers         []Layer
	index          map[string]int
	activeCategory LayerCategory
	err            error
	seeded         bool
	bus            *EventBus
}

// NewLayerState creates an empty layer state. bus may be nil.
func NewLayerState(bus *EventBus) *LayerState {
	return &LayerState{
		index:          make(map[string]int),
		activeCategory: LayerSpecies,
		bus:            bus,
	}
}

// Seed populates the state with loaded entities. When e.Layers is empty the
// default layer set is used. Seed validates the whole batch before touching
// the state, so a rejected batch leaves the state empty.
func (s *LayerState) Seed(e Entities) error {
	layers := e.Layers
	if len(layers) == 0 {
		layers = DefaultLayers()
	}
	if err := validateBatch(e.Points, e.Areas, layers); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seeded {
		return ErrAlreadySeeded
	}

	s.points = append([]Point(nil), e.Points...)
	s.areas = append([]Area(nil), e.Areas...)
	s.layers = append([]Layer(nil), layers...)
	s.index = make(map[string]int, len(s.layers))
	for i, l := range s.layers {
		s.index[l.ID] = i
	}
	s.seeded = true
	s.publish(Event{Resource: ResourceLayers, Action: ActionSeeded})
	return nil
}

func validateBatch(points []Point, areas []Area, layers []Layer) error {
	seen := make(map[string]bool, len(points))
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return withIndex(err, i)
		}
		if seen[p.ID] {
			return &MalformedRecordError{Kind: "point", Index: i, ID: p.ID, Field: "id", Reason: "duplicate"}
		}
		seen[p.ID] = true
	}

	seen = make(map[string]bool, len(areas))
	for i, a := range areas {
		if err := a.Validate(); err != nil {
			return withIndex(err, i)
		}
		if seen[a.ID] {
			return &MalformedRecordError{Kind: "area", Index: i, ID: a.ID, Field: "id", Reason: "duplicate"}
		}
		seen[a.ID] = true
	}

	seen = make(map[string]bool, len(layers))
	for i, l := range layers {
		switch {
		case l.ID == "":
			return &MalformedRecordError{Kind: "layer", Index: i, Field: "id", Reason: "missing"}
		case !l.Category.Valid():
			return &MalformedRecordError{Kind: "layer", Index: i, ID: l.ID, Field: "category", Reason: fmt.Sprintf("unknown category %q", l.Category)}
		case seen[l.ID]:
			return &MalformedRecordError{Kind: "layer", Index: i, ID: l.ID, Field: "id", Reason: "duplicate"}
		}
		seen[l.ID] = true
	}
	return nil
}

func withIndex(err error, i int) error {
	var mre *MalformedRecordError
	if errors.As(err, &mre) {
		mre.Index = i
	}
	return err
}

// ToggleLayer flips the visibility of the layer with the given ID. An unknown
// ID leaves every layer untouched, records an *UnknownLayerError readable via
// Err, and returns it.
func (s *LayerState) ToggleLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		s.err = &UnknownLayerError{ID: id}
		return s.err
	}
	s.flip(i)
	return nil
}

// ToggleLayerByName flips the first layer whose display name is name. Layer
// IDs are not consulted: a name matching no layer fails like ToggleLayer does
// for an unknown ID, even when it equals some layer's ID.
func (s *LayerState) ToggleLayerByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.layers {
		if l.Name == name {
			s.flip(i)
			return nil
		}
	}
	s.err = &UnknownLayerError{ID: name}
	return s.err
}

// flip toggles layers[i]. s.mu must be held.
func (s *LayerState) flip(i int) {
	s.layers[i].Visible = !s.layers[i].Visible
	s.err = nil
	s.publish(Event{Resource: ResourceLayers, Action: ActionToggled, ID: s.layers[i].ID})
}

// SetActiveCategory records the highlighted category. It has no effect on
// visibility.
func (s *LayerState) SetActiveCategory(c LayerCategory) error {
	if !c.Valid() {
		return fmt.Errorf("unknown layer category %q", c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeCategory = c
	s.publish(Event{Resource: ResourceCategory, Action: ActionUpdated, ID: string(c)})
	return nil
}

// ActiveCategory returns the highlighted category.
func (s *LayerState) ActiveCategory() LayerCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCategory
}

// Err returns the error recorded by the last toggle, or nil.
func (s *LayerState) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Seeded reports whether Seed has completed.
func (s *LayerState) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// Layers returns a copy of all layers in seed order.
func (s *LayerState) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Layer(nil), s.layers...)
}

// Get returns a layer by ID.
func (s *LayerState) Get(id string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Layer{}, false
	}
	return s.layers[i], true
}

// FindByName returns the first layer with the given display name.
func (s *LayerState) FindByName(name string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Points returns every loaded point regardless of visibility.
func (s *LayerState) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Point(nil), s.points...)
}

// Areas returns every loaded area regardless of visibility.
func (s *LayerState) Areas() []Area {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Area(nil), s.areas...)
}

// VisiblePoints computes the points shown under the current layer state.
func (s *LayerState) VisiblePoints() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterPoints(s.points, s.layers)
}

// VisibleAreas computes the areas shown under the current layer state.
func (s *LayerState) VisibleAreas() []Area {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterAreas(s.areas, s.layers)
}

// publish must be called with s.mu held.
func (s *LayerState) publish(e Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
