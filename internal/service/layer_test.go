package service

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func seeded(t *testing.T, e Entities) *LayerState {
	t.Helper()
	s := NewLayerState(nil)
	if err := s.Seed(e); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func pointIDs(points []Point) []string {
	ids := []string{}
	for _, p := range points {
		ids = append(ids, p.ID)
	}
	return ids
}

func areaIDs(areas []Area) []string {
	ids := []string{}
	for _, a := range areas {
		ids = append(ids, a.ID)
	}
	return ids
}

func square(id string, c AreaCategory) Area {
	return Area{
		ID: id, Name: id, Category: c, Color: "#000000", Opacity: 0.5,
		Coordinates: []Coord{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
	}
}

func TestToggleSpeciesHidesAnimalsNotLandmarks(t *testing.T) {
	s := seeded(t, Entities{
		Layers: []Layer{{ID: "species-layer", Category: LayerSpecies, Visible: true}},
		Points: []Point{
			{ID: "p1", Category: PointAnimal},
			{ID: "p2", Category: PointLandmark},
		},
	})

	if got := pointIDs(s.VisiblePoints()); !reflect.DeepEqual(got, []string{"p1", "p2"}) {
		t.Fatalf("visible=%v, want [p1 p2]", got)
	}
	if err := s.ToggleLayer("species-layer"); err != nil {
		t.Fatal(err)
	}
	if got := pointIDs(s.VisiblePoints()); !reflect.DeepEqual(got, []string{"p2"}) {
		t.Fatalf("visible=%v, want [p2]", got)
	}
}

func TestToggleWaterShowsArea(t *testing.T) {
	s := seeded(t, Entities{
		Layers: []Layer{{ID: "water-layer", Category: LayerWater, Visible: false}},
		Areas:  []Area{square("a1", AreaWater)},
	})

	if got := s.VisibleAreas(); len(got) != 0 {
		t.Fatalf("visible=%v, want none", areaIDs(got))
	}
	if err := s.ToggleLayer("water-layer"); err != nil {
		t.Fatal(err)
	}
	if got := areaIDs(s.VisibleAreas()); !reflect.DeepEqual(got, []string{"a1"}) {
		t.Fatalf("visible=%v, want [a1]", got)
	}
}

func TestToggleKeepsLayerSetAndIsInvolution(t *testing.T) {
	s := seeded(t, MockEntities())
	before := s.Layers()

	sequence := []string{"species-layer", "soil-layer", "species-layer", "events-layer", "water-layer", "soil-layer", "events-layer", "water-layer"}
	for _, id := range sequence {
		if err := s.ToggleLayer(id); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
		if got := len(s.Layers()); got != len(before) {
			t.Fatalf("layers=%d after toggling %s, want %d", got, id, len(before))
		}
	}

	// Every layer was toggled an even number of times.
	if after := s.Layers(); !reflect.DeepEqual(after, before) {
		t.Fatalf("layers=%+v, want %+v", after, before)
	}
}

func TestToggleUnknownLayer(t *testing.T) {
	s := seeded(t, MockEntities())
	before := s.Layers()

	err := s.ToggleLayer("nope")
	var unknown *UnknownLayerError
	if !errors.As(err, &unknown) {
		t.Fatalf("err=%v, want *UnknownLayerError", err)
	}
	if unknown.ID != "nope" {
		t.Fatalf("id=%q, want nope", unknown.ID)
	}
	if !errors.As(s.Err(), &unknown) {
		t.Fatalf("recorded err=%v, want *UnknownLayerError", s.Err())
	}
	if after := s.Layers(); !reflect.DeepEqual(after, before) {
		t.Fatalf("layers changed: %+v", after)
	}

	if err := s.ToggleLayer("soil-layer"); err != nil {
		t.Fatal(err)
	}
	if s.Err() != nil {
		t.Fatalf("err=%v after successful toggle, want nil", s.Err())
	}
}

func TestLandmarksAlwaysVisible(t *testing.T) {
	points := []Point{
		{ID: "l1", Category: PointLandmark},
		{ID: "a1", Category: PointAnimal},
		{ID: "l2", Category: PointLandmark},
	}
	// Every visibility combination of the four default layers.
	for mask := 0; mask < 16; mask++ {
		layers := DefaultLayers()
		for i := range layers {
			layers[i].Visible = mask&(1<<i) != 0
		}
		got := map[string]bool{}
		for _, p := range FilterPoints(points, layers) {
			got[p.ID] = true
		}
		if !got["l1"] || !got["l2"] {
			t.Fatalf("mask=%04b: landmarks missing from %v", mask, got)
		}
	}
}

func TestAreaVisibleNeedsMatchingVisibleLayer(t *testing.T) {
	a := square("a", AreaSoil)
	tests := []struct {
		name   string
		layers []Layer
		want   bool
	}{
		{"no layers", nil, false},
		{"other category", []Layer{{ID: "w", Category: LayerWater, Visible: true}}, false},
		{"hidden", []Layer{{ID: "s", Category: LayerSoil}}, false},
		{"visible", []Layer{{ID: "s", Category: LayerSoil, Visible: true}}, true},
		{"one of two", []Layer{{ID: "s1", Category: LayerSoil}, {ID: "s2", Category: LayerSoil, Visible: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AreaVisible(a, tt.layers); got != tt.want {
				t.Fatalf("AreaVisible=%t, want %t", got, tt.want)
			}
		})
	}
}

func TestLastMatchingLayerHidesArea(t *testing.T) {
	s := seeded(t, Entities{
		Layers: []Layer{
			{ID: "soil-a", Category: LayerSoil, Visible: true},
			{ID: "soil-b", Category: LayerSoil, Visible: true},
		},
		Areas: []Area{square("s", AreaSoil)},
	})

	s.ToggleLayer("soil-a")
	if len(s.VisibleAreas()) != 1 {
		t.Fatal("area hidden while soil-b is still visible")
	}
	s.ToggleLayer("soil-b")
	if len(s.VisibleAreas()) != 0 {
		t.Fatal("area visible after hiding the last soil layer")
	}
}

func TestUnknownPointCategoryIsShown(t *testing.T) {
	got := FilterPoints([]Point{{ID: "x", Category: "volcano"}}, nil)
	if len(got) != 1 {
		t.Fatalf("visible=%d, want 1", len(got))
	}
}

func TestSeedDefaultsLayers(t *testing.T) {
	s := seeded(t, Entities{Points: []Point{{ID: "1", Category: PointAnimal}}})
	if !reflect.DeepEqual(s.Layers(), DefaultLayers()) {
		t.Fatalf("layers=%+v, want defaults", s.Layers())
	}
	if s.ActiveCategory() != LayerSpecies {
		t.Fatalf("active=%q, want species", s.ActiveCategory())
	}
}

func TestSeedRejectsMalformedBatch(t *testing.T) {
	tests := []struct {
		name  string
		e     Entities
		kind  string
		field string
		index int
	}{
		{
			name:  "duplicate point",
			e:     Entities{Points: []Point{{ID: "1", Category: PointAnimal}, {ID: "1", Category: PointPlant}}},
			kind:  "point",
			field: "id",
			index: 1,
		},
		{
			name:  "point without id",
			e:     Entities{Points: []Point{{ID: "1", Category: PointAnimal}, {Category: PointPlant}}},
			kind:  "point",
			field: "id",
			index: 1,
		},
		{
			name:  "point latitude",
			e:     Entities{Points: []Point{{ID: "1", Lat: 91, Category: PointAnimal}}},
			kind:  "point",
			field: "lat",
			index: 0,
		},
		{
			name:  "degenerate area",
			e:     Entities{Areas: []Area{{ID: "a", Category: AreaWater, Coordinates: []Coord{{0, 0}, {1, 1}, {0, 0}}}}},
			kind:  "area",
			field: "coordinates",
			index: 0,
		},
		{
			name:  "area opacity",
			e:     Entities{Areas: []Area{func() Area { a := square("a", AreaWater); a.Opacity = 2; return a }()}},
			kind:  "area",
			field: "opacity",
			index: 0,
		},
		{
			name:  "duplicate layer",
			e:     Entities{Layers: []Layer{{ID: "x", Category: LayerSoil}, {ID: "x", Category: LayerWater}}},
			kind:  "layer",
			field: "id",
			index: 1,
		},
		{
			name:  "layer category",
			e:     Entities{Layers: []Layer{{ID: "x", Category: "fire"}}},
			kind:  "layer",
			field: "category",
			index: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLayerState(nil)
			err := s.Seed(tt.e)
			var mre *MalformedRecordError
			if !errors.As(err, &mre) {
				t.Fatalf("err=%v, want *MalformedRecordError", err)
			}
			if mre.Kind != tt.kind || mre.Field != tt.field || mre.Index != tt.index {
				t.Fatalf("got %s/%s/#%d, want %s/%s/#%d", mre.Kind, mre.Field, mre.Index, tt.kind, tt.field, tt.index)
			}
			if s.Seeded() || len(s.Points()) != 0 || len(s.Layers()) != 0 {
				t.Fatal("rejected batch left state populated")
			}
		})
	}
}

func TestSeedTwice(t *testing.T) {
	s := seeded(t, MockEntities())
	if err := s.Seed(MockEntities()); !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("err=%v, want ErrAlreadySeeded", err)
	}
}

func TestSetActiveCategory(t *testing.T) {
	s := seeded(t, MockEntities())
	visible := len(s.VisiblePoints())

	if err := s.SetActiveCategory(LayerSoil); err != nil {
		t.Fatal(err)
	}
	if s.ActiveCategory() != LayerSoil {
		t.Fatalf("active=%q, want soil", s.ActiveCategory())
	}
	if len(s.VisiblePoints()) != visible {
		t.Fatal("active category changed visibility")
	}
	if err := s.SetActiveCategory("lava"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if s.ActiveCategory() != LayerSoil {
		t.Fatalf("active=%q after rejected change, want soil", s.ActiveCategory())
	}
}

func TestLayersReturnsCopy(t *testing.T) {
	s := seeded(t, MockEntities())
	layers := s.Layers()
	layers[0].Visible = !layers[0].Visible
	if got, _ := s.Get(layers[0].ID); got.Visible == layers[0].Visible {
		t.Fatal("mutating the returned slice changed the state")
	}
}

func TestFindByName(t *testing.T) {
	s := seeded(t, MockEntities())
	l, ok := s.FindByName("Soil Analysis")
	if !ok || l.ID != "soil-layer" {
		t.Fatalf("got %+v, %t; want soil-layer", l, ok)
	}
	if _, ok := s.FindByName("Nope"); ok {
		t.Fatal("found a layer that does not exist")
	}
}

func TestToggleLayerByName(t *testing.T) {
	s := seeded(t, MockEntities())
	if err := s.ToggleLayerByName("Soil Analysis"); err != nil {
		t.Fatal(err)
	}
	if l, _ := s.Get("soil-layer"); !l.Visible {
		t.Fatal("soil-layer hidden after toggle by name")
	}

	before := s.Layers()
	err := s.ToggleLayerByName("water-layer")
	var unknown *UnknownLayerError
	if !errors.As(err, &unknown) || unknown.ID != "water-layer" {
		t.Fatalf("err=%v, want *UnknownLayerError", err)
	}
	if !reflect.DeepEqual(s.Layers(), before) {
		t.Fatal("layers changed after toggling an ID by name")
	}
	if !errors.As(s.Err(), &unknown) {
		t.Fatalf("recorded err=%v", s.Err())
	}
}

func TestMockDefaultsVisibility(t *testing.T) {
	s := seeded(t, MockEntities())
	// Species and water on, events off: every mock point and both areas show.
	if got := pointIDs(s.VisiblePoints()); !reflect.DeepEqual(got, []string{"1", "2", "3", "4"}) {
		t.Fatalf("points=%v", got)
	}
	if got := areaIDs(s.VisibleAreas()); !reflect.DeepEqual(got, []string{"area-1", "area-2"}) {
		t.Fatalf("areas=%v", got)
	}
}

func TestToggleConcurrent(t *testing.T) {
	s := seeded(t, MockEntities())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ToggleLayer("soil-layer")
		}()
		go func() {
			defer wg.Done()
			s.VisibleAreas()
		}()
	}
	wg.Wait()

	// 50 flips of a hidden layer leave it hidden.
	if l, _ := s.Get("soil-layer"); l.Visible {
		t.Fatal("soil-layer visible after an even number of toggles")
	}
}

func TestStatePublishesEvents(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	s := NewLayerState(bus)
	if err := s.Seed(MockEntities()); err != nil {
		t.Fatal(err)
	}
	s.ToggleLayer("water-layer")
	s.ToggleLayer("missing")
	s.SetActiveCategory(LayerWater)

	want := []Event{
		{Resource: "layers", Action: "seeded"},
		{Resource: "layers", Action: "toggled", ID: "water-layer"},
		{Resource: "category", Action: "updated", ID: "water"},
	}
	for i, w := range want {
		if got := <-ch; got != w {
			t.Fatalf("event %d=%+v, want %+v", i, got, w)
		}
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}
