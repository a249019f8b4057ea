// Package mapview composes the layer state into what a map renderer and a
// layer control panel consume.
package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/fixture"
	"github.com/joeblew999/plat-map/internal/service"
)

// Recorder observes facade activity, typically for metrics.
type Recorder interface {
	ObserveToggle(err error)
	ObserveVisible(points, areas int)
}

// MapData is the facade handed to the rendering surface and the controls.
// All derived values are recomputed from the layer state on each call.
type MapData struct {
	state       *service.LayerState
	mapping     fixture.Mapping
	collections []*fixture.Collection
	recorder    Recorder
	view        View
}

// Option configures a MapData.
type Option func(*MapData)

// WithCollections attaches the raw collections the entities came from.
func WithCollections(cs []*fixture.Collection) Option {
	return func(m *MapData) { m.collections = cs }
}

// WithMapping sets the mapping used for legend colors and raw features.
func WithMapping(mp fixture.Mapping) Option {
	return func(m *MapData) { m.mapping = mp }
}

// WithRecorder attaches a recorder.
func WithRecorder(r Recorder) Option {
	return func(m *MapData) { m.recorder = r }
}

// WithView overrides the initial map view.
func WithView(v View) Option {
	return func(m *MapData) { m.view = v }
}

// New creates a facade over state.
func New(state *service.LayerState, opts ...Option) *MapData {
	m := &MapData{
		state:   state,
		mapping: fixture.DefaultMapping(),
		view:    DefaultView(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the underlying layer state.
func (m *MapData) State() *service.LayerState { return m.state }

// Points returns the visible points.
func (m *MapData) Points() []service.Point { return m.state.VisiblePoints() }

// Areas returns the visible areas.
func (m *MapData) Areas() []service.Area { return m.state.VisibleAreas() }

// Layers returns every layer for the control panel.
func (m *MapData) Layers() []service.Layer { return m.state.Layers() }

// ActiveCategory returns the highlighted category.
func (m *MapData) ActiveCategory() service.LayerCategory { return m.state.ActiveCategory() }

// Err returns the error recorded by the last toggle.
func (m *MapData) Err() error { return m.state.Err() }

// ToggleLayer flips a layer's visibility.
func (m *MapData) ToggleLayer(id string) error {
	err := m.state.ToggleLayer(id)
	if m.recorder != nil {
		m.recorder.ObserveToggle(err)
	}
	return err
}

// SetActiveCategory records the highlighted category.
func (m *MapData) SetActiveCategory(c service.LayerCategory) error {
	return m.state.SetActiveCategory(c)
}

// Surface is the point/area binding of the rendering surface.
type Surface struct {
	Points []service.Point `json:"points" doc:"Visible points"`
	Areas  []service.Area  `json:"areas" doc:"Visible areas"`
}

// Surface returns the visible points and areas together.
func (m *MapData) Surface() Surface {
	s := Surface{Points: m.Points(), Areas: m.Areas()}
	if m.recorder != nil {
		m.recorder.ObserveVisible(len(s.Points), len(s.Areas))
	}
	return s
}

// Collections returns the raw collections with hidden features removed.
// Every collection is returned, possibly empty, in load order.
func (m *MapData) Collections() []*fixture.Collection {
	layers := m.state.Layers()
	out := make([]*fixture.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		conv := fixture.NewConverter(c.Name, m.mapping)
		features := []*geojson.Feature{}
		for _, f := range c.Features {
			if conv.FeatureVisible(f, layers) {
				features = append(features, f)
			}
		}
		out = append(out, c.WithFeatures(features))
	}
	return out
}

// Controls is the layer-list binding of the control panel.
type Controls struct {
	Layers           []service.Layer
	ActiveCategory   service.LayerCategory
	OnToggle         func(id string) error
	OnCategoryChange func(c service.LayerCategory) error
}

// Controls returns the layer list and its callbacks.
func (m *MapData) Controls() Controls {
	return Controls{
		Layers:           m.Layers(),
		ActiveCategory:   m.ActiveCategory(),
		OnToggle:         m.ToggleLayer,
		OnCategoryChange: m.SetActiveCategory,
	}
}

// VisibilityBinding is the name-keyed binding of the control panel.
type VisibilityBinding struct {
	VisibilityMap map[string]bool
	OnChange      func(name string) error
}

// VisibilityMap returns layer visibility keyed by layer name.
func (m *MapData) VisibilityMap() map[string]bool {
	layers := m.state.Layers()
	vm := make(map[string]bool, len(layers))
	for _, l := range layers {
		vm[l.Name] = l.Visible
	}
	return vm
}

// OnChange toggles the layer with the given display name.
func (m *MapData) OnChange(name string) error {
	err := m.state.ToggleLayerByName(name)
	if m.recorder != nil {
		m.recorder.ObserveToggle(err)
	}
	return err
}

// Visibility returns the name-keyed binding.
func (m *MapData) Visibility() VisibilityBinding {
	return VisibilityBinding{VisibilityMap: m.VisibilityMap(), OnChange: m.OnChange}
}

// View is the initial camera and the extent of the visible entities.
type View struct {
	Center service.Coord     `json:"center" doc:"Initial center as [lat, lng]"`
	Zoom   int               `json:"zoom" minimum:"0" maximum:"22" doc:"Initial zoom level"`
	Bounds *[2]service.Coord `json:"bounds,omitempty" doc:"South-west and north-east corners of the visible entities as [lat, lng]"`
}

// DefaultView centers on Manaus.
func DefaultView() View {
	return View{Center: service.Coord{-3.1319, -60.0261}, Zoom: 11}
}

// View returns the configured view with bounds over the visible entities.
func (m *MapData) View() View {
	v := m.view
	v.Bounds = bounds(m.Points(), m.Areas())
	return v
}

func bounds(points []service.Point, areas []service.Area) *[2]service.Coord {
	var mp orb.MultiPoint
	for _, p := range points {
		mp = append(mp, orb.Point{p.Lng, p.Lat})
	}
	for _, a := range areas {
		for _, c := range a.Coordinates {
			mp = append(mp, orb.Point{c.Lng(), c.Lat()})
		}
	}
	if len(mp) == 0 {
		return nil
	}
	b := mp.Bound()
	return &[2]service.Coord{
		{b.Min.Lat(), b.Min.Lon()},
		{b.Max.Lat(), b.Max.Lon()},
	}
}
