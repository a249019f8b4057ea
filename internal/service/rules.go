package service

// Rule says which layer category governs a point category.
type Rule struct {
	Layer LayerCategory
	// AlwaysVisible points ignore layer state entirely.
	AlwaysVisible bool
}

// pointRules is the single place where point categories are tied to layers.
// Landmarks nominally belong to the events layer but are never hidden.
var pointRules = map[PointCategory]Rule{
	PointAnimal:   {Layer: LayerSpecies},
	PointInsect:   {Layer: LayerSpecies},
	PointPlant:    {Layer: LayerSpecies},
	PointLandmark: {Layer: LayerEvents, AlwaysVisible: true},
}

// RuleFor returns the visibility rule for a point category.
func RuleFor(c PointCategory) (Rule, bool) {
	r, ok := pointRules[c]
	return r, ok
}

// GoverningLayer returns the layer category an area category maps to.
func GoverningLayer(c AreaCategory) LayerCategory {
	return LayerCategory(c)
}

// PointVisible reports whether p is shown given the current layers.
// Unknown categories are shown.
func PointVisible(p Point, layers []Layer) bool {
	r, ok := RuleFor(p.Category)
	if !ok || r.AlwaysVisible {
		return true
	}
	return anyVisible(layers, r.Layer)
}

// AreaVisible reports whether a is shown given the current layers.
// An area without a visible layer of its category is hidden.
func AreaVisible(a Area, layers []Layer) bool {
	return anyVisible(layers, GoverningLayer(a.Category))
}

func anyVisible(layers []Layer, c LayerCategory) bool {
	for _, l := range layers {
		if l.Category == c && l.Visible {
			return true
		}
	}
	return false
}

// FilterPoints returns the points visible under layers, preserving order.
func FilterPoints(points []Point, layers []Layer) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if PointVisible(p, layers) {
			out = append(out, p)
		}
	}
	return out
}

// FilterAreas returns the areas visible under layers, preserving order.
func FilterAreas(areas []Area, layers []Layer) []Area {
	out := make([]Area, 0, len(areas))
	for _, a := range areas {
		if AreaVisible(a, layers) {
			out = append(out, a)
		}
	}
	return out
}
