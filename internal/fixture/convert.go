package fixture

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/service"
)

// Converter turns survey-export features into points and areas. It holds no
// state beyond its configuration, so equal inputs give equal outputs.
type Converter struct {
	Source  string // prefix for synthetic IDs
	Mapping Mapping
}

// NewConverter creates a converter for one source.
func NewConverter(source string, m Mapping) *Converter {
	if source == "" {
		source = "qgis"
	}
	return &Converter{Source: source, Mapping: m}
}

// Points converts the Point features of fc. IDs missing from the source
// become "<source>-point-<index>", index counting Point features only.
func (c *Converter) Points(fc *geojson.FeatureCollection) ([]service.Point, error) {
	points := []service.Point{}
	index := 0
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}

		p := service.Point{
			ID:       c.featureID(f, "point", index),
			Lat:      pt.Lat(),
			Lng:      pt.Lon(),
			Category: c.PointCategory(f.Properties),
			Name:     firstString(f.Properties, "name", "title"),
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("Point %d", index+1)
		}
		p.Description = firstString(f.Properties, "description", "notes")

		if err := p.Validate(); err != nil {
			return nil, withIndex(err, index)
		}
		points = append(points, p)
		index++
	}
	return points, nil
}

// Areas converts the Polygon features of fc using their outer ring. Every
// vertex is reordered from (lng, lat) to (lat, lng).
func (c *Converter) Areas(fc *geojson.FeatureCollection) ([]service.Area, error) {
	areas := []service.Area{}
	index := 0
	for _, f := range fc.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		if !ok {
			continue
		}

		key := typeKey(f.Properties)
		a := service.Area{
			ID:       c.featureID(f, "area", index),
			Name:     firstString(f.Properties, "name", "title"),
			Category: c.AreaCategory(f.Properties),
			Color:    firstString(f.Properties, "color"),
			Opacity:  c.Mapping.DefaultOpacity,
		}
		if a.Name == "" {
			a.Name = fmt.Sprintf("Area %d", index+1)
		}
		if a.Color == "" {
			a.Color = c.Mapping.Color(key)
		}
		if v, ok := firstFloat(f.Properties, "opacity", "fillOpacity"); ok {
			a.Opacity = v
		}
		if len(poly) > 0 {
			a.Coordinates = RingToCoords(poly[0])
		}

		if err := a.Validate(); err != nil {
			return nil, withIndex(err, index)
		}
		areas = append(areas, a)
		index++
	}
	return areas, nil
}

// Convert converts both points and areas of fc.
func (c *Converter) Convert(fc *geojson.FeatureCollection) (service.Entities, error) {
	points, err := c.Points(fc)
	if err != nil {
		return service.Entities{}, err
	}
	areas, err := c.Areas(fc)
	if err != nil {
		return service.Entities{}, err
	}
	return service.Entities{Points: points, Areas: areas}, nil
}

// PointCategory maps the type or category property to a point category.
func (c *Converter) PointCategory(props geojson.Properties) service.PointCategory {
	if cat, ok := c.Mapping.PointTypes[typeKey(props)]; ok {
		return cat
	}
	return c.Mapping.DefaultPoint
}

// AreaCategory maps the type or category property to an area category.
func (c *Converter) AreaCategory(props geojson.Properties) service.AreaCategory {
	if cat, ok := c.Mapping.AreaTypes[typeKey(props)]; ok {
		return cat
	}
	return c.Mapping.DefaultArea
}

// FeatureVisible applies the layer rules to a raw feature. Features that are
// neither points nor polygons are always shown.
func (c *Converter) FeatureVisible(f *geojson.Feature, layers []service.Layer) bool {
	switch f.Geometry.(type) {
	case orb.Point:
		return service.PointVisible(service.Point{Category: c.PointCategory(f.Properties)}, layers)
	case orb.Polygon:
		return service.AreaVisible(service.Area{Category: c.AreaCategory(f.Properties)}, layers)
	}
	return true
}

// RingToCoords converts a GeoJSON ring to (lat, lng) coordinates, keeping
// vertex order and count.
func RingToCoords(ring orb.Ring) []service.Coord {
	coords := make([]service.Coord, len(ring))
	for i, p := range ring {
		coords[i] = service.Coord{p.Lat(), p.Lon()}
	}
	return coords
}

func (c *Converter) featureID(f *geojson.Feature, kind string, index int) string {
	if id := firstString(f.Properties, "id"); id != "" {
		return id
	}
	if f.ID != nil {
		if id := stringify(f.ID); id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s-%s-%d", c.Source, kind, index)
}

func typeKey(props geojson.Properties) string {
	return firstString(props, "type", "category")
}

// firstString returns the first non-empty property among keys.
func firstString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok && v != nil {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstFloat returns the first numeric property among keys.
func firstFloat(props geojson.Properties, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := props[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func withIndex(err error, i int) error {
	if mre, ok := err.(*service.MalformedRecordError); ok {
		mre.Index = i
	}
	return err
}
