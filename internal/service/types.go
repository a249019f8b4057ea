// Package service contains the map data model and layer visibility logic.
package service

import "fmt"

// PointCategory classifies a located point.
type PointCategory string

const (
	PointLandmark PointCategory = "landmark"
	PointAnimal   PointCategory = "animal"
	PointInsect   PointCategory = "insect"
	PointPlant    PointCategory = "plant"
)

// PointCategories lists every known point category in display order.
var PointCategories = []PointCategory{PointLandmark, PointAnimal, PointInsect, PointPlant}

// Valid reports whether c is a known point category.
func (c PointCategory) Valid() bool {
	switch c {
	case PointLandmark, PointAnimal, PointInsect, PointPlant:
		return true
	}
	return false
}

// AreaCategory classifies a polygonal area.
type AreaCategory string

const (
	AreaSpecies AreaCategory = "species"
	AreaWater   AreaCategory = "water"
	AreaSoil    AreaCategory = "soil"
)

// AreaCategories lists every known area category in display order.
var AreaCategories = []AreaCategory{AreaSpecies, AreaWater, AreaSoil}

// Valid reports whether c is a known area category.
func (c AreaCategory) Valid() bool {
	switch c {
	case AreaSpecies, AreaWater, AreaSoil:
		return true
	}
	return false
}

// LayerCategory is the category of content a layer toggles.
type LayerCategory string

const (
	LayerSpecies LayerCategory = "species"
	LayerWater   LayerCategory = "water"
	LayerSoil    LayerCategory = "soil"
	LayerEvents  LayerCategory = "events"
)

// LayerCategories lists every known layer category in display order.
var LayerCategories = []LayerCategory{LayerSpecies, LayerWater, LayerSoil, LayerEvents}

// Valid reports whether c is a known layer category.
func (c LayerCategory) Valid() bool {
	switch c {
	case LayerSpecies, LayerWater, LayerSoil, LayerEvents:
		return true
	}
	return false
}

// Coord is a (lat, lng) pair in degrees.
type Coord [2]float64

// Lat returns the latitude.
func (c Coord) Lat() float64 { return c[0] }

// Lng returns the longitude.
func (c Coord) Lng() float64 { return c[1] }

// Point is a located entity shown as a marker.
type Point struct {
	ID          string        `json:"id" doc:"Unique point identifier" example:"1"`
	Lat         float64       `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"-3.1319"`
	Lng         float64       `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"-60.0261"`
	Category    PointCategory `json:"category" enum:"landmark,animal,insect,plant" doc:"Point category" example:"landmark"`
	Name        string        `json:"name" doc:"Display name" example:"Manaus City Center"`
	Description string        `json:"description,omitempty" doc:"Optional description" example:"Main urban area"`
}

// Validate checks the required fields of a point.
func (p Point) Validate() error {
	switch {
	case p.ID == "":
		return &MalformedRecordError{Kind: "point", Index: -1, ID: p.ID, Field: "id", Reason: "missing"}
	case !p.Category.Valid():
		return &MalformedRecordError{Kind: "point", Index: -1, ID: p.ID, Field: "category", Reason: fmt.Sprintf("unknown category %q", p.Category)}
	case p.Lat < -90 || p.Lat > 90:
		return &MalformedRecordError{Kind: "point", Index: -1, ID: p.ID, Field: "lat", Reason: "out of range"}
	case p.Lng < -180 || p.Lng > 180:
		return &MalformedRecordError{Kind: "point", Index: -1, ID: p.ID, Field: "lng", Reason: "out of range"}
	}
	return nil
}

// Area is a polygonal region. Coordinates hold the outer ring in (lat, lng) order.
type Area struct {
	ID          string       `json:"id" doc:"Unique area identifier" example:"area-1"`
	Name        string       `json:"name" doc:"Display name" example:"Protected Species Zone"`
	Category    AreaCategory `json:"category" enum:"species,water,soil" doc:"Area category" example:"species"`
	Coordinates []Coord      `json:"coordinates" doc:"Outer ring as [lat, lng] pairs"`
	Color       string       `json:"color" doc:"Fill color (CSS)" example:"#FFD700"`
	Opacity     float64      `json:"opacity" minimum:"0" maximum:"1" doc:"Fill opacity (0-1)" example:"0.3"`
}

// Validate checks the required fields and ring shape of an area.
func (a Area) Validate() error {
	switch {
	case a.ID == "":
		return &MalformedRecordError{Kind: "area", Index: -1, ID: a.ID, Field: "id", Reason: "missing"}
	case !a.Category.Valid():
		return &MalformedRecordError{Kind: "area", Index: -1, ID: a.ID, Field: "category", Reason: fmt.Sprintf("unknown category %q", a.Category)}
	case a.Opacity < 0 || a.Opacity > 1:
		return &MalformedRecordError{Kind: "area", Index: -1, ID: a.ID, Field: "opacity", Reason: "must be within [0,1]"}
	case distinctVertices(a.Coordinates) < 3:
		return &MalformedRecordError{Kind: "area", Index: -1, ID: a.ID, Field: "coordinates", Reason: "ring needs at least 3 distinct vertices"}
	}
	return nil
}

func distinctVertices(ring []Coord) int {
	seen := make(map[Coord]struct{}, len(ring))
	for _, c := range ring {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// Layer toggles the visibility of one category of content.
type Layer struct {
	ID          string        `json:"id" doc:"Unique layer identifier" example:"species-layer"`
	Name        string        `json:"name" doc:"Display name" example:"Species Data"`
	Description string        `json:"description" doc:"What the layer shows" example:"Biodiversity and species distribution"`
	Category    LayerCategory `json:"category" enum:"species,water,soil,events" doc:"Layer category" example:"species"`
	Visible     bool          `json:"visible" doc:"Whether the layer is currently shown" example:"true"`
}

// Entities is the normalized output of a data source.
type Entities struct {
	Points []Point
	Areas  []Area
	Layers []Layer
}

// SourceFile represents a fixture file in the data directory.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"manaus.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	Bytes    int64  `json:"bytes" doc:"File size in bytes" example:"1258291"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
