// Package fixture loads named GeoJSON feature collections and converts
// survey exports into map points and areas.
package fixture

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// CRS is the coordinate reference system block of a named collection.
type CRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

// Collection is a GeoJSON FeatureCollection carrying a name and CRS block.
type Collection struct {
	Name string
	CRS  CRS
	Path string // where it was loaded from

	*geojson.FeatureCollection
}

// header holds the non-standard members read alongside the features.
type header struct {
	Type string `json:"type"`
	Name string `json:"name"`
	CRS  *CRS   `json:"crs"`
}

// ParseCollection decodes a named feature collection. When the document has
// no name member the file stem of path is used.
func ParseCollection(path string, data []byte) (*Collection, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if h.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parsing %s: type %q is not a FeatureCollection", path, h.Type)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	c := &Collection{
		Name:              h.Name,
		Path:              path,
		FeatureCollection: fc,
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if h.CRS != nil {
		c.CRS = *h.CRS
	} else {
		c.CRS = DefaultCRS()
	}
	return c, nil
}

// DefaultCRS returns the WGS84 lon/lat reference used by GeoJSON.
func DefaultCRS() CRS {
	var crs CRS
	crs.Type = "name"
	crs.Properties.Name = "urn:ogc:def:crs:OGC:1.3:CRS84"
	return crs
}

// WithFeatures returns a copy of c holding only the given features.
func (c *Collection) WithFeatures(features []*geojson.Feature) *Collection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = c.BBox
	fc.Features = features
	return &Collection{Name: c.Name, CRS: c.CRS, Path: c.Path, FeatureCollection: fc}
}

// MarshalJSON writes the collection with its name and crs members.
func (c *Collection) MarshalJSON() ([]byte, error) {
	features := []*geojson.Feature{}
	if c.FeatureCollection != nil && c.Features != nil {
		features = c.Features
	}
	return json.Marshal(struct {
		Type     string             `json:"type"`
		Name     string             `json:"name"`
		CRS      CRS                `json:"crs"`
		Features []*geojson.Feature `json:"features"`
	}{
		Type:     "FeatureCollection",
		Name:     c.Name,
		CRS:      c.CRS,
		Features: features,
	})
}
