package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/service"
)

// Mapping controls how survey-export property values become categories,
// colors and opacities.
type Mapping struct {
	PointTypes     map[string]service.PointCategory `yaml:"pointTypes"`
	AreaTypes      map[string]service.AreaCategory  `yaml:"areaTypes"`
	Colors         map[string]string                `yaml:"colors"`
	DefaultOpacity float64                          `yaml:"defaultOpacity"`
	DefaultPoint   service.PointCategory            `yaml:"defaultPoint"`
	DefaultArea    service.AreaCategory             `yaml:"defaultArea"`
	DefaultColor   string                           `yaml:"defaultColor"`

	// Layers seeds the layer state; empty means service.DefaultLayers.
	Layers []service.Layer `yaml:"layers"`
}

// DefaultMapping returns the QGIS2Web mapping table.
func DefaultMapping() Mapping {
	return Mapping{
		PointTypes: map[string]service.PointCategory{
			"landmark": service.PointLandmark,
			"animal":   service.PointAnimal,
			"insect":   service.PointInsect,
			"plant":    service.PointPlant,
			"species":  service.PointAnimal,
		},
		AreaTypes: map[string]service.AreaCategory{
			"species":      service.AreaSpecies,
			"water":        service.AreaWater,
			"soil":         service.AreaSoil,
			"conservation": service.AreaSpecies,
		},
		Colors: map[string]string{
			"landmark": "#e74c3c",
			"animal":   "#3498db",
			"insect":   "#f39c12",
			"plant":    "#27ae60",
			"species":  "#FFD700",
			"water":    "#4A90E2",
			"soil":     "#8B4513",
		},
		DefaultOpacity: 0.3,
		DefaultPoint:   service.PointLandmark,
		DefaultArea:    service.AreaSpecies,
		DefaultColor:   "#FFD700",
	}
}

// LoadMapping reads a YAML mapping file. Keys present in the file are laid
// over the defaults; absent keys keep their default values.
func LoadMapping(path string) (Mapping, error) {
	m := DefaultMapping()
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("reading mapping: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("parsing mapping %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Mapping{}, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every mapped value is a known category.
func (m Mapping) Validate() error {
	for k, v := range m.PointTypes {
		if !v.Valid() {
			return fmt.Errorf("pointTypes[%q]: unknown point category %q", k, v)
		}
	}
	for k, v := range m.AreaTypes {
		if !v.Valid() {
			return fmt.Errorf("areaTypes[%q]: unknown area category %q", k, v)
		}
	}
	if !m.DefaultPoint.Valid() {
		return fmt.Errorf("defaultPoint: unknown point category %q", m.DefaultPoint)
	}
	if !m.DefaultArea.Valid() {
		return fmt.Errorf("defaultArea: unknown area category %q", m.DefaultArea)
	}
	if m.DefaultOpacity < 0 || m.DefaultOpacity > 1 {
		return fmt.Errorf("defaultOpacity: %v outside [0,1]", m.DefaultOpacity)
	}
	for i, l := range m.Layers {
		if l.ID == "" || !l.Category.Valid() {
			return fmt.Errorf("layers[%d]: needs an id and a known category", i)
		}
	}
	return nil
}

// Color returns the display color for a category or type key.
func (m Mapping) Color(key string) string {
	if c, ok := m.Colors[key]; ok {
		return c
	}
	return m.DefaultColor
}
