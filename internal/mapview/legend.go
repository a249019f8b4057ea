package mapview

import "github.com/joeblew999/plat-map/internal/service"

// LegendItem is one entry of the map legend.
type LegendItem struct {
	Kind     string `json:"kind" enum:"point,area" doc:"Entity kind"`
	Category string `json:"category" doc:"Category the entry describes" example:"animal"`
	Label    string `json:"label" doc:"Legend label" example:"Animals"`
	Color    string `json:"color" doc:"Legend color (CSS)" example:"#3498db"`
}

var legendLabels = map[string]string{
	string(service.PointLandmark): "Landmark",
	string(service.PointAnimal):   "Animals",
	string(service.PointInsect):   "Insect",
	string(service.PointPlant):    "Plants",
	string(service.AreaSpecies):   "Species",
	string(service.AreaWater):     "Water Bodies",
	string(service.AreaSoil):      "Soil",
}

// Legend lists every point and area category with its color.
func (m *MapData) Legend() []LegendItem {
	items := make([]LegendItem, 0, len(service.PointCategories)+len(service.AreaCategories))
	for _, c := range service.PointCategories {
		items = append(items, LegendItem{
			Kind: "point", Category: string(c), Label: legendLabels[string(c)], Color: m.mapping.Color(string(c)),
		})
	}
	for _, c := range service.AreaCategories {
		items = append(items, LegendItem{
			Kind: "area", Category: string(c), Label: legendLabels[string(c)], Color: m.mapping.Color(string(c)),
		})
	}
	return items
}
