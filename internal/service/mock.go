package service

// DefaultLayers returns one layer per known category with the default
// visibility used when no layer configuration is supplied.
func DefaultLayers() []Layer {
	return []Layer{
		{ID: "species-layer", Name: "Species Data", Description: "Biodiversity and species distribution", Category: LayerSpecies, Visible: true},
		{ID: "water-layer", Name: "Water Resources", Description: "Water bodies and conservation areas", Category: LayerWater, Visible: true},
		{ID: "soil-layer", Name: "Soil Analysis", Description: "Soil composition and quality data", Category: LayerSoil, Visible: false},
		{ID: "events-layer", Name: "Environmental Events", Description: "Recent environmental changes and events", Category: LayerEvents, Visible: false},
	}
}

// MockEntities returns the built-in Manaus sample data, used when no fixture
// source is configured.
func MockEntities() Entities {
	return Entities{
		Points: []Point{
			{ID: "1", Lat: -3.1319, Lng: -60.0261, Category: PointLandmark, Name: "Manaus City Center", Description: "Main urban area"},
			{ID: "2", Lat: -3.1190, Lng: -59.9040, Category: PointAnimal, Name: "Wildlife Observation Point", Description: "Common jaguar sightings"},
			{ID: "3", Lat: -3.0464, Lng: -60.0277, Category: PointPlant, Name: "Rare Orchid Location", Description: "Endemic species habitat"},
			{ID: "4", Lat: -3.1590, Lng: -59.9750, Category: PointInsect, Name: "Butterfly Research Site", Description: "High biodiversity area"},
		},
		Areas: []Area{
			{
				ID: "area-1", Name: "Protected Species Zone", Category: AreaSpecies,
				Coordinates: []Coord{{-3.0800, -60.0500}, {-3.0800, -59.9500}, {-3.1200, -59.9500}, {-3.1200, -60.0500}},
				Color:       "#FFD700", Opacity: 0.3,
			},
			{
				ID: "area-2", Name: "Water Conservation Area", Category: AreaWater,
				Coordinates: []Coord{{-3.1400, -60.0200}, {-3.1400, -59.9800}, {-3.1600, -59.9800}, {-3.1600, -60.0200}},
				Color:       "#4A90E2", Opacity: 0.4,
			},
		},
		Layers: DefaultLayers(),
	}
}
