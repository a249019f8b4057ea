package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/mapview"
)

// InfoHandler reports what the server loaded at startup.
type InfoHandler struct {
	source  string
	loadErr error
	catalog bool
	mapData *mapview.MapData
}

// NewInfoHandler creates an info handler. loadErr is the startup load
// failure, if any.
func NewInfoHandler(source string, loadErr error, catalog bool, mapData *mapview.MapData) *InfoHandler {
	return &InfoHandler{source: source, loadErr: loadErr, catalog: catalog, mapData: mapData}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name        string   `json:"name" doc:"Service name"`
	Version     string   `json:"version" doc:"Service version"`
	Source      string   `json:"source" doc:"Where the entities were loaded from" example:"dir:fixtures"`
	LoadError   string   `json:"loadError,omitempty" doc:"Why loading the fixtures failed"`
	Catalog     bool     `json:"catalog" doc:"Whether the SQL catalog is available"`
	Points      int      `json:"points" doc:"Number of loaded points"`
	Areas       int      `json:"areas" doc:"Number of loaded areas"`
	Layers      int      `json:"layers" doc:"Number of layers"`
	Collections int      `json:"collections" doc:"Number of loaded fixture collections"`
	Features    []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	state := h.mapData.State()
	features := []string{"layers", "visibility", "legend"}
	if h.catalog {
		features = append(features, "duckdb")
	}
	body := InfoBody{
		Name:        "plat-map",
		Version:     "0.1.0",
		Source:      h.source,
		Catalog:     h.catalog,
		Points:      len(state.Points()),
		Areas:       len(state.Areas()),
		Layers:      len(state.Layers()),
		Collections: len(h.mapData.Collections()),
		Features:    features,
	}
	if h.loadErr != nil {
		body.LoadError = h.loadErr.Error()
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
