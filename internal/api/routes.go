// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/fixture"
	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Map    *mapview.MapData
	Source *service.SourceService
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"species-layer"`
}

type NameInput struct {
	Name string `path:"name" doc:"Layer display name" example:"Species Data"`
}

// LayerBody is a layer together with its toggle action.
type LayerBody struct {
	service.Layer
}

// Actions advertises the toggle as "show" or "hide" depending on visibility.
func (b LayerBody) Actions() []humastar.Action {
	rel, verb := "show", "Show"
	if b.Visible {
		rel, verb = "hide", "Hide"
	}
	return []humastar.Action{{
		Rel:    rel,
		Href:   fmt.Sprintf("/api/v1/layers/%s/toggle", b.ID),
		Method: "POST",
		Title:  verb + " " + b.Name,
	}}
}

type LayerOutput struct {
	Body LayerBody
}

type LayersBody struct {
	Layers         []service.Layer       `json:"layers" doc:"All layers in seed order"`
	ActiveCategory service.LayerCategory `json:"activeCategory" enum:"species,water,soil,events" doc:"Highlighted category"`
	Error          string                `json:"error,omitempty" doc:"Error recorded by the last toggle"`
}

type MapBody struct {
	Points []service.Point `json:"points" doc:"Visible points"`
	Areas  []service.Area  `json:"areas" doc:"Visible areas"`
	View   mapview.View    `json:"view" doc:"Initial view and visible extent"`
}

type CategoryBody struct {
	Category service.LayerCategory `json:"category" enum:"species,water,soil,events" doc:"Highlighted category"`
}

type VisibilityBody struct {
	Layers map[string]bool `json:"layers" doc:"Layer visibility keyed by layer name"`
}

type SourceInput struct {
	Name string `path:"name" doc:"Fixture file name" example:"manaus-points.geojson"`
}

// SourceOutput is the raw fixture document.
type SourceOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// called from RegisterRoutes.
type APIHandler struct {
	svc *Services
	log *slog.Logger
}

func NewAPIHandler(svc *Services, log *slog.Logger) *APIHandler {
	return &APIHandler{svc: svc, log: log}
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services, log *slog.Logger) {
	h := NewAPIHandler(svc, log)
	h.RegisterHealth(api)
	h.RegisterMap(api)
	h.RegisterLayers(api)
	h.RegisterVisibility(api)
	h.RegisterSources(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers the rendering surface routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/points", h.GetPoints, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/areas", h.GetAreas, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/collections", h.GetCollections, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("map"))
}

// RegisterLayers registers layer listing and toggle routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/category", h.GetCategory, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/category", h.PutCategory, huma.OperationTags("layers"))
}

// RegisterVisibility registers the name-keyed visibility routes.
func (h *APIHandler) RegisterVisibility(api huma.API) {
	huma.Get(api, "/api/v1/visibility", h.GetVisibility, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/visibility/{name}", h.ChangeVisibility, huma.OperationTags("layers"))
}

// RegisterSources registers fixture listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/{name}", h.GetSource, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body MapBody }, error) {
	s := h.svc.Map.Surface()
	return &struct{ Body MapBody }{Body: MapBody{
		Points: s.Points, Areas: s.Areas, View: h.svc.Map.View(),
	}}, nil
}

func (h *APIHandler) GetPoints(ctx context.Context, input *struct{}) (*struct{ Body []service.Point }, error) {
	return &struct{ Body []service.Point }{Body: h.svc.Map.Points()}, nil
}

func (h *APIHandler) GetAreas(ctx context.Context, input *struct{}) (*struct{ Body []service.Area }, error) {
	return &struct{ Body []service.Area }{Body: h.svc.Map.Areas()}, nil
}

func (h *APIHandler) GetCollections(ctx context.Context, input *struct{}) (*struct{ Body []*fixture.Collection }, error) {
	return &struct{ Body []*fixture.Collection }{Body: h.svc.Map.Collections()}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body []mapview.LegendItem }, error) {
	return &struct{ Body []mapview.LegendItem }{Body: h.svc.Map.Legend()}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body LayersBody }, error) {
	body := LayersBody{
		Layers:         h.svc.Map.Layers(),
		ActiveCategory: h.svc.Map.ActiveCategory(),
	}
	if err := h.svc.Map.Err(); err != nil {
		body.Error = err.Error()
	}
	return &struct{ Body LayersBody }{Body: body}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	layer, ok := h.svc.Map.State().Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: LayerBody{layer}}, nil
}

func (h *APIHandler) ToggleLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	if err := h.svc.Map.ToggleLayer(input.ID); err != nil {
		return nil, h.toggleError(ctx, err)
	}
	layer, _ := h.svc.Map.State().Get(input.ID)
	h.log.DebugContext(ctx, "layer toggled", "layer", layer.ID, "visible", layer.Visible)
	return &LayerOutput{Body: LayerBody{layer}}, nil
}

func (h *APIHandler) GetCategory(ctx context.Context, input *struct{}) (*struct{ Body CategoryBody }, error) {
	return &struct{ Body CategoryBody }{Body: CategoryBody{Category: h.svc.Map.ActiveCategory()}}, nil
}

func (h *APIHandler) PutCategory(ctx context.Context, input *struct{ Body CategoryBody }) (*struct{ Body CategoryBody }, error) {
	if err := h.svc.Map.SetActiveCategory(input.Body.Category); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &struct{ Body CategoryBody }{Body: CategoryBody{Category: h.svc.Map.ActiveCategory()}}, nil
}

func (h *APIHandler) GetVisibility(ctx context.Context, input *struct{}) (*struct{ Body VisibilityBody }, error) {
	return &struct{ Body VisibilityBody }{Body: VisibilityBody{Layers: h.svc.Map.VisibilityMap()}}, nil
}

func (h *APIHandler) ChangeVisibility(ctx context.Context, input *NameInput) (*struct{ Body VisibilityBody }, error) {
	if err := h.svc.Map.OnChange(input.Name); err != nil {
		return nil, h.toggleError(ctx, err)
	}
	return &struct{ Body VisibilityBody }{Body: VisibilityBody{Layers: h.svc.Map.VisibilityMap()}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sources", err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetSource(ctx context.Context, input *SourceInput) (*SourceOutput, error) {
	if h.svc.Source == nil {
		return nil, huma.Error404NotFound("no fixtures directory configured")
	}
	data, err := h.svc.Source.Read(input.Name)
	if errors.Is(err, service.ErrSourceNotFound) {
		return nil, huma.Error404NotFound("source not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read source", err)
	}
	return &SourceOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) toggleError(ctx context.Context, err error) error {
	var unknown *service.UnknownLayerError
	if errors.As(err, &unknown) {
		h.log.WarnContext(ctx, "toggle of unknown layer", "layer", unknown.ID)
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error500InternalServerError("toggle failed", err)
}
