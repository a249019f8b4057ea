// Package viewer contains Datastar SSE handlers for the layer control panel.
package viewer

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
)

// Handler serves the control panel fragments and actions.
type Handler struct {
	humastar.Handler
	mapData *mapview.MapData
	bus     *service.EventBus
	log     *slog.Logger
}

// NewHandler creates a control panel handler. bus may be nil, in which case
// the events stream is not registered.
func NewHandler(mapData *mapview.MapData, bus *service.EventBus, renderer *templates.Renderer, log *slog.Logger) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		mapData: mapData,
		bus:     bus,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/layers", h.ListLayers, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/layers/{id}/toggle", h.ToggleLayer, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/category", h.SetCategory, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/legend", h.Legend, huma.OperationTags("viewer"))
	if h.bus != nil {
		huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
	}
}

func (h *Handler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayerList(), "#layer-list")
		sse.Signals(h.signals())
	}), nil
}

type ToggleInput struct {
	ID string `path:"id" doc:"Layer ID to toggle"`
}

func (h *Handler) ToggleLayer(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.mapData.ToggleLayer(input.ID); err != nil {
			h.log.WarnContext(ctx, "viewer toggle failed", "layer", input.ID, "error", err)
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(), "#layer-list")
		sse.Signals(h.signals())
		sse.Event("layer-changed", map[string]any{
			"action": service.ActionToggled, "id": input.ID,
		})
	}), nil
}

func (h *Handler) SetCategory(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}
	category := service.LayerCategory(signals.String("category"))
	if !category.Valid() {
		return nil, huma.Error400BadRequest("unknown category " + string(category))
	}

	return h.Stream(func(sse humastar.SSE) {
		if err := h.mapData.SetActiveCategory(category); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayerList(), "#layer-list")
		sse.Signals(h.signals())
	}), nil
}

func (h *Handler) Legend(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		html, err := h.Renderer.Render("legend", h.mapData.Legend())
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(html, "#legend")
	}), nil
}

// Events streams layer and category changes until the client disconnects.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			// Subscribe before the headers are flushed so no change is missed.
			ch, cancel := h.bus.Subscribe()
			defer cancel()
			sse := humastar.NewSSE(humaCtx)

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev := <-ch:
					sse.Patch(h.renderLayerList(), "#layer-list")
					sse.Signals(h.signals())
					sse.Event("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}

// LayerCardData holds data for rendering a layer card.
type LayerCardData struct {
	service.Layer
	Active bool
}

func (h *Handler) renderLayerList() string {
	controls := h.mapData.Controls()
	cards := make([]any, 0, len(controls.Layers))
	for _, l := range controls.Layers {
		cards = append(cards, LayerCardData{Layer: l, Active: l.Category == controls.ActiveCategory})
	}
	html := h.Fragments("layer-card", cards, humastar.EmptyState{
		Title: "No layers loaded", Message: "Check the fixtures directory or enable mock data",
	})
	if err := h.mapData.Err(); err != nil {
		banner, _ := h.Renderer.Render("error-banner", err.Error())
		html += banner
	}
	return html
}

// signals mirrors the visible counts and active category for client bindings.
func (h *Handler) signals() map[string]any {
	s := h.mapData.Surface()
	return map[string]any{
		"activeCategory": string(h.mapData.ActiveCategory()),
		"visiblePoints":  len(s.Points),
		"visibleAreas":   len(s.Areas),
		"visibility":     h.mapData.VisibilityMap(),
	}
}
