package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/logging"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/service"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *mapview.MapData) {
	t.Helper()
	state := service.NewLayerState(nil)
	if err := state.Seed(service.MockEntities()); err != nil {
		t.Fatal(err)
	}
	m := mapview.New(state)

	cfg := huma.DefaultConfig("plat-map test", "1.0.0")
	cfg.CreateHooks = nil
	cfg.Transformers = append(cfg.Transformers, humastar.LinkTransformer(Links))
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, &Services{Map: m}, logging.Noop())
	NewInfoHandler("mock", nil, false, m).RegisterRoutes(api)
	NewDBHandler(nil).RegisterRoutes(api)
	return api, m
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	var body HealthBody
	decode(t, resp.Body.Bytes(), &body)
	if body.Status != "ok" {
		t.Fatalf("status=%q, want ok", body.Status)
	}
	if links := strings.Join(resp.Result().Header.Values("Link"), ","); !strings.Contains(links, `rel="layers"`) {
		t.Fatalf("links=%q, want layers link", links)
	}
}

func TestGetMap(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/map")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", resp.Code, resp.Body)
	}
	var body MapBody
	decode(t, resp.Body.Bytes(), &body)
	if len(body.Points) != 4 || len(body.Areas) != 2 {
		t.Fatalf("map=%d/%d, want 4/2", len(body.Points), len(body.Areas))
	}
	if body.View.Zoom != 11 || body.View.Bounds == nil {
		t.Fatalf("view=%+v", body.View)
	}
}

func TestToggleLayer(t *testing.T) {
	api, m := newTestAPI(t)

	resp := api.Post("/api/v1/layers/species-layer/toggle")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", resp.Code, resp.Body)
	}
	var layer service.Layer
	decode(t, resp.Body.Bytes(), &layer)
	if layer.ID != "species-layer" || layer.Visible {
		t.Fatalf("layer=%+v, want hidden species-layer", layer)
	}
	links := strings.Join(resp.Result().Header.Values("Link"), ",")
	if !strings.Contains(links, `rel="show"`) || !strings.Contains(links, `rel="self"`) {
		t.Fatalf("links=%q, want show action and self", links)
	}

	var points []service.Point
	decode(t, api.Get("/api/v1/points").Body.Bytes(), &points)
	if len(points) != 1 || points[0].Category != service.PointLandmark {
		t.Fatalf("points=%+v, want only the landmark", points)
	}
	if m.Err() != nil {
		t.Fatalf("err=%v", m.Err())
	}
}

func TestToggleUnknownLayer(t *testing.T) {
	api, m := newTestAPI(t)

	resp := api.Post("/api/v1/layers/nope/toggle")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.Code)
	}
	if m.Err() == nil {
		t.Fatal("unknown toggle not recorded")
	}

	var body LayersBody
	decode(t, api.Get("/api/v1/layers").Body.Bytes(), &body)
	if len(body.Layers) != 4 || !strings.Contains(body.Error, "nope") {
		t.Fatalf("layers=%+v", body)
	}
}

func TestGetLayer(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/v1/layers/soil-layer")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if links := strings.Join(resp.Result().Header.Values("Link"), ","); !strings.Contains(links, `rel="show"; method="POST"`) {
		t.Fatalf("links=%q, want show action", links)
	}
	if resp := api.Get("/api/v1/layers/nope"); resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.Code)
	}
}

func TestCategory(t *testing.T) {
	api, m := newTestAPI(t)

	resp := api.Put("/api/v1/category", map[string]any{"category": "water"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", resp.Code, resp.Body)
	}
	if m.ActiveCategory() != service.LayerWater {
		t.Fatalf("active=%q, want water", m.ActiveCategory())
	}

	resp = api.Put("/api/v1/category", map[string]any{"category": "lava"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", resp.Code)
	}

	var body CategoryBody
	decode(t, api.Get("/api/v1/category").Body.Bytes(), &body)
	if body.Category != service.LayerWater {
		t.Fatalf("category=%q, want water", body.Category)
	}
}

func TestVisibilityByName(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/v1/visibility/Soil%20Analysis")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", resp.Code, resp.Body)
	}
	var body VisibilityBody
	decode(t, resp.Body.Bytes(), &body)
	if !body.Layers["Soil Analysis"] {
		t.Fatalf("visibility=%v, want soil on", body.Layers)
	}

	if resp := api.Post("/api/v1/visibility/Nope"); resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.Code)
	}
	if resp := api.Post("/api/v1/visibility/water-layer"); resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d for a layer ID, want 404", resp.Code)
	}
	if resp := api.Get("/api/v1/visibility"); !strings.Contains(resp.Body.String(), `"Water Resources":true`) {
		t.Fatalf("water toggled through its ID: %s", resp.Body)
	}
}

func TestLegendAndInfo(t *testing.T) {
	api, _ := newTestAPI(t)

	var legend []mapview.LegendItem
	decode(t, api.Get("/api/v1/legend").Body.Bytes(), &legend)
	if len(legend) != 7 {
		t.Fatalf("legend=%d items, want 7", len(legend))
	}

	var info InfoBody
	decode(t, api.Get("/api/v1/info").Body.Bytes(), &info)
	if info.Source != "mock" || info.Points != 4 || info.Layers != 4 || info.Catalog {
		t.Fatalf("info=%+v", info)
	}
}

func TestSourcesWithoutDir(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/api/v1/sources")
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
}

func TestGetSource(t *testing.T) {
	m := mapview.New(service.NewLayerState(nil))
	cfg := huma.DefaultConfig("plat-map test", "1.0.0")
	cfg.CreateHooks = nil
	_, api := humatest.New(t, cfg)
	RegisterRoutes(api, &Services{Map: m, Source: service.NewSourceService("../fixture/testdata")}, logging.Noop())

	resp := api.Get("/api/v1/sources/points.geojson")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.Code, resp.Body)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("content-type=%s", ct)
	}
	if !strings.Contains(resp.Body.String(), "FeatureCollection") {
		t.Fatalf("body=%s", resp.Body)
	}
	if resp := api.Get("/api/v1/sources/missing.geojson"); resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.Code)
	}
}

func TestCatalogUnavailable(t *testing.T) {
	api, _ := newTestAPI(t)
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", resp.Code)
	}
}

func TestReadOnly(t *testing.T) {
	tests := map[string]bool{
		"SELECT * FROM points":          true,
		"  with x as (select 1) select": true,
		"show tables":                   true,
		"DROP TABLE points":             false,
		"insert into points values (1)": false,
		"":                              false,
	}
	for q, want := range tests {
		if got := readOnly(q); got != want {
			t.Errorf("readOnly(%q)=%t, want %t", q, got, want)
		}
	}
}
