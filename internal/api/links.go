package api

import "github.com/joeblew999/plat-map/internal/humastar"

// Links maps operation paths to their Link header values so clients can
// navigate with `restish links <url>`.
var Links = navigation()

func navigation() humastar.Links {
	l := humastar.Links{}
	l.Add("/health", "/api/v1/info", "info").
		Add("/health", "/api/v1/map", "map").
		Add("/health", "/api/v1/layers", "layers")
	l.Add("/api/v1/info", "/health", "health").
		Add("/api/v1/info", "/api/v1/layers", "layers")

	l.Add("/api/v1/map", "/api/v1/points", "points").
		Add("/api/v1/map", "/api/v1/areas", "areas").
		Add("/api/v1/map", "/api/v1/layers", "layers").
		Add("/api/v1/map", "/api/v1/legend", "legend")
	for _, p := range []string{"/api/v1/points", "/api/v1/areas", "/api/v1/legend"} {
		l.Add(p, "/api/v1/map", "up")
	}

	l.Add("/api/v1/layers", "/api/v1/map", "map").
		Add("/api/v1/layers", "/api/v1/visibility", "visibility").
		Add("/api/v1/layers", "/api/v1/category", "category")
	l.Add("/api/v1/layers/{id}", "/api/v1/layers", "collection")
	l.Add("/api/v1/visibility", "/api/v1/layers", "layers")
	l.Add("/api/v1/category", "/api/v1/layers", "layers")

	l.Add("/api/v1/collections", "/api/v1/sources", "sources")
	l.Add("/api/v1/sources", "/api/v1/collections", "collections")
	l.Add("/api/v1/sources/{name}", "/api/v1/sources", "collection")
	l.Add("/api/v1/tables", "/api/v1/query", "query")
	return l
}
