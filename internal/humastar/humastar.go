// Package humastar bridges Huma operations and Datastar server-sent events:
// streaming fragment patches, signal decoding and RFC 8288 hypermedia links.
package humastar

import (
	"bytes"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-map/internal/templates"
)

// EmptyInput is the input of operations without parameters.
type EmptyInput struct{}

// EmptyState is rendered by Fragments when there is nothing to list.
type EmptyState struct {
	Title   string
	Message string
}

// Handler is embedded by handlers that answer with Datastar streams.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream wraps fn in a Huma streaming response.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// Fragments renders tmpl once per item, or the "empty-state" fragment when
// items is empty. Render failures are skipped so one bad item does not blank
// the whole list.
func (h *Handler) Fragments(tmpl string, items []any, empty EmptyState) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		h.Renderer.RenderToBuffer(&buf, "empty-state", empty)
		return buf.String()
	}
	for _, item := range items {
		h.Renderer.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// SSE is a Datastar event generator bound to one request.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts a Datastar stream on the request behind ctx. ctx must come
// from the humago adapter.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the inner HTML of selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Notify sets one message signal, "error" or "success", and clears the other.
func (s SSE) Notify(kind, msg string) {
	signals := map[string]any{"error": "", "success": ""}
	signals[kind] = msg
	s.MarshalAndPatchSignals(signals)
}

// Error reports msg through the "error" signal.
func (s SSE) Error(msg string) { s.Notify("error", msg) }

// Success reports msg through the "success" signal.
func (s SSE) Success(msg string) { s.Notify("success", msg) }

// Signals patches arbitrary signals.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Event dispatches a DOM CustomEvent named name with detail.
func (s SSE) Event(name string, detail map[string]any) {
	s.DispatchCustomEvent(name, detail)
}
