// Package templates renders the HTML fragments patched into the viewer over
// Datastar SSE.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"sync/atomic"
)

//go:embed fragments/*.html
var fragments embed.FS

var funcMap = template.FuncMap{
	// dict builds a map from alternating keys and values for nested templates.
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict: odd number of arguments")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
	// lower accepts named string types such as layer categories.
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
}

// Renderer executes named fragments. The template set can be swapped at
// runtime without blocking renders in flight.
type Renderer struct {
	set atomic.Pointer[template.Template]
}

// Default returns a renderer over the fragments compiled into the binary.
func Default() (*Renderer, error) {
	sub, err := fs.Sub(fragments, "fragments")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// New parses every *.html file at the root of fsys.
func New(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{}
	if err := r.Reload(fsys); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload replaces the fragments with those in fsys, typically a web
// directory on disk during development. On error the current set is kept.
func (r *Renderer) Reload(fsys fs.FS) error {
	set, err := template.New("").Funcs(funcMap).ParseFS(fsys, "*.html")
	if err != nil {
		return fmt.Errorf("parsing fragments: %w", err)
	}
	r.set.Store(set)
	return nil
}

// Has reports whether a fragment called name is defined.
func (r *Renderer) Has(name string) bool {
	return r.set.Load().Lookup(name) != nil
}

// Render executes fragment name and returns the HTML.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer appends fragment name to buf.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.set.Load().ExecuteTemplate(buf, name, data)
}
