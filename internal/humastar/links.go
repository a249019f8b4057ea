package humastar

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Links holds static Link header values keyed by operation path.
type Links map[string][]string

// Add links from to href with rel, ignoring duplicates, and returns l.
func (l Links) Add(from, href, rel string) Links {
	v := fmt.Sprintf(`<%s>; rel="%s"`, href, rel)
	for _, existing := range l[from] {
		if existing == v {
			return l
		}
	}
	l[from] = append(l[from], v)
	return l
}

// LinkTransformer emits, for every response, the static links of its
// operation path, a self link on templated paths and the actions of bodies
// implementing Actor.
func LinkTransformer(links Links) huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

// Document records links on the 2xx responses of the matching operations so
// the OpenAPI document describes them too. Call after registering routes.
func Document(api huma.API, links Links) {
	for p, item := range api.OpenAPI().Paths {
		values := links[p]
		if len(values) == 0 {
			continue
		}
		for _, op := range []*huma.Operation{item.Get, item.Post, item.Put, item.Patch, item.Delete} {
			if op == nil {
				continue
			}
			for code, resp := range op.Responses {
				if !strings.HasPrefix(code, "2") {
					continue
				}
				if resp.Links == nil {
					resp.Links = map[string]*huma.Link{}
				}
				for _, v := range values {
					href, rel := splitLink(v)
					resp.Links[rel] = &huma.Link{OperationRef: href, Description: "Related: " + rel}
				}
			}
		}
	}
}

// splitLink parses `<href>; rel="rel"`.
func splitLink(v string) (href, rel string) {
	target, params, _ := strings.Cut(v, ";")
	href = strings.Trim(strings.TrimSpace(target), "<>")
	rel = strings.TrimSpace(params)
	rel = strings.TrimPrefix(rel, "rel=")
	return href, strings.Trim(rel, `"`)
}
