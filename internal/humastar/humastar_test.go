package humastar

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
)

func TestActionLinkHeader(t *testing.T) {
	a := Action{Rel: "hide", Href: "/api/v1/layers/x/toggle", Method: "POST", Title: "Hide X"}
	want := `</api/v1/layers/x/toggle>; rel="hide"; method="POST"; title="Hide X"`
	if got := a.LinkHeader(); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if got := (Action{Rel: "up", Href: "/"}).LinkHeader(); got != `</>; rel="up"` {
		t.Fatalf("got %s", got)
	}
}

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"category":"water","count":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.String("category") != "water" || s.String("count") != "" || s.String("missing") != "" {
		t.Fatalf("signals=%v", s)
	}

	in := &SignalsInput{RawBody: []byte("{")}
	if _, err := in.Decode(); err == nil {
		t.Fatal("expected error for invalid body")
	}
}

type itemBody struct {
	Name string `json:"name"`
}

func (itemBody) Actions() []Action {
	return []Action{{Rel: "edit", Href: "/items/1", Method: "PUT"}}
}

func TestLinkTransformer(t *testing.T) {
	cfg := huma.DefaultConfig("links", "1.0.0")
	cfg.CreateHooks = nil
	cfg.Transformers = append(cfg.Transformers, LinkTransformer(Links{}.Add("/items/{id}", "/items", "collection")))
	_, api := humatest.New(t, cfg)

	huma.Get(api, "/items/{id}", func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{ Body itemBody }, error) {
		return &struct{ Body itemBody }{Body: itemBody{Name: input.ID}}, nil
	})

	resp := api.Get("/items/1")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	links := strings.Join(resp.Result().Header.Values("Link"), "\n")
	for _, want := range []string{`rel="collection"`, `</items/1>; rel="self"`, `rel="edit"; method="PUT"`} {
		if !strings.Contains(links, want) {
			t.Fatalf("links missing %s:\n%s", want, links)
		}
	}
}

func TestSignalsChoice(t *testing.T) {
	s := Signals{"category": "soil", "n": 1.0}
	if v, ok := s.Choice("category", "water", "soil"); !ok || v != "soil" {
		t.Fatalf("Choice=%q,%v", v, ok)
	}
	if _, ok := s.Choice("category", "water"); ok {
		t.Fatal("soil accepted outside allowed set")
	}
	if _, ok := s.Choice("n", "1"); ok {
		t.Fatal("non-string signal accepted")
	}
}

func TestLinksAddDeduplicates(t *testing.T) {
	l := Links{}
	l.Add("/a", "/b", "next").Add("/a", "/b", "next").Add("/a", "/c", "other")
	if len(l["/a"]) != 2 {
		t.Fatalf("links=%v", l["/a"])
	}
	if l["/a"][0] != `</b>; rel="next"` {
		t.Fatalf("got %s", l["/a"][0])
	}
}

func TestDocumentAddsOpenAPILinks(t *testing.T) {
	cfg := huma.DefaultConfig("links", "1.0.0")
	cfg.CreateHooks = nil
	_, api := humatest.New(t, cfg)
	huma.Get(api, "/items", func(ctx context.Context, input *EmptyInput) (*struct{ Body []itemBody }, error) {
		return &struct{ Body []itemBody }{}, nil
	})

	Document(api, Links{}.Add("/items", "/items/{id}", "item"))

	resp := api.OpenAPI().Paths["/items"].Get.Responses["200"]
	link, ok := resp.Links["item"]
	if !ok {
		t.Fatalf("links=%v", resp.Links)
	}
	if link.OperationRef != "/items/{id}" {
		t.Fatalf("operationRef=%s", link.OperationRef)
	}
}
