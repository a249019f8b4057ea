package fixture

import (
	"context"

	"github.com/joeblew999/plat-map/internal/service"
)

// Result is the outcome of loading a fixture source.
type Result struct {
	Collections []*Collection
	Entities    service.Entities
}

// Load reads every collection from r and converts it with m. Synthetic IDs
// are prefixed with each collection's name. Seeding the layer state is left
// to the caller.
func Load(ctx context.Context, r *Reader, m Mapping) (*Result, error) {
	collections, err := r.Collections(ctx)
	if err != nil {
		return nil, err
	}
	entities, err := ConvertAll(collections, m)
	if err != nil {
		return nil, err
	}
	return &Result{Collections: collections, Entities: entities}, nil
}

// ConvertAll converts and concatenates every collection in order. A
// malformed record rejects the whole batch.
func ConvertAll(collections []*Collection, m Mapping) (service.Entities, error) {
	out := service.Entities{
		Points: []service.Point{},
		Areas:  []service.Area{},
		Layers: append([]service.Layer(nil), m.Layers...),
	}
	for _, c := range collections {
		e, err := NewConverter(c.Name, m).Convert(c.FeatureCollection)
		if err != nil {
			return service.Entities{}, &LoadError{Source: c.Name, Path: c.Path, Err: err}
		}
		out.Points = append(out.Points, e.Points...)
		out.Areas = append(out.Areas, e.Areas...)
	}
	return out, nil
}
