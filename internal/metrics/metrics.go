// Package metrics exposes Prometheus metrics for layer state activity.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joeblew999/plat-map/internal/service"
)

// Collector bundles the map metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Toggles      *prometheus.CounterVec
	LoadFailures prometheus.Counter

	LoadedPoints  prometheus.Gauge
	LoadedAreas   prometheus.Gauge
	Layers        prometheus.Gauge
	VisiblePoints prometheus.Gauge
	VisibleAreas  prometheus.Gauge
}

// New registers the metrics against reg, defaulting to the global registry
// when nil. Registering twice on the same registry reuses the collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	toggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "map_layer_toggles_total",
		Help: "Layer toggle requests, labeled by result (ok or unknown_layer).",
	}, []string{"result"})
	if err := reg.Register(toggles); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector map_layer_toggles_total already registered with incompatible type")
		}
		toggles = existing
	}

	c := &Collector{gatherer: gatherer, Toggles: toggles}
	var err error
	if c.LoadFailures, err = registerCounter(reg, "map_fixture_load_failures_total", "Fixture loads that failed."); err != nil {
		return nil, err
	}
	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.LoadedPoints, "map_points_loaded", "Points held by the layer state."},
		{&c.LoadedAreas, "map_areas_loaded", "Areas held by the layer state."},
		{&c.Layers, "map_layers", "Layers held by the layer state."},
		{&c.VisiblePoints, "map_points_visible", "Points visible at the last surface computation."},
		{&c.VisibleAreas, "map_areas_visible", "Areas visible at the last surface computation."},
	}
	for _, g := range gauges {
		if *g.dst, err = registerGauge(reg, g.name, g.help); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveToggle counts a toggle by result.
func (c *Collector) ObserveToggle(err error) {
	if c == nil {
		return
	}
	result := "ok"
	var unknown *service.UnknownLayerError
	if errors.As(err, &unknown) {
		result = "unknown_layer"
	} else if err != nil {
		result = "error"
	}
	c.Toggles.WithLabelValues(result).Inc()
}

// ObserveVisible records the size of the last visible subset.
func (c *Collector) ObserveVisible(points, areas int) {
	if c == nil {
		return
	}
	c.VisiblePoints.Set(float64(points))
	c.VisibleAreas.Set(float64(areas))
}

// ObserveLoad records the outcome of loading and seeding.
func (c *Collector) ObserveLoad(e service.Entities, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.LoadFailures.Inc()
		return
	}
	c.LoadedPoints.Set(float64(len(e.Points)))
	c.LoadedAreas.Set(float64(len(e.Areas)))
	c.Layers.Set(float64(len(e.Layers)))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, name, help string) (prometheus.Counter, error) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, name, help string) (prometheus.Gauge, error) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
