package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joeblew999/plat-map/internal/api"
	"github.com/joeblew999/plat-map/internal/api/viewer"
	"github.com/joeblew999/plat-map/internal/db"
	"github.com/joeblew999/plat-map/internal/fixture"
	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/logging"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/metrics"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory for static files and the viewer page

	FixturesDir  string   // directory of .geojson fixtures
	FixturesURL  string   // base URL of remote fixtures; takes precedence over FixturesDir
	FixturePaths []string // fixture paths under FixturesURL
	MappingFile  string   // optional YAML override of the category mapping
	MockFallback bool     // seed the mock entities when no fixtures load

	// Catalog indexes the loaded entities into an in-memory DuckDB.
	Catalog bool

	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// Server is the map HTTP server.
type Server struct {
	config   Config
	log      *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	state    *service.LayerState
	mapData  *mapview.MapData
	metrics  *metrics.Collector
	renderer *templates.Renderer
	source   string
	loadErr  error
}

// New creates a new map server and loads its entities. A fixture load
// failure is logged and reported by /api/v1/info; only configuration errors
// are returned.
func New(ctx context.Context, cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	mapping := fixture.DefaultMapping()
	if cfg.MappingFile != "" {
		if mapping, err = fixture.LoadMapping(cfg.MappingFile); err != nil {
			return nil, err
		}
	}

	renderer, err := templates.Default()
	if err != nil {
		return nil, fmt.Errorf("parsing fragment templates: %w", err)
	}
	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if _, statErr := os.Stat(fragmentsDir); statErr == nil {
			if err := renderer.Reload(os.DirFS(fragmentsDir)); err != nil {
				return nil, fmt.Errorf("loading fragment templates from %s: %w", fragmentsDir, err)
			}
			log.Info("loaded fragment templates", "dir", fragmentsDir)
		}
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-map API", "1.0.0")
	humaConfig.Info.Description = "Map layer visibility API: points, areas and the layers that show or hide them."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer(api.Links))

	bus := service.NewEventBus()
	s := &Server{
		config:   cfg,
		log:      log,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		bus:      bus,
		state:    service.NewLayerState(bus),
		metrics:  collector,
		renderer: renderer,
	}

	collections := s.load(ctx, mapping)
	s.mapData = mapview.New(s.state,
		mapview.WithMapping(mapping),
		mapview.WithCollections(collections),
		mapview.WithRecorder(collector),
	)

	if cfg.Catalog {
		s.openCatalog(ctx)
	}

	s.routes()
	return s, nil
}

// load runs the asynchronous fixture phase and then seeds the state.
func (s *Server) load(ctx context.Context, mapping fixture.Mapping) []*fixture.Collection {
	var (
		entities    service.Entities
		collections []*fixture.Collection
	)

	src := s.fixtureSource()
	switch {
	case src != nil:
		s.source = src.String()
		res, err := fixture.Load(ctx, fixture.NewReader(src), mapping)
		if err != nil {
			s.log.Error("fixture load failed", "source", s.source, "error", err)
			s.loadErr = err
			s.metrics.ObserveLoad(service.Entities{}, err)
			if !s.config.MockFallback {
				return nil
			}
			s.source = "mock"
			entities = service.MockEntities()
		} else {
			entities = res.Entities
			collections = res.Collections
		}
	case s.config.MockFallback:
		s.source = "mock"
		entities = service.MockEntities()
	default:
		s.source = "none"
	}

	if err := s.state.Seed(entities); err != nil {
		s.log.Error("seeding layer state failed", "source", s.source, "error", err)
		s.loadErr = err
		s.metrics.ObserveLoad(service.Entities{}, err)
		// Seed rejects the whole batch, so the state is still empty here.
		if !s.config.MockFallback || s.source == "mock" {
			return nil
		}
		s.source = "mock"
		collections = nil
		if err := s.state.Seed(service.MockEntities()); err != nil {
			return nil
		}
	}

	s.metrics.ObserveLoad(service.Entities{
		Points: s.state.Points(),
		Areas:  s.state.Areas(),
		Layers: s.state.Layers(),
	}, nil)
	s.log.Info("layer state seeded",
		"source", s.source,
		"points", len(entities.Points),
		"areas", len(entities.Areas),
		"layers", len(s.state.Layers()),
		"collections", len(collections),
	)
	return collections
}

func (s *Server) fixtureSource() fixture.Source {
	switch {
	case s.config.FixturesURL != "":
		return fixture.HTTPSource{BaseURL: s.config.FixturesURL, Paths: s.config.FixturePaths}
	case s.config.FixturesDir != "":
		return fixture.DirSource{Dir: s.config.FixturesDir}
	}
	return nil
}

func (s *Server) openCatalog(ctx context.Context) {
	conn, err := db.Open(db.Config{DataDir: s.config.DataDir})
	if err != nil {
		s.log.Warn("catalog unavailable", "error", err)
		return
	}
	if err := db.Index(ctx, conn, service.Entities{Points: s.state.Points(), Areas: s.state.Areas()}); err != nil {
		s.log.Warn("indexing catalog failed", "error", err)
		conn.Close()
		return
	}
	if err := db.Seal(ctx, conn); err != nil {
		s.log.Warn("catalog disabled", "error", err)
		conn.Close()
		return
	}
	s.db = conn
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// MapData returns the facade the server was built around.
func (s *Server) MapData() *mapview.MapData { return s.mapData }

// LoadErr returns the startup load failure, if any.
func (s *Server) LoadErr() error { return s.loadErr }

// Source describes where the entities were loaded from.
func (s *Server) Source() string { return s.source }

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	var sources *service.SourceService
	if s.config.FixturesDir != "" {
		sources = service.NewSourceService(s.config.FixturesDir)
	}
	api.RegisterRoutes(s.humaAPI, &api.Services{Map: s.mapData, Source: sources}, s.log)
	api.NewInfoHandler(s.source, s.loadErr, s.db != nil, s.mapData).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Control panel SSE routes using Huma + Datastar SDK
	viewer.NewHandler(s.mapData, s.bus, s.renderer, s.log).RegisterRoutes(s.humaAPI)
	humastar.Document(s.humaAPI, api.Links)

	s.mux.Handle("/metrics", s.metrics.Handler())

	// Static files and the viewer page
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-map",
		"status":  "running",
	})
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if s.config.WebDir == "" {
		http.NotFound(w, r)
		return
	}
	templatePath := filepath.Join(s.config.WebDir, "templates", "viewer.html")
	http.ServeFile(w, r, templatePath)
}
