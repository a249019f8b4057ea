package fixture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-map/internal/service"
)

// LoadError reports a fixture that could not be fetched or parsed.
type LoadError struct {
	Source string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("loading %s from %s: %v", e.Path, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source lists and opens fixture documents.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	String() string
}

// DirSource reads *.geojson files from a directory.
type DirSource struct {
	Dir string
}

// List returns the fixture file names in lexical order.
func (s DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !service.IsFixtureName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Open opens a fixture file by name.
func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid fixture name %q", name)
	}
	return os.Open(filepath.Join(s.Dir, name))
}

func (s DirSource) String() string { return s.Dir }

// HTTPSource fetches fixtures with plain GET requests relative to BaseURL.
type HTTPSource struct {
	BaseURL string
	Paths   []string
	Client  *http.Client
}

// List returns the configured paths.
func (s HTTPSource) List(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.Paths...), nil
}

// Open fetches one fixture. Any non-2xx status is an error.
func (s HTTPSource) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, p)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to load %s: %s", p, resp.Status)
	}
	return resp.Body, nil
}

func (s HTTPSource) String() string { return s.BaseURL }

// Reader loads every fixture from a source.
type Reader struct {
	source Source
}

// NewReader creates a reader over source.
func NewReader(source Source) *Reader {
	return &Reader{source: source}
}

// Collections fetches and parses all fixtures concurrently. Results keep the
// source's listing order. The first failure cancels the rest and fails the
// whole call; no partial result is returned.
func (r *Reader) Collections(ctx context.Context) ([]*Collection, error) {
	paths, err := r.source.List(ctx)
	if err != nil {
		return nil, &LoadError{Source: r.source.String(), Err: err}
	}

	collections := make([]*Collection, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			c, err := r.load(gctx, p)
			if err != nil {
				return &LoadError{Source: r.source.String(), Path: p, Err: err}
			}
			collections[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *Reader) load(ctx context.Context, p string) (*Collection, error) {
	rc, err := r.source.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return ParseCollection(p, data)
}
