package service

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
)

// ErrSourceNotFound is returned by Read for names that are not listed fixtures.
var ErrSourceNotFound = errors.New("source not found")

// IsFixtureName reports whether name has the extension the fixture loader
// reads. Listing and loading share it so every listed file is also loaded.
func IsFixtureName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".geojson")
}

// SourceService lists and reads the fixture files at the top level of a
// directory. Subdirectories and other extensions are ignored.
type SourceService struct {
	dir  string
	fsys fs.FS
}

func NewSourceService(fixturesDir string) *SourceService {
	return &SourceService{dir: fixturesDir, fsys: os.DirFS(fixturesDir)}
}

// FixturesDir returns the directory the service reads from.
func (s *SourceService) FixturesDir() string {
	return s.dir
}

// List returns the fixture files sorted by name. A missing directory lists
// as empty.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []SourceFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := make([]SourceFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsFixtureName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     humanSize(info.Size()),
			Bytes:    info.Size(),
			FileType: "GeoJSON",
		})
	}
	slices.SortFunc(files, func(a, b SourceFile) int { return cmp.Compare(a.Name, b.Name) })
	return files, nil
}

// Read returns the contents of the listed fixture name.
func (s *SourceService) Read(name string) ([]byte, error) {
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		return nil, ErrSourceNotFound
	}
	if !IsFixtureName(name) {
		return nil, ErrSourceNotFound
	}
	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSourceNotFound
	}
	return data, err
}

// humanSize formats n bytes with binary units, e.g. "2.0 KB".
func humanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	for _, unit := range "KMGTP" {
		v /= 1024
		if v < 1024 {
			return fmt.Sprintf("%.1f %cB", v, unit)
		}
	}
	return fmt.Sprintf("%.1f EB", v/1024)
}
