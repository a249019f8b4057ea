// Package db keeps a DuckDB catalog of the entities loaded for a session so
// they can be queried with SQL.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-map/internal/service"
)

// Config holds database configuration.
type Config struct {
	DataDir string
	// DBName selects a file under DataDir/duckdb; empty opens an in-memory database.
	DBName     string
	Extensions []string // e.g. "spatial"
}

// Open opens a DuckDB connection and loads the requested extensions.
// Extension failures are ignored; they may already be loaded or unavailable offline.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DBName != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		dsn = filepath.Join(duckdbDir, cfg.DBName+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	for _, ext := range cfg.Extensions {
		conn.Exec(fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext))
	}
	return conn, nil
}

const schema = `
CREATE OR REPLACE TABLE points (
	id VARCHAR PRIMARY KEY,
	lat DOUBLE,
	lng DOUBLE,
	category VARCHAR,
	name VARCHAR,
	description VARCHAR
);
CREATE OR REPLACE TABLE areas (
	id VARCHAR PRIMARY KEY,
	name VARCHAR,
	category VARCHAR,
	color VARCHAR,
	opacity DOUBLE,
	vertices INTEGER,
	coordinates VARCHAR
);`

// Seal stops conn from touching anything outside the database: file and
// network table functions (read_text, read_csv, COPY, ATTACH) fail, and the
// configuration is locked so queries cannot switch access back on. Both
// settings are global to the database, so every pooled connection is covered.
// Load extensions before sealing.
func Seal(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, "SET enable_external_access = false; SET lock_configuration = true;"); err != nil {
		return fmt.Errorf("sealing catalog: %w", err)
	}
	return nil
}

// Index replaces the points and areas tables with e.
func Index(ctx context.Context, conn *sql.DB, e service.Entities) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	for _, p := range e.Points {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO points VALUES (?, ?, ?, ?, ?, ?)",
			p.ID, p.Lat, p.Lng, string(p.Category), p.Name, p.Description,
		); err != nil {
			return fmt.Errorf("indexing point %q: %w", p.ID, err)
		}
	}

	for _, a := range e.Areas {
		coords, err := json.Marshal(a.Coordinates)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO areas VALUES (?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, string(a.Category), a.Color, a.Opacity, len(a.Coordinates), string(coords),
		); err != nil {
			return fmt.Errorf("indexing area %q: %w", a.ID, err)
		}
	}

	return tx.Commit()
}
