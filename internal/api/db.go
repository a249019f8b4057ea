package api

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// DBHandler exposes the DuckDB catalog of loaded entities.
type DBHandler struct {
	db *sql.DB
}

// NewDBHandler creates a new catalog handler. db may be nil.
func NewDBHandler(db *sql.DB) *DBHandler {
	return &DBHandler{db: db}
}

// RegisterRoutes registers catalog routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("catalog"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("catalog"))
}

type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// ListTables returns the catalog tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Catalog not available")
	}

	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, huma.Error500InternalServerError("Failed to read table name", err)
		}
		tables = append(tables, name)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, rows.Err()
}

type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL query" example:"SELECT category, count(*) FROM points GROUP BY category"`
	}
}

type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query runs a read-only query against the catalog.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Catalog not available")
	}
	if !readOnly(input.Body.Query) {
		return nil, huma.Error422UnprocessableEntity("only SELECT, WITH, SHOW and DESCRIBE queries are allowed")
	}

	rows, err := h.db.QueryContext(ctx, input.Body.Query)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get columns", err)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, huma.Error500InternalServerError("Failed to scan row", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}

	return &struct{ Body QueryBody }{Body: QueryBody{
		Columns: columns,
		Rows:    results,
		Count:   len(results),
	}}, nil
}

func readOnly(q string) bool {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "SHOW", "DESCRIBE", "SUMMARIZE":
		return true
	}
	return false
}
