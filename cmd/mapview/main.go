package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/logging"
	"github.com/joeblew999/plat-map/internal/server"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --data-dir, --web-dir, --fixtures, --fixtures-url, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_FIXTURES, SERVICE_LOG_LEVEL, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir      string `doc:"Directory for map data files" default:".data"`
	WebDir       string `doc:"Path to web/ directory" default:"web"`
	Fixtures     string `doc:"Directory of GeoJSON fixtures" default:"fixtures"`
	FixturesURL  string `doc:"Base URL of remote GeoJSON fixtures (overrides --fixtures)"`
	FixturePaths string `doc:"Comma-separated fixture paths under --fixtures-url" default:"points.geojson,areas.geojson"`
	Mapping      string `doc:"YAML file overriding the category mapping"`
	Mock         bool   `doc:"Seed mock data when no fixtures load" default:"true"`
	Catalog      bool   `doc:"Index loaded entities into an in-memory DuckDB" default:"true"`
	LogLevel     string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat    string `doc:"Log format (text or json)" default:"text"`
}

func (o *Options) paths() []string {
	var out []string
	for _, p := range strings.Split(o.FixturePaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newServer(ctx context.Context, opts *Options, withCatalog bool) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		DataDir:      opts.DataDir,
		WebDir:       opts.WebDir,
		FixturesDir:  opts.Fixtures,
		FixturesURL:  opts.FixturesURL,
		FixturePaths: opts.paths(),
		MappingFile:  opts.Mapping,
		MockFallback: opts.Mock,
		Catalog:      withCatalog && opts.Catalog,
		Logger:       logging.New(logging.Config{Level: opts.LogLevel, Format: opts.LogFormat}),
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(context.Background(), opts, true)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-map API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Source:  %s\n", srv.Source())
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		})
	})

	cli.Root().Use = "mapview"
	cli.Root().Short = "Map layer visibility server"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(cmd.Context(), opts, false)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error building server: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// check subcommand: load fixtures and report what would be served
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load the configured fixtures and print a summary",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.Mock = false
			srv, err := newServer(cmd.Context(), opts, false)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if err := srv.LoadErr(); err != nil {
				fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
				os.Exit(1)
			}

			out := cmd.OutOrStdout()
			state := srv.MapData().State()
			fmt.Fprintf(out, "Source:      %s\n", srv.Source())
			fmt.Fprintf(out, "Collections: %d\n", len(srv.MapData().Collections()))
			fmt.Fprintf(out, "Points:      %d (%d visible)\n", len(state.Points()), len(state.VisiblePoints()))
			fmt.Fprintf(out, "Areas:       %d (%d visible)\n", len(state.Areas()), len(state.VisibleAreas()))
			for _, l := range state.Layers() {
				fmt.Fprintf(out, "  %-16s %-8s visible=%t\n", l.ID, l.Category, l.Visible)
			}
		}),
	}
	cli.Root().AddCommand(checkCmd)

	cli.Run()
}
