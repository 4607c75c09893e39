// Package mcp parses MCP command flags and serves the story tools over stdio or HTTP.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	platformcmd "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/cmd"
	mcpservice "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/mcp/service"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/app"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath       string   `env:"USS_STORY_DB_PATH"     envDefault:"data/story.db"`
	Transport    string   `env:"USS_MCP_TRANSPORT"     envDefault:"stdio"`
	HTTPAddr     string   `env:"USS_MCP_HTTP_ADDR"     envDefault:"localhost:8091"`
	AllowedHosts []string `env:"USS_MCP_ALLOWED_HOSTS" envSeparator:","`
	APIToken     string   `env:"USS_MCP_API_TOKEN"`
	MinGapMs     int64    `env:"USS_BEAT_MIN_GAP_MS"   envDefault:"200"`
}

// ParseConfig parses environment and flags into a Config. Flags override the
// environment, which overrides the built-in defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, fmt.Errorf("flag parser is required")
	}

	var cfg Config
	fs.StringVar(&cfg.DBPath, "db", "", "story SQLite database path (default $USS_STORY_DB_PATH or data/story.db)")
	fs.StringVar(&cfg.Transport, "transport", "", "Transport type: stdio or http (default $USS_MCP_TRANSPORT or stdio)")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", "", "HTTP server address for the HTTP transport (default $USS_MCP_HTTP_ADDR or localhost:8091)")
	fs.Int64Var(&cfg.MinGapMs, "min-gap-ms", 0, "minimum spacing between beat markers in milliseconds (default $USS_BEAT_MIN_GAP_MS or 200)")
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	if cfg.MinGapMs < 0 {
		return Config{}, fmt.Errorf("min gap must be non-negative, got %d", cfg.MinGapMs)
	}
	return cfg, nil
}

// Run opens the story store and serves MCP until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open story store: %w", err)
		}
		defer store.Close()

		service, err := app.NewService(store, app.WithMinGapMs(cfg.MinGapMs))
		if err != nil {
			return err
		}
		return mcpservice.Run(ctx, service, mcpservice.Config{
			Transport:    mcpservice.TransportKind(cfg.Transport),
			HTTPAddr:     cfg.HTTPAddr,
			AllowedHosts: cfg.AllowedHosts,
			AuthToken:    cfg.APIToken,
			MinGapMs:     cfg.MinGapMs,
		})
	})
}
