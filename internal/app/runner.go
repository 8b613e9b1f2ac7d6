package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mhi-server/internal/catalog"
	"github.com/sha1n/mhi-server/internal/config"
	"github.com/sha1n/mhi-server/internal/corpus"
	mcputil "github.com/sha1n/mhi-server/internal/mcp"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	// EnsureConfig bootstraps a config file in the given directory. Optional.
	EnsureConfig    func(dir string) (bool, error)
	LoadSettings    func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings   func(*config.Settings) error
	LoadCorpus      func(context.Context, *config.Settings) (*corpus.Corpus, error)
	CreateAdmin     func(*corpus.Corpus, *config.Settings) (*mcp.Server, func(), error)
	StartHTTPServer func(context.Context, *http.Server) error
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		EnsureConfig:    config.EnsureConfigFile,
		LoadSettings:    config.LoadSettingsWithFlags,
		ValidSettings:   config.ValidateSettings,
		LoadCorpus:      LoadCorpus,
		CreateAdmin:     CreateAdminServer,
		StartHTTPServer: StartHTTPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	if params.EnsureConfig != nil {
		if _, err := params.EnsureConfig("."); err != nil {
			slog.Warn("Failed to create config file from template", "error", err)
		}
	}

	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	level, err := config.ParseLogLevel(settings.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting MHI server", "version", version)
	config.Log(settings)
	slog.Debug("Resolved settings", "settings", config.SettingsLogValue(*settings))

	// The corpus must be complete before the first request is accepted
	c, err := params.LoadCorpus(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	var adminServer *mcp.Server
	if settings.Admin.Enabled {
		s, cleanup, err := params.CreateAdmin(c, settings)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}
		adminServer = s
	}

	srv, err := NewHTTPServer(c, settings, adminServer)
	if err != nil {
		return err
	}

	slog.Info("Starting HTTP server", "host", settings.Server.Host, "port", settings.Server.Port, "admin", adminServer != nil)
	return params.StartHTTPServer(ctx, srv)
}

// LoadCorpus loads the corpus from the configured data directory
func LoadCorpus(ctx context.Context, settings *config.Settings) (*corpus.Corpus, error) {
	return corpus.Load(ctx, settings.Server.DataDirectory, settings.Server.Subdirectories)
}

// CreateAdminServer creates the MCP server exposing the corpus tools
func CreateAdminServer(c *corpus.Corpus, settings *config.Settings) (*mcp.Server, func(), error) {
	cat, err := catalog.New(c, settings.Admin.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create corpus catalog: %w", err)
	}

	cleanup := func() {
		if err := cat.Close(); err != nil {
			slog.Error("Failed to close corpus catalog", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    "mhi-admin",
		Version: "1.0.0",
		Catalog: cat,
	})

	return server, cleanup, nil
}
