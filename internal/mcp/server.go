package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mhi-server/internal/catalog"
)

// ServerConfig contains configuration for creating the admin MCP server
type ServerConfig struct {
	Name    string
	Version string
	// Catalog backs the corpus tools. A nil catalog yields a server with no tools.
	Catalog *catalog.Catalog
}

// CreateServer creates the MCP server and registers the corpus tools
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Catalog != nil {
		catalog.RegisterTools(s, cfg.Catalog)
	}

	return s
}

// NewSSEHandler serves s to every SSE session.
func NewSSEHandler(s *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s
	}, nil)
}
