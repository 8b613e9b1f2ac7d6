package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatsArgument takes no parameters.
type StatsArgument struct{}

// StatsHandler handles the corpus statistics MCP tool.
type StatsHandler struct {
	catalog *Catalog
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(catalog *Catalog) *StatsHandler {
	return &StatsHandler{
		catalog: catalog,
	}
}

// Handle reports load diagnostics of the corpus.
func (h *StatsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatsArgument) (*mcp.CallToolResult, any, error) {
	stats := h.catalog.Corpus().Stats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Files**: %d\n", stats.Files))
	sb.WriteString(fmt.Sprintf("**Size**: %s\n", humanize.IBytes(uint64(stats.TotalBytes))))
	sb.WriteString(fmt.Sprintf("**Placeholder groups**: %d\n", stats.Groups))
	sb.WriteString(fmt.Sprintf("**Unreadable files**: %d\n", stats.Unreadable))

	if len(stats.Subdirectories) > 0 {
		sb.WriteString("\n**Subdirectories** (later entries win):\n")
		for _, sub := range stats.Subdirectories {
			if sub.Missing {
				sb.WriteString(fmt.Sprintf("- %s: missing\n", sub.Name))
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: %d files\n", sub.Name, sub.Files))
		}
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *StatsHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "corpus_stats",
		Description: "Report how many files were loaded, their total size and per-directory counts",
	}
}

// RegisterStatsTool registers the stats tool with an MCP server.
func RegisterStatsTool(server *mcp.Server, catalog *Catalog) {
	handler := NewStatsHandler(catalog)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// RegisterTools registers every catalog tool with an MCP server.
func RegisterTools(server *mcp.Server, catalog *Catalog) {
	RegisterResolveTool(server, catalog)
	RegisterSearchTool(server, catalog)
	RegisterStatsTool(server, catalog)
}
