package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mhi-server/internal/corpus"
)

// ResolveArgument defines resolve parameters.
type ResolveArgument struct {
	Filename string `json:"filename" jsonschema_description:"Filename as the client requests it (e.g., pc12_gard_07.dat)"`
}

// ResolveHandler handles the resolve MCP tool. It answers with the same
// resolution the content routes use, without returning the payload.
type ResolveHandler struct {
	catalog *Catalog
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(catalog *Catalog) *ResolveHandler {
	return &ResolveHandler{
		catalog: catalog,
	}
}

// Handle resolves a filename and describes the outcome.
func (h *ResolveHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ResolveArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Filename) == "" {
		return errorResult("Filename cannot be empty"), nil, nil
	}

	out := h.catalog.Corpus().Resolve(args.Filename)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Requested**: `%s`\n", args.Filename))
	sb.WriteString(fmt.Sprintf("**Outcome**: %s\n", out.Kind))
	switch out.Kind {
	case corpus.ExactHit, corpus.PlaceholderHit:
		sb.WriteString(fmt.Sprintf("**Served**: `%s`\n", out.Filename))
		sb.WriteString(fmt.Sprintf("**Size**: %s (%d bytes)\n", humanize.IBytes(uint64(len(out.Data))), len(out.Data)))
	default:
		if group, ok := corpus.GroupKey(args.Filename); ok {
			sb.WriteString(fmt.Sprintf("No entry in placeholder group `%s`.\n", group))
		}
		sb.WriteString("The client receives an empty success response.\n")
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ResolveHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "resolve_file",
		Description: "Show which corpus file the server would serve for a requested filename",
	}
}

// RegisterResolveTool registers the resolve tool with an MCP server.
func RegisterResolveTool(server *mcp.Server, catalog *Catalog) {
	handler := NewResolveHandler(catalog)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
