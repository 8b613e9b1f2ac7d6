package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mhi-server/internal/domain"
)

// SearchHandler handles the search MCP tool.
type SearchHandler struct {
	catalog *Catalog
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(catalog *Catalog) *SearchHandler {
	return &SearchHandler{
		catalog: catalog,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	results, err := h.catalog.Search(args)
	if errors.Is(err, ErrEmptyQuery) {
		return errorResult("Query cannot be empty; provide a query, group or extension"), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return h.formatResults(results, describe(args)), nil, nil
}

// describe renders the search criteria for result headers.
func describe(args SearchArgument) string {
	var parts []string
	if args.Query != "" {
		parts = append(parts, args.Query)
	}
	if args.Group != "" {
		parts = append(parts, "group="+args.Group)
	}
	if args.Extension != "" {
		parts = append(parts, "extension="+strings.TrimPrefix(args.Extension, "."))
	}
	return strings.Join(parts, " ")
}

// formatResults formats Bleve search results for MCP response.
func (h *SearchHandler) formatResults(results *bleve.SearchResult, criteria string) *mcp.CallToolResult {
	if results.Total == 0 {
		return textResult(fmt.Sprintf("No corpus entries found for: %s", criteria))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d entries for '%s':\n\n", results.Total, criteria))

	for i, hit := range results.Hits {
		filename, _ := hit.Fields[domain.EntryFieldFilename].(string)
		subdir, _ := hit.Fields[domain.EntryFieldSubdirectory].(string)
		group, _ := hit.Fields[domain.EntryFieldGroup].(string)
		size, _ := hit.Fields[domain.EntryFieldSize].(float64)

		sb.WriteString(fmt.Sprintf("%d. %s (%s", i+1, filename, humanize.IBytes(uint64(size))))
		if subdir != "" {
			sb.WriteString(", " + subdir)
		}
		if group != "" {
			sb.WriteString(", group " + group)
		}
		sb.WriteString(")\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more entries\n", results.Total-uint64(len(results.Hits))))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_corpus",
		Description: "Search corpus filenames by pattern, placeholder group or extension",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, catalog *Catalog) {
	handler := NewSearchHandler(catalog)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}
