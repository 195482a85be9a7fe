package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterDocumentSymbolsTool registers the document_symbols tool
func RegisterDocumentSymbolsTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("document_symbols",
		mcp.WithDescription(`Get all symbols (classes, functions, methods, variables) in a Python file.

Hierarchical symbols are flattened: methods and nested definitions appear as their own items carrying their parent under "containerName". Symbols are sorted by position for stable pagination.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum items to return (default: 50)")),
		mcp.WithNumber("offset",
			mcp.Description("Number of items to skip for pagination (default: 0)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError("file_path parameter is required and must be a string"), nil
		}

		limit := request.GetInt("limit", 50)
		offset := request.GetInt("offset", 0)

		logger.Debug("document_symbols: " + filePath)

		symbols, err := bridge.DocumentSymbols(ctx, filePath)
		if err != nil {
			return bridgeError("document_symbols", err), nil
		}

		return jsonResult(utils.Paginate(symbols, offset, limit))
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered document_symbols tool")
}

// RegisterWorkspaceSymbolsTool registers the workspace_symbols tool
func RegisterWorkspaceSymbolsTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("workspace_symbols",
		mcp.WithDescription(`Search for symbols across the entire workspace.

The query can be a partial name; pyright performs fuzzy matching. Results are sorted by (name, file, line) for stable pagination.`),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (can be a partial symbol name)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum items to return (default: 50)")),
		mcp.WithNumber("offset",
			mcp.Description("Number of items to skip for pagination (default: 0)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query parameter is required and must be a string"), nil
		}

		limit := request.GetInt("limit", 50)
		offset := request.GetInt("offset", 0)

		logger.Debug(fmt.Sprintf("workspace_symbols: %q", query))

		symbols, err := bridge.WorkspaceSymbols(ctx, query)
		if err != nil {
			return bridgeError("workspace_symbols", err), nil
		}

		return jsonResult(utils.Paginate(symbols, offset, limit))
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered workspace_symbols tool")
}
