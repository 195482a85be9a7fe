package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterReferencesTool registers the references tool
func RegisterReferencesTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("references",
		mcp.WithDescription(`Find all references to the symbol at a position in a Python file.

References are sorted by (file, line, character) for stable pagination. The response envelope contains:
- items: reference Locations, each with its absolute "offset" in the full result set
- totalItems, offset, limit, hasMore, nextOffset

Positions are zero-based.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Zero-based line number")),
		mcp.WithNumber("character",
			mcp.Required(),
			mcp.Description("Zero-based character offset in the line")),
		mcp.WithBoolean("include_declaration",
			mcp.Description("Whether to include the declaration itself (default: true)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum items to return (default: 50)")),
		mcp.WithNumber("offset",
			mcp.Description("Number of items to skip for pagination (default: 0)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, line, character, errResult := positionArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		includeDeclaration := request.GetBool("include_declaration", true)
		limit := request.GetInt("limit", 50)
		offset := request.GetInt("offset", 0)

		logger.Debug(fmt.Sprintf("references: %s:%d:%d (includeDeclaration=%t)", filePath, line, character, includeDeclaration))

		refs, err := bridge.References(ctx, filePath, line, character, includeDeclaration)
		if err != nil {
			return bridgeError("references", err), nil
		}

		return jsonResult(utils.Paginate(refs, offset, limit))
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered references tool")
}
