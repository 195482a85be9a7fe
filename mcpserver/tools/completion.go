package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterCompletionTool registers the completion tool
func RegisterCompletionTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("completion",
		mcp.WithDescription(`Get code completions at a position in a Python file.

Results are sorted for stable ordering and paginated. The response envelope contains:
- items: completion items, each with its absolute "offset" in the full result set
- totalItems, offset, limit, hasMore, nextOffset

Use nextOffset as the offset of a follow-up call to fetch the next page. Positions are zero-based.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Zero-based line number")),
		mcp.WithNumber("character",
			mcp.Required(),
			mcp.Description("Zero-based character offset in the line")),
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

		limit := request.GetInt("limit", 50)
		offset := request.GetInt("offset", 0)

		logger.Debug(fmt.Sprintf("completion: %s:%d:%d (offset=%d limit=%d)", filePath, line, character, offset, limit))

		items, err := bridge.Completion(ctx, filePath, line, character)
		if err != nil {
			return bridgeError("completion", err), nil
		}

		return jsonResult(utils.Paginate(items, offset, limit))
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered completion tool")
}
