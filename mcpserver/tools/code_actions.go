package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterCodeActionsTool registers the code_actions tool
func RegisterCodeActionsTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("code_actions",
		mcp.WithDescription(`Get available code actions (quick fixes, refactorings) for a range in a Python file.

Cached diagnostics overlapping the range are forwarded to pyright so it can offer fixes for them. Positions are zero-based.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("start_line",
			mcp.Required(),
			mcp.Description("Start line (zero-based)")),
		mcp.WithNumber("start_char",
			mcp.Required(),
			mcp.Description("Start character (zero-based)")),
		mcp.WithNumber("end_line",
			mcp.Required(),
			mcp.Description("End line (zero-based)")),
		mcp.WithNumber("end_char",
			mcp.Required(),
			mcp.Description("End character (zero-based)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError("file_path parameter is required and must be a string"), nil
		}

		startLine, err := request.RequireInt("start_line")
		if err != nil {
			return mcp.NewToolResultError("start_line parameter is required and must be a number"), nil
		}
		startChar, err := request.RequireInt("start_char")
		if err != nil {
			return mcp.NewToolResultError("start_char parameter is required and must be a number"), nil
		}
		endLine, err := request.RequireInt("end_line")
		if err != nil {
			return mcp.NewToolResultError("end_line parameter is required and must be a number"), nil
		}
		endChar, err := request.RequireInt("end_char")
		if err != nil {
			return mcp.NewToolResultError("end_char parameter is required and must be a number"), nil
		}

		logger.Debug(fmt.Sprintf("code_actions: %s %d:%d-%d:%d", filePath, startLine, startChar, endLine, endChar))

		raw, err := bridge.CodeActions(ctx, filePath, startLine, startChar, endLine, endChar)
		if err != nil {
			return bridgeError("code_actions", err), nil
		}

		return rawResult(raw, "No code actions available")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered code_actions tool")
}
