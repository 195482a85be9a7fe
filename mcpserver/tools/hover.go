package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterHoverTool registers the hover tool
func RegisterHoverTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("hover",
		mcp.WithDescription(`Get hover information (type, signature, documentation) for the symbol at a position in a Python file.

The file is opened in pyright automatically if it is not open yet. Positions are zero-based: the first character of the first line is line=0, character=0.

EXAMPLE:
file_path="src/app.py", line=10, character=4 → type information for the symbol at line 11, column 5`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Zero-based line number")),
		mcp.WithNumber("character",
			mcp.Required(),
			mcp.Description("Zero-based character offset in the line")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, line, character, errResult := positionArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		logger.Debug(fmt.Sprintf("hover: %s:%d:%d", filePath, line, character))

		raw, err := bridge.Hover(ctx, filePath, line, character)
		if err != nil {
			return bridgeError("hover", err), nil
		}

		return rawResult(raw, "No hover information available")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered hover tool")
}
