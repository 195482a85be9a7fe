package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterRenameTool registers the rename tool
func RegisterRenameTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("rename",
		mcp.WithDescription(`Rename the symbol at a position and all of its references.

The position is validated first; renaming a keyword, literal, or import of an external library fails cleanly. Returns a WorkspaceEdit describing every change across every affected file. The edit is NOT applied; inspect it and apply the changes yourself. Positions are zero-based.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Zero-based line number")),
		mcp.WithNumber("character",
			mcp.Required(),
			mcp.Description("Zero-based character offset in the line")),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("New name for the symbol")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, line, character, errResult := positionArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		newName, err := request.RequireString("new_name")
		if err != nil {
			return mcp.NewToolResultError("new_name parameter is required and must be a string"), nil
		}

		logger.Debug(fmt.Sprintf("rename: %s:%d:%d -> %q", filePath, line, character, newName))

		raw, err := bridge.Rename(ctx, filePath, line, character, newName)
		if err != nil {
			if errors.Is(err, interfaces.ErrCannotRename) {
				return mcp.NewToolResultError("Cannot rename at this position"), nil
			}
			return bridgeError("rename", err), nil
		}

		return rawResult(raw, "No changes needed")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered rename tool")
}
