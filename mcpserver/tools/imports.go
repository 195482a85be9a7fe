package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterOrganizeImportsTool registers the organize_imports tool
func RegisterOrganizeImportsTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("organize_imports",
		mcp.WithDescription(`Sort and deduplicate the import block of a Python file.

Runs pyright's organize imports command and returns the TextEdits for the file as a map of URI to edit list. The edits are NOT applied to disk. Returns an empty result when the imports are already organized.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError("file_path parameter is required and must be a string"), nil
		}

		logger.Debug(fmt.Sprintf("organize_imports: %s", filePath))

		raw, err := bridge.OrganizeImports(ctx, filePath)
		if err != nil {
			return bridgeError("organize_imports", err), nil
		}

		return rawResult(raw, "Imports are already organized")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered organize_imports tool")
}

// RegisterAddImportTool registers the add_import tool
func RegisterAddImportTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("add_import",
		mcp.WithDescription(`Add the missing import for an unresolved symbol at a position.

Point at a name pyright reports as undefined; the tool picks pyright's import quick fix for it and returns the WorkspaceEdit that would add the import statement. The edit is NOT applied to disk. Positions are zero-based.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("Zero-based line number of the unresolved symbol")),
		mcp.WithNumber("character",
			mcp.Required(),
			mcp.Description("Zero-based character offset of the unresolved symbol")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, line, character, errResult := positionArgs(request)
		if errResult != nil {
			return errResult, nil
		}

		logger.Debug(fmt.Sprintf("add_import: %s:%d:%d", filePath, line, character))

		raw, err := bridge.AddImport(ctx, filePath, line, character)
		if err != nil {
			if errors.Is(err, interfaces.ErrNoImportAction) {
				return mcp.NewToolResultError("No import action available at this position"), nil
			}
			return bridgeError("add_import", err), nil
		}

		return rawResult(raw, "No import action available at this position")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered add_import tool")
}
