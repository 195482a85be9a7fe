package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/lsp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolServer is the subset of server.MCPServer the tool registrars need.
type ToolServer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// RegisterAllTools wires every pyright tool into the MCP server.
func RegisterAllTools(srv ToolServer, bridge interfaces.BridgeInterface) {
	RegisterHoverTool(srv, bridge)
	RegisterCompletionTool(srv, bridge)
	RegisterDefinitionTool(srv, bridge)
	RegisterTypeDefinitionTool(srv, bridge)
	RegisterImplementationTool(srv, bridge)
	RegisterReferencesTool(srv, bridge)
	RegisterDocumentSymbolsTool(srv, bridge)
	RegisterWorkspaceSymbolsTool(srv, bridge)
	RegisterDiagnosticsTool(srv, bridge)
	RegisterCodeActionsTool(srv, bridge)
	RegisterRenameTool(srv, bridge)
	RegisterSemanticTokensTool(srv, bridge)
	RegisterSignatureHelpTool(srv, bridge)
	RegisterFormatDocumentTool(srv, bridge)
	RegisterFormatRangeTool(srv, bridge)
	RegisterOrganizeImportsTool(srv, bridge)
	RegisterAddImportTool(srv, bridge)
	RegisterCreateConfigTool(srv, bridge)
	RegisterRestartServerTool(srv, bridge)
}

// positionArgs extracts the (file_path, line, character) triple shared by
// position-based tools. A non-nil result reports the first invalid argument.
func positionArgs(request mcp.CallToolRequest) (filePath string, line, character int, errResult *mcp.CallToolResult) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError("file_path parameter is required and must be a string")
	}

	line, err = request.RequireInt("line")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError("line parameter is required and must be a number")
	}

	character, err = request.RequireInt("character")
	if err != nil {
		return "", 0, 0, mcp.NewToolResultError("character parameter is required and must be a number")
	}

	return filePath, line, character, nil
}

// jsonResult marshals v into an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// rawResult wraps a verbatim pyright response. A null or empty response
// becomes an informative message instead of bare "null".
func rawResult(raw json.RawMessage, emptyMessage string) (*mcp.CallToolResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return mcp.NewToolResultText(emptyMessage), nil
	}

	var indented any
	if err := json.Unmarshal(raw, &indented); err != nil {
		return mcp.NewToolResultText(string(raw)), nil
	}

	return jsonResult(indented)
}

// bridgeError translates bridge failures into tool error results with
// actionable messages for the common cases.
func bridgeError(operation string, err error) *mcp.CallToolResult {
	var te *lsp.TimeoutError
	if errors.As(err, &te) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s timed out. The file might be large or pyright is still analyzing. Please try again.", operation))
	}

	var pt *lsp.ProcessTerminatedError
	if errors.As(err, &pt) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%s failed: the pyright process terminated. Use restart_server to recover.", operation))
	}

	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", operation, err))
}
