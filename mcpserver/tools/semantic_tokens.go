package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterSemanticTokensTool registers the semantic_tokens tool
func RegisterSemanticTokensTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("semantic_tokens",
		mcp.WithDescription(`Get semantic tokens for an entire Python file.

Returns the raw LSP semantic tokens response: a "data" array of integers in groups of five (deltaLine, deltaStartChar, length, tokenType, tokenModifiers). The token type and modifier indexes refer to the legend pyright advertised at startup.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError("file_path parameter is required and must be a string"), nil
		}

		logger.Debug(fmt.Sprintf("semantic_tokens: %s", filePath))

		raw, err := bridge.SemanticTokens(ctx, filePath)
		if err != nil {
			return bridgeError("semantic_tokens", err), nil
		}

		return rawResult(raw, "No semantic tokens available")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered semantic_tokens tool")
}
