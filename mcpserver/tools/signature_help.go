package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterSignatureHelpTool registers the signature_help tool
func RegisterSignatureHelpTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("signature_help",
		mcp.WithDescription(`Get signature help for a function call at a position.

Point at a position inside a call's argument list to get the overloads of the function being called, their parameters with documentation, and which parameter is active. Positions are zero-based.`),
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

		logger.Debug(fmt.Sprintf("signature_help: %s:%d:%d", filePath, line, character))

		raw, err := bridge.SignatureHelp(ctx, filePath, line, character)
		if err != nil {
			return bridgeError("signature_help", err), nil
		}

		return rawResult(raw, "No signature help available at this position")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered signature_help tool")
}
