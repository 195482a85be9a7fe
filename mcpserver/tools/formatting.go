package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterFormatDocumentTool registers the format_document tool
func RegisterFormatDocumentTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("format_document",
		mcp.WithDescription(`Format an entire Python file.

Returns an array of TextEdits describing the changes. The edits are NOT applied to disk; apply them yourself. Note that pyright's formatting support is limited; if the server offers no formatter the result is empty.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("tab_size",
			mcp.Description("Indentation size in spaces (default 4)")),
		mcp.WithBoolean("insert_spaces",
			mcp.Description("Indent with spaces instead of tabs (default true)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := request.RequireString("file_path")
		if err != nil {
			return mcp.NewToolResultError("file_path parameter is required and must be a string"), nil
		}
		tabSize := request.GetInt("tab_size", 4)
		insertSpaces := request.GetBool("insert_spaces", true)

		logger.Debug(fmt.Sprintf("format_document: %s", filePath))

		raw, err := bridge.FormatDocument(ctx, filePath, tabSize, insertSpaces)
		if err != nil {
			return bridgeError("format_document", err), nil
		}

		return rawResult(raw, "No formatting changes")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered format_document tool")
}

// RegisterFormatRangeTool registers the format_range tool
func RegisterFormatRangeTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("format_range",
		mcp.WithDescription(`Format a range within a Python file.

Same as format_document but restricted to the given zero-based range. Returns an array of TextEdits; the edits are NOT applied to disk.`),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the Python file (absolute or relative)")),
		mcp.WithNumber("start_line",
			mcp.Required(),
			mcp.Description("Zero-based start line of the range")),
		mcp.WithNumber("start_char",
			mcp.Required(),
			mcp.Description("Zero-based start character of the range")),
		mcp.WithNumber("end_line",
			mcp.Required(),
			mcp.Description("Zero-based end line of the range")),
		mcp.WithNumber("end_char",
			mcp.Required(),
			mcp.Description("Zero-based end character of the range")),
		mcp.WithNumber("tab_size",
			mcp.Description("Indentation size in spaces (default 4)")),
		mcp.WithBoolean("insert_spaces",
			mcp.Description("Indent with spaces instead of tabs (default true)")),
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
		tabSize := request.GetInt("tab_size", 4)
		insertSpaces := request.GetBool("insert_spaces", true)

		logger.Debug(fmt.Sprintf("format_range: %s %d:%d-%d:%d", filePath, startLine, startChar, endLine, endChar))

		raw, err := bridge.FormatRange(ctx, filePath, startLine, startChar, endLine, endChar, tabSize, insertSpaces)
		if err != nil {
			return bridgeError("format_range", err), nil
		}

		return rawResult(raw, "No formatting changes")
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered format_range tool")
}
