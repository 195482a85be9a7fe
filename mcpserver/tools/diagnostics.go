package tools

import (
	"context"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterDiagnosticsTool registers the diagnostics tool
func RegisterDiagnosticsTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("diagnostics",
		mcp.WithDescription(`Get current diagnostics (errors and warnings) for one file or the whole workspace.

Diagnostics are pushed by pyright as it analyzes and served from a cache, so results are immediate. When file_path is given the file is opened first, which triggers analysis; allow 1-2 seconds for fresh diagnostics on a file pyright has not seen yet.

Each item carries its file under "uri". Results are sorted by (file, severity, position), so errors come before warnings within a file.`),
		mcp.WithString("file_path",
			mcp.Description("Optional path to a specific file. Omit to get diagnostics for all analyzed files.")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum items to return (default: 50)")),
		mcp.WithNumber("offset",
			mcp.Description("Number of items to skip for pagination (default: 0)")),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath := request.GetString("file_path", "")
		limit := request.GetInt("limit", 50)
		offset := request.GetInt("offset", 0)

		logger.Debug("diagnostics: " + filePath)

		diags, err := bridge.Diagnostics(ctx, filePath)
		if err != nil {
			return bridgeError("diagnostics", err), nil
		}

		return jsonResult(utils.Paginate(diags, offset, limit))
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered diagnostics tool")
}
