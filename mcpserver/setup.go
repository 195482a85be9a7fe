package mcpserver

import (
	"context"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/mcpserver/resources"
	"github.com/jonmmease/jons-pyright-mcp/mcpserver/tools"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SetupMCPServer configures the MCP server with every pyright tool and resource
func SetupMCPServer(bridge interfaces.BridgeInterface) *server.MCPServer {
	hooks := &server.Hooks{}

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error("onError:", method, id, err)
	})
	hooks.AddAfterInitialize(func(ctx context.Context, id any, message *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info("MCP handshake complete, waiting for initialized notification")
	})
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest) {
		logger.Debug("beforeCallTool:", id, message.Params.Name)
	})
	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result *mcp.CallToolResult) {
		logger.Debug("afterCallTool:", id, message.Params.Name)
	})

	mcpServer := server.NewMCPServer(
		"jons-pyright-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithHooks(hooks),
		server.WithInstructions(`This MCP server exposes pyright's Python static analysis over MCP tools.

## Usage

Point tools at Python files by path (absolute or relative to the project root). Files are opened in pyright automatically on first use; there is no open/close lifecycle to manage. All line and character positions are zero-based, matching LSP.

1.  **Understanding code**: hover, signature_help, document_symbols, workspace_symbols, semantic_tokens.

2.  **Navigation**: definition, type_definition, implementation, references. List results are paginated; pass offset/limit and follow nextOffset until hasMore is false.

3.  **Diagnostics**: the diagnostics tool serves pyright's latest published errors and warnings from a cache. Results appear after a file has been touched by any tool; give pyright a moment to analyze after the first request on a file. The diagnostics://{uri} resource serves the same cache and pushes update notifications.

4.  **Editing**: completion, code_actions, rename, add_import, organize_imports, format_document, format_range. Edit-producing tools return WorkspaceEdits or TextEdits that are NOT applied to disk; review and apply them yourself.

5.  **Project management**: create_config writes a starter pyrightconfig.json; restart_server restarts pyright after configuration changes. The pyright://server/status resource reports lifecycle state and request metrics.`),
	)

	// Resources auto-register via init() in mcpserver/resources and are
	// wired to the server here
	if err := resources.Registry.Build(mcpServer, bridge); err != nil {
		logger.Error("Failed to build resource registry", err)
	}

	tools.RegisterAllTools(mcpServer, bridge)

	return mcpServer
}
