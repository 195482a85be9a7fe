package tools

import (
	"context"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterCreateConfigTool registers the create_config tool
func RegisterCreateConfigTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("create_config",
		mcp.WithDescription(`Create a starter pyrightconfig.json in the project root.

Writes a minimal configuration covering all .py files with basic type checking. Fails if a pyrightconfig.json already exists. Restart the server afterwards for the new configuration to take effect.`),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := bridge.CreateConfig()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create_config failed: %v", err)), nil
		}

		logger.Info(fmt.Sprintf("Created pyright config at %s", path))
		return mcp.NewToolResultText(fmt.Sprintf("Created %s", path)), nil
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered create_config tool")
}

// RegisterRestartServerTool registers the restart_server tool
func RegisterRestartServerTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	tool := mcp.NewTool("restart_server",
		mcp.WithDescription(`Restart the pyright language server process.

Use after editing pyrightconfig.json, switching interpreters, or if the server appears wedged. Open documents are re-opened lazily on the next request; cached diagnostics survive the restart until fresh ones arrive.`),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger.Info("Restarting pyright server on request")

		if err := bridge.RestartServer(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("restart failed: %v", err)), nil
		}

		return mcp.NewToolResultText("pyright server restarted successfully"), nil
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered restart_server tool")
}
