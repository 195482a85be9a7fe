package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// The three navigation tools share one request shape, so they are registered
// through a common helper.

type navigationQuery func(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)

func registerNavigationTool(srv ToolServer, name, description, emptyMessage string, query navigationQuery) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
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

		logger.Debug(fmt.Sprintf("%s: %s:%d:%d", name, filePath, line, character))

		raw, err := query(ctx, filePath, line, character)
		if err != nil {
			return bridgeError(name, err), nil
		}

		return rawResult(raw, emptyMessage)
	}

	srv.AddTool(tool, handler)
	logger.Debug("Registered " + name + " tool")
}

// RegisterDefinitionTool registers the definition tool
func RegisterDefinitionTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	registerNavigationTool(srv,
		"definition",
		`Go to the definition of the symbol at a position in a Python file.

Returns the Location (or list of Locations) where the symbol is defined. Positions are zero-based.`,
		"No definition found",
		bridge.Definition)
}

// RegisterTypeDefinitionTool registers the type_definition tool
func RegisterTypeDefinitionTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	registerNavigationTool(srv,
		"type_definition",
		`Go to the definition of the TYPE of the symbol at a position in a Python file.

For a variable of type MyClass this returns where MyClass is defined, not where the variable is assigned. Positions are zero-based.`,
		"No type definition found",
		bridge.TypeDefinition)
}

// RegisterImplementationTool registers the implementation tool
func RegisterImplementationTool(srv ToolServer, bridge interfaces.BridgeInterface) {
	registerNavigationTool(srv,
		"implementation",
		`Find implementations of the class or protocol at a position in a Python file.

Useful for abstract base classes and Protocol types: returns the Locations of concrete implementations. Positions are zero-based.`,
		"No implementations found",
		bridge.Implementation)
}
