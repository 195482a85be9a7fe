package resources

import (
	"encoding/json"
	"fmt"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
)

// init auto-registers the pyright server status resource
func init() {
	Registry.Register(&ResourceDefinition{
		Name:        "server-status",
		UriTemplate: "pyright://server/status",
		Description: "Lifecycle state and request metrics for the pyright language server",
		MimeType:    "application/json",
		ReadHandler: handleServerStatusRead,
	})
}

// handleServerStatusRead serves a snapshot of the bridge's server state
func handleServerStatusRead(uri string, bridge interfaces.BridgeInterface) (interface{}, error) {
	logger.Debug(fmt.Sprintf("Server status resource read for URI: %s", uri))

	if uri != "pyright://server/status" {
		return nil, fmt.Errorf("invalid server status resource URI: %s", uri)
	}

	status := bridge.ServerStatus()

	statusJSON, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}

	return string(statusJSON), nil
}
