package resources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"
)

// init auto-registers the diagnostics resource when the package is imported
// This follows the same pattern as lsp/capabilities/features.go
func init() {
	Registry.Register(&ResourceDefinition{
		Name:        "diagnostics",
		UriTemplate: "diagnostics://{uri}",
		Description: "Cached pyright diagnostics for a specific file. Use the pattern diagnostics://file:///path/to/file.py",
		MimeType:    "application/json",
		ReadHandler: handleDiagnosticsRead,
		OnSetup:     setupDiagnosticsNotifications,
	})
}

// handleDiagnosticsRead serves the diagnostics cache for one file. The file
// must have been opened by an earlier tool call for the cache to hold
// anything; an unknown file yields an empty list, not an error.
func handleDiagnosticsRead(uri string, bridge interfaces.BridgeInterface) (interface{}, error) {
	logger.Debug(fmt.Sprintf("Diagnostics resource read for URI: %s", uri))

	fileURI, ok := strings.CutPrefix(uri, "diagnostics://")
	if !ok || fileURI == "" {
		return nil, fmt.Errorf("invalid diagnostics resource URI: %s", uri)
	}

	// Accept both plain paths and file:// URIs in the template variable
	fileURI = utils.NormalizeURI(fileURI)

	diagnostics := bridge.CachedDiagnostics(fileURI)
	if diagnostics == nil {
		diagnostics = []map[string]any{}
	}

	payload := map[string]any{
		"uri":         fileURI,
		"diagnostics": diagnostics,
	}

	diagnosticsJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	return string(diagnosticsJSON), nil
}

// setupDiagnosticsNotifications wires the bridge's diagnostics callback to
// resource update notifications, so clients learn about new pyright output
// without polling.
func setupDiagnosticsNotifications(bridge interfaces.BridgeInterface) error {
	logger.Debug("Setting up diagnostics push notifications")

	bridge.OnDiagnosticsChanged(func(fileURI string) {
		resourceURI := "diagnostics://" + fileURI
		logger.Debug(fmt.Sprintf("Diagnostics changed, notifying subscribers: %s", resourceURI))

		Registry.Notify(resourceURI)
	})

	logger.Info("Diagnostics push notifications enabled")
	return nil
}
