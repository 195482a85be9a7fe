package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/yosida95/uritemplate/v3"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
)

// ResourceServer is the subset of server.MCPServer the registry needs.
type ResourceServer interface {
	AddResourceTemplate(template mcp.ResourceTemplate, handler server.ResourceTemplateHandlerFunc)
	SendNotificationToAllClients(method string, params map[string]any)
}

// ResourceRegistry manages all registered MCP resources
// Similar to lsp/capabilities/registry.go - resources auto-register via init()
type ResourceRegistry struct {
	mu        sync.RWMutex
	resources []RegisteredResource
	bridge    interfaces.BridgeInterface
	mcpServer ResourceServer
}

// Global registry instance - resources register themselves here via init()
var Registry = &ResourceRegistry{
	resources: make([]RegisteredResource, 0),
}

// Register adds a resource definition to the registry
// Called from init() functions in resource files (diagnostics.go, server_status.go)
func (r *ResourceRegistry) Register(resource *ResourceDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if resource.Name == "" {
		logger.Warn("Skipping resource registration: Name is empty")
		return
	}
	if resource.UriTemplate == "" {
		logger.Warn(fmt.Sprintf("Skipping resource %s: UriTemplate is empty", resource.Name))
		return
	}
	if resource.ReadHandler == nil {
		logger.Warn(fmt.Sprintf("Skipping resource %s: ReadHandler is nil", resource.Name))
		return
	}

	r.resources = append(r.resources, RegisteredResource{
		Definition: resource,
	})

	logger.Debug(fmt.Sprintf("Registered resource: %s (template: %s)", resource.Name, resource.UriTemplate))
}

// Build registers all resources with the MCP server and sets up handlers
// Called once during server initialization, similar to capabilities.Registry.Build()
func (r *ResourceRegistry) Build(mcpServer ResourceServer, bridge interfaces.BridgeInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bridge = bridge
	r.mcpServer = mcpServer

	for _, registered := range r.resources {
		res := registered.Definition

		uriTemplate, err := uritemplate.New(res.UriTemplate)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to create URI template for %s: %v", res.Name, err))
			return fmt.Errorf("failed to create URI template for %s: %w", res.Name, err)
		}

		resourceTemplate := mcp.ResourceTemplate{
			URITemplate: &mcp.URITemplate{Template: uriTemplate},
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}

		// Wrap the read handler to match ResourceTemplateHandlerFunc
		handlerWrapper := func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			result, err := res.ReadHandler(request.Params.URI, bridge)
			if err != nil {
				return nil, err
			}

			// Strings pass through; everything else is marshaled to JSON
			text, ok := result.(string)
			if !ok {
				jsonBytes, err := json.Marshal(result)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal result: %w", err)
				}
				text = string(jsonBytes)
			}

			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      request.Params.URI,
					MIMEType: res.MimeType,
					Text:     text,
				},
			}, nil
		}

		mcpServer.AddResourceTemplate(resourceTemplate, handlerWrapper)

		// OnSetup wires bridge events to Registry.Notify
		if res.OnSetup != nil {
			if err := res.OnSetup(bridge); err != nil {
				logger.Error(fmt.Sprintf("Failed to setup notifications for resource %s: %v", res.Name, err))
				return fmt.Errorf("failed to setup resource %s: %w", res.Name, err)
			}
		}

		logger.Info(fmt.Sprintf("Built resource: %s (template: %s)", res.Name, res.UriTemplate))
	}

	logger.Info(fmt.Sprintf("Resource registry built: %d resources registered", len(r.resources)))
	return nil
}

// Notify announces that a resource's content changed. Every connected client
// receives notifications/resources/updated; mcp-go has no per-client
// subscription routing, so clients filter on their end.
func (r *ResourceRegistry) Notify(uri string) {
	r.mu.RLock()
	mcpServer := r.mcpServer
	r.mu.RUnlock()

	if mcpServer == nil {
		logger.Warn("MCP server not set, cannot send resource notifications")
		return
	}

	logger.Debug(fmt.Sprintf("Resource updated, notifying clients: %s", uri))

	mcpServer.SendNotificationToAllClients("notifications/resources/updated", map[string]any{
		"uri": uri,
	})
}
