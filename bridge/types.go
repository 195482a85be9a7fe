package bridge

import (
	"sync"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
)

// PyrightBridge connects the MCP tool surface to a single pyright language
// server. It owns the document lifecycle (files are opened lazily before the
// first request that touches them) and caches the diagnostics pyright pushes.
type PyrightBridge struct {
	client      interfaces.LanguageClientInterface
	projectRoot string
	command     string
	config      map[string]any

	mu            sync.Mutex
	openDocuments map[string]bool

	diagMu      sync.RWMutex
	diagnostics map[string][]map[string]any

	callbackMu          sync.RWMutex
	diagnosticsCallback func(uri string)
}

var _ interfaces.BridgeInterface = (*PyrightBridge)(nil)
