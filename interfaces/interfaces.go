package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonmmease/jons-pyright-mcp/lsp"

	"github.com/myleshyson/lsprotocol-go/protocol"
)

// LanguageClientInterface abstracts the pyright process handle so the bridge
// can be tested against a fake client.
type LanguageClientInterface interface {
	Start(ctx context.Context) error
	Call(ctx context.Context, method string, params, result any) error
	CallWithTimeout(ctx context.Context, method string, params, result any, timeout time.Duration) error
	Notify(method string, params any) error
	OnNotification(method string, handler lsp.NotificationHandler)
	Restart(ctx context.Context) error
	Close() error
	Status() lsp.ClientStatus
	Metrics() (total, failed int64)
	ServerCapabilities() protocol.ServerCapabilities
}

// ServerStatus is the snapshot served by the pyright://server/status resource.
type ServerStatus struct {
	State            string `json:"state"`
	Command          string `json:"command"`
	ProjectRoot      string `json:"projectRoot"`
	OpenDocuments    int    `json:"openDocuments"`
	DiagnosticFiles  int    `json:"diagnosticFiles"`
	TotalRequests    int64  `json:"totalRequests"`
	FailedRequests   int64  `json:"failedRequests"`
	TypeCheckingMode string `json:"typeCheckingMode"`
}

// BridgeInterface is the pyright operation surface consumed by MCP tools and
// resources.
// Sentinel errors returned by BridgeInterface implementations so callers
// can turn them into user-facing messages.
var (
	// ErrCannotRename means the server rejected the rename position during
	// the prepare check.
	ErrCannotRename = errors.New("symbol at this position cannot be renamed")

	// ErrNoImportAction means no import quick fix was offered at the
	// requested position.
	ErrNoImportAction = errors.New("no import code action available at this position")
)

type BridgeInterface interface {
	ProjectRoot() string
	ServerStatus() ServerStatus

	// Position-based queries. Raw pyright JSON is passed through verbatim.
	Hover(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)
	Definition(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)
	TypeDefinition(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)
	Implementation(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)
	SignatureHelp(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)

	// List-shaped queries. Results are sorted for stable pagination.
	Completion(ctx context.Context, filePath string, line, character int) ([]map[string]any, error)
	References(ctx context.Context, filePath string, line, character int, includeDeclaration bool) ([]map[string]any, error)
	DocumentSymbols(ctx context.Context, filePath string) ([]map[string]any, error)
	WorkspaceSymbols(ctx context.Context, query string) ([]map[string]any, error)
	Diagnostics(ctx context.Context, filePath string) ([]map[string]any, error)

	// Edits and refactoring.
	CodeActions(ctx context.Context, filePath string, startLine, startChar, endLine, endChar int) (json.RawMessage, error)
	Rename(ctx context.Context, filePath string, line, character int, newName string) (json.RawMessage, error)
	SemanticTokens(ctx context.Context, filePath string) (json.RawMessage, error)
	FormatDocument(ctx context.Context, filePath string, tabSize int, insertSpaces bool) (json.RawMessage, error)
	FormatRange(ctx context.Context, filePath string, startLine, startChar, endLine, endChar, tabSize int, insertSpaces bool) (json.RawMessage, error)
	OrganizeImports(ctx context.Context, filePath string) (json.RawMessage, error)
	AddImport(ctx context.Context, filePath string, line, character int) (json.RawMessage, error)

	// Project management.
	CreateConfig() (string, error)
	RestartServer(ctx context.Context) error

	// Diagnostics cache access for the diagnostics:// resource.
	CachedDiagnostics(uri string) []map[string]any
	OnDiagnosticsChanged(handler func(uri string))
}
