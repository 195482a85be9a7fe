package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"
)

// NewPyrightBridge creates a bridge over an already-constructed client. The
// client is not started; call Start once the MCP server is ready to serve.
func NewPyrightBridge(client interfaces.LanguageClientInterface, command, projectRoot string, config map[string]any) *PyrightBridge {
	b := &PyrightBridge{
		client:        client,
		command:       command,
		projectRoot:   projectRoot,
		config:        config,
		openDocuments: make(map[string]bool),
		diagnostics:   make(map[string][]map[string]any),
	}

	// Subscribers persist across restarts, so one registration covers the
	// whole bridge lifetime.
	client.OnNotification("textDocument/publishDiagnostics", b.handlePublishDiagnostics)

	return b
}

// Start launches pyright and completes the initialize handshake.
func (b *PyrightBridge) Start(ctx context.Context) error {
	return b.client.Start(ctx)
}

// Shutdown gracefully stops the language server.
func (b *PyrightBridge) Shutdown() error {
	return b.client.Close()
}

// ProjectRoot returns the workspace root the bridge analyzes.
func (b *PyrightBridge) ProjectRoot() string {
	return b.projectRoot
}

// ServerStatus snapshots the language server for the status resource.
func (b *PyrightBridge) ServerStatus() interfaces.ServerStatus {
	total, failed := b.client.Metrics()

	b.mu.Lock()
	openDocs := len(b.openDocuments)
	b.mu.Unlock()

	b.diagMu.RLock()
	diagFiles := len(b.diagnostics)
	b.diagMu.RUnlock()

	mode := "basic"
	if m, ok := b.config["typeCheckingMode"].(string); ok && m != "" {
		mode = m
	}

	return interfaces.ServerStatus{
		State:            string(b.client.Status()),
		Command:          b.command,
		ProjectRoot:      b.projectRoot,
		OpenDocuments:    openDocs,
		DiagnosticFiles:  diagFiles,
		TotalRequests:    total,
		FailedRequests:   failed,
		TypeCheckingMode: mode,
	}
}

// RestartServer restarts pyright. Open document state is discarded, so files
// reopen lazily on the next request; cached diagnostics are kept until fresh
// ones arrive.
func (b *PyrightBridge) RestartServer(ctx context.Context) error {
	b.mu.Lock()
	b.openDocuments = make(map[string]bool)
	b.mu.Unlock()

	return b.client.Restart(ctx)
}

// handlePublishDiagnostics caches pushed diagnostics per URI and notifies the
// resource layer.
func (b *PyrightBridge) handlePublishDiagnostics(params json.RawMessage) {
	var payload struct {
		Uri         string           `json:"uri"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	if err := json.Unmarshal(params, &payload); err != nil {
		logger.Error(fmt.Sprintf("Failed to parse publishDiagnostics: %v", err))
		return
	}

	b.diagMu.Lock()
	b.diagnostics[payload.Uri] = payload.Diagnostics
	b.diagMu.Unlock()

	logger.Debug(fmt.Sprintf("Cached %d diagnostic(s) for %s", len(payload.Diagnostics), payload.Uri))

	b.callbackMu.RLock()
	callback := b.diagnosticsCallback
	b.callbackMu.RUnlock()

	if callback != nil {
		callback(payload.Uri)
	}
}

// OnDiagnosticsChanged registers a callback invoked whenever the diagnostics
// for a URI change. Used by the diagnostics resource to push updates.
func (b *PyrightBridge) OnDiagnosticsChanged(handler func(uri string)) {
	b.callbackMu.Lock()
	b.diagnosticsCallback = handler
	b.callbackMu.Unlock()
}

// CachedDiagnostics returns the last diagnostics pyright pushed for a URI.
func (b *PyrightBridge) CachedDiagnostics(uri string) []map[string]any {
	b.diagMu.RLock()
	defer b.diagMu.RUnlock()

	diags := b.diagnostics[uri]
	out := make([]map[string]any, len(diags))
	copy(out, diags)

	return out
}

// ensureOpen lazily opens a file in pyright before its first request. Returns
// the normalized file URI.
func (b *PyrightBridge) ensureOpen(filePath string) (string, error) {
	uri := utils.NormalizeURI(filePath)

	b.mu.Lock()
	alreadyOpen := b.openDocuments[uri]
	b.mu.Unlock()

	if alreadyOpen {
		return uri, nil
	}

	content, err := os.ReadFile(utils.URIToPath(uri))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	err = b.client.Notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "python",
			"version":    1,
			"text":       string(content),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}

	b.mu.Lock()
	b.openDocuments[uri] = true
	b.mu.Unlock()

	logger.Debug("Opened document: " + uri)

	return uri, nil
}

// positionRequest issues a request shaped {textDocument, position} and
// returns pyright's result verbatim.
func (b *PyrightBridge) positionRequest(ctx context.Context, method, filePath string, line, character int) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	err = b.client.Call(ctx, method, map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": line, "character": character},
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Hover returns type information and documentation at a position.
func (b *PyrightBridge) Hover(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	return b.positionRequest(ctx, "textDocument/hover", filePath, line, character)
}

// Definition returns the location(s) defining the symbol at a position.
func (b *PyrightBridge) Definition(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	return b.positionRequest(ctx, "textDocument/definition", filePath, line, character)
}

// TypeDefinition returns the location(s) of the type of the symbol at a
// position.
func (b *PyrightBridge) TypeDefinition(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	return b.positionRequest(ctx, "textDocument/typeDefinition", filePath, line, character)
}

// Implementation returns implementations of the class or protocol at a
// position.
func (b *PyrightBridge) Implementation(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	return b.positionRequest(ctx, "textDocument/implementation", filePath, line, character)
}

// SignatureHelp returns call signature information at a position.
func (b *PyrightBridge) SignatureHelp(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	return b.positionRequest(ctx, "textDocument/signatureHelp", filePath, line, character)
}

// Completion returns completion items at a position, sorted by sortText then
// label so pagination is stable across identical requests.
func (b *PyrightBridge) Completion(ctx context.Context, filePath string, line, character int) ([]map[string]any, error) {
	raw, err := b.positionRequest(ctx, "textDocument/completion", filePath, line, character)
	if err != nil {
		return nil, err
	}

	// The response is either a CompletionList or a bare item array.
	var list struct {
		Items []map[string]any `json:"items"`
	}
	items := list.Items
	if err := json.Unmarshal(raw, &list); err == nil && list.Items != nil {
		items = list.Items
	} else {
		var arr []map[string]any
		if err := json.Unmarshal(raw, &arr); err == nil {
			items = arr
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := completionSortKey(items[i]), completionSortKey(items[j])
		if ki[0] != kj[0] {
			return ki[0] < kj[0]
		}
		return ki[1] < kj[1]
	})

	return items, nil
}

func completionSortKey(item map[string]any) [2]string {
	label, _ := item["label"].(string)
	sortText, ok := item["sortText"].(string)
	if !ok {
		sortText = label
	}

	return [2]string{sortText, label}
}

// References returns every reference to the symbol at a position, sorted by
// (uri, line, character) for stable pagination.
func (b *PyrightBridge) References(ctx context.Context, filePath string, line, character int, includeDeclaration bool) ([]map[string]any, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var refs []map[string]any
	err = b.client.Call(ctx, "textDocument/references", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": line, "character": character},
		"context":      map[string]any{"includeDeclaration": includeDeclaration},
	}, &refs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(refs, func(i, j int) bool {
		ui, _ := refs[i]["uri"].(string)
		uj, _ := refs[j]["uri"].(string)
		if ui != uj {
			return ui < uj
		}
		li, ci := rangeStart(refs[i]["range"])
		lj, cj := rangeStart(refs[j]["range"])
		if li != lj {
			return li < lj
		}
		return ci < cj
	})

	return refs, nil
}

// DocumentSymbols returns every symbol in a file. Hierarchical results are
// flattened (children carry their parent under containerName) and sorted by
// position so pagination is stable.
func (b *PyrightBridge) DocumentSymbols(ctx context.Context, filePath string) ([]map[string]any, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var symbols []map[string]any
	err = b.client.Call(ctx, "textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}, &symbols)
	if err != nil {
		return nil, err
	}

	if len(symbols) > 0 {
		if _, hierarchical := symbols[0]["children"]; hierarchical {
			symbols = flattenSymbols(symbols, "")
		}
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		li, ci := symbolStart(symbols[i])
		lj, cj := symbolStart(symbols[j])
		if li != lj {
			return li < lj
		}
		return ci < cj
	})

	return symbols, nil
}

// flattenSymbols turns a DocumentSymbol tree into a flat list.
func flattenSymbols(symbols []map[string]any, parent string) []map[string]any {
	var out []map[string]any

	for _, symbol := range symbols {
		copied := make(map[string]any, len(symbol))
		for k, v := range symbol {
			copied[k] = v
		}
		if parent != "" {
			copied["containerName"] = parent
		}
		delete(copied, "children")
		out = append(out, copied)

		if children, ok := symbol["children"].([]any); ok {
			childMaps := make([]map[string]any, 0, len(children))
			for _, c := range children {
				if m, ok := c.(map[string]any); ok {
					childMaps = append(childMaps, m)
				}
			}
			name, _ := symbol["name"].(string)
			out = append(out, flattenSymbols(childMaps, name)...)
		}
	}

	return out
}

// WorkspaceSymbols searches the whole project for symbols matching query,
// sorted by (name, uri, line).
func (b *PyrightBridge) WorkspaceSymbols(ctx context.Context, query string) ([]map[string]any, error) {
	var symbols []map[string]any
	err := b.client.Call(ctx, "workspace/symbol", map[string]any{"query": query}, &symbols)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		ni, _ := symbols[i]["name"].(string)
		nj, _ := symbols[j]["name"].(string)
		if ni != nj {
			return ni < nj
		}
		ui := locationURI(symbols[i])
		uj := locationURI(symbols[j])
		if ui != uj {
			return ui < uj
		}
		li, _ := symbolStart(symbols[i])
		lj, _ := symbolStart(symbols[j])
		return li < lj
	})

	return symbols, nil
}

// Diagnostics returns cached diagnostics, for one file or for the whole
// workspace when filePath is empty. Each entry carries its file under "uri".
// Results are sorted by (uri, severity, line, character), so errors within a
// file come before warnings.
func (b *PyrightBridge) Diagnostics(ctx context.Context, filePath string) ([]map[string]any, error) {
	var all []map[string]any

	if filePath != "" {
		// Opening the file triggers analysis if it was not yet seen.
		uri, err := b.ensureOpen(filePath)
		if err != nil {
			return nil, err
		}

		for _, diag := range b.CachedDiagnostics(uri) {
			all = append(all, withURI(diag, uri))
		}
	} else {
		b.diagMu.RLock()
		for uri, diags := range b.diagnostics {
			for _, diag := range diags {
				all = append(all, withURI(diag, uri))
			}
		}
		b.diagMu.RUnlock()
	}

	sort.SliceStable(all, func(i, j int) bool {
		ui, _ := all[i]["uri"].(string)
		uj, _ := all[j]["uri"].(string)
		if ui != uj {
			return ui < uj
		}
		si := numberField(all[i], "severity")
		sj := numberField(all[j], "severity")
		if si != sj {
			return si < sj
		}
		li, ci := rangeStart(all[i]["range"])
		lj, cj := rangeStart(all[j]["range"])
		if li != lj {
			return li < lj
		}
		return ci < cj
	})

	return all, nil
}

func withURI(diag map[string]any, uri string) map[string]any {
	copied := make(map[string]any, len(diag)+1)
	for k, v := range diag {
		copied[k] = v
	}
	copied["uri"] = uri

	return copied
}

// CodeActions returns quick fixes and refactorings available for a range.
// Cached diagnostics for the file are forwarded so pyright can offer fixes
// for them.
func (b *PyrightBridge) CodeActions(ctx context.Context, filePath string, startLine, startChar, endLine, endChar int) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	err = b.client.Call(ctx, "textDocument/codeAction", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"range": map[string]any{
			"start": map[string]any{"line": startLine, "character": startChar},
			"end":   map[string]any{"line": endLine, "character": endChar},
		},
		"context": map[string]any{
			"diagnostics": b.CachedDiagnostics(uri),
		},
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ErrCannotRename is returned when prepareRename reports the position does
// not name a renameable symbol.
var ErrCannotRename = interfaces.ErrCannotRename

// Rename renames the symbol at a position and returns the WorkspaceEdit
// covering every affected file. The position is validated with prepareRename
// first so an invalid target fails cleanly instead of producing an empty
// edit.
func (b *PyrightBridge) Rename(ctx context.Context, filePath string, line, character int, newName string) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	position := map[string]any{"line": line, "character": character}

	var prepared json.RawMessage
	err = b.client.Call(ctx, "textDocument/prepareRename", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     position,
	}, &prepared)
	if err != nil {
		return nil, err
	}
	if len(prepared) == 0 || string(prepared) == "null" {
		return nil, ErrCannotRename
	}

	var result json.RawMessage
	err = b.client.Call(ctx, "textDocument/rename", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     position,
		"newName":      newName,
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SemanticTokens returns the full semantic token data for a file.
func (b *PyrightBridge) SemanticTokens(ctx context.Context, filePath string) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	err = b.client.Call(ctx, "textDocument/semanticTokens/full", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FormatDocument returns the text edits that format an entire file.
func (b *PyrightBridge) FormatDocument(ctx context.Context, filePath string, tabSize int, insertSpaces bool) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	err = b.client.Call(ctx, "textDocument/formatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"options":      map[string]any{"tabSize": tabSize, "insertSpaces": insertSpaces},
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FormatRange returns the text edits that format part of a file.
func (b *PyrightBridge) FormatRange(ctx context.Context, filePath string, startLine, startChar, endLine, endChar, tabSize int, insertSpaces bool) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	err = b.client.Call(ctx, "textDocument/rangeFormatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"range": map[string]any{
			"start": map[string]any{"line": startLine, "character": startChar},
			"end":   map[string]any{"line": endLine, "character": endChar},
		},
		"options": map[string]any{"tabSize": tabSize, "insertSpaces": insertSpaces},
	}, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// OrganizeImports runs pyright's organize-imports command and returns the
// edits for the file.
func (b *PyrightBridge) OrganizeImports(ctx context.Context, filePath string) (json.RawMessage, error) {
	uri, err := b.ensureOpen(filePath)
	if err != nil {
		return nil, err
	}

	var response struct {
		Changes map[string]json.RawMessage `json:"changes"`
	}
	err = b.client.Call(ctx, "workspace/executeCommand", map[string]any{
		"command":   "pyright.organizeimports",
		"arguments": []any{uri},
	}, &response)
	if err != nil {
		return nil, err
	}

	if edits, ok := response.Changes[uri]; ok {
		return edits, nil
	}

	return json.RawMessage("[]"), nil
}

// ErrNoImportAction is returned when pyright offers no import quick fix at
// the requested position.
var ErrNoImportAction = interfaces.ErrNoImportAction

// AddImport finds the add-import quick fix for the symbol at a position and
// returns its WorkspaceEdit.
func (b *PyrightBridge) AddImport(ctx context.Context, filePath string, line, character int) (json.RawMessage, error) {
	raw, err := b.CodeActions(ctx, filePath, line, character, line, character)
	if err != nil {
		return nil, err
	}

	var actions []map[string]any
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, fmt.Errorf("unexpected code action response: %w", err)
	}

	for _, action := range actions {
		kind, _ := action["kind"].(string)
		title, _ := action["title"].(string)
		if kind == "quickfix" && strings.Contains(strings.ToLower(title), "import") {
			if edit, ok := action["edit"]; ok {
				return json.Marshal(edit)
			}
		}
	}

	return nil, ErrNoImportAction
}

// CreateConfig writes a starter pyrightconfig.json into the project root.
func (b *PyrightBridge) CreateConfig() (string, error) {
	path := filepath.Join(b.projectRoot, "pyrightconfig.json")

	if _, err := os.Stat(path); err == nil {
		return "pyrightconfig.json already exists", nil
	}

	config := map[string]any{
		"include":          []string{"**/*.py"},
		"exclude":          []string{"**/node_modules", "**/__pycache__", "**/.*"},
		"defineConstant":   map[string]any{"DEBUG": true},
		"typeCheckingMode": "basic",
		"pythonVersion":    "3.10",
		"pythonPlatform":   "Linux",
		"executionEnvironments": []map[string]any{
			{"root": "."},
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write pyrightconfig.json: %w", err)
	}

	logger.Info("Created " + path)

	return "Created pyrightconfig.json", nil
}

// JSON accessor helpers for sorting decoded results.

func rangeStart(rng any) (line, character float64) {
	m, ok := rng.(map[string]any)
	if !ok {
		return 0, 0
	}
	start, ok := m["start"].(map[string]any)
	if !ok {
		return 0, 0
	}
	line, _ = start["line"].(float64)
	character, _ = start["character"].(float64)

	return line, character
}

// symbolStart handles both DocumentSymbol (range at the top level) and
// SymbolInformation (range nested under location).
func symbolStart(symbol map[string]any) (line, character float64) {
	if rng, ok := symbol["range"]; ok {
		return rangeStart(rng)
	}
	if loc, ok := symbol["location"].(map[string]any); ok {
		return rangeStart(loc["range"])
	}

	return 0, 0
}

func locationURI(symbol map[string]any) string {
	loc, ok := symbol["location"].(map[string]any)
	if !ok {
		return ""
	}
	uri, _ := loc["uri"].(string)

	return uri
}

func numberField(m map[string]any, key string) float64 {
	n, _ := m[key].(float64)

	return n
}
