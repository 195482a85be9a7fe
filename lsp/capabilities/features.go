package capabilities

import (
	"github.com/myleshyson/lsprotocol-go/protocol"
)

// This file registers every LSP feature the bridge actually implements.
// When you add a new pyright-backed tool, add its capability registration
// here.
//
// IMPORTANT: Only register capabilities for features that are actually
// implemented! pyright checks these capabilities and sends requests and
// notifications based on what is advertised.

func init() {
	// ====================
	// WORKSPACE CAPABILITIES
	// ====================

	// workspace/configuration - pyright pulls python/python.analysis
	// settings through this after initialize
	Registry.RegisterWorkspaceConfiguration()

	// workspace/workspaceFolders - the project root is reported as a
	// single workspace folder
	Registry.RegisterWorkspaceFolders()

	// workspace/applyEdit - rename and organize-imports results are
	// returned as workspace edits
	Registry.RegisterWorkspaceApplyEdit()

	// workspace/symbol - project-wide symbol search
	// Exposed via: workspace_symbols MCP tool
	Registry.RegisterWorkspaceSymbol(&protocol.WorkspaceSymbolClientCapabilities{
		DynamicRegistration: false,
	})

	// workspace/executeCommand - pyright.organizeimports and friends
	// Exposed via: organize_imports MCP tool
	Registry.RegisterWorkspaceExecuteCommand(&protocol.ExecuteCommandClientCapabilities{
		DynamicRegistration: false,
	})

	// ====================
	// DOCUMENT LIFECYCLE
	// ====================

	// textDocument/did* - documents are opened lazily before the first
	// request that touches them and closed on shutdown
	Registry.RegisterSynchronization(&protocol.TextDocumentSyncClientCapabilities{
		DynamicRegistration: false,
		WillSave:            false,
		WillSaveWaitUntil:   false,
		DidSave:             true,
	})

	// ====================
	// DIAGNOSTICS
	// ====================

	// textDocument/publishDiagnostics - pyright pushes diagnostics as it
	// analyzes; the bridge caches them per URI
	// Exposed via: diagnostics MCP tool, diagnostics:// resource
	Registry.RegisterPublishDiagnostics(&protocol.PublishDiagnosticsClientCapabilities{
		RelatedInformation:     true,
		TagSupport:             &protocol.ClientDiagnosticsTagOptions{ValueSet: []protocol.DiagnosticTag{1, 2}}, // Unnecessary(1) and Deprecated(2)
		VersionSupport:         false,
		CodeDescriptionSupport: true,
		DataSupport:            true,
	})

	// ====================
	// CODE INTELLIGENCE
	// ====================

	// textDocument/hover
	// Exposed via: hover MCP tool
	Registry.RegisterHover(&protocol.HoverClientCapabilities{
		DynamicRegistration: false,
		ContentFormat:       []protocol.MarkupKind{protocol.MarkupKindMarkdown, protocol.MarkupKindPlainText},
	})

	// textDocument/completion
	// Exposed via: completion MCP tool
	Registry.RegisterCompletion(&protocol.CompletionClientCapabilities{
		DynamicRegistration: false,
		ContextSupport:      false,
	})

	// textDocument/signatureHelp
	// Exposed via: signature_help MCP tool
	Registry.RegisterSignatureHelp(&protocol.SignatureHelpClientCapabilities{
		DynamicRegistration: false,
	})

	// textDocument/definition
	// Exposed via: definition MCP tool
	Registry.RegisterDefinition(&protocol.DefinitionClientCapabilities{
		DynamicRegistration: false,
		LinkSupport:         true,
	})

	// textDocument/typeDefinition
	// Exposed via: type_definition MCP tool
	Registry.RegisterTypeDefinition(&protocol.TypeDefinitionClientCapabilities{
		DynamicRegistration: false,
		LinkSupport:         true,
	})

	// textDocument/references
	// Exposed via: references MCP tool
	Registry.RegisterReferences(&protocol.ReferenceClientCapabilities{
		DynamicRegistration: false,
	})

	// textDocument/implementation
	// Exposed via: implementation MCP tool
	Registry.RegisterImplementation(&protocol.ImplementationClientCapabilities{
		DynamicRegistration: false,
		LinkSupport:         true,
	})

	// textDocument/documentSymbol
	// Exposed via: document_symbols MCP tool
	Registry.RegisterDocumentSymbol(&protocol.DocumentSymbolClientCapabilities{
		DynamicRegistration:               false,
		HierarchicalDocumentSymbolSupport: true,
	})

	// ====================
	// CODE ACTIONS & REFACTORING
	// ====================

	// textDocument/codeAction
	// Exposed via: code_actions, add_import MCP tools
	Registry.RegisterCodeAction(&protocol.CodeActionClientCapabilities{
		DynamicRegistration: false,
		DataSupport:         true,
		IsPreferredSupport:  true,
		DisabledSupport:     true,
	})

	// textDocument/formatting
	// Exposed via: format_document MCP tool
	Registry.RegisterFormatting(&protocol.DocumentFormattingClientCapabilities{
		DynamicRegistration: false,
	})

	// textDocument/rangeFormatting
	// Exposed via: format_range MCP tool
	Registry.RegisterRangeFormatting(&protocol.DocumentRangeFormattingClientCapabilities{
		DynamicRegistration: false,
	})

	// textDocument/rename
	// Exposed via: rename MCP tool
	Registry.RegisterRename(&protocol.RenameClientCapabilities{
		DynamicRegistration: false,
		PrepareSupport:      true,
	})

	// ====================
	// ADVANCED FEATURES
	// ====================

	// textDocument/semanticTokens
	// Exposed via: semantic_tokens MCP tool
	Registry.RegisterSemanticTokens(&protocol.SemanticTokensClientCapabilities{
		DynamicRegistration: false,
		Formats:             []protocol.TokenFormat{protocol.TokenFormatRelative},
		Requests: protocol.ClientSemanticTokensRequestOptions{
			Full:  &protocol.Or2[bool, protocol.ClientSemanticTokensRequestFullDelta]{Value: true},
			Range: &protocol.Or2[bool, protocol.LSPObject]{Value: true},
		},
		TokenModifiers: []string{}, // Must be empty array, not nil
		TokenTypes:     []string{}, // Must be empty array, not nil
	})

	// callHierarchy/* - pyright supports call hierarchy preparation
	Registry.RegisterCallHierarchy(&protocol.CallHierarchyClientCapabilities{
		DynamicRegistration: false,
	})
}
