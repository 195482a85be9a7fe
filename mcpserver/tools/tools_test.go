package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonmmease/jons-pyright-mcp/interfaces"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// recordingServer captures registered tools so handlers can be invoked
// directly in tests.
type recordingServer struct {
	tools    []mcp.Tool
	handlers map[string]server.ToolHandlerFunc
}

func newRecordingServer() *recordingServer {
	return &recordingServer{handlers: make(map[string]server.ToolHandlerFunc)}
}

func (s *recordingServer) AddTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = handler
}

// stubBridge implements interfaces.BridgeInterface with canned responses.
type stubBridge struct {
	raw       json.RawMessage
	items     []map[string]any
	err       error
	restarted bool
}

func (s *stubBridge) ProjectRoot() string                       { return "/project" }
func (s *stubBridge) ServerStatus() interfaces.ServerStatus     { return interfaces.ServerStatus{} }
func (s *stubBridge) CachedDiagnostics(string) []map[string]any { return nil }
func (s *stubBridge) OnDiagnosticsChanged(func(uri string))     {}

func (s *stubBridge) Hover(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) Definition(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) TypeDefinition(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) Implementation(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) SignatureHelp(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) Completion(context.Context, string, int, int) ([]map[string]any, error) {
	return s.items, s.err
}

func (s *stubBridge) References(context.Context, string, int, int, bool) ([]map[string]any, error) {
	return s.items, s.err
}

func (s *stubBridge) DocumentSymbols(context.Context, string) ([]map[string]any, error) {
	return s.items, s.err
}

func (s *stubBridge) WorkspaceSymbols(context.Context, string) ([]map[string]any, error) {
	return s.items, s.err
}

func (s *stubBridge) Diagnostics(context.Context, string) ([]map[string]any, error) {
	return s.items, s.err
}

func (s *stubBridge) CodeActions(context.Context, string, int, int, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) Rename(context.Context, string, int, int, string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) SemanticTokens(context.Context, string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) FormatDocument(context.Context, string, int, bool) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) FormatRange(context.Context, string, int, int, int, int, int, bool) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) OrganizeImports(context.Context, string) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) AddImport(context.Context, string, int, int) (json.RawMessage, error) {
	return s.raw, s.err
}

func (s *stubBridge) CreateConfig() (string, error) {
	return "/project/pyrightconfig.json", s.err
}

func (s *stubBridge) RestartServer(context.Context) error {
	s.restarted = true
	return s.err
}

func callTool(t *testing.T, srv *recordingServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	handler, ok := srv.handlers[name]
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result == nil {
		t.Fatal("handler returned nil result")
	}

	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}

	return text.Text
}

func TestRegisterAllTools(t *testing.T) {
	srv := newRecordingServer()
	RegisterAllTools(srv, &stubBridge{})

	if len(srv.tools) != 19 {
		t.Fatalf("registered %d tools, want 19", len(srv.tools))
	}

	for _, name := range []string{"hover", "completion", "definition", "references", "diagnostics", "rename", "restart_server"} {
		if _, ok := srv.handlers[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestHoverReturnsResponseJSON(t *testing.T) {
	srv := newRecordingServer()
	stub := &stubBridge{raw: json.RawMessage(`{"contents":{"kind":"markdown","value":"int"}}`)}
	RegisterHoverTool(srv, stub)

	result := callTool(t, srv, "hover", map[string]any{
		"file_path": "main.py",
		"line":      3,
		"character": 7,
	})

	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "markdown") {
		t.Errorf("result missing hover content: %s", resultText(t, result))
	}
}

func TestHoverNullBecomesMessage(t *testing.T) {
	srv := newRecordingServer()
	RegisterHoverTool(srv, &stubBridge{raw: json.RawMessage("null")})

	result := callTool(t, srv, "hover", map[string]any{
		"file_path": "main.py",
		"line":      0,
		"character": 0,
	})

	if got := resultText(t, result); got != "No hover information available" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestMissingPositionArgument(t *testing.T) {
	srv := newRecordingServer()
	RegisterHoverTool(srv, &stubBridge{})

	result := callTool(t, srv, "hover", map[string]any{
		"file_path": "main.py",
	})

	if !result.IsError {
		t.Fatal("expected error result for missing line")
	}
	if !strings.Contains(resultText(t, result), "line") {
		t.Errorf("error should name the missing parameter: %s", resultText(t, result))
	}
}

func TestCompletionPaginationEnvelope(t *testing.T) {
	items := make([]map[string]any, 5)
	for i := range items {
		items[i] = map[string]any{"label": string(rune('a' + i))}
	}

	srv := newRecordingServer()
	RegisterCompletionTool(srv, &stubBridge{items: items})

	result := callTool(t, srv, "completion", map[string]any{
		"file_path": "main.py",
		"line":      1,
		"character": 2,
		"limit":     2,
		"offset":    2,
	})

	var page struct {
		Items      []map[string]any `json:"items"`
		TotalItems int              `json:"totalItems"`
		HasMore    bool             `json:"hasMore"`
		NextOffset *int             `json:"nextOffset"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &page); err != nil {
		t.Fatalf("result is not a pagination envelope: %v", err)
	}

	if page.TotalItems != 5 || len(page.Items) != 2 || !page.HasMore {
		t.Errorf("unexpected page: total=%d len=%d hasMore=%t", page.TotalItems, len(page.Items), page.HasMore)
	}
	if page.NextOffset == nil || *page.NextOffset != 4 {
		t.Errorf("nextOffset = %v, want 4", page.NextOffset)
	}
}

func TestRenameCannotRenameMessage(t *testing.T) {
	srv := newRecordingServer()
	RegisterRenameTool(srv, &stubBridge{err: interfaces.ErrCannotRename})

	result := callTool(t, srv, "rename", map[string]any{
		"file_path": "main.py",
		"line":      1,
		"character": 2,
		"new_name":  "better_name",
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "Cannot rename at this position" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestAddImportNoActionMessage(t *testing.T) {
	srv := newRecordingServer()
	RegisterAddImportTool(srv, &stubBridge{err: interfaces.ErrNoImportAction})

	result := callTool(t, srv, "add_import", map[string]any{
		"file_path": "main.py",
		"line":      1,
		"character": 2,
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "No import action available at this position" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestRestartServerTool(t *testing.T) {
	srv := newRecordingServer()
	stub := &stubBridge{}
	RegisterRestartServerTool(srv, stub)

	result := callTool(t, srv, "restart_server", nil)

	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if !stub.restarted {
		t.Error("bridge restart was not invoked")
	}
	if !strings.Contains(resultText(t, result), "restarted") {
		t.Errorf("unexpected message: %q", resultText(t, result))
	}
}
