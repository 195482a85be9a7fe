package utils

import (
	"path/filepath"
	"testing"
)

func TestNewTemplateContext(t *testing.T) {
	root, err := filepath.Abs("/tmp/myproject")
	if err != nil {
		t.Fatal(err)
	}

	ctx := NewTemplateContext(root)

	if ctx.WorkspaceRoot != "file://"+root {
		t.Errorf("WorkspaceRoot = %q", ctx.WorkspaceRoot)
	}
	if ctx.WorkspaceName != "myproject" {
		t.Errorf("WorkspaceName = %q", ctx.WorkspaceName)
	}
	if ctx.WorkspacePath != root {
		t.Errorf("WorkspacePath = %q", ctx.WorkspacePath)
	}
}

func TestSubstituteInMapRecursesIntoNestedValues(t *testing.T) {
	ctx := &TemplateContext{
		WorkspaceRoot: "file:///proj",
		WorkspaceName: "proj",
		WorkspacePath: "/proj",
	}

	input := map[string]interface{}{
		"venvPath": "{{workspace_path}}/.venv",
		"executionEnvironments": []interface{}{
			map[string]interface{}{"root": "{{workspace_root}}/src"},
		},
		"reportMissingImports": true,
	}

	result := ctx.SubstituteInMap(input)

	if got := result["venvPath"]; got != "/proj/.venv" {
		t.Errorf("venvPath = %v", got)
	}
	envs := result["executionEnvironments"].([]interface{})
	if got := envs[0].(map[string]interface{})["root"]; got != "file:///proj/src" {
		t.Errorf("nested root = %v", got)
	}
	if got := result["reportMissingImports"]; got != true {
		t.Errorf("boolean changed: %v", got)
	}

	// Original map stays untouched
	if input["venvPath"] != "{{workspace_path}}/.venv" {
		t.Error("input map was mutated")
	}
}

func TestSubstituteVariablesLeavesUnknownMarkers(t *testing.T) {
	ctx := &TemplateContext{WorkspacePath: "/proj"}

	got := ctx.SubstituteVariables("{{workspace_path}}/{{something_else}}")
	if got != "/proj/{{something_else}}" {
		t.Errorf("got %q", got)
	}
}
