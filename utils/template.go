package utils

import (
	"path/filepath"
	"strings"
)

// TemplateContext holds the workspace values substituted into
// pyrightconfig.json before it is handed to the language server.
type TemplateContext struct {
	WorkspaceRoot string // file:// URI of the project root
	WorkspaceName string // basename of the project root
	WorkspacePath string // absolute filesystem path of the project root
}

// NewTemplateContext derives the substitution values from the project root.
func NewTemplateContext(workspaceRoot string) *TemplateContext {
	absPath, err := filepath.Abs(workspaceRoot)
	if err != nil {
		absPath = workspaceRoot
	}

	return &TemplateContext{
		WorkspaceRoot: "file://" + absPath,
		WorkspaceName: filepath.Base(absPath),
		WorkspacePath: absPath,
	}
}

// SubstituteVariables replaces {{workspace_root}}, {{workspace_name}} and
// {{workspace_path}} in a single string. Unknown markers are left alone so
// pyright settings that legitimately contain braces survive untouched.
func (ctx *TemplateContext) SubstituteVariables(input string) string {
	result := input
	result = strings.ReplaceAll(result, "{{workspace_root}}", ctx.WorkspaceRoot)
	result = strings.ReplaceAll(result, "{{workspace_name}}", ctx.WorkspaceName)
	result = strings.ReplaceAll(result, "{{workspace_path}}", ctx.WorkspacePath)
	return result
}

// SubstituteInMap walks a decoded pyrightconfig.json and substitutes
// variables in every string it finds, descending into nested objects and
// arrays. The input map is not modified.
func (ctx *TemplateContext) SubstituteInMap(input map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for key, value := range input {
		result[key] = ctx.substituteValue(value)
	}

	return result
}

func (ctx *TemplateContext) substituteValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return ctx.SubstituteVariables(v)
	case map[string]interface{}:
		return ctx.SubstituteInMap(v)
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = ctx.substituteValue(item)
		}
		return result
	default:
		return v
	}
}
