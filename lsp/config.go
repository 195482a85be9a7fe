package lsp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/utils"
)

// LoadPyrightConfig reads pyrightconfig.json from the project root. A missing
// or unreadable file yields an empty config; pyright then falls back to its
// own defaults. Workspace template variables ({{workspace_path}} and friends)
// are substituted in string values.
func LoadPyrightConfig(projectRoot string) map[string]any {
	path := filepath.Join(projectRoot, "pyrightconfig.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read pyrightconfig.json:", err)
		}
		return map[string]any{}
	}

	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		logger.Warn("Failed to parse pyrightconfig.json:", err)
		return map[string]any{}
	}

	tmpl := utils.NewTemplateContext(projectRoot)
	config = tmpl.SubstituteInMap(config)

	logger.Info("Loaded pyrightconfig.json from", path)

	return config
}

// PythonInterpreter determines the Python interpreter for the project, or ""
// if none can be found. Resolution order: explicit pythonPath in the config,
// the config's venv (optionally combined with venvPath), then conventional
// virtual environment directories under the project root.
func PythonInterpreter(projectRoot string, config map[string]any) string {
	if raw, ok := config["pythonPath"].(string); ok && raw != "" {
		path := raw
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		if fileExists(path) {
			return path
		}
		logger.Warn("Python interpreter not found at configured pythonPath:", path)
	}

	if venv, ok := config["venv"].(string); ok && venv != "" {
		venvDir := venv
		if !filepath.IsAbs(venvDir) {
			if base, ok := config["venvPath"].(string); ok && base != "" {
				if !filepath.IsAbs(base) {
					base = filepath.Join(projectRoot, base)
				}
				venvDir = filepath.Join(base, venvDir)
			} else {
				venvDir = filepath.Join(projectRoot, venvDir)
			}
		}
		if path := interpreterInVenv(venvDir); path != "" {
			return path
		}
		logger.Warn("Could not find Python interpreter in configured venv:", venvDir)
	}

	for _, dir := range []string{".venv", "venv", ".pixi/envs/default", ".pixi/envs/dev"} {
		if path := interpreterInVenv(filepath.Join(projectRoot, dir)); path != "" {
			return path
		}
	}

	return ""
}

// interpreterInVenv probes the conventional interpreter locations inside a
// virtual environment directory.
func interpreterInVenv(venvDir string) string {
	for _, rel := range []string{"bin/python", "bin/python3", "Scripts/python.exe", "Scripts/python3.exe"} {
		path := filepath.Join(venvDir, filepath.FromSlash(rel))
		if fileExists(path) {
			return path
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// BuildInitializationOptions assembles the initializationOptions payload for
// the initialize request from pyrightconfig.json, with sensible analysis
// defaults when the config is silent.
func BuildInitializationOptions(projectRoot string, config map[string]any) map[string]any {
	analysis := map[string]any{
		"typeCheckingMode":       "basic",
		"autoSearchPaths":        true,
		"useLibraryCodeForTypes": true,
		"diagnosticMode":         "workspace",
	}

	if mode, ok := config["typeCheckingMode"].(string); ok && mode != "" {
		analysis["typeCheckingMode"] = mode
	}

	if paths := absoluteExtraPaths(projectRoot, config); len(paths) > 0 {
		analysis["extraPaths"] = paths
	}

	python := map[string]any{"analysis": analysis}

	if path := PythonInterpreter(projectRoot, config); path != "" {
		python["pythonPath"] = path
		logger.Info("Using Python interpreter:", path)
	}

	if version, ok := config["pythonVersion"].(string); ok && version != "" {
		python["pythonVersion"] = version
	}
	if platform, ok := config["pythonPlatform"].(string); ok && platform != "" {
		python["pythonPlatform"] = platform
	}

	return map[string]any{"python": python}
}

// ConfigurationSection builds the reply for one workspace/configuration item.
// Unknown sections yield an empty object, which pyright treats as defaults.
func ConfigurationSection(projectRoot string, config map[string]any, section string) map[string]any {
	switch section {
	case "python":
		out := map[string]any{}
		if path := PythonInterpreter(projectRoot, config); path != "" {
			out["defaultInterpreterPath"] = path
			out["pythonPath"] = path
		}
		return out

	case "python.analysis":
		out := map[string]any{}
		if paths := absoluteExtraPaths(projectRoot, config); len(paths) > 0 {
			out["extraPaths"] = paths
		}
		if mode, ok := config["typeCheckingMode"].(string); ok && mode != "" {
			out["typeCheckingMode"] = mode
		}
		return out

	case "pyright":
		out := make(map[string]any, len(config))
		for k, v := range config {
			out[k] = v
		}
		return out

	default:
		return map[string]any{}
	}
}

// absoluteExtraPaths returns the config's extraPaths with relative entries
// resolved against the project root.
func absoluteExtraPaths(projectRoot string, config map[string]any) []string {
	raw, ok := config["extraPaths"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	paths := make([]string, 0, len(raw))
	for _, entry := range raw {
		path, ok := entry.(string)
		if !ok || path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		paths = append(paths, path)
	}

	return paths
}
