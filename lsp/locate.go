package lsp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonmmease/jons-pyright-mcp/logger"
)

const defaultCallTimeoutSeconds = 60

// DefaultCallTimeout resolves the per-request timeout. PYRIGHT_TIMEOUT may be
// a number of seconds ("90", "7.5") or a Go duration string ("2m").
func DefaultCallTimeout() time.Duration {
	raw := os.Getenv("PYRIGHT_TIMEOUT")
	if raw == "" {
		return defaultCallTimeoutSeconds * time.Second
	}

	if secs, err := strconv.ParseFloat(raw, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}

	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}

	logger.Warn("Invalid PYRIGHT_TIMEOUT value, using default: " + raw)

	return defaultCallTimeoutSeconds * time.Second
}

// FindServer locates a pyright language server installation and returns the
// command and arguments that launch it in stdio mode.
//
// Resolution order:
//  1. PYRIGHT_PATH environment variable (may include arguments)
//  2. pyright-langserver on PATH
//  3. pyright CLI on PATH, run with --langserver
//  4. a global npm installation's langserver.index.js, run via node
func FindServer() (command string, args []string, err error) {
	if raw := os.Getenv("PYRIGHT_PATH"); raw != "" {
		parts := strings.Fields(raw)
		if len(parts) == 0 {
			return "", nil, fmt.Errorf("PYRIGHT_PATH is set but empty")
		}
		logger.Debug("Using language server from PYRIGHT_PATH: " + raw)

		return parts[0], parts[1:], nil
	}

	if path, lookErr := exec.LookPath("pyright-langserver"); lookErr == nil {
		return path, []string{"--stdio"}, nil
	}

	if path, lookErr := exec.LookPath("pyright"); lookErr == nil {
		return path, []string{"--langserver"}, nil
	}

	if command, args, ok := findNpmGlobalServer(); ok {
		return command, args, nil
	}

	return "", nil, fmt.Errorf(
		"could not find pyright; install it with 'npm install -g pyright' or set PYRIGHT_PATH")
}

// findNpmGlobalServer checks the global npm prefix for a pyright package and
// returns a node invocation of its language server entry point.
func findNpmGlobalServer() (string, []string, bool) {
	npm, err := exec.LookPath("npm")
	if err != nil {
		return "", nil, false
	}

	out, err := exec.Command(npm, "prefix", "-g").Output()
	if err != nil {
		return "", nil, false
	}

	prefix := strings.TrimSpace(string(out))
	if prefix == "" {
		return "", nil, false
	}

	entry := filepath.Join(prefix, "lib", "node_modules", "pyright", "langserver.index.js")
	if _, err := os.Stat(entry); err != nil {
		return "", nil, false
	}

	node, err := exec.LookPath("node")
	if err != nil {
		return "", nil, false
	}

	return node, []string{entry, "--stdio"}, true
}
