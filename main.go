package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonmmease/jons-pyright-mcp/bridge"
	"github.com/jonmmease/jons-pyright-mcp/logger"
	"github.com/jonmmease/jons-pyright-mcp/lsp"
	"github.com/jonmmease/jons-pyright-mcp/mcpserver"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// Logs default to a file because stdout carries the MCP stdio
	// transport and must stay clean.
	defaults := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		defaults.LogLevel = level
	}

	var logPath string

	var logLevel string

	var logOutput string

	flag.StringVar(&logPath, "log-path", defaults.LogPath, "Path to log file")
	flag.StringVar(&logPath, "l", defaults.LogPath, "Path to log file (short)")
	flag.StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	flag.StringVar(&logOutput, "log-output", "file", "Log output: file, stderr, both")
	flag.Parse()

	// Optional positional argument selects the project root; default is
	// the working directory.
	projectRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() > 0 {
		projectRoot = flag.Arg(0)
	}

	projectRoot, err = filepath.Abs(projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Invalid project root %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	if info, err := os.Stat(projectRoot); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "ERROR: Project root is not a directory: %s\n", projectRoot)
		os.Exit(1)
	}

	logConfig := logger.LoggerConfig{
		LogPath:   logPath,
		LogLevel:  logLevel,
		LogOutput: logOutput,
	}

	if err := logger.InitLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting jons-pyright-mcp...")
	logger.Info(fmt.Sprintf("Project root: %s", projectRoot))

	// Locate pyright-langserver. HARD FAIL with install instructions if
	// nothing is found; every tool would fail anyway.
	command, args, err := lsp.FindServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Install pyright with one of:\n")
		fmt.Fprintf(os.Stderr, "  npm install -g pyright\n")
		fmt.Fprintf(os.Stderr, "  pip install pyright\n\n")
		fmt.Fprintf(os.Stderr, "Or point PYRIGHT_PATH at a pyright-langserver executable.\n")
		os.Exit(1)
	}

	logger.Info(fmt.Sprintf("Found pyright: %s %v", command, args))

	pyrightConfig := lsp.LoadPyrightConfig(projectRoot)
	if len(pyrightConfig) > 0 {
		logger.Info(fmt.Sprintf("Loaded pyrightconfig.json with %d key(s)", len(pyrightConfig)))
	} else {
		logger.Info("No pyrightconfig.json found, using defaults")
	}

	client := lsp.NewClient(lsp.Options{
		Command:       command,
		Args:          args,
		ProjectRoot:   projectRoot,
		PyrightConfig: pyrightConfig,
		CallTimeout:   lsp.DefaultCallTimeout(),
		OnExit: func(err error) {
			logger.Error(fmt.Sprintf("pyright exited unexpectedly: %v; use restart_server to recover", err))
		},
	})

	bridgeInstance := bridge.NewPyrightBridge(client, command, projectRoot, pyrightConfig)

	if err := bridgeInstance.Start(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("Failed to start pyright: %v", err))
		fmt.Fprintf(os.Stderr, "ERROR: Failed to start pyright: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := bridgeInstance.Shutdown(); err != nil {
			logger.Warn(fmt.Sprintf("Shutdown error: %v", err))
		}
	}()

	mcpServer := mcpserver.SetupMCPServer(bridgeInstance)

	logger.Info("Starting MCP server...")

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("MCP server error: " + err.Error())
	}
}
