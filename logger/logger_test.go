package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initFileLogger(t *testing.T, level string) string {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "test.log")
	err := InitLogger(LoggerConfig{
		LogPath:   logPath,
		LogLevel:  level,
		LogOutput: "file",
	})
	if err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	t.Cleanup(Close)

	return logPath
}

func readLog(t *testing.T, logPath string) string {
	t.Helper()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	return string(data)
}

func TestDebugLevelKeepsAllSeverities(t *testing.T) {
	logPath := initFileLogger(t, "debug")

	Info("server starting")
	Warn("falling back to bundled stubs")
	Debug("raw frame received")

	contents := readLog(t, logPath)
	for _, want := range []string{"server starting", "falling back to bundled stubs", "raw frame received"} {
		if !strings.Contains(contents, want) {
			t.Errorf("log missing %q:\n%s", want, contents)
		}
	}
}

func TestInfoLevelSuppressesDebug(t *testing.T) {
	logPath := initFileLogger(t, "info")

	Warn("falling back to bundled stubs")
	Debug("raw frame received")

	contents := readLog(t, logPath)
	if !strings.Contains(contents, "falling back to bundled stubs") {
		t.Errorf("warning missing from log:\n%s", contents)
	}
	if strings.Contains(contents, "raw frame received") {
		t.Errorf("debug message should be suppressed at info level:\n%s", contents)
	}
}

func TestErrorLevelStillLogsErrors(t *testing.T) {
	logPath := initFileLogger(t, "error")

	Info("server starting")
	Error("pyright exited unexpectedly")

	contents := readLog(t, logPath)
	if strings.Contains(contents, "server starting") {
		t.Errorf("info message should be suppressed at error level:\n%s", contents)
	}
	if !strings.Contains(contents, "pyright exited unexpectedly") {
		t.Errorf("error missing from log:\n%s", contents)
	}
}
