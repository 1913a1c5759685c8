package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the default log directory at a temporary directory and
// resets global state
func setupTestDir(t *testing.T) (cleanup func()) {
	t.Helper()

	tempDir := t.TempDir()

	// Save original state
	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID

	// Reset global state
	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // logDir is already prepared
	runID = ""
	runIDOnce = sync.Once{}

	return func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		runID = origRunID
		runIDOnce = sync.Once{}
	}
}

func TestNew(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	var console bytes.Buffer
	logger, err := New("test-component", Options{Console: &console})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component 'test-component', got %q", logger.component)
	}

	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}

	// Verify log file name format: <run-id>-relist.log
	fileName := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(fileName, "-relist.log") {
		t.Errorf("Expected log file to end with '-relist.log', got %q", fileName)
	}
	if filepath.Dir(logger.LogPath()) != logDir {
		t.Errorf("Expected log file in %s, got %s", logDir, logger.LogPath())
	}
}

func TestLoggerFormatting(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "relist.log")
	logger, err := New("test", Options{Console: &console, File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Debugf("Debug message")
	logger.Verbosef("Verbose message")
	logger.Infof("Info message %d", 123)
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	expectedPatterns := []string{
		"[test] [DEBUG] Debug message",
		"[test] [INFO] Verbose message",
		"[test] [INFO] Info message 123",
		"[test] [WARN] Warning message",
		"[test] [ERROR] Error message",
	}

	for _, pattern := range expectedPatterns {
		if !strings.Contains(string(content), pattern) {
			t.Errorf("Log file missing expected pattern: %q\nContent:\n%s", pattern, content)
		}
		if !strings.Contains(console.String(), pattern) {
			t.Errorf("Console missing expected pattern: %q\nContent:\n%s", pattern, console.String())
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		present []string
		absent  []string
	}{
		{
			level:   "quiet",
			present: []string{"warn", "error"},
			absent:  []string{"debug", "verbose", "info"},
		},
		{
			level:   "normal",
			present: []string{"info", "warn", "error"},
			absent:  []string{"debug", "verbose"},
		},
		{
			level:   "verbose",
			present: []string{"verbose", "info", "warn"},
			absent:  []string{"debug"},
		},
		{
			level:   "bogus",
			present: []string{"info"},
			absent:  []string{"verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var console bytes.Buffer
			logger, err := New("lvl", Options{Console: &console, Level: tt.level, DisableFile: true})
			if err != nil {
				t.Fatalf("Failed to create logger: %v", err)
			}

			logger.Debugf("debug")
			logger.Verbosef("verbose")
			logger.Infof("info")
			logger.Warnf("warn")
			logger.Errorf("error")

			out := console.String()
			for _, msg := range tt.present {
				if !strings.Contains(out, "] "+msg+"\n") {
					t.Errorf("expected %q at level %s, got:\n%s", msg, tt.level, out)
				}
			}
			for _, msg := range tt.absent {
				if strings.Contains(out, "] "+msg+"\n") {
					t.Errorf("did not expect %q at level %s, got:\n%s", msg, tt.level, out)
				}
			}
		})
	}
}

func TestWithSharesOutput(t *testing.T) {
	var console bytes.Buffer
	root, err := New("root", Options{Console: &console, DisableFile: true})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	child := root.With("browser")
	root.Infof("from root")
	child.Infof("from child")

	out := console.String()
	if !strings.Contains(out, "[root] [INFO] from root") {
		t.Errorf("missing root entry:\n%s", out)
	}
	if !strings.Contains(out, "[browser] [INFO] from child") {
		t.Errorf("missing child entry:\n%s", out)
	}
	if root.RunID() != child.RunID() {
		t.Errorf("Expected same run ID, got %q and %q", root.RunID(), child.RunID())
	}
}

func TestGetRunID(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	id1 := GetRunID()
	id2 := GetRunID()

	if id1 != id2 {
		t.Errorf("Expected consistent run ID, got %q and %q", id1, id2)
	}

	if id1 == "" {
		t.Error("Expected non-empty run ID")
	}
}

func TestLoggerClose(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("test", Options{Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	// Close once
	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}

	// Close again should be safe
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Errorf("nothing to see")
	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestPrintWritesRawBlock(t *testing.T) {
	var console bytes.Buffer
	logger, err := New("summary", Options{Console: &console, DisableFile: true})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Print("line one\nline two")
	if got := console.String(); got != "line one\nline two\n" {
		t.Errorf("Expected raw block, got %q", got)
	}

	var quietConsole bytes.Buffer
	quiet, err := New("summary", Options{Console: &quietConsole, Level: "quiet", DisableFile: true})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	quiet.Print("hidden")
	if quietConsole.Len() != 0 {
		t.Errorf("Expected nothing at quiet level, got %q", quietConsole.String())
	}
}
