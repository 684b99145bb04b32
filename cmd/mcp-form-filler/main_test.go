package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/a3tai/mcp-form-filler/internal/config"
)

// captureStdout runs fn and returns what it printed
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = "1.2.3"
	buildTime = "2026-01-15_10:30:00"
	gitCommit = "abc123"

	output := captureStdout(t, printVersion)

	expectedStrings := []string{
		"MCP Form Filler",
		"Version: 1.2.3",
		"Build Time: 2026-01-15_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name     string
		logLevel string
		silent   bool
	}{
		{name: "info is silent", logLevel: "info", silent: true},
		{name: "error is silent", logLevel: "error", silent: true},
		{name: "debug logs to stderr", logLevel: "debug", silent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.LogLevel = tt.logLevel

			logger := setupLogging(cfg)
			if logger == nil {
				t.Fatal("setupLogging() returned nil logger")
			}
			if got := logger.Writer() == io.Discard; got != tt.silent {
				t.Errorf("logger discards output = %v, want %v", got, tt.silent)
			}
			if got := log.Writer() == io.Discard; got != tt.silent {
				t.Errorf("standard logger discards output = %v, want %v", got, tt.silent)
			}
		})
	}
}

func TestNewFillerService(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FormsDirectory = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	svc, err := newFillerService(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("newFillerService() error = %v", err)
	}
	if svc.Directory() == "" {
		t.Error("service has no forms directory")
	}

	cfg.Color = "not-a-color"
	if _, err := newFillerService(cfg, nil); err == nil {
		t.Error("newFillerService() with a malformed color should fail")
	}
}
