// Package testutil provides utilities for testing zb-install in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestEnv isolates a test from the user's configuration: every
// ZB_INSTALL_* variable and GITHUB_TOKEN is cleared and XDG_CONFIG_HOME
// points at an empty temp directory, which is returned.
//
// The cleanup function is automatically handled by t.TempDir() and
// t.Setenv(), so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "ZB_INSTALL_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv("GITHUB_TOKEN", "")
	os.Unsetenv("GITHUB_TOKEN")

	configHome := filepath.Join(tmpDir, "config")
	if err := os.MkdirAll(configHome, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", configHome, err)
	}
	t.Setenv("XDG_CONFIG_HOME", configHome)

	return tmpDir
}

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
