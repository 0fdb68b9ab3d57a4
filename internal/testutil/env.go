// Package testutil provides utilities for testing jbundle in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Home     string
	CacheDir string
}

// SetupTestEnv points HOME and the JBUNDLE_* variables at fresh temp
// directories so tests never touch the user's real runtime cache or a
// developer's .env overrides.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Home:     filepath.Join(tmpDir, "home"),
		CacheDir: filepath.Join(tmpDir, "cache"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("JBUNDLE_CACHE_DIR", env.CacheDir)

	// Clear settings a developer might have exported
	for _, key := range []string{"JBUNDLE_CATALOG_URL", "JBUNDLE_JAVA_VERSION", "JBUNDLE_HTTP_TIMEOUT", "JBUNDLE_DEBUG"} {
		t.Setenv(key, "")
	}

	for _, dir := range []string{env.Home, env.CacheDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return env
}
