package e2e

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RepositoryRoot walks up from this package until it finds the module's go.mod.
func RepositoryRoot(tb testing.TB) string {
	tb.Helper()

	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		tb.Fatal("determine caller path")
	}

	for dir := filepath.Dir(currentFile); ; {
		_, err := os.Stat(filepath.Join(dir, "go.mod"))
		if err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			tb.Fatalf("locate repository root from %s", currentFile)
		}

		dir = parent
	}
}
