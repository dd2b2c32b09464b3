package e2e

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	buildTimeout = 2 * time.Minute
	versionFlag  = "thread-stress/internal/buildinfo.Version"
)

// BuildOptions controls how the stress binary is compiled.
type BuildOptions struct {
	Tags    []string
	Version string
}

// BuildStressBinary compiles cmd/stress into a temporary directory and returns the binary path.
func BuildStressBinary(tb testing.TB, repoRoot string, opts BuildOptions) string {
	tb.Helper()

	if repoRoot == "" {
		tb.Fatal("repository root must be provided")
	}

	binaryPath := filepath.Join(tb.TempDir(), "stress")

	args := []string{"build", "-o", binaryPath}
	if len(opts.Tags) > 0 {
		args = append(args, "-tags", strings.Join(opts.Tags, ","))
	}

	if opts.Version != "" {
		args = append(args, "-ldflags", "-X "+versionFlag+"="+opts.Version)
	}

	args = append(args, "./cmd/stress")

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf("build stress binary: %v\n%s", err, output)
	}

	return binaryPath
}
