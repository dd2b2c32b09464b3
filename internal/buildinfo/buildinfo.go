// Package buildinfo exposes version metadata injected at build time.
package buildinfo

import (
	"fmt"

	"go.uber.org/zap"
)

// Info captures identifying metadata for a build of the stress tool.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
}

// These variables are intended to be overridden via -ldflags during release builds.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Current returns the build metadata for logging and diagnostics.
func Current() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// String renders the one-line form printed by --version.
func (i Info) String() string {
	return fmt.Sprintf("thread-stress %s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildDate)
}

// Fields returns the metadata as structured log fields.
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", i.Version),
		zap.String("commit", i.GitCommit),
		zap.String("buildDate", i.BuildDate),
	}
}
