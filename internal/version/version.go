// Package version holds build information for speclinear, set at link time.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
// Example: go build -ldflags="-X github.com/andywolf/speclinear/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the version string (e.g., "v0.3.0" or "dev").
func Short() string {
	return Version
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}

// Info returns a single-line version string.
// Format: "speclinear v0.3.0 (commit: abc1234, built: 2026-01-15T10:30:00Z, go: go1.24.x)"
func Info() string {
	return fmt.Sprintf("speclinear %s (commit: %s, built: %s, go: %s)",
		Version, shortCommit(), BuildDate, runtime.Version())
}

// Full returns a multi-line verbose version output.
func Full() string {
	return fmt.Sprintf(`speclinear %s
  Commit:     %s
  Built:      %s
  Go version: %s
  OS/Arch:    %s/%s`,
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent is sent with every Linear API request.
func UserAgent() string {
	return fmt.Sprintf("speclinear/%s (%s)", Version, shortCommit())
}

// Fields returns the build information for structured output.
func Fields() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
		"go":         runtime.Version(),
		"platform":   runtime.GOOS + "/" + runtime.GOARCH,
	}
}
