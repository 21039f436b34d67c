// Package version holds build metadata set at link time:
// go build -ldflags "-X git.home.luguber.info/inful/syllabi/internal/version.Version=v1.2.0".
package version

import "fmt"

// Version is the release of this build.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version with its commit and build time.
func String() string {
	return fmt.Sprintf("syllabi %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
