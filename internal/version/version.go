package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Version   = "0.5.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version string shown by `canvas-ai version`.
func String() string {
	return fmt.Sprintf("canvas-ai %s (commit: %s, built: %s)", Version, shortCommit(), BuildTime)
}

// ShortCommit returns the first seven characters of the commit hash.
func ShortCommit() string {
	return shortCommit()
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
