// Package version exposes build version information, populated at link time
// via -ldflags.
package version

import "runtime"

var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info returns the build information as a string map.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String returns a human-readable version line.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
