// Package version provides build and version information.
package version

import "fmt"

// Version is the current application version.
const Version = "0.3.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=...".
var Commit = "dev"

// Milestones:
// 0.3.0 - HTTP API, WebSocket frame stream, Prometheus metrics
// 0.2.0 - Animated orrery view, body detail panel, viper config
// 0.1.0 - Initial release: Kepler position engine, positions table

// String returns the version with its commit.
func String() string {
	return fmt.Sprintf("ls-orrery v%s (%s)", Version, Commit)
}
