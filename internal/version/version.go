package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion returns the build version populated via -ldflags.
func GetVersion() string { return version }

// String formats the full build information.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
