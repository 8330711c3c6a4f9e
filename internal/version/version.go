package version

import "runtime"

// Set at build time via -ldflags.
var (
	Version  = "dev"
	CommitID = "unknown"
)

// String returns a one-line version description.
func String() string {
	return Version + " (" + CommitID + ", " + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
