package version

import "runtime"

// Version information set via ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns a formatted version string
func FullVersion() string {
	if Version == "dev" {
		return "netspeed development build"
	}
	return "netspeed " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}

// GoVersion returns the Go runtime the binary was built with
func GoVersion() string {
	return runtime.Version()
}
