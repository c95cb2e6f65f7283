// Package version reports the build stamped into the binary
package version

import "runtime/debug"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

// Set with -ldflags "-X 'marketwatch/internal/core/version.version=v0.1.0'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information; commit falls back to the vcs stamp when not set by ldflags
func Info() BuildInfo {
	bi := BuildInfo{Service: "marketwatch", Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		bi.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "none":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "unknown":
				bi.Date = s.Value
			}
		}
	}
	return bi
}
