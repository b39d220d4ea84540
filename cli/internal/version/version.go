// Package version holds the CLI version. Release builds set it with
// -ldflags "-X commitsum/cli/internal/version.Version=v1.0.0"; dev builds may
// set Commit the same way, otherwise the VCS revision stamped by the Go
// toolchain is used.
package version

import "runtime/debug"

// Version is the release version, "dev" for local builds.
var Version = "dev"

// Commit is the short commit hash of a dev build.
var Commit = ""

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// String returns "v1.0.0" for releases and "dev (abc1234)" for dev builds
// whose commit is known.
func String() string {
	if Version != "dev" {
		return Version
	}
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if commit == "" {
		return Version
	}
	return Version + " (" + commit + ")"
}

func vcsRevision() string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 7 {
				return s.Value[:7]
			}
			return s.Value
		}
	}
	return ""
}
