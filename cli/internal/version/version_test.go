package version

import (
	"runtime/debug"
	"testing"
)

func TestString(t *testing.T) {
	// Mutates package globals; not parallel.
	savedVersion, savedCommit, savedRead := Version, Commit, readBuildInfo
	defer func() { Version, Commit, readBuildInfo = savedVersion, savedCommit, savedRead }()

	stamped := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}}}, true
	}
	none := func() (*debug.BuildInfo, bool) { return nil, false }

	tests := []struct {
		name    string
		version string
		commit  string
		read    func() (*debug.BuildInfo, bool)
		want    string
	}{
		{"dev with commit", "dev", "abc1234", none, "dev (abc1234)"},
		{"dev from build info", "dev", "", stamped, "dev (0123456)"},
		{"dev unknown commit", "dev", "", none, "dev"},
		{"release ignores commit", "v1.0.0", "abc1234", stamped, "v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, readBuildInfo = tt.version, tt.commit, tt.read
			if got := String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
