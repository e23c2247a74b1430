package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origDate, origRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = origVersion, origCommit, origDate, origRead
	})

	Version, Commit, Date = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetInfoFromLdflags(t *testing.T) {
	withBuild(t, "1.2.0", "abc123def456", "2026-01-01T12:00:00Z", &debug.BuildInfo{
		Main:     debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fffffff"}},
	})

	info := GetInfo()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "abc123def456", info.Commit)
	assert.Equal(t, "2026-01-01T12:00:00Z", info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGetInfoFromBuildInfo(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := GetInfo()
	assert.Equal(t, "v0.3.1", info.Version)
	assert.Equal(t, "0123456789abcdef", info.Commit)
	assert.Equal(t, "2026-10-01T08:00:00Z", info.Date)
	assert.True(t, info.Modified)
	assert.Contains(t, info.String(), "(01234567-dirty)")
}

func TestGetInfoDevelBuild(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	info := GetInfo()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.Commit)
}

func TestGetInfoWithoutBuildInfo(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", nil)
	assert.Equal(t, "dev", GetInfo().Version)
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want []string
	}{
		{
			name: "release",
			info: Info{Version: "1.0.0", Commit: "abc123def456", Date: "2026-01-01", GoVersion: "go1.24.6", Platform: "linux/amd64"},
			want: []string{"mars-auth 1.0.0", "(abc123de)", "built 2026-01-01", "go1.24.6", "linux/amd64"},
		},
		{
			name: "short commit",
			info: Info{Version: "dev", Commit: "abc", Date: "unknown", GoVersion: "go1.24.6", Platform: "darwin/arm64"},
			want: []string{"mars-auth dev", "(abc)", "darwin/arm64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
