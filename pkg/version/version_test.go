package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stamp sets the ldflags-injected variables for the duration of a test.
func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() {
		Version, Commit, Date = oldVersion, oldCommit, oldDate
	})
}

// =============================================================================
// Defaults
// =============================================================================

func TestDefaults_UnstampedBuildIsDev(t *testing.T) {
	// Given: a test binary built without ldflags

	// Then: the version is "dev" or a release tag the Makefile injected
	if Version == "dev" {
		assert.Equal(t, "unknown", Commit)
		assert.Equal(t, "unknown", Date)
		return
	}
	assert.Regexp(t, regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.]+)?$`), Version)
}

// =============================================================================
// Output formats
// =============================================================================

func TestString_StampedRelease(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{
			name:    "release build",
			version: "1.2.0",
			commit:  "9f3c2ab",
			date:    "2026-03-01T10:00:00Z",
			want:    "docfinder 1.2.0 (commit: 9f3c2ab, built: 2026-03-01T10:00:00Z, go: " + GoVersion + ")",
		},
		{
			name:    "local build",
			version: "dev",
			commit:  "unknown",
			date:    "unknown",
			want:    "docfinder dev (commit: unknown, built: unknown, go: " + GoVersion + ")",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: stamped build variables
			stamp(t, tt.version, tt.commit, tt.date)

			// When/Then: the long form names the binary and every field
			assert.Equal(t, tt.want, String())
			assert.Equal(t, tt.version, Short())
		})
	}
}

func TestGetInfo_MatchesVersionJSON(t *testing.T) {
	// Given: a stamped release
	stamp(t, "0.4.1-rc.1", "c0ffee1", "2026-05-20T08:30:00Z")

	// When: encoding the info the way 'docfinder version --json' does
	data, err := json.Marshal(GetInfo())
	require.NoError(t, err)

	// Then: the document carries exactly the documented keys
	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]string{
		"version":    "0.4.1-rc.1",
		"commit":     "c0ffee1",
		"date":       "2026-05-20T08:30:00Z",
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}, got)
}
