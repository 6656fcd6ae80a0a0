package versions

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVersionInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		settings      map[string]string
		wantVersion   string
		wantCommit    string
		wantBuildDate string
	}{
		{
			name:          "release build",
			version:       "v1.2.3",
			commit:        "0123456789abcdef",
			buildDate:     "2025-01-15T10:30:00Z",
			settings:      map[string]string{"vcs.revision": "ignored"},
			wantVersion:   "v1.2.3",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "2025-01-15 10:30:00 UTC",
		},
		{
			name:          "dev build uses commit",
			version:       "dev",
			commit:        "0123456789abcdef",
			buildDate:     "not-a-date",
			wantVersion:   "build-01234567",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "not-a-date",
		},
		{
			name:      "dev build reads vcs settings",
			version:   "dev",
			commit:    unknown,
			buildDate: unknown,
			settings: map[string]string{
				"vcs.revision": "fedcba9876543210",
				"vcs.time":     "2025-03-01T08:00:00+02:00",
				"main.version": "(devel)",
			},
			wantVersion:   "build-fedcba98",
			wantCommit:    "fedcba9876543210",
			wantBuildDate: "2025-03-01 06:00:00 UTC",
		},
		{
			name:          "go install of a tag",
			version:       "dev",
			commit:        unknown,
			buildDate:     unknown,
			settings:      map[string]string{"main.version": "v0.4.1"},
			wantVersion:   "v0.4.1",
			wantCommit:    unknown,
			wantBuildDate: unknown,
		},
		{
			name:          "pseudo version is not a release",
			version:       "dev",
			commit:        unknown,
			buildDate:     unknown,
			settings:      map[string]string{"main.version": "v0.0.0-20250101000000-0123456789ab"},
			wantVersion:   "dev",
			wantCommit:    unknown,
			wantBuildDate: unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := buildVersionInfo(tt.version, tt.commit, tt.buildDate, tt.settings)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	assert.True(t, strings.HasPrefix(UserAgent(), "agent-directory/"))
}
