// Package versions provides build information for the agent directory and
// compares the versions agents publish in their cards.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Masterminds/semver/v3"
)

const unknown = "unknown"

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	var settings map[string]string
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = make(map[string]string, len(info.Settings)+1)
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
		// set by `go install module@version`
		settings["main.version"] = info.Main.Version
	}
	return buildVersionInfo(Version, Commit, BuildDate, settings)
}

// UserAgent is the User-Agent sent when fetching agent cards
func UserAgent() string {
	return "agent-directory/" + GetVersionInfo().Version
}

// buildVersionInfo fills what the linker left unset from the module build settings.
func buildVersionInfo(version, commit, buildDate string, settings map[string]string) VersionInfo {
	if version == "dev" {
		if commit == unknown && settings["vcs.revision"] != "" {
			commit = settings["vcs.revision"]
		}
		if buildDate == unknown && settings["vcs.time"] != "" {
			buildDate = settings["vcs.time"]
		}
		version = devVersion(settings["main.version"], commit)
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// devVersion prefers a tagged module version and otherwise names the build after its commit
func devVersion(moduleVersion, commit string) string {
	if v, err := semver.NewVersion(moduleVersion); err == nil && v.Prerelease() == "" {
		return "v" + v.String()
	}
	if commit == unknown {
		return "dev"
	}
	return fmt.Sprintf("build-%.8s", commit)
}
