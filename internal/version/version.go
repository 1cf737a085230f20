// Package version reports what build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set via ldflags on release builds; otherwise filled in from the build
// info stamped by the Go toolchain.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

var fill = sync.OnceFunc(func() {
	info, ok := debug.ReadBuildInfo()
	if ok {
		if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		var revision, vcsTime string
		dirty := false
		for _, kv := range info.Settings {
			switch kv.Key {
			case "vcs.revision":
				revision = kv.Value
			case "vcs.time":
				vcsTime = kv.Value
			case "vcs.modified":
				dirty = kv.Value == "true"
			}
		}
		if Commit == "" && revision != "" {
			if len(revision) > 12 {
				revision = revision[:12]
			}
			if dirty {
				revision += "-dirty"
			}
			Commit = revision
		}
		if Date == "" {
			Date = vcsTime
		}
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if Date == "" {
		Date = "unknown"
	}
})

// Info returns the human-readable version line.
func Info() string {
	fill()
	return fmt.Sprintf("copilot-tracker %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
