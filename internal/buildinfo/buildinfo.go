// Package buildinfo reports the version, date and commit stamped in with
// -ldflags "-X github.com/dmitrijs2005/zkvault/internal/buildinfo.buildVersion=...".
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const notAvailable = "N/A"

// PrintBuildData writes the three build values to w, one per line. Values not
// set at link time fall back to VCS settings from the binary, then to N/A.
func PrintBuildData(w io.Writer) {
	settings := vcsSettings()

	fmt.Fprintf(w, "Build version: %s\n", value(buildVersion, ""))
	fmt.Fprintf(w, "Build date: %s\n", value(buildDate, settings["vcs.time"]))
	fmt.Fprintf(w, "Build commit: %s\n", value(buildCommit, shortRevision(settings["vcs.revision"])))
}

func value(stamped, fallback string) string {
	switch {
	case stamped != "":
		return stamped
	case fallback != "":
		return fallback
	}
	return notAvailable
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

func vcsSettings() map[string]string {
	out := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, s := range info.Settings {
		out[s.Key] = s.Value
	}
	return out
}
