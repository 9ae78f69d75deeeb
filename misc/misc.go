// Package misc keeps build identity helpers used across the program.
package misc

import "runtime/debug"

// Set at build time via -ldflags "-X stitch/misc.version=... -X stitch/misc.gitHash=...".
var (
	version = "development"
	gitHash = "unknown"
)

// GetAppName returns the program name used for logging and temporary files.
func GetAppName() string {
	return "stitch"
}

// GetVersion returns the program version.
func GetVersion() string {
	if version != "development" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns vcs revision recorded in the binary if available.
func GetGitHash() string {
	if gitHash != "unknown" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return gitHash
}
