package flagoracle

import (
	"strings"

	"github.com/loufret/fivefret/fret"
)

// flagName returns the canonical status-JSON name for flag, or "" for
// fret.FlagNone (never reported).
func flagName(flag fret.ProfileFlag) string {
	switch flag {
	case fret.FlagAutoStrum:
		return "AutoStrum"
	case fret.FlagAutoPlay:
		return "AutoPlay"
	default:
		return ""
	}
}

// parseFlagName resolves a case-insensitive flag name from a URL path
// segment, per spec.md §6.2. fret.FlagNone is never a valid input name.
func parseFlagName(name string) (fret.ProfileFlag, bool) {
	switch strings.ToLower(name) {
	case "autostrum":
		return fret.FlagAutoStrum, true
	case "autoplay":
		return fret.FlagAutoPlay, true
	default:
		return fret.FlagNone, false
	}
}
