package fret

import "github.com/google/uuid"

// ProfileFlag enumerates the per-profile boolean overrides the engine
// consults every tick, per spec.md §6.1. Flags are distinct bits so a future
// caller-side store can pack several into one word if it wants to, though
// FlagOracle's contract only ever asks about one at a time.
type ProfileFlag int

const (
	FlagNone ProfileFlag = iota
	FlagAutoStrum
	FlagAutoPlay
)

// FlagOracle is the read-only capability the engine consults for AutoStrum
// and AutoPlay. Implementations live outside this package (flagoracle.Store,
// flagoracle.HTTPOracle); the engine only ever calls IsFlagSet. A profile
// with no configured value reports false, per spec.md §6.1.
type FlagOracle interface {
	IsFlagSet(profileID uuid.UUID, flag ProfileFlag) bool
}

// staticOracle is a FlagOracle that always reports the same two booleans; it
// backs tests and the simplest bot configurations without requiring callers
// to stand up flagoracle.Store for a fixed scenario.
type staticOracle struct {
	autoStrum, autoPlay bool
}

func (s staticOracle) IsFlagSet(_ uuid.UUID, flag ProfileFlag) bool {
	switch flag {
	case FlagAutoStrum:
		return s.autoStrum
	case FlagAutoPlay:
		return s.autoPlay
	default:
		return false
	}
}

// StaticOracle returns a FlagOracle with fixed AutoStrum/AutoPlay values,
// ignoring profileID entirely.
func StaticOracle(autoStrum, autoPlay bool) FlagOracle {
	return staticOracle{autoStrum: autoStrum, autoPlay: autoPlay}
}

// overrideGates queries the oracle at most once per flag per tick and caches
// the result for the duration of that tick, so every Step of spec.md §4.5
// observes a consistent snapshot even though the oracle may be mutated
// concurrently by an HTTP handler between ticks.
type overrideGates struct {
	oracle    FlagOracle
	profileID uuid.UUID

	autoStrum bool
	autoPlay  bool
}

func newOverrideGates(oracle FlagOracle, profileID uuid.UUID) overrideGates {
	return overrideGates{oracle: oracle, profileID: profileID}
}

// refresh re-queries the oracle; call once at the top of each tick.
func (g *overrideGates) refresh() {
	g.autoStrum = g.oracle.IsFlagSet(g.profileID, FlagAutoStrum)
	g.autoPlay = g.oracle.IsFlagSet(g.profileID, FlagAutoPlay)
}

func (g overrideGates) IsAutoStrumActive() bool { return g.autoStrum }
func (g overrideGates) IsAutoPlayActive() bool  { return g.autoPlay }
