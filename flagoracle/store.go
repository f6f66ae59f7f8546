// Package flagoracle implements fret.FlagOracle as an in-memory, thread-safe
// store plus the HTTP control plane that mutates it, per spec.md §6.2. The
// engine only ever sees the fret.FlagOracle read interface; Store and the
// HTTP layer are the external, mutable side spec.md §9 calls for replacing
// the source's global singleton flag service with a capability passed at
// construction.
package flagoracle

import (
	"sync"

	"github.com/google/uuid"
	"github.com/loufret/fivefret/fret"
)

// Store is an in-memory fret.FlagOracle, safe for concurrent reads from the
// engine thread and concurrent writes from an HTTP handler goroutine.
type Store struct {
	mu    sync.RWMutex
	flags map[uuid.UUID]map[fret.ProfileFlag]bool
}

// NewStore returns an empty Store; every profile/flag combination defaults
// to false per spec.md §6.1 until explicitly set.
func NewStore() *Store {
	return &Store{flags: make(map[uuid.UUID]map[fret.ProfileFlag]bool)}
}

// IsFlagSet implements fret.FlagOracle.
func (s *Store) IsFlagSet(profileID uuid.UUID, flag fret.ProfileFlag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[profileID][flag]
}

// Set records enabled for flag under profileID. Setting fret.FlagNone is a
// caller error; the HTTP layer rejects it before reaching here.
func (s *Store) Set(profileID uuid.UUID, flag fret.ProfileFlag, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags[profileID] == nil {
		s.flags[profileID] = make(map[fret.ProfileFlag]bool)
	}
	s.flags[profileID][flag] = enabled
}

// Snapshot returns a copy of every registered profile's explicitly set flags
// (including ones set back to false; fret.FlagNone is never reported), for
// GET /flags/status. The returned map is safe to range over without
// holding the store's lock.
func (s *Store) Snapshot() map[uuid.UUID]map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]map[string]bool, len(s.flags))
	for profileID, flags := range s.flags {
		m := make(map[string]bool, len(flags))
		for flag, enabled := range flags {
			name := flagName(flag)
			if name == "" {
				continue
			}
			m[name] = enabled
		}
		if len(m) > 0 {
			out[profileID] = m
		}
	}
	return out
}
