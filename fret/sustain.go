package fret

import "github.com/loufret/fivefret/chart"

// Sustain is an active hold tied to the note it was earned from, from Start
// through to Update/EndMatching retiring it.
type Sustain struct {
	NoteIndex int
	Frets     byte // SustainFrets() of the owning note, cached at creation
	Completed bool // not written by SustainSet; completion is passed to the onEnd callbacks instead
}

// SustainSet is the ordered collection of currently-held sustains, in
// insertion (= hit time) order, per spec.md §3's EngineState.ActiveSustains.
type SustainSet struct {
	active []Sustain
}

// Start begins tracking a new sustain for note at noteIndex.
func (s *SustainSet) Start(noteIndex int, note chart.Note) {
	s.active = append(s.active, Sustain{
		NoteIndex: noteIndex,
		Frets:     note.SustainFrets(),
	})
}

// All returns the current sustains, oldest first. Callers must not retain the
// slice across a call that mutates the set.
func (s *SustainSet) All() []Sustain {
	return s.active
}

// HeldFretMask returns the union of fret bits currently held by every
// sustain whose owning note is marked extended. This is the
// "extendedSustainHeldFrets" CanNoteBeHit uses to avoid letting a sustain
// block the next note.
func (s *SustainSet) HeldFretMask(notes []chart.Note) byte {
	var mask byte
	for _, sus := range s.active {
		if notes[sus.NoteIndex].IsExtendedSustain {
			mask |= sus.Frets
		}
	}
	return mask
}

// EndMatching ends every active sustain whose fret bits intersect hitFrets
// (ignoring chart.OpenBit), per HitNote's cleanup rule. completed marks
// whether each ended sustain ran its full length.
func (s *SustainSet) EndMatching(hitFrets byte, completed func(sus Sustain) bool, onEnd func(sus Sustain, completed bool)) {
	hitFrets &^= chart.OpenBit
	kept := s.active[:0]
	for _, sus := range s.active {
		if sus.Frets&hitFrets != 0 {
			onEnd(sus, completed(sus))
			continue
		}
		kept = append(kept, sus)
	}
	s.active = kept
}

// Update ends every sustain whose note has reached tickEnd, or that is no
// longer held (not all of its Frets are in heldFrets), per spec.md §4.5 Step G. autoPlay
// bypasses the still-held check per spec.md §3 invariant 3's carve-out.
func (s *SustainSet) Update(currentTick uint32, notes []chart.Note, heldFrets byte, autoPlay bool, onEnd func(sus Sustain, completed bool)) {
	kept := s.active[:0]
	for _, sus := range s.active {
		note := notes[sus.NoteIndex]
		if currentTick >= note.TickEnd {
			onEnd(sus, true)
			continue
		}
		if !autoPlay && sus.Frets&heldFrets != sus.Frets {
			onEnd(sus, false)
			continue
		}
		kept = append(kept, sus)
	}
	s.active = kept
}

// Reset clears every active sustain without firing callbacks; used only for
// full session resets, never during normal play.
func (s *SustainSet) Reset() {
	s.active = nil
}
