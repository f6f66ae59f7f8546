package fret

import "github.com/loufret/fivefret/chart"

var fretBitsAscending = []byte{chart.GreenBit, chart.RedBit, chart.YellowBit, chart.BlueBit, chart.OrangeBit}

// lowestSetBit returns the value of the lowest set bit in mask, or 0 if mask
// is zero. Bits are powers of two, so this is also the numerically smallest
// bit value present.
func lowestSetBit(mask byte) byte {
	return mask & (-mask)
}

// allBitsBeyond reports whether every set bit in mask sits on the wanted side
// of threshold: strictly greater when higher is true, strictly less
// otherwise. Used for the two different anchoring directions spec.md §4.3
// describes for "OPEN plus frets" chords versus plain fret chords.
func allBitsBeyond(mask, threshold byte, higher bool) bool {
	for _, b := range fretBitsAscending {
		if mask&b == 0 {
			continue
		}
		if higher {
			if b <= threshold {
				return false
			}
		} else if b >= threshold {
			return false
		}
	}
	return true
}

// matchFretMask implements spec.md §4.3's three-way predicate, given the
// note's required mask and the buttons currently held (both including the
// synthetic chart.OpenBit per invariant 6: OpenBit set iff no fret bits are
// held).
func matchFretMask(required, held byte) bool {
	switch {
	case required == chart.OpenBit:
		// 1. Open-only note: hittable iff no frets are held.
		return held == chart.OpenBit

	case required&chart.OpenBit != 0:
		// 2. Note requiring OPEN plus frets.
		requiredFrets := required & chart.FretBitsMask
		heldFrets := held & chart.FretBitsMask
		if heldFrets&requiredFrets != requiredFrets {
			return false
		}
		extra := heldFrets &^ requiredFrets
		if extra == 0 {
			return true
		}
		lowestRequired := lowestSetBit(requiredFrets)
		return allBitsBeyond(extra, lowestRequired, true)

	default:
		// 3. Pure fret note.
		requiredFrets := required & chart.FretBitsMask
		heldFrets := held & chart.FretBitsMask
		if heldFrets&requiredFrets != requiredFrets {
			return false // required frets not all held
		}
		if heldFrets == requiredFrets {
			return true
		}
		extra := heldFrets &^ requiredFrets
		lowestRequired := lowestSetBit(requiredFrets)
		return allBitsBeyond(extra, lowestRequired, false)
	}
}

// CanNoteBeHit decides, ignoring timing, whether note is hittable given the
// player's currently held buttons and the fret bits tied up by
// extended-sustain holds that should not block the next note's match.
func CanNoteBeHit(note chart.Note, buttonsHeld byte, extendedSustainHeldFrets byte) bool {
	if matchFretMask(note.NoteMask, buttonsHeld) {
		return true
	}
	if extendedSustainHeldFrets == 0 {
		return false
	}
	relieved := buttonsHeld &^ extendedSustainHeldFrets
	if relieved&chart.FretBitsMask == 0 {
		relieved = (relieved &^ chart.OpenBit) | chart.OpenBit
	}
	return matchFretMask(note.NoteMask, relieved)
}
