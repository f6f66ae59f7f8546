package main

// Wire frame sent to an LED fretboard controller over serial, one per
// observable engine event. Adapted from chase3718-lou-guitar/go/frame.go's
// 6-string Frame: this instrument has 5 frets plus the synthetic OPEN state,
// not 6 independently-fretted strings, so the payload shrinks to four bytes
// (a fret bitmask, a one-shot strike flag, a combo count and a sequence
// number) instead of a per-string array.
const (
	cmdApplyFrame = 0x10
	sof0          = 0xAA
	sof1          = 0x55
)

// ledFrame is a full-state snapshot of the fretboard LEDs: which frets are
// lit (held or about to be hit) and whether a strike flash should fire.
type ledFrame struct {
	FretMask byte // bits 0-4 = green..orange, per chart.GreenBit..OrangeBit
	Struck   byte // 1 on a hit this frame, else 0
	Combo    byte // clamped combo count, for a combo-meter LED segment
	Seq      byte
}

// Encode builds the on-wire representation:
//
//	[sof0][sof1][len][cmd][FretMask][Struck][Combo][Seq][cks]
func (f ledFrame) Encode() []byte {
	payload := []byte{f.FretMask, f.Struck, f.Combo, f.Seq}

	length := byte(len(payload) + 1) // +1 for cmd byte
	cks := length ^ cmdApplyFrame
	for _, b := range payload {
		cks ^= b
	}

	out := []byte{sof0, sof1, length, cmdApplyFrame}
	out = append(out, payload...)
	out = append(out, cks)
	return out
}

func clampCombo(combo int) byte {
	if combo > 255 {
		return 255
	}
	if combo < 0 {
		return 0
	}
	return byte(combo)
}
