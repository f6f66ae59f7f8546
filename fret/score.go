package fret

import "github.com/loufret/fivefret/chart"

// ScoreKeeper is a default EventSink that accumulates combo, a streak-gated
// point multiplier, hit/miss counters and a 0.0-1.0 performance meter, in the
// shape of omccully-go-games/play-stats.go's playStats. It is explicitly not
// the star-power/multiplier-table scoring math spec.md §1 places out of
// scope — no per-instrument point tables, no star-power bonuses — just the
// generic bookkeeping most EventSink consumers need so they aren't forced to
// reimplement combo tracking from scratch.
type ScoreKeeper struct {
	NopSink

	Combo       int
	BestCombo   int
	NotesHit    int
	NotesMissed int
	GhostInputs int
	Overstrums  int
	Meter       float64 // 0.0 = failed, 1.0 = full
	Score       int
}

const (
	meterIncrement  = 0.02
	meterDecrement  = 0.025
	pointsPerNote   = 50
	multiplierTier1 = 10
	multiplierTier2 = 20
	multiplierTier3 = 30
)

// NewScoreKeeper returns a ScoreKeeper with a full meter, ready to track a
// fresh session.
func NewScoreKeeper() *ScoreKeeper {
	return &ScoreKeeper{Meter: 1.0}
}

func (sk *ScoreKeeper) multiplier() int {
	switch {
	case sk.Combo < multiplierTier1:
		return 1
	case sk.Combo < multiplierTier2:
		return 2
	case sk.Combo < multiplierTier3:
		return 3
	default:
		return 4
	}
}

func chordSize(note chart.Note) int {
	n := 0
	for _, bit := range fretBitsAscending {
		if note.NoteMask&bit != 0 {
			n++
		}
	}
	if note.NoteMask == chart.OpenBit || n == 0 {
		n = 1
	}
	return n
}

func (sk *ScoreKeeper) OnNoteHit(_ int, note chart.Note) {
	size := chordSize(note)
	sk.NotesHit += size
	sk.Combo += size
	if sk.Combo > sk.BestCombo {
		sk.BestCombo = sk.Combo
	}
	sk.Score += pointsPerNote * size * sk.multiplier()
	sk.adjustMeter(meterIncrement * float64(size))
}

func (sk *ScoreKeeper) OnNoteMissed(_ int, note chart.Note) {
	sk.NotesMissed += chordSize(note)
	sk.Combo = 0
	sk.adjustMeter(-meterDecrement)
}

func (sk *ScoreKeeper) OnOverstrum() {
	sk.Overstrums++
	sk.Combo = 0
	sk.adjustMeter(-meterDecrement)
}

func (sk *ScoreKeeper) OnGhostInput() {
	sk.GhostInputs++
}

func (sk *ScoreKeeper) adjustMeter(delta float64) {
	sk.Meter += delta
	if sk.Meter > 1.0 {
		sk.Meter = 1.0
	}
	if sk.Meter < 0.0 {
		sk.Meter = 0.0
	}
}

