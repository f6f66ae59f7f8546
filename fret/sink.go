package fret

import "github.com/loufret/fivefret/chart"

// EventSink receives every observable outcome the engine produces. Score,
// combo, star-power and multiplier math are not the engine's job (spec.md
// §1 treats them as abstract side effects); a sink either forwards these
// calls to a scoring subsystem or, for tests, records them for inspection.
type EventSink interface {
	OnNoteHit(noteIndex int, note chart.Note)
	OnNoteMissed(noteIndex int, note chart.Note)
	OnOverstrum()
	OnGhostInput()
	OnSustainStart(noteIndex int, note chart.Note)
	OnSustainEnd(noteIndex int, note chart.Note, completed bool)
	OnComboChange(newCombo int)
	OnStarPowerStateChange(active bool)
}

// NopSink discards every event; useful as an embeddable default for sinks
// that only care about a handful of the methods.
type NopSink struct{}

func (NopSink) OnNoteHit(int, chart.Note)             {}
func (NopSink) OnNoteMissed(int, chart.Note)          {}
func (NopSink) OnOverstrum()                          {}
func (NopSink) OnGhostInput()                         {}
func (NopSink) OnSustainStart(int, chart.Note)        {}
func (NopSink) OnSustainEnd(int, chart.Note, bool)    {}
func (NopSink) OnComboChange(int)                     {}
func (NopSink) OnStarPowerStateChange(bool)           {}

// MultiSink fans every call out to each sink in order, so e.g. a
// ScoreKeeper and a test-recording sink can observe the same session.
type MultiSink []EventSink

func (m MultiSink) OnNoteHit(i int, n chart.Note) {
	for _, s := range m {
		s.OnNoteHit(i, n)
	}
}

func (m MultiSink) OnNoteMissed(i int, n chart.Note) {
	for _, s := range m {
		s.OnNoteMissed(i, n)
	}
}

func (m MultiSink) OnOverstrum() {
	for _, s := range m {
		s.OnOverstrum()
	}
}

func (m MultiSink) OnGhostInput() {
	for _, s := range m {
		s.OnGhostInput()
	}
}

func (m MultiSink) OnSustainStart(i int, n chart.Note) {
	for _, s := range m {
		s.OnSustainStart(i, n)
	}
}

func (m MultiSink) OnSustainEnd(i int, n chart.Note, completed bool) {
	for _, s := range m {
		s.OnSustainEnd(i, n, completed)
	}
}

func (m MultiSink) OnComboChange(newCombo int) {
	for _, s := range m {
		s.OnComboChange(newCombo)
	}
}

func (m MultiSink) OnStarPowerStateChange(active bool) {
	for _, s := range m {
		s.OnStarPowerStateChange(active)
	}
}
