package fret

import (
	"testing"

	"github.com/google/uuid"

	"github.com/loufret/fivefret/chart"
)

// recordingSink captures every EventSink call for assertions, in the shape
// of the corpus's test-recording sinks (lixenwraith-vi-fighter's tests poke
// a simulation screen and assert on recorded state rather than mocking).
type recordingSink struct {
	NopSink

	hits       []int
	misses     []int
	overstrums int
	ghosts     int
	combos     []int
	sustainEnd []bool
}

func (s *recordingSink) OnNoteHit(i int, _ chart.Note)    { s.hits = append(s.hits, i) }
func (s *recordingSink) OnNoteMissed(i int, _ chart.Note) { s.misses = append(s.misses, i) }
func (s *recordingSink) OnOverstrum()                     { s.overstrums++ }
func (s *recordingSink) OnGhostInput()                    { s.ghosts++ }
func (s *recordingSink) OnComboChange(n int)              { s.combos = append(s.combos, n) }
func (s *recordingSink) OnSustainEnd(_ int, _ chart.Note, completed bool) {
	s.sustainEnd = append(s.sustainEnd, completed)
}

func (s *recordingSink) lastCombo() int {
	if len(s.combos) == 0 {
		return 0
	}
	return s.combos[len(s.combos)-1]
}

func note(time float64, mask byte) chart.Note {
	return chart.Note{
		Time:     time,
		Tick:     uint32(time * 1000),
		NoteMask: mask,
		TickEnd:  uint32(time * 1000),
	}
}

func hopoNote(time float64, mask byte) chart.Note {
	n := note(time, mask)
	n.IsHopo = true
	return n
}

func newTestEngine(notes []chart.Note, oracle FlagOracle, sink EventSink, bot bool) *Engine {
	return NewEngine(notes, DefaultEngineParameters(), oracle, uuid.New(), sink, bot)
}

// runSession folds inputs (already sorted by Time) and ticks in order,
// feeding only the inputs due by each tick, per spec.md §4.4's precondition.
func runSession(e *Engine, inputs []GameInput, ticks []float64) {
	for _, t := range ticks {
		inputs = e.ReduceInputs(inputs, t)
		e.Tick(t, uint32(t*1000))
	}
}

func TestCleanStrum(t *testing.T) {
	notes := []chart.Note{note(1.000, chart.GreenBit)}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, false), sink, false)

	inputs := []GameInput{
		{Time: 0.98, Action: ActionFretGreen, Button: true},
		{Time: 1.01, Action: ActionStrumDown, Button: true},
	}
	runSession(e, inputs, []float64{0.95, 1.00, 1.02})

	if len(sink.hits) != 1 || sink.hits[0] != 0 {
		t.Fatalf("expected one hit on note 0, got %v", sink.hits)
	}
	if sink.lastCombo() != 1 {
		t.Fatalf("expected combo 1, got %d", sink.lastCombo())
	}
}

func TestHopoChain(t *testing.T) {
	notes := []chart.Note{
		note(1.000, chart.GreenBit),
		hopoNote(1.150, chart.RedBit),
	}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, false), sink, false)

	inputs := []GameInput{
		{Time: 0.99, Action: ActionFretGreen, Button: true},
		{Time: 1.01, Action: ActionStrumDown, Button: true},
		{Time: 1.14, Action: ActionFretGreen, Button: false},
		{Time: 1.14, Action: ActionFretRed, Button: true},
	}
	runSession(e, inputs, []float64{1.00, 1.02, 1.14, 1.16})

	if len(sink.hits) != 2 {
		t.Fatalf("expected two hits, got %v", sink.hits)
	}
	if sink.hits[0] != 0 || sink.hits[1] != 1 {
		t.Fatalf("expected hits [0 1], got %v", sink.hits)
	}
}

func TestStrumEatenByHopo(t *testing.T) {
	notes := []chart.Note{note(1.0, chart.GreenBit), hopoNote(1.15, chart.RedBit)}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, false), sink, false)

	inputs := []GameInput{
		{Time: 0.99, Action: ActionFretGreen, Button: true},
		{Time: 1.01, Action: ActionStrumDown, Button: true},
		{Time: 1.14, Action: ActionFretGreen, Button: false},
		{Time: 1.14, Action: ActionFretRed, Button: true},
		{Time: 1.16, Action: ActionStrumDown, Button: true},
	}
	runSession(e, inputs, []float64{1.00, 1.02, 1.14, 1.16})

	if len(sink.hits) != 2 {
		t.Fatalf("expected both notes hit, got %v", sink.hits)
	}
	if sink.overstrums != 0 {
		t.Fatalf("a strum within HopoLeniency should be eaten, not counted as an overstrum, got %d", sink.overstrums)
	}
}

func TestOverstrum(t *testing.T) {
	notes := []chart.Note{note(2.000, chart.GreenBit)}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, false), sink, false)

	inputs := []GameInput{
		{Time: 1.50, Action: ActionStrumDown, Button: true},
		{Time: 1.60, Action: ActionStrumDown, Button: true},
	}
	runSession(e, inputs, []float64{1.61})

	if sink.overstrums != 1 {
		t.Fatalf("expected exactly one overstrum, got %d", sink.overstrums)
	}
	if len(sink.hits) != 0 {
		t.Fatalf("expected no hits, got %v", sink.hits)
	}
	if sink.lastCombo() != 0 {
		t.Fatalf("expected combo reset to 0, got %d", sink.lastCombo())
	}
}

func TestGhostInput(t *testing.T) {
	notes := []chart.Note{note(1.000, chart.RedBit)}
	params := DefaultEngineParameters()
	params.AntiGhosting = true
	sink := &recordingSink{}
	e := NewEngine(notes, params, StaticOracle(false, false), uuid.New(), sink, false)

	inputs := []GameInput{
		{Time: 0.92, Action: ActionFretGreen, Button: true},
		{Time: 0.93, Action: ActionFretYellow, Button: true},
		{Time: 1.00, Action: ActionStrumDown, Button: true},
	}
	runSession(e, inputs, []float64{0.94, 0.95, 1.00, 1.20})

	if sink.ghosts == 0 {
		t.Fatalf("expected at least one ghost input")
	}
	if len(sink.misses) != 1 || sink.misses[0] != 0 {
		t.Fatalf("expected note 0 to be missed, got hits=%v misses=%v", sink.hits, sink.misses)
	}
}

func TestAutoPlay(t *testing.T) {
	notes := []chart.Note{
		note(1.0, chart.GreenBit),
		note(1.2, chart.RedBit|chart.YellowBit),
	}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, true), sink, false)

	runSession(e, nil, []float64{1.00, 1.20})

	if len(sink.hits) != 2 {
		t.Fatalf("expected both notes hit under AutoPlay, got %v", sink.hits)
	}
	if sink.overstrums != 0 {
		t.Fatalf("AutoPlay must never overstrum, got %d", sink.overstrums)
	}
}

func TestExtendedSustainDoesNotBlockNextNote(t *testing.T) {
	sustained := note(1.0, chart.GreenBit)
	sustained.TickEnd = 3000 // sustain well past note 1's window
	sustained.IsExtendedSustain = true

	notes := []chart.Note{sustained, note(1.5, chart.RedBit)}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, false), sink, false)

	inputs := []GameInput{
		{Time: 0.99, Action: ActionFretGreen, Button: true},
		{Time: 1.01, Action: ActionStrumDown, Button: true},
		{Time: 1.49, Action: ActionFretRed, Button: true},
		{Time: 1.49, Action: ActionStrumDown, Button: true},
	}
	runSession(e, inputs, []float64{1.02, 1.5})

	if len(sink.hits) != 2 {
		t.Fatalf("expected both notes hit, got hits=%v misses=%v", sink.hits, sink.misses)
	}
	if len(sink.sustainEnd) != 1 || sink.sustainEnd[0] {
		t.Fatalf("expected sustain to end incomplete, got %v", sink.sustainEnd)
	}
}

func TestNoteIndexMonotonic(t *testing.T) {
	notes := []chart.Note{note(1.0, chart.GreenBit), note(2.0, chart.RedBit)}
	sink := &recordingSink{}
	e := newTestEngine(notes, StaticOracle(false, true), sink, false)

	last := 0
	for _, tick := range []float64{0.5, 1.0, 1.5, 2.0, 2.5} {
		e.Tick(tick, uint32(tick*1000))
		if e.NoteIndex() < last {
			t.Fatalf("NoteIndex went backwards: %d -> %d", last, e.NoteIndex())
		}
		last = e.NoteIndex()
	}
}

func TestButtonMaskOpenInvariant(t *testing.T) {
	e := newTestEngine([]chart.Note{note(5.0, chart.GreenBit)}, StaticOracle(false, false), &recordingSink{}, false)

	inputs := []GameInput{
		{Time: 0.1, Action: ActionFretGreen, Button: true},
		{Time: 0.2, Action: ActionFretGreen, Button: false},
	}
	remaining := e.ReduceInputs(inputs, 0.1)
	if e.state.ButtonMask&chart.OpenBit != 0 {
		t.Fatalf("OPEN bit set while a fret is held: %#x", e.state.ButtonMask)
	}
	e.ReduceInputs(remaining, 0.2)
	if e.state.ButtonMask&chart.OpenBit == 0 {
		t.Fatalf("OPEN bit not set once all frets released: %#x", e.state.ButtonMask)
	}
}
