package fret

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/loufret/fivefret/chart"
)

// EngineParameters are immutable for the lifetime of a session.
type EngineParameters struct {
	Window HitWindow

	AvgNoteDistance float64 // feeds HitWindow.CalculateHitWindow

	StrumLeniencySeconds      float64
	StrumLeniencySmallSeconds float64
	StarPowerWhammySeconds    float64

	// HopoLeniencySeconds is the HOPO/tap rule spec.md §3 calls out as its
	// own parameter category: how long after hitting a HOPO/tap note a
	// follow-up strum is still "eaten" (absorbed, no overstrum) rather than
	// penalized. Too short and it never survives a tick boundary; it must
	// outlive at least one full tick period for handleStrumEdge to ever see
	// HopoLeniencyTimer active on the strum that follows.
	HopoLeniencySeconds float64

	AntiGhosting     bool
	InfiniteFrontEnd bool
}

// DefaultEngineParameters matches the literal values spec.md §8's
// end-to-end scenarios assume.
func DefaultEngineParameters() EngineParameters {
	return EngineParameters{
		Window:                    DefaultHitWindow(),
		AvgNoteDistance:           0.5,
		StrumLeniencySeconds:      0.07,
		StrumLeniencySmallSeconds: 0.025,
		StarPowerWhammySeconds:    0.25,
		HopoLeniencySeconds:       0.08,
		AntiGhosting:              true,
	}
}

// noteState is the per-note mutable bookkeeping the engine owns, indexed
// parallel to the read-only Notes slice, per spec.md §9's Design Notes
// ("keep in a parallel array ... rather than mutating chart objects").
type noteState struct {
	wasHit    bool
	wasMissed bool
}

func (ns noteState) dealtWith() bool { return ns.wasHit || ns.wasMissed }

// engineState is the mutable, exclusively-engine-owned state of §3.
type engineState struct {
	NoteIndex   int
	CurrentTime float64
	CurrentTick uint32

	ButtonMask     byte
	LastButtonMask byte

	HasStrummed            bool
	HasFretted             bool
	HasTapped              bool
	IsFretPress            bool
	WasNoteGhosted         bool
	IsStarPowerInputActive bool

	FrontEndExpireTime float64

	ReRunHitLogic bool

	Combo int
}

const maxRerunIterations = 16

// Engine is the per-tick hit-detection state machine: TimerSet + HitWindow +
// FretStateModel + SustainSet + InputReducer wired together as HitResolver.
// It is constructed once per play session and ticked by a frame driver; see
// cmd/fretsim for the simplest such driver.
type Engine struct {
	notes  []chart.Note
	states []noteState

	params EngineParameters
	state  engineState

	timers   TimerSet
	sustains SustainSet
	gates    overrideGates

	sink EventSink
	bot  bool

	width float64 // CalculateHitWindow(params.AvgNoteDistance), fixed at construction
}

// NewEngine builds an Engine over notes, reporting to sink and gated by
// oracle/profileID. bot toggles spec.md §4.5 Step D's synthetic input path.
func NewEngine(notes []chart.Note, params EngineParameters, oracle FlagOracle, profileID uuid.UUID, sink EventSink, bot bool) *Engine {
	if sink == nil {
		sink = NopSink{}
	}
	e := &Engine{
		notes:  notes,
		states: make([]noteState, len(notes)),
		params: params,
		gates:  newOverrideGates(oracle, profileID),
		sink:   sink,
		bot:    bot,
		width:  params.Window.CalculateHitWindow(params.AvgNoteDistance),
	}
	e.state.ButtonMask = chart.OpenBit // invariant 6: OPEN set iff no frets held
	return e
}

func (e *Engine) frontEnd() float64 { return e.params.Window.GetFrontEnd(e.width) }
func (e *Engine) backEnd() float64  { return e.params.Window.GetBackEnd(e.width) }

// NoteIndex exposes §3 invariant 1/2's monotonic cursor.
func (e *Engine) NoteIndex() int { return e.state.NoteIndex }

// Combo exposes the engine's authoritative combo counter.
func (e *Engine) Combo() int { return e.state.Combo }

func (e *Engine) setCombo(n int) {
	if n == e.state.Combo {
		return
	}
	e.state.Combo = n
	e.sink.OnComboChange(n)
}

// Tick runs one simulation step at currentTime/currentTick. Callers must have
// folded every GameInput with Time <= currentTime via ReduceInputs first.
// Tick loops internally on ReRunHitLogic, capped per spec.md §4.8. A
// currentTime earlier than the previous Tick's is a programmer error and
// panics.
func (e *Engine) Tick(currentTime float64, currentTick uint32) {
	if currentTime < e.state.CurrentTime {
		panic(fmt.Sprintf("fret: Tick(%v) called after Tick(%v): ticks must not go backwards", currentTime, e.state.CurrentTime))
	}
	e.state.CurrentTime = currentTime
	e.state.CurrentTick = currentTick
	e.gates.refresh()

	for iter := 0; ; iter++ {
		if iter >= maxRerunIterations {
			logger.Warn("fret: ReRunHitLogic exceeded iteration cap", "iterations", iter)
			break
		}
		e.state.ReRunHitLogic = false
		e.runOnce()
		if !e.state.ReRunHitLogic {
			break
		}
	}
}

func (e *Engine) runOnce() {
	autoPlay := e.gates.IsAutoPlayActive()
	autoStrum := e.gates.IsAutoStrumActive()

	// Step A: timers, including star power sustain state.
	e.updateTimers(autoPlay, autoStrum)

	// Step B: AutoPlay clears player-only flags and skips straight to E.
	if autoPlay {
		e.state.HasStrummed = false
		e.state.HasFretted = false
		e.state.HasTapped = false
		e.state.IsFretPress = false
		e.state.WasNoteGhosted = false
	} else {
		// Step C: strum-edge handling (AutoStrum off).
		if !autoStrum {
			e.handleStrumEdge()
		}

		// Step D: bot simulation.
		if e.bot {
			e.simulateBotInput()
		}

		// Step E: ghost-input check.
		e.checkGhostInput()
	}

	// Step F: hit scan.
	e.hitScan(autoPlay, autoStrum)

	// Step G: sustain update.
	e.updateSustains(autoPlay)

	// Step H: reset per-frame flags (AutoPlay off only).
	if !autoPlay {
		e.state.HasStrummed = false
		e.state.HasFretted = false
		e.state.IsFretPress = false
	}
}

func (e *Engine) updateTimers(autoPlay, autoStrum bool) {
	now := e.state.CurrentTime

	if e.timers.IsActive(HopoLeniencyTimer) && e.timers.IsExpired(HopoLeniencyTimer, now) && !autoPlay {
		e.timers.Disable(HopoLeniencyTimer)
		e.state.ReRunHitLogic = true
	}

	if e.timers.IsActive(StrumLeniencyTimer) && e.timers.IsExpired(StrumLeniencyTimer, now) {
		if !autoPlay && !autoStrum {
			e.sink.OnOverstrum()
			e.setCombo(0)
		}
		e.timers.Disable(StrumLeniencyTimer)
		e.state.ReRunHitLogic = true
	}

	if e.timers.IsActive(ChordStaggerTimer) && e.timers.IsExpired(ChordStaggerTimer, now) {
		e.timers.Disable(ChordStaggerTimer)
		e.state.ReRunHitLogic = true
	}

	if e.timers.IsActive(FrontEndExpireTimer) && e.timers.IsExpired(FrontEndExpireTimer, now) {
		e.timers.Disable(FrontEndExpireTimer)
		e.state.ReRunHitLogic = true
	}

	if e.timers.IsActive(StarPowerWhammyTimer) && e.timers.IsExpired(StarPowerWhammyTimer, now) {
		e.timers.Disable(StarPowerWhammyTimer)
		e.sink.OnStarPowerStateChange(false)
	}
}

func (e *Engine) handleStrumEdge() {
	if !e.state.HasStrummed {
		return
	}
	now := e.state.CurrentTime

	switch {
	case e.timers.IsActive(HopoLeniencyTimer):
		// Strum eaten by HOPO: the preceding hit already satisfied timing.
		e.timers.Disable(HopoLeniencyTimer)
		e.timers.Disable(StrumLeniencyTimer)
		e.state.ReRunHitLogic = true

	case e.timers.IsActive(StrumLeniencyTimer):
		e.sink.OnOverstrum()
		e.setCombo(0)
		e.timers.Disable(StrumLeniencyTimer)
		e.state.ReRunHitLogic = true

	default:
		offset := 0.0
		if e.state.NoteIndex >= len(e.notes) {
			offset = e.params.StrumLeniencySmallSeconds
		} else if note := e.notes[e.state.NoteIndex]; now > note.Time+e.backEnd() {
			offset = e.params.StrumLeniencySmallSeconds
		}
		e.timers.Start(StrumLeniencyTimer, now, offset)
		e.state.ReRunHitLogic = true
	}
}

// simulateBotInput synthesizes an ideal ButtonMask for the current note once
// its time has arrived, per spec.md §4.5 Step D.
func (e *Engine) simulateBotInput() {
	if e.state.NoteIndex >= len(e.notes) {
		return
	}
	note := e.notes[e.state.NoteIndex]
	if e.state.CurrentTime < note.Time {
		return
	}
	mask := note.NoteMask | e.sustains.HeldFretMask(e.notes)
	if mask&chart.FretBitsMask != 0 {
		mask &^= chart.OpenBit
	}
	if mask == e.state.ButtonMask {
		return
	}
	e.state.LastButtonMask = e.state.ButtonMask
	e.state.ButtonMask = mask
	e.state.HasTapped = mask != e.state.LastButtonMask
	e.state.IsFretPress = true
}

// checkGhostInput implements spec.md §4.5 Step E.
func (e *Engine) checkGhostInput() {
	if !e.state.HasFretted || !e.params.AntiGhosting {
		return
	}
	if e.state.NoteIndex >= len(e.notes) {
		return
	}
	note := e.notes[e.state.NoteIndex]
	if e.state.CurrentTime > note.Time+e.backEnd() {
		return
	}

	e.state.HasTapped = true
	e.state.FrontEndExpireTime = e.state.CurrentTime + absF(e.frontEnd())

	if e.state.IsFretPress {
		heldTop := topBit(e.state.ButtonMask & chart.FretBitsMask)
		lastTop := topBit(e.state.LastButtonMask & chart.FretBitsMask)
		requiredHeld := (note.NoteMask&chart.FretBitsMask)&^(e.state.ButtonMask) == 0
		if heldTop > lastTop && !requiredHeld {
			e.state.WasNoteGhosted = true
			e.sink.OnGhostInput()
		}
	}
}

func topBit(mask byte) byte {
	var top byte
	for _, b := range fretBitsAscending {
		if mask&b != 0 {
			top = b
		}
	}
	return top
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// hitScan implements spec.md §4.5 Step F.
func (e *Engine) hitScan(autoPlay, autoStrum bool) {
	extended := e.sustains.HeldFretMask(e.notes)

	for i := e.state.NoteIndex; i < len(e.notes); i++ {
		if e.states[i].dealtWith() {
			continue
		}
		note := e.notes[i]

		inWindow, missed := e.isNoteInWindow(note)
		if i == e.state.NoteIndex {
			if missed {
				e.missNote(i)
				return
			}
			if !inWindow {
				return
			}
		} else if !inWindow {
			continue
		}

		if autoPlay {
			e.hitNote(i, autoPlay)
			return
		}

		if !CanNoteBeHit(note, e.state.ButtonMask, extended) {
			if i == e.state.NoteIndex {
				return
			}
			continue
		}

		hopoHit := note.IsHopo && (e.state.Combo > 0 || e.state.NoteIndex == 0)
		tapHit := note.IsTap
		frontEndValid := e.params.InfiniteFrontEnd ||
			e.state.FrontEndExpireTime == 0 ||
			e.state.CurrentTime <= e.state.FrontEndExpireTime ||
			e.state.NoteIndex == 0

		if e.state.HasTapped && (hopoHit || tapHit) && frontEndValid && !e.state.WasNoteGhosted {
			e.hitNote(i, autoPlay)
			return
		}

		if i == e.state.NoteIndex {
			strummed := (!autoStrum && (e.state.HasStrummed || e.timers.IsActive(StrumLeniencyTimer))) || autoStrum
			if strummed {
				e.hitNote(i, autoPlay)
			}
			return
		}
	}
}

// isNoteInWindow reports whether note is currently within its hit window,
// and separately whether it has aged past the window entirely (missed).
func (e *Engine) isNoteInWindow(note chart.Note) (inWindow, missed bool) {
	front := note.Time + e.frontEnd()
	back := note.Time + e.backEnd()
	now := e.state.CurrentTime
	if now < front {
		return false, false
	}
	if now > back {
		return false, true
	}
	return true, false
}

func (e *Engine) hitNote(i int, autoPlay bool) {
	note := e.notes[i]

	if !autoPlay {
		if note.IsHopo || note.IsTap {
			e.state.HasTapped = false
			e.timers.Start(HopoLeniencyTimer, e.state.CurrentTime, e.params.HopoLeniencySeconds)
		} else {
			e.state.FrontEndExpireTime = 0
		}
		e.timers.Disable(StrumLeniencyTimer)
	} else {
		e.timers.Disable(HopoLeniencyTimer)
		e.timers.Disable(StrumLeniencyTimer)
		e.state.FrontEndExpireTime = 0
		e.state.HasTapped = false
	}

	// hitFrets includes any anchor frets currently held, not just the note's
	// own required mask: fretting a new note retires an older extended
	// sustain sharing those frets even when the sustain's own bits aren't
	// part of the new chord, since the hand has moved on to a new shape.
	hitFrets := note.NoteMask | (e.state.ButtonMask &^ chart.OpenBit)
	e.sustains.EndMatching(hitFrets, func(sus Sustain) bool {
		return e.state.CurrentTick >= e.notes[sus.NoteIndex].TickEnd
	}, func(sus Sustain, completed bool) {
		e.sink.OnSustainEnd(sus.NoteIndex, e.notes[sus.NoteIndex], completed)
	})

	e.states[i].wasHit = true
	e.sink.OnNoteHit(i, note)
	e.setCombo(e.state.Combo + 1)

	if note.HasSustain() {
		e.sustains.Start(i, note)
		e.sink.OnSustainStart(i, note)
	}

	e.state.NoteIndex = i + 1
	e.state.ReRunHitLogic = true
}

func (e *Engine) missNote(i int) {
	e.state.HasTapped = false
	e.timers.Disable(HopoLeniencyTimer)
	e.timers.Disable(StrumLeniencyTimer)
	e.state.WasNoteGhosted = false
	e.state.FrontEndExpireTime = 0

	note := e.notes[i]
	e.states[i].wasMissed = true
	e.sink.OnNoteMissed(i, note)
	e.setCombo(0)

	e.state.NoteIndex = i + 1
	e.state.ReRunHitLogic = true
}

// updateSustains implements spec.md §4.5 Step G.
func (e *Engine) updateSustains(autoPlay bool) {
	e.sustains.Update(e.state.CurrentTick, e.notes, e.state.ButtonMask&chart.FretBitsMask, autoPlay,
		func(sus Sustain, completed bool) {
			e.sink.OnSustainEnd(sus.NoteIndex, e.notes[sus.NoteIndex], completed)
		})
}
