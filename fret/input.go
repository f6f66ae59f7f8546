package fret

import "github.com/loufret/fivefret/chart"

// InputAction names the kind of GameInput event the frame driver delivers to
// the engine every tick, folded in timestamp order ahead of Tick per
// spec.md §4.4's precondition.
type InputAction int

const (
	ActionStarPower InputAction = iota
	ActionWhammy
	ActionFretGreen
	ActionFretRed
	ActionFretYellow
	ActionFretBlue
	ActionFretOrange
	ActionStrumDown
	ActionStrumUp
)

var fretActionBits = map[InputAction]byte{
	ActionFretGreen:  chart.GreenBit,
	ActionFretRed:    chart.RedBit,
	ActionFretYellow: chart.YellowBit,
	ActionFretBlue:   chart.BlueBit,
	ActionFretOrange: chart.OrangeBit,
}

// GameInput is one quantized player event, stamped with the time it occurred.
type GameInput struct {
	Time   float64
	Action InputAction
	Button bool // true = pressed/down, false = released/up
}

// reduceInput folds a single GameInput into the engine's state, per
// spec.md §4.4's table. autoPlay suppresses every player-action flag;
// autoStrum additionally suppresses HasStrummed on strum edges.
func (e *Engine) reduceInput(in GameInput, autoPlay, autoStrum bool) {
	switch in.Action {
	case ActionStarPower:
		e.state.IsStarPowerInputActive = in.Button

	case ActionWhammy:
		if in.Button {
			e.timers.Start(StarPowerWhammyTimer, in.Time, e.params.StarPowerWhammySeconds)
		}

	case ActionStrumDown, ActionStrumUp:
		if in.Button && !autoPlay && !autoStrum {
			e.state.HasStrummed = true
		}

	default:
		bit, ok := fretActionBits[in.Action]
		if !ok {
			return
		}
		// LastButtonMask is snapshotted only on fret edges and only while
		// AutoPlay is off, and is not reset when AutoPlay turns off, so the
		// first ghost check after that transition compares against the last
		// manual fret edge.
		if !autoPlay {
			e.state.LastButtonMask = e.state.ButtonMask
		}
		if in.Button {
			e.state.ButtonMask |= bit
		} else {
			e.state.ButtonMask &^= bit
		}
		if e.state.ButtonMask&chart.FretBitsMask == 0 {
			e.state.ButtonMask |= chart.OpenBit
		} else {
			e.state.ButtonMask &^= chart.OpenBit
		}
		if !autoPlay {
			e.state.HasFretted = true
			e.state.IsFretPress = in.Button
		}
	}
}

// ReduceInputs folds every input with Time <= currentTime, in order, ahead of
// Tick(currentTime). Inputs are consumed destructively; callers own queueing
// and ordering guarantees per spec.md §5.
func (e *Engine) ReduceInputs(inputs []GameInput, currentTime float64) []GameInput {
	autoPlay := e.gates.IsAutoPlayActive()
	autoStrum := e.gates.IsAutoStrumActive()
	i := 0
	for i < len(inputs) && inputs[i].Time <= currentTime {
		e.reduceInput(inputs[i], autoPlay, autoStrum)
		i++
	}
	return inputs[i:]
}
