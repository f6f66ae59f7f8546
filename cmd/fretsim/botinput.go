package main

import (
	"container/heap"

	"github.com/loufret/fivefret/chart"
	"github.com/loufret/fivefret/fret"
)

// plannedInput is one synthetic bot input due at a future simulated time.
// Adapted from chase3718-lou-guitar/go/main.go's PlannedCmd: that type pairs
// a wall-clock time.Time with an actuator Cmd for a min-heap dispatch queue;
// here the deadline is a simulation-time float64 and the payload is a
// fret.GameInput, but the scheduling shape (push ahead of time, flush what's
// due) is the same.
type plannedInput struct {
	at    float64
	input fret.GameInput
}

// inputHeap is a min-heap of plannedInput ordered by at, identical in
// structure to chase3718-lou-guitar/go/main.go's MinHeap.
type inputHeap []plannedInput

func (h inputHeap) Len() int            { return len(h) }
func (h inputHeap) Less(i, j int) bool  { return h[i].at < h[j].at }
func (h inputHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *inputHeap) Push(x interface{}) { *h = append(*h, x.(plannedInput)) }
func (h *inputHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// botScheduler synthesizes ideal input for an upcoming chart by scheduling a
// fret press slightly ahead of each note's time and a strum exactly on it,
// queuing both on an inputHeap and flushing whatever is due each tick. This
// stands in for spec.md §4.5 Step D's "synthesize ideal ButtonMask" bot path
// when the driver wants bot behavior expressed as ordinary GameInput events
// rather than a direct ButtonMask override, e.g. to exercise InputReducer.
type botScheduler struct {
	queue     inputHeap
	nextIndex int
	leadTime  float64
}

func newBotScheduler(leadTime float64) *botScheduler {
	return &botScheduler{leadTime: leadTime}
}

// ScheduleUpTo enqueues press/strum events for every note in notes whose
// time falls within leadTime of currentTime and has not already been
// scheduled.
func (b *botScheduler) ScheduleUpTo(notes []chart.Note, currentTime float64) {
	for b.nextIndex < len(notes) {
		note := notes[b.nextIndex]
		if note.Time > currentTime+b.leadTime {
			return
		}
		b.enqueueNote(note)
		b.nextIndex++
	}
}

func (b *botScheduler) enqueueNote(note chart.Note) {
	pressAt := note.Time - b.leadTime*0.5
	for _, action := range fretActionsForMask(note.NoteMask) {
		heap.Push(&b.queue, plannedInput{at: pressAt, input: fret.GameInput{Time: pressAt, Action: action, Button: true}})
	}
	heap.Push(&b.queue, plannedInput{at: note.Time, input: fret.GameInput{Time: note.Time, Action: fret.ActionStrumDown, Button: true}})
}

// Due pops and returns every planned input whose deadline has arrived,
// oldest first, mirroring flushDueCommands' drain-while-due loop.
func (b *botScheduler) Due(currentTime float64) []fret.GameInput {
	var due []fret.GameInput
	for b.queue.Len() > 0 && b.queue[0].at <= currentTime {
		pc := heap.Pop(&b.queue).(plannedInput)
		due = append(due, pc.input)
	}
	return due
}

func fretActionsForMask(mask byte) []fret.InputAction {
	var actions []fret.InputAction
	if mask&chart.GreenBit != 0 {
		actions = append(actions, fret.ActionFretGreen)
	}
	if mask&chart.RedBit != 0 {
		actions = append(actions, fret.ActionFretRed)
	}
	if mask&chart.YellowBit != 0 {
		actions = append(actions, fret.ActionFretYellow)
	}
	if mask&chart.BlueBit != 0 {
		actions = append(actions, fret.ActionFretBlue)
	}
	if mask&chart.OrangeBit != 0 {
		actions = append(actions, fret.ActionFretOrange)
	}
	return actions
}
