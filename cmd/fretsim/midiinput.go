package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/loufret/fivefret/fret"
)

// preferredMIDIPatterns and excludedMIDIPatterns mirror
// chase3718-lou-guitar/go/midi.go's device hot-swap heuristics: a real
// five-fret controller registers as a class-compliant MIDI device, so the
// same preferred/excluded substring matching applies unchanged.
var preferredMIDIPatterns = []string{"Guitar", "Five Fret", "Controller"}
var excludedMIDIPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const midiRescanInterval = 1000 * time.Millisecond

// connectBackoffBase/Max bound the reconnect backoff applied after a failed
// openByName: doubles on each consecutive failure, same exponential-doubling
// shape as lixenwraith-vi-fighter's spawn-cooldown backoff, capped so a
// stubborn device is still retried at a human-visible cadence instead of
// stalling out entirely.
const connectBackoffBase = 1000 * time.Millisecond
const connectBackoffMax = 16 * time.Second

// fretPitch maps the five fret buttons (in ascending fret order) to the MIDI
// note numbers a typical five-fret USB controller reports; pitch 60 is the
// strum-down trigger, 61 the strum-up trigger.
var fretPitch = map[int]fret.InputAction{
	36: fret.ActionFretGreen,
	37: fret.ActionFretRed,
	38: fret.ActionFretYellow,
	39: fret.ActionFretBlue,
	40: fret.ActionFretOrange,
}

const (
	strumDownPitch = 60
	strumUpPitch   = 61
	starPowerPitch = 62
)

// midiWatcher monitors available MIDI inputs and maintains a connection to
// the preferred five-fret controller, adapted from MIDIWatcher in
// chase3718-lou-guitar/go/midi.go: hot-plug and hot-unplug handling is
// unchanged, only the note callback's payload changes from (on, pitch) to a
// fret.GameInput appended to a shared queue.
type midiWatcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	connectFailures    int
	nextConnectAttempt time.Time

	onInput      func(fret.GameInput)
	onDisconnect func()
}

func newMIDIWatcher(onInput func(fret.GameInput), onDisconnect func()) (*midiWatcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &midiWatcher{drv: drv, onInput: onInput, onDisconnect: onDisconnect}, nil
}

func (m *midiWatcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	m.drv.Close()
}

// Tick scans for devices on midiRescanInterval, auto-connects to a preferred
// one, and detects disappearances. Call it once per frame from main's loop.
func (m *midiWatcher) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < midiRescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		for _, n := range inputs {
			if n == m.selectedName {
				return
			}
		}
		logger.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{}
		if m.onDisconnect != nil {
			go m.onDisconnect()
		}
		return
	}

	if len(inputs) == 0 {
		return
	}
	if now.Before(m.nextConnectAttempt) {
		return
	}
	cand, ok := m.pickPreferred(inputs)
	if !ok {
		return
	}
	if err := m.openByName(cand); err != nil {
		m.connectFailures++
		backoff := connectBackoffBase << uint(m.connectFailures-1)
		if backoff > connectBackoffMax || backoff <= 0 {
			backoff = connectBackoffMax
		}
		m.nextConnectAttempt = now.Add(backoff)
		logger.Error("midi: connect failed", "device", cand, "err", err, "retryIn", backoff)
		return
	}
	m.connectFailures = 0
	m.nextConnectAttempt = time.Time{}
}

func (m *midiWatcher) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		logger.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		excluded := false
		for _, pat := range excludedMIDIPatterns {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if excluded {
			logger.Debug("midi: input excluded", "device", name)
		} else {
			names = append(names, name)
		}
	}
	return names
}

func (m *midiWatcher) pickPreferred(inputs []string) (string, bool) {
	for _, pat := range preferredMIDIPatterns {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (m *midiWatcher) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *midiWatcher) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		m.dispatch(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", name, "err", listenErr)
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{}
				if m.onDisconnect != nil {
					go m.onDisconnect()
				}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopFn = stop
	m.connected = true
	m.selectedName = name
	logger.Info("midi: connected", "device", name)
	return nil
}

// dispatch translates a raw MIDI note event into a fret.GameInput and hands
// it to onInput, stamped with the arrival time.
func (m *midiWatcher) dispatch(msg midi.Message) {
	var ch, key, vel uint8
	now := nowSeconds()

	if msg.GetNoteStart(&ch, &key, &vel) {
		m.emit(int(key), true, now)
		return
	}
	if msg.GetNoteEnd(&ch, &key) {
		m.emit(int(key), false, now)
		return
	}
}

func (m *midiWatcher) emit(key int, down bool, t float64) {
	switch key {
	case strumDownPitch:
		m.onInput(fret.GameInput{Time: t, Action: fret.ActionStrumDown, Button: down})
	case strumUpPitch:
		m.onInput(fret.GameInput{Time: t, Action: fret.ActionStrumUp, Button: down})
	case starPowerPitch:
		m.onInput(fret.GameInput{Time: t, Action: fret.ActionStarPower, Button: down})
	default:
		if action, ok := fretPitch[key]; ok {
			m.onInput(fret.GameInput{Time: t, Action: action, Button: down})
		}
	}
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
