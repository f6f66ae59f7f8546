package main

import (
	"os"

	"go.bug.st/serial"

	"github.com/loufret/fivefret/chart"
	"github.com/loufret/fivefret/fret"
)

// serialLEDSink is a fret.EventSink that mirrors hit/miss/combo state onto an
// LED fretboard over a serial link, the way chase3718-lou-guitar/go/serial.go
// drives its Arduino MCU: one frame write per observable event, no buffering.
type serialLEDSink struct {
	fret.NopSink

	port serial.Port
	seq  byte
}

// openLEDSerial opens name at baud and returns a serialLEDSink. Calls
// os.Exit(1) on failure, matching the teacher's OpenSerial fatal-on-open
// behavior: an LED sink with no port to write to cannot do its job.
func openLEDSerial(name string, baud int) *serialLEDSink {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		logger.Error("ledsink: failed to open serial port", "device", name, "baud", baud, "err", err)
		os.Exit(1)
	}
	logger.Info("ledsink: port opened", "device", name, "baud", baud)
	return &serialLEDSink{port: p}
}

func (s *serialLEDSink) send(f ledFrame) {
	f.Seq = s.seq
	s.seq++
	if _, err := s.port.Write(f.Encode()); err != nil {
		logger.Error("ledsink: write error", "err", err)
	}
}

func (s *serialLEDSink) OnNoteHit(_ int, note chart.Note) {
	s.send(ledFrame{FretMask: note.NoteMask &^ chart.OpenBit, Struck: 1})
}

func (s *serialLEDSink) OnNoteMissed(_ int, note chart.Note) {
	s.send(ledFrame{FretMask: note.NoteMask &^ chart.OpenBit, Struck: 0})
}

func (s *serialLEDSink) OnComboChange(newCombo int) {
	s.send(ledFrame{Combo: clampCombo(newCombo)})
}

// Close closes the underlying serial port.
func (s *serialLEDSink) Close() {
	logger.Info("ledsink: closing port")
	_ = s.port.Close()
}
