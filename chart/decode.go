package chart

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

// logger is the package-wide structured logger, matching fret.logger's setup
// in spirit (see fret/log.go); chart.Decode failures are user-facing parse
// errors, not programmer errors, so they are returned, not panicked, and
// logged at Warn by callers that choose to.
var logger = slog.Default()

// rawLine is one "key = value" pair read from inside a chart section.
type rawLine struct {
	key   string
	value string
}

// Chart is the decoded contents of a .chart file: song metadata, the sync
// track, and one note slice per named track (e.g. "ExpertSingle").
type Chart struct {
	Resolution uint32
	Sync       SyncTrack
	Tracks     map[string][]Note
}

// fretLaneBit maps a .chart note-event lane number (0-4 = green..orange,
// 7 = open) to the five-fret bit it sets. Lane 5 and 6 are modifiers
// (forced HOPO / forced tap) handled separately, not real frets.
func fretLaneBit(lane int) (byte, bool) {
	switch lane {
	case 0:
		return GreenBit, true
	case 1:
		return RedBit, true
	case 2:
		return YellowBit, true
	case 3:
		return BlueBit, true
	case 4:
		return OrangeBit, true
	case 7:
		return OpenBit, true
	default:
		return 0, false
	}
}

type rawNoteEvent struct {
	tick   uint32
	lane   int
	length uint32
}

// Decode reads a .chart-format stream and produces a Chart. It follows the
// section/"tick = type data..." grammar omccully-go-games/gh-chart-parser.go
// scans, generalized from that parser's single NoteType column to the
// five-fret mask fields chart.Note needs.
func Decode(r io.Reader) (*Chart, error) {
	sections, err := scanSections(r)
	if err != nil {
		return nil, fmt.Errorf("chart: scan sections: %w", err)
	}

	c := &Chart{Tracks: make(map[string][]Note)}

	if song, ok := sections["Song"]; ok {
		for _, kv := range song {
			if kv.key == "Resolution" {
				n, err := strconv.ParseUint(kv.value, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("chart: bad Resolution %q: %w", kv.value, err)
				}
				c.Resolution = uint32(n)
			}
		}
	}
	if c.Resolution == 0 {
		c.Resolution = 192
	}

	if sync, ok := sections["SyncTrack"]; ok {
		points, err := decodeSyncTrack(sync)
		if err != nil {
			return nil, err
		}
		c.Sync = SyncTrack{Points: points, Resolution: c.Resolution}
	} else {
		c.Sync = SyncTrack{Points: []SyncPoint{{Tick: 0, BPM: 120}}, Resolution: c.Resolution}
	}

	for section, lines := range sections {
		if section == "Song" || section == "SyncTrack" {
			continue
		}
		notes, err := decodeNoteTrack(lines, c.Sync)
		if err != nil {
			return nil, fmt.Errorf("chart: track %s: %w", section, err)
		}
		if len(notes) > 0 {
			c.Tracks[section] = notes
		}
	}

	return c, nil
}

// DecodeFile opens path and decodes it. A decode error is logged at Warn and
// returned; an open error is returned without being logged.
func DecodeFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chart: open %s: %w", path, err)
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		logger.Warn("chart: decode failed", "path", path, "err", err)
		return nil, err
	}
	return c, nil
}

func scanSections(r io.Reader) (map[string][]rawLine, error) {
	sections := make(map[string][]rawLine)
	br := bufio.NewReader(r)
	current := ""
	for {
		line, err := br.ReadString('\n')
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == "{" || trimmed == "}":
			// ignore structural/blank lines
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			current = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
		default:
			idx := strings.Index(trimmed, "=")
			if idx < 0 || current == "" {
				break
			}
			key := strings.TrimSpace(trimmed[:idx])
			val := strings.TrimSpace(trimmed[idx+1:])
			sections[current] = append(sections[current], rawLine{key: key, value: val})
		}
		if err == io.EOF {
			break
		}
	}
	return sections, nil
}

func decodeSyncTrack(lines []rawLine) ([]SyncPoint, error) {
	var points []SyncPoint
	for _, kv := range lines {
		tick, err := strconv.ParseUint(kv.key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("chart: bad sync tick %q: %w", kv.key, err)
		}
		fields := strings.Fields(kv.value)
		if len(fields) < 2 {
			continue
		}
		if fields[0] != "B" {
			continue // TS (time signature) events don't affect tick<->time
		}
		raw, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chart: bad BPM %q: %w", fields[1], err)
		}
		points = append(points, SyncPoint{Tick: uint32(tick), BPM: float64(raw) / 1000.0})
	}
	if len(points) == 0 {
		points = []SyncPoint{{Tick: 0, BPM: 120}}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Tick < points[j].Tick })
	return points, nil
}

func decodeNoteTrack(lines []rawLine, sync SyncTrack) ([]Note, error) {
	var events []rawNoteEvent
	forcedHopoTicks := map[uint32]bool{}
	forcedTapTicks := map[uint32]bool{}

	for _, kv := range lines {
		tick, err := strconv.ParseUint(kv.key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad tick %q: %w", kv.key, err)
		}
		fields := strings.Fields(kv.value)
		if len(fields) < 2 || fields[0] != "N" {
			continue // non-note events (S = star power, E = text) are out of scope
		}
		lane, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("bad lane %q: %w", fields[1], err)
		}
		length := uint64(0)
		if len(fields) >= 3 {
			length, err = strconv.ParseUint(fields[2], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad length %q: %w", fields[2], err)
			}
		}
		switch lane {
		case 5:
			forcedHopoTicks[uint32(tick)] = true
		case 6:
			forcedTapTicks[uint32(tick)] = true
		default:
			if _, ok := fretLaneBit(lane); ok {
				events = append(events, rawNoteEvent{tick: uint32(tick), lane: lane, length: uint32(length)})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].tick < events[j].tick })

	// Group simultaneous-tick events into chords.
	var notes []Note
	prevIdx := -1
	i := 0
	for i < len(events) {
		j := i
		var mask byte
		var tickEnd uint32
		tick := events[i].tick
		for j < len(events) && events[j].tick == tick {
			bit, _ := fretLaneBit(events[j].lane)
			mask |= bit
			end := tick + events[j].length
			if end > tickEnd {
				tickEnd = end
			}
			j++
		}
		if tickEnd < tick {
			tickEnd = tick
		}

		n := Note{
			Time:              sync.TimeAtTick(tick),
			Tick:              tick,
			NoteMask:          mask,
			IsChord:           (j - i) > 1,
			IsHopo:            forcedHopoTicks[tick],
			IsTap:             forcedTapTicks[tick],
			TickEnd:           tickEnd,
			PreviousNoteIndex: prevIdx,
		}
		n.IsExtendedSustain = n.HasSustain() && n.IsChord
		notes = append(notes, n)
		prevIdx = len(notes) - 1
		i = j
	}

	return notes, nil
}
