package chart

import (
	"strings"
	"testing"
)

const sampleChart = `[Song]
{
  Resolution = 192
}
[SyncTrack]
{
  0 = B 120000
}
[ExpertSingle]
{
  0 = N 0 0
  192 = N 1 0
  192 = N 5 0
  384 = N 0 100
  384 = N 1 0
}
`

func TestDecodeBasicTrack(t *testing.T) {
	c, err := Decode(strings.NewReader(sampleChart))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Resolution != 192 {
		t.Fatalf("Resolution = %d, want 192", c.Resolution)
	}

	notes, ok := c.Tracks["ExpertSingle"]
	if !ok {
		t.Fatalf("expected ExpertSingle track")
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 grouped notes, got %d", len(notes))
	}

	if notes[0].Tick != 0 || notes[0].NoteMask != GreenBit || notes[0].IsChord {
		t.Fatalf("note 0 mismatch: %+v", notes[0])
	}
	if notes[0].Time != 0 {
		t.Fatalf("note 0 time = %v, want 0", notes[0].Time)
	}

	if notes[1].Tick != 192 || notes[1].NoteMask != RedBit || !notes[1].IsHopo {
		t.Fatalf("note 1 mismatch: %+v", notes[1])
	}
	if notes[1].Time != 0.5 {
		t.Fatalf("note 1 time = %v, want 0.5", notes[1].Time)
	}

	if notes[2].Tick != 384 || notes[2].NoteMask != GreenBit|RedBit || !notes[2].IsChord {
		t.Fatalf("note 2 mismatch: %+v", notes[2])
	}
	if notes[2].TickEnd != 484 {
		t.Fatalf("note 2 TickEnd = %d, want 484 (the longer sustain in the chord)", notes[2].TickEnd)
	}
	if !notes[2].IsExtendedSustain {
		t.Fatalf("a sustained chord should be marked IsExtendedSustain")
	}
	if notes[2].PreviousNoteIndex != 1 {
		t.Fatalf("note 2 PreviousNoteIndex = %d, want 1", notes[2].PreviousNoteIndex)
	}
}

func TestDecodeDefaultsResolutionAndTempo(t *testing.T) {
	const minimal = `[ExpertSingle]
{
  0 = N 0 0
}
`
	c, err := Decode(strings.NewReader(minimal))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Resolution != 192 {
		t.Fatalf("Resolution = %d, want default 192", c.Resolution)
	}
	if len(c.Sync.Points) != 1 || c.Sync.Points[0].BPM != 120 {
		t.Fatalf("expected a default 120 BPM sync point, got %+v", c.Sync.Points)
	}
}

func TestDecodeIgnoresNonNoteEvents(t *testing.T) {
	const withExtras = `[ExpertSingle]
{
  0 = N 0 0
  0 = S 2 100
  100 = E some_text_event
  200 = N 2 0
}
`
	c, err := Decode(strings.NewReader(withExtras))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	notes := c.Tracks["ExpertSingle"]
	if len(notes) != 2 {
		t.Fatalf("expected star power and text events to be skipped, got %d notes", len(notes))
	}
}

func TestDecodeEmptyTrackIsOmitted(t *testing.T) {
	const onlySpecial = `[ExpertSingle]
{
  0 = S 2 100
}
`
	c, err := Decode(strings.NewReader(onlySpecial))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := c.Tracks["ExpertSingle"]; ok {
		t.Fatalf("a track with no note events should not appear in Tracks")
	}
}

func TestDecodeBadResolution(t *testing.T) {
	const bad = `[Song]
{
  Resolution = notanumber
}
`
	if _, err := Decode(strings.NewReader(bad)); err == nil {
		t.Fatalf("expected an error for a non-numeric Resolution")
	}
}
