package fret

import "testing"

type tickEvent struct {
	tick uint32
	name string
}

func tickEvents() []tickEvent {
	return []tickEvent{
		{tick: 100, name: "a"},
		{tick: 200, name: "b"},
		{tick: 200, name: "c"},
		{tick: 350, name: "d"},
	}
}

func TestEventCursorAdvanceTo(t *testing.T) {
	c := NewEventCursor(tickEvents(), func(e tickEvent) uint32 { return e.tick })

	if _, ok := c.Current(); ok {
		t.Fatalf("new cursor should be before the first event")
	}
	if !c.AdvanceTo(150) {
		t.Fatalf("expected AdvanceTo(150) to move the cursor")
	}
	if cur, _ := c.Current(); cur.name != "a" {
		t.Fatalf("expected cursor at 'a', got %q", cur.name)
	}
	if !c.AdvanceTo(200) {
		t.Fatalf("expected AdvanceTo(200) to move past both ties")
	}
	if cur, _ := c.Current(); cur.name != "c" {
		t.Fatalf("expected cursor at last tied event 'c', got %q", cur.name)
	}
	if c.AdvanceTo(200) {
		t.Fatalf("re-advancing to the same key should not move the cursor")
	}
}

func TestEventCursorAdvanceOneIfReady(t *testing.T) {
	c := NewEventCursor(tickEvents(), func(e tickEvent) uint32 { return e.tick })

	if _, moved := c.AdvanceOneIfReady(50); moved {
		t.Fatalf("should not advance before any event is due")
	}
	e, moved := c.AdvanceOneIfReady(100)
	if !moved || e.name != "a" {
		t.Fatalf("expected to advance onto 'a', got %+v moved=%v", e, moved)
	}
	e, moved = c.AdvanceOneIfReady(400)
	if !moved || e.name != "b" {
		t.Fatalf("expected single-step advance onto 'b', got %+v moved=%v", e, moved)
	}
}

func TestEventCursorResetTo(t *testing.T) {
	c := NewEventCursor(tickEvents(), func(e tickEvent) uint32 { return e.tick })

	c.ResetTo(250)
	if cur, _ := c.Current(); cur.name != "c" {
		t.Fatalf("ResetTo(250) should land on last event <= 250 ('c'), got %q", cur.name)
	}

	c.ResetTo(50)
	if _, ok := c.Current(); ok {
		t.Fatalf("ResetTo(50) should leave the cursor before-start")
	}
	if c.Pos() != -1 {
		t.Fatalf("expected Pos() -1, got %d", c.Pos())
	}

	c.ResetToStart()
	if _, ok := c.Current(); ok {
		t.Fatalf("ResetToStart should leave the cursor before-start")
	}
}
