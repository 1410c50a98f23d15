package instr

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/value"
)

func TestPushRunsFirstArgumentFirst(t *testing.T) {
	s := NewStack()
	s.Push(NewPushValue(value.Number(1)), NewPushValue(value.Number(2)), NewPushValue(value.Number(3)))

	first, ok := s.Pop()
	if !ok || first.Value.Number != 1 {
		t.Fatalf("expected the first pushed instruction to pop first, got %+v ok=%v", first, ok)
	}
	second, _ := s.Pop()
	if second.Value.Number != 2 {
		t.Fatalf("expected second instruction next, got %v", second.Value.Number)
	}
	third, _ := s.Pop()
	if third.Value.Number != 3 {
		t.Fatalf("expected third instruction last, got %v", third.Value.Number)
	}
	if _, ok := s.Pop(); ok {
		t.Fatalf("expected stack to be empty")
	}
}

func TestPushReversedPreservesGivenOrder(t *testing.T) {
	s := NewStack()
	s.PushReversed(NewPushValue(value.Number(1)), NewPushValue(value.Number(2)))

	// PushReversed appends without flipping, so the LAST argument is on
	// top (pops first) — the inverse of Push.
	top, _ := s.Pop()
	if top.Value.Number != 2 {
		t.Fatalf("expected last-pushed instruction on top, got %v", top.Value.Number)
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	s := NewStack()
	s.Push(NewPopDiscard())
	if _, ok := s.Peek(); !ok {
		t.Fatalf("expected Peek to find the instruction")
	}
	if s.Len() != 1 {
		t.Fatalf("expected Peek to leave the stack untouched, len=%d", s.Len())
	}
}

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	s := NewStack()
	s.Push(NewPushValue(value.Text("a")), NewPushValue(value.Text("b")))

	snap := s.Snapshot()
	restored := NewStack()
	restored.Restore(snap)

	if restored.Len() != s.Len() {
		t.Fatalf("expected matching lengths, got %d vs %d", restored.Len(), s.Len())
	}
	a, _ := s.Pop()
	b, _ := restored.Pop()
	if a.Value.Text != b.Value.Text {
		t.Fatalf("expected matching top instruction after restore, got %q vs %q", a.Value.Text, b.Value.Text)
	}
}

func TestPopOnEmptyStack(t *testing.T) {
	s := NewStack()
	if _, ok := s.Pop(); ok {
		t.Fatalf("expected Pop on an empty stack to report ok=false")
	}
}
