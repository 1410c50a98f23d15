package frame

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/value"
)

func TestDeclareAppendsEntryAndBinds(t *testing.T) {
	f := New(EntryFrameName)
	if err := f.Declare("x", value.Number(1), value.None, false, SourceNone); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	v, ok := f.Lookup("x")
	if !ok || v.Value.Number != 1 {
		t.Fatalf("expected x bound to 1, got %+v ok=%v", v, ok)
	}
	if len(f.OrderedEntries) != 1 || f.OrderedEntries[0].Kind != EntryVariable {
		t.Fatalf("expected one Variable entry, got %+v", f.OrderedEntries)
	}
}

func TestDeclareDuplicateFails(t *testing.T) {
	f := New(EntryFrameName)
	_ = f.Declare("x", value.Number(1), value.None, false, SourceNone)
	err := f.Declare("x", value.Number(2), value.None, false, SourceNone)
	if _, ok := err.(*DuplicateError); !ok {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
}

func TestAssignAppendsNewEntryEachTime(t *testing.T) {
	f := New(EntryFrameName)
	_ = f.Declare("x", value.Number(1), value.None, false, SourceNone)
	if err := f.Assign("x", value.Number(2), SourceNone); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := f.Assign("x", value.Number(3), SourceAI); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(f.OrderedEntries) != 3 {
		t.Fatalf("expected 3 entries (declare + 2 assigns), got %d", len(f.OrderedEntries))
	}
	v, _ := f.Lookup("x")
	if v.Value.Number != 3 {
		t.Fatalf("expected live value 3, got %v", v.Value.Number)
	}
	if f.OrderedEntries[1].VarValue.Number != 2 || f.OrderedEntries[2].VarValue.Number != 3 {
		t.Fatalf("expected each snapshot to retain its own value, got %+v", f.OrderedEntries)
	}
}

func TestAssignUndeclaredFails(t *testing.T) {
	f := New(EntryFrameName)
	err := f.Assign("missing", value.Number(1), SourceNone)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAssignConstFails(t *testing.T) {
	f := New(EntryFrameName)
	_ = f.Declare("c", value.Number(1), value.None, true, SourceNone)
	err := f.Assign("c", value.Number(2), SourceNone)
	if _, ok := err.(*ImmutableError); !ok {
		t.Fatalf("expected ImmutableError, got %v", err)
	}
}

func TestAssignSnapshotIsIndependentOfLaterMutation(t *testing.T) {
	f := New(EntryFrameName)
	arr := value.Array([]value.Value{value.Number(1)})
	_ = f.Declare("xs", arr, value.None, false, SourceNone)

	// Mutate the caller's slice after declaring; the frame's snapshot must
	// not observe it (spec invariant 3).
	arr.Array[0] = value.Number(99)

	entry := f.OrderedEntries[0]
	if entry.VarValue.Array[0].Number != 1 {
		t.Fatalf("expected snapshot to retain original element, got %v", entry.VarValue.Array[0].Number)
	}
}

func TestRemoveDropsLocalButKeepsLog(t *testing.T) {
	f := New(EntryFrameName)
	_ = f.Declare("x", value.Number(1), value.None, false, SourceNone)
	f.Remove("x")
	if _, ok := f.Lookup("x"); ok {
		t.Fatalf("expected x to be gone from locals")
	}
	if len(f.OrderedEntries) != 1 {
		t.Fatalf("expected the Declare entry to remain in the log, got %d entries", len(f.OrderedEntries))
	}
}
