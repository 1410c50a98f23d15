package frame

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/value"
)

func TestScopeExitVerboseKeepsEntries(t *testing.T) {
	f := New(EntryFrameName)
	enterIdx := f.ScopeEnter(ScopeIf, "")
	_ = f.Declare("x", value.Number(1), value.None, false, SourceNone)
	f.ScopeExitVerbose(ScopeIf, "")

	if len(f.OrderedEntries) != 3 {
		t.Fatalf("expected enter+declare+exit = 3 entries, got %d", len(f.OrderedEntries))
	}
	if f.OrderedEntries[enterIdx].Kind != EntryScopeEnter {
		t.Fatalf("expected ScopeEnter marker at recorded index")
	}
	if f.OrderedEntries[len(f.OrderedEntries)-1].Kind != EntryScopeExit {
		t.Fatalf("expected trailing ScopeExit marker")
	}
}

func TestScopeExitForgetDropsEverythingSinceEnter(t *testing.T) {
	f := New(EntryFrameName)
	_ = f.Declare("before", value.Number(1), value.None, false, SourceNone)
	enterIdx := f.ScopeEnter(ScopeFor, "i")
	_ = f.Declare("inner", value.Number(2), value.None, false, SourceNone)

	f.ScopeExitForget(enterIdx)

	if len(f.OrderedEntries) != 1 {
		t.Fatalf("expected only the pre-scope entry to survive, got %d entries", len(f.OrderedEntries))
	}
	if f.OrderedEntries[0].VarName != "before" {
		t.Fatalf("expected surviving entry to be 'before', got %+v", f.OrderedEntries[0])
	}
}

func TestPrepareAndResolveCompressReplacesSliceWithSummary(t *testing.T) {
	f := New(EntryFrameName)
	enterIdx := f.ScopeEnter(ScopeWhile, "loop")
	_ = f.Declare("x", value.Number(1), value.None, false, SourceNone)
	_ = f.Assign("x", value.Number(2), SourceNone)

	pending := f.PrepareCompress(enterIdx, ScopeWhile, "loop", "summarize this", "m")
	if len(pending.Entries) != 3 {
		t.Fatalf("expected 3 captured entries (enter+declare+assign), got %d", len(pending.Entries))
	}

	f.ResolveCompress(pending, "looped twice, x ended at 2")

	if len(f.OrderedEntries) != 1 {
		t.Fatalf("expected the bracketed range collapsed to one entry, got %d", len(f.OrderedEntries))
	}
	got := f.OrderedEntries[0]
	if got.Kind != EntrySummary || got.SummaryText != "looped twice, x ended at 2" {
		t.Fatalf("expected a Summary entry with the resolved text, got %+v", got)
	}
}
