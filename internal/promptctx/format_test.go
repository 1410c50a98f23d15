package promptctx

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// newSingleFrameState builds a RuntimeState with a single entry frame,
// bypassing NewState (which requires a parsed program) — these tests drive
// the frame log directly.
func newSingleFrameState() *runtime.RuntimeState {
	return &runtime.RuntimeState{CallStack: []*frame.Frame{frame.New(frame.EntryFrameName)}}
}

// TestFormatContextForAI_S2 reproduces spec §8 scenario S2's exact
// rendered transcript: a vibe invocation with a two-round tool call-loop.
func TestFormatContextForAI_S2(t *testing.T) {
	s := newSingleFrameState()
	fr := s.CallStack[0]

	fr.AppendEntry(frame.FrameEntry{
		Kind: frame.EntryPrompt, AIKind: frame.AIVibe, Prompt: "Calculate (2+3) * 4",
		Response: value.Text("The result of (2+3) * 4 is 20"), HasResponse: true,
		PromptToolCalls: []frame.PromptToolCall{
			{Name: "add", Args: map[string]any{"a": 2.0, "b": 3.0}, Result: 5.0},
			{Name: "multiply", Args: map[string]any{"a": 5.0, "b": 4.0}, Result: 20.0},
		},
	})
	fr.Locals["result"] = &frame.Variable{Value: value.Text("The result of (2+3) * 4 is 20"), Annotation: value.TypeAnnotation{Base: "text"}}
	fr.AppendEntry(frame.NewVariableEntry("result", value.Text("The result of (2+3) * 4 is 20"), value.TypeAnnotation{Base: "text"}, false, frame.SourceAI))

	entries := BuildLocalContext(s)
	got := FormatContextForAI(entries, FormatOptions{}).Text

	want := "  <entry> (current scope)\n" +
		"    --> vibe: \"Calculate (2+3) * 4\"\n" +
		"    [tool] add({\"a\":2,\"b\":3})\n" +
		"    [result] 5\n" +
		"    [tool] multiply({\"a\":5,\"b\":4})\n" +
		"    [result] 20\n" +
		"    <-- result (text): The result of (2+3) * 4 is 20\n"

	if got != want {
		t.Fatalf("rendered context mismatch:\n got: %q\nwant: %q", got, want)
	}
}

// TestBuildLocalContext_FiltersModelAndPrompt asserts spec §4.F's filter:
// Variable entries annotated `model` or `prompt` never reach the rendered
// context.
func TestBuildLocalContext_FiltersModelAndPrompt(t *testing.T) {
	s := newSingleFrameState()
	fr := s.CallStack[0]
	fr.AppendEntry(frame.NewVariableEntry("m", value.Model(value.ModelConfig{Name: "t"}), value.None, true, frame.SourceNone))
	fr.AppendEntry(frame.NewVariableEntry("p", value.Text("instructions"), value.TypeAnnotation{Base: "prompt"}, true, frame.SourceNone))
	fr.AppendEntry(frame.NewVariableEntry("x", value.Number(1), value.TypeAnnotation{Base: "number"}, false, frame.SourceNone))

	entries := BuildLocalContext(s)
	if len(entries) != 1 || entries[0].Entry.VarName != "x" {
		t.Fatalf("expected only 'x' to survive filtering, got %+v", entries)
	}
}

// TestBuildLocalContext_SnapshotOrder reproduces spec §8 scenario S5: three
// reassignments of the same variable yield three ordered snapshots.
func TestBuildLocalContext_SnapshotOrder(t *testing.T) {
	s := newSingleFrameState()
	fr := s.CallStack[0]
	ann := value.TypeAnnotation{Base: "number"}
	fr.Locals["x"] = &frame.Variable{Value: value.Number(1), Annotation: ann}
	fr.AppendEntry(frame.NewVariableEntry("x", value.Number(1), ann, false, frame.SourceNone))
	fr.AppendEntry(frame.NewVariableEntry("x", value.Number(2), ann, false, frame.SourceNone))
	fr.AppendEntry(frame.NewVariableEntry("x", value.Number(3), ann, false, frame.SourceNone))

	entries := BuildLocalContext(s)
	if len(entries) != 3 {
		t.Fatalf("expected 3 snapshot entries, got %d", len(entries))
	}
	for i, want := range []float64{1, 2, 3} {
		if entries[i].Entry.VarValue.Number != want {
			t.Errorf("entry %d: got %v, want %v", i, entries[i].Entry.VarValue.Number, want)
		}
	}
}

// TestBuildGlobalContext_SupersetOfLocal asserts spec §8 property 6:
// build_local_context is a subset of build_global_context for the current
// frame's entries.
func TestBuildGlobalContext_SupersetOfLocal(t *testing.T) {
	s := &runtime.RuntimeState{CallStack: []*frame.Frame{frame.New(frame.EntryFrameName), frame.New("f")}}
	ann := value.TypeAnnotation{Base: "number"}
	s.CallStack[0].AppendEntry(frame.NewVariableEntry("g", value.Number(1), ann, false, frame.SourceNone))
	s.CallStack[1].AppendEntry(frame.NewVariableEntry("l", value.Number(2), ann, false, frame.SourceNone))

	local := BuildLocalContext(s)
	global := BuildGlobalContext(s)

	if len(local) != 1 || local[0].Entry.VarName != "l" {
		t.Fatalf("local context should contain only the top frame's entries, got %+v", local)
	}
	if len(global) != 2 {
		t.Fatalf("global context should contain both frames' entries, got %+v", global)
	}
	for _, le := range local {
		found := false
		for _, ge := range global {
			if ge.Entry.VarName == le.Entry.VarName && ge.FrameName == le.FrameName {
				found = true
			}
		}
		if !found {
			t.Errorf("local entry %+v missing from global context", le)
		}
	}
}
