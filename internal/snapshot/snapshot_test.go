package snapshot

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// buildRunningState reproduces spec §8 S5 up to its second assignment,
// leaving `x = 3` still queued on the instruction stack, so Serialize must
// round-trip a non-terminal state (callstack locals, entry log, and a
// pending instruction) rather than only a finished one.
func buildRunningState(t *testing.T) *runtime.RuntimeState {
	t.Helper()
	program := &ast.Program{
		Statements: []ast.Statement{
			&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Target: &ast.Identifier{Name: "x"},
				Value:  &ast.NumberLiteral{Value: 3},
			}},
		},
	}
	s := runtime.NewState(program, "/tmp/prog")
	top := s.CallStack[len(s.CallStack)-1]
	if err := top.Declare("x", value.Number(1), value.None, false, frame.SourceNone); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := top.Assign("x", value.Number(2), frame.SourceNone); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return s
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := buildRunningState(t)

	data, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if restored.Status != s.Status {
		t.Fatalf("status mismatch: got %v want %v", restored.Status, s.Status)
	}
	if len(restored.CallStack) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(restored.CallStack))
	}
	entries := restored.CallStack[0].OrderedEntries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (declare+assign), got %d", len(entries))
	}
	if entries[0].VarValue.Number != 1 || entries[1].VarValue.Number != 2 {
		t.Fatalf("snapshot values not preserved: %v, %v", entries[0].VarValue, entries[1].VarValue)
	}
	xVar, ok := restored.CallStack[0].Lookup("x")
	if !ok || xVar.Value.Number != 2 {
		t.Fatalf("expected live x == 2, got %+v ok=%v", xVar, ok)
	}
	if restored.Instructions.Len() != s.Instructions.Len() {
		t.Fatalf("instruction stack length mismatch: got %d want %d", restored.Instructions.Len(), s.Instructions.Len())
	}
}

func TestSerializeRejectsFutureSchema(t *testing.T) {
	s := buildRunningState(t)
	data, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	bumped := append([]byte("schemaVersion: 999\n"), stripFirstLine(data)...)
	if _, err := Deserialize(bumped); err == nil {
		t.Fatalf("expected error decoding a mismatched schema version")
	}
}

func stripFirstLine(data []byte) []byte {
	for i, b := range data {
		if b == '\n' {
			return data[i+1:]
		}
	}
	return nil
}

func TestClonePreservesPendingAI(t *testing.T) {
	s := buildRunningState(t)
	s.Status = runtime.StatusAwaitingAI
	s.PendingAI = &runtime.PendingAI{
		AIKind: frame.AIDo, Prompt: "what is 2 + 2?",
		DestAnnotation: value.TypeAnnotation{Base: "text"},
	}

	cloned, err := Clone(s)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if cloned.Status != runtime.StatusAwaitingAI {
		t.Fatalf("expected awaiting_ai, got %v", cloned.Status)
	}
	if cloned.PendingAI == nil || cloned.PendingAI.Prompt != "what is 2 + 2?" {
		t.Fatalf("PendingAI not preserved: %+v", cloned.PendingAI)
	}
	if cloned.PendingAI.AIKind != frame.AIDo {
		t.Fatalf("expected AIDo, got %v", cloned.PendingAI.AIKind)
	}
}
