package runtime

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

func runToPause(s *RuntimeState) {
	for s.Status == StatusRunning {
		Step(s)
	}
}

func TestLetDeclarationBindsEvaluatedExpression(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{Name: "x", Value: &ast.BinaryExpression{
			Op: ast.OpAdd, Left: &ast.NumberLiteral{Value: 1}, Right: &ast.NumberLiteral{Value: 2},
		}},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, ok := s.CallStack[0].Lookup("x")
	if !ok || v.Value.Number != 3 {
		t.Fatalf("expected x == 3, got %+v ok=%v", v, ok)
	}
}

func TestIfStatementTakesTrueBranch(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{Name: "y", Value: &ast.NumberLiteral{Value: 0}},
		&ast.IfStatement{
			Condition: &ast.BooleanLiteral{Value: true},
			Then: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Target: &ast.Identifier{Name: "y"}, Value: &ast.NumberLiteral{Value: 1},
			}}},
			Else: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Target: &ast.Identifier{Name: "y"}, Value: &ast.NumberLiteral{Value: 2},
			}}},
		},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, _ := s.CallStack[0].Lookup("y")
	if v.Value.Number != 1 {
		t.Fatalf("expected the then-branch to run, y == 1, got %v", v.Value.Number)
	}
}

func TestWhileLoopRunsUntilConditionFalse(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{Name: "i", Value: &ast.NumberLiteral{Value: 0}},
		&ast.WhileStatement{
			Condition: &ast.BinaryExpression{Op: ast.OpLt, Left: &ast.Identifier{Name: "i"}, Right: &ast.NumberLiteral{Value: 3}},
			Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Target: &ast.Identifier{Name: "i"},
				Value:  &ast.BinaryExpression{Op: ast.OpAdd, Left: &ast.Identifier{Name: "i"}, Right: &ast.NumberLiteral{Value: 1}},
			}}},
		},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, _ := s.CallStack[0].Lookup("i")
	if v.Value.Number != 3 {
		t.Fatalf("expected i == 3 after the loop, got %v", v.Value.Number)
	}
}

func TestForInLoopOverArrayBindsEachElement(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{Name: "total", Value: &ast.NumberLiteral{Value: 0}},
		&ast.ForInStatement{
			VarName: "n",
			Source: &ast.ArrayLiteral{Elements: []ast.Expression{
				&ast.NumberLiteral{Value: 1}, &ast.NumberLiteral{Value: 2}, &ast.NumberLiteral{Value: 3},
			}},
			Body: []ast.Statement{&ast.ExpressionStatement{Expr: &ast.AssignmentExpression{
				Target: &ast.Identifier{Name: "total"},
				Value:  &ast.BinaryExpression{Op: ast.OpAdd, Left: &ast.Identifier{Name: "total"}, Right: &ast.Identifier{Name: "n"}},
			}}},
		},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, _ := s.CallStack[0].Lookup("total")
	if v.Value.Number != 6 {
		t.Fatalf("expected total == 6, got %v", v.Value.Number)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.ExpressionStatement{Expr: &ast.BinaryExpression{
			Op: ast.OpDiv, Left: &ast.NumberLiteral{Value: 1}, Right: &ast.NumberLiteral{Value: 0},
		}},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusError {
		t.Fatalf("expected error status, got %v", s.Status)
	}
	if s.Err == nil {
		t.Fatalf("expected a RuntimeError to be set")
	}
}

func TestDoInvocationSuspendsAndResumes(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{
			Name:           "answer",
			TypeAnnotation: "text",
			Value: &ast.DoExpression{AIInvocation: ast.AIInvocation{
				Prompt: &ast.TextLiteral{Value: "what is 2 + 2?"},
				Mode:   "default",
			}},
		},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusAwaitingAI {
		t.Fatalf("expected awaiting_ai, got %v (err=%v)", s.Status, s.Err)
	}
	if s.PendingAI == nil || s.PendingAI.AIKind != frame.AIDo || s.PendingAI.Prompt != "what is 2 + 2?" {
		t.Fatalf("unexpected PendingAI: %+v", s.PendingAI)
	}

	if err := ResumeWithAI(s, value.Text("4"), nil, nil); err != nil {
		t.Fatalf("ResumeWithAI: %v", err)
	}
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed after resume, got %v (err=%v)", s.Status, s.Err)
	}
	v, ok := s.CallStack[0].Lookup("answer")
	if !ok || v.Value.Text != "4" {
		t.Fatalf("expected answer == \"4\", got %+v ok=%v", v, ok)
	}
}

func TestFunctionCallReturnsTypedValue(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.FunctionDeclaration{
			Name:       "double",
			Params:     []ast.FunctionParam{{Name: "n", TypeAnnotation: "number"}},
			ReturnType: "number",
			Body: []ast.Statement{&ast.ReturnStatement{Value: &ast.BinaryExpression{
				Op: ast.OpMul, Left: &ast.Identifier{Name: "n"}, Right: &ast.NumberLiteral{Value: 2},
			}}},
		},
		&ast.LetDeclaration{Name: "result", Value: &ast.CallExpression{
			Callee: &ast.Identifier{Name: "double"},
			Args:   []ast.Expression{&ast.NumberLiteral{Value: 21}},
		}},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, ok := s.CallStack[0].Lookup("result")
	if !ok || v.Value.Number != 42 {
		t.Fatalf("expected result == 42, got %+v ok=%v", v, ok)
	}
}

func TestFunctionCallWrongArgCountFails(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.FunctionDeclaration{Name: "f", Params: []ast.FunctionParam{{Name: "a"}}, Body: nil},
		&ast.ExpressionStatement{Expr: &ast.CallExpression{Callee: &ast.Identifier{Name: "f"}}},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusError {
		t.Fatalf("expected error for wrong argument count, got %v", s.Status)
	}
}

func TestInterpolatedStringSubstitutesBoundNames(t *testing.T) {
	program := &ast.Program{Statements: []ast.Statement{
		&ast.LetDeclaration{Name: "name", Value: &ast.TextLiteral{Value: "world"}},
		&ast.LetDeclaration{Name: "greeting", Value: &ast.InterpolatedString{Raw: "hello {name}, unknown stays as {missing}"}},
	}}
	s := NewState(program, "/tmp")
	runToPause(s)

	if s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %v (err=%v)", s.Status, s.Err)
	}
	v, ok := s.CallStack[0].Lookup("greeting")
	if !ok {
		t.Fatalf("expected greeting to be bound")
	}
	want := "hello world, unknown stays as {missing}"
	if v.Value.Text != want {
		t.Fatalf("expected %q, got %q", want, v.Value.Text)
	}
}

func TestResumeWithAIRejectsMismatchedStatus(t *testing.T) {
	s := NewState(&ast.Program{}, "/tmp")
	if err := ResumeWithAI(s, value.Text("x"), nil, nil); err == nil {
		t.Fatalf("expected an error resuming a non-awaiting_ai state")
	}
}
