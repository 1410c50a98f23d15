// Package instr implements the tagged instruction stack the stepper
// dispatches over (spec §4.C). Each Instruction is an explicit
// continuation — the stepper is not tree-walked.
package instr

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// Kind discriminates the Instruction variant. Dispatch on Kind, per the
// closed-tagged-union requirement in spec §9.
type Kind int

const (
	KindExecStatement Kind = iota
	KindExecExpression
	KindDeclareVar
	KindAssignVar
	KindBinaryOp
	KindUnaryOp
	KindIndex
	KindSlice
	KindCallFunction
	KindCallTool
	KindCallTsBlock
	KindAIDo
	KindAIVibe
	KindAIAsk
	KindForNext
	KindWhileTest
	KindIfTest
	KindEnterBlock
	KindExitBlock
	KindScopeEnter
	KindScopeExit
	KindPushValue
	KindPopDiscard
	KindReturn

	// Supplementary variants beyond spec §4.C's named list (the list is
	// explicitly non-exhaustive): internal plumbing the stepper needs to
	// sequence multi-child expressions and function returns.
	KindStash         // push lastResult onto the temp operand stack
	KindCollectArray    // pop Count temp values, build an array, set lastResult
	KindCollectObject   // pop len(Keys) temp values, build a JSON object, set lastResult
	KindCollectTemplate // pop Count temp values, interleave with TemplateParts, set lastResult
	KindCallMember    // method call (len/push/pop) on an already-stashed receiver
	KindFieldAccess   // plain `.property` access on a JSON object in lastResult
	KindFinishCall    // pop the active call frame/return-type; lastResult becomes null
)

// Instruction is one frame of the explicit evaluation stack. Only the
// fields relevant to Kind are meaningful; construct instructions with the
// New* helpers below rather than struct literals, so the Kind tag always
// matches the populated fields.
type Instruction struct {
	Kind Kind

	Statement  ast.Statement
	Expression ast.Expression

	// KindDeclareVar / KindAssignVar
	Name           string
	TypeAnnotation string
	IsConst        bool
	AssignTarget   ast.Expression // for index/member assignment targets

	// KindBinaryOp / KindUnaryOp
	BinaryOp ast.BinaryOperator
	UnaryOp  ast.UnaryOperator

	// KindCallFunction
	FunctionName string
	ArgCount     int

	// KindCallTool
	ToolName string

	// KindAIDo / KindAIVibe / KindAIAsk
	AIInvocation *ast.AIInvocation

	// KindCallTool
	ToolParamNames []string

	// KindCallTsBlock
	TsBlockNode *ast.TsBlock

	// KindForNext
	LoopVarName   string
	LoopSourceArr []value.Value
	LoopIndex     int
	LoopEnterIdx  int
	LoopMode      frame.RetentionMode
	LoopBody      []ast.Statement

	// KindWhileTest
	WhileCond ast.Expression
	WhileBody []ast.Statement

	// KindIfTest
	IfThen []ast.Statement
	IfElse []ast.Statement

	// KindScopeEnter / KindScopeExit
	ScopeType      frame.ScopeType
	ScopeLabel     string
	ScopeMode      frame.RetentionMode
	ScopeEnterIx   int
	CompressPrompt string // compress("...") argument, meaningful only when ScopeMode == RetentionCompress

	// KindPushValue
	Value value.Value

	// KindReturn
	HasReturnValue bool

	// KindSlice
	SliceLowOmitted  bool
	SliceHighOmitted bool

	// KindCollectArray / KindCollectObject / KindCollectTemplate
	CollectCount  int
	CollectKeys   []string
	TemplateParts []string

	// KindCallMember
	MemberName       string
	MemberArgCount   int
	MemberTargetName string // identifier to write the mutated receiver back to, "" if none

	// KindDeclareVar (ModelDeclaration only)
	DeclareModel bool
}

// NewExecStatement pushes the lowering of a single statement.
func NewExecStatement(s ast.Statement) Instruction {
	return Instruction{Kind: KindExecStatement, Statement: s}
}

// NewExecExpression pushes the lowering of a single expression.
func NewExecExpression(e ast.Expression) Instruction {
	return Instruction{Kind: KindExecExpression, Expression: e}
}

// NewPushValue pushes a literal value as the result of the next pop.
func NewPushValue(v value.Value) Instruction {
	return Instruction{Kind: KindPushValue, Value: v}
}

// NewPopDiscard discards lastResult without using it (used between
// sequential statements in a block so each statement's residual
// expression value does not leak into the next).
func NewPopDiscard() Instruction {
	return Instruction{Kind: KindPopDiscard}
}

// Stack is a LIFO instruction stack; the top of Stack is the next
// instruction to run (spec invariant 6).
type Stack struct {
	items []Instruction
}

// NewStack creates an empty Stack.
func NewStack() *Stack { return &Stack{} }

// Push appends instructions in call order; the first of ins ends up on top
// (i.e. runs first) since Push appends them in reverse.
func (s *Stack) Push(ins ...Instruction) {
	for i := len(ins) - 1; i >= 0; i-- {
		s.items = append(s.items, ins[i])
	}
}

// PushReversed appends ins in the given order without reversing — useful
// when the caller has already computed top-down order.
func (s *Stack) PushReversed(ins ...Instruction) {
	s.items = append(s.items, ins...)
}

// Pop removes and returns the top instruction. ok is false if the stack is
// empty.
func (s *Stack) Pop() (Instruction, bool) {
	if len(s.items) == 0 {
		return Instruction{}, false
	}
	n := len(s.items) - 1
	top := s.items[n]
	s.items = s.items[:n]
	return top, true
}

// Len returns the number of pending instructions.
func (s *Stack) Len() int { return len(s.items) }

// Peek returns the top instruction without removing it.
func (s *Stack) Peek() (Instruction, bool) {
	if len(s.items) == 0 {
		return Instruction{}, false
	}
	return s.items[len(s.items)-1], true
}

// Snapshot returns a copy of the stack contents, top-last, for
// serialization (spec §4.I).
func (s *Stack) Snapshot() []Instruction {
	cp := make([]Instruction, len(s.items))
	copy(cp, s.items)
	return cp
}

// Restore replaces the stack contents from a snapshot produced by Snapshot.
func (s *Stack) Restore(items []Instruction) {
	s.items = append([]Instruction(nil), items...)
}
