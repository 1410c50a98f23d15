// Package runtime implements the stepper: the pure (state, event) -> state
// transition function at the heart of the interpreter (spec §4.D, §4.E).
// Nothing in this package performs I/O; every external capability (LLM
// calls, host-language escapes, tool execution) is reached by suspending
// into one of the Pending* fields and waiting for a driver to call the
// matching Resume* function.
package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/provider"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// Status is the externally observable machine state (spec §4.E).
type Status string

const (
	StatusRunning          Status = "running"
	StatusAwaitingAI       Status = "awaiting_ai"
	StatusAwaitingUser     Status = "awaiting_user"
	StatusAwaitingTs       Status = "awaiting_ts"
	StatusAwaitingTool     Status = "awaiting_tool"
	StatusAwaitingCompress Status = "awaiting_compress"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
)

// PendingAI describes a suspended do/vibe/ask invocation awaiting a driver
// to call the AIProvider and resume with its result.
type PendingAI struct {
	AIKind         frame.AIType
	Prompt         string
	Model          value.ModelConfig
	HasModel       bool
	DestAnnotation value.TypeAnnotation
	Tools          []provider.ToolDefinition
}

// PendingTs describes a suspended ts{} escape block awaiting HostEvaluator.
type PendingTs struct {
	Source         string
	Bindings       map[string]any
	DestAnnotation value.TypeAnnotation
}

// PendingTool describes a suspended explicit call_tool awaiting a tool
// executor's result.
type PendingTool struct {
	ToolName       string
	Args           map[string]any
	DestAnnotation value.TypeAnnotation
}

// AIInteraction is one logged model round-trip, retained in
// RuntimeState.AIInteractions when the driver opts into logging (spec §4.H).
type AIInteraction struct {
	ID        string
	AIKind    frame.AIType
	Prompt    string
	Response  string
	ToolCalls []frame.PromptToolCall
}

// RuntimeState is the full interpreter state. It is a thin mutable holder:
// Step mutates it in place and returns the same pointer, matching spec §5's
// "the Runtime wrapper carries no semantics" — all semantics live in Step
// and the Resume* functions.
type RuntimeState struct {
	Status Status
	Err    *RuntimeError

	CallStack    []*frame.Frame
	Instructions *instr.Stack

	// LastResult is the value most recently produced by an instruction;
	// the next instruction that consumes a value reads it from here.
	LastResult value.Value
	// NextValueSource is set by Resume{AI,User} immediately before the
	// stepper resumes, consumed (and cleared) by the next DeclareVar or
	// AssignVar so the resulting FrameEntry carries the right Source.
	NextValueSource frame.Source

	// TempStack holds intermediate operand values for multi-child
	// expressions (binary/unary operands, array/object literal elements,
	// call arguments, index/slice operands) — see internal/runtime/expr.go.
	TempStack []value.Value

	// ScopeLocalsStack mirrors scope nesting: at ScopeEnter the current
	// frame's local variable names are snapshotted; at ScopeExit, any
	// name present in locals but absent from the snapshot was declared
	// inside the scope and is removed (spec §3 "block-scoped variables
	// are removed from locals on exit, but their entries persist").
	ScopeLocalsStack []openScope

	// ReturnTypes parallels CallStack (sans the entry frame): the
	// declared return-type annotation of each active function call, used
	// by KindReturn to typecheck the return value.
	ReturnTypes []value.TypeAnnotation

	// ScopeDepthAtCall parallels ReturnTypes: len(ScopeLocalsStack) at the
	// moment each active call began, so an early `return` can force-close
	// any scopes still open in the callee before unwinding the frame.
	ScopeDepthAtCall []int

	PendingAI       *PendingAI
	PendingTs       *PendingTs
	PendingTool     *PendingTool
	PendingCompress *frame.PendingCompress
	// PendingCompressFrame records which call-stack frame PendingCompress
	// belongs to (always the top frame at suspension time).
	PendingCompressFrame *frame.Frame

	ImportedModules map[string]value.Value
	Functions       map[string]*ast.FunctionDeclaration
	AIInteractions  []AIInteraction

	RootDir string
}

// NewState builds the initial RuntimeState for a parsed program, with the
// program's top-level statements loaded onto the instruction stack and a
// single entry frame on the call stack (spec §3, §4.J "run" setup).
func NewState(program *ast.Program, rootDir string) *RuntimeState {
	s := &RuntimeState{
		Status:          StatusRunning,
		CallStack:       []*frame.Frame{frame.New(frame.EntryFrameName)},
		Instructions:    instr.NewStack(),
		ImportedModules: make(map[string]value.Value),
		Functions:       make(map[string]*ast.FunctionDeclaration),
		RootDir:         rootDir,
	}
	ins := make([]instr.Instruction, len(program.Statements))
	for i, st := range program.Statements {
		ins[i] = instr.NewExecStatement(st)
	}
	s.Instructions.Push(ins...)
	return s
}

// currentFrame returns the top of the call stack (the active function
// frame, or the entry frame outside any call).
func (s *RuntimeState) currentFrame() *frame.Frame {
	return s.CallStack[len(s.CallStack)-1]
}

// globalFrame returns the program's outermost frame.
func (s *RuntimeState) globalFrame() *frame.Frame {
	return s.CallStack[0]
}

// resolve implements the two-rung lexical lookup: current frame, then the
// global entry frame, per spec §3 "local and global, no intermediate
// closures".
func (s *RuntimeState) resolve(name string) (*frame.Variable, *frame.Frame, bool) {
	cur := s.currentFrame()
	if v, ok := cur.Lookup(name); ok {
		return v, cur, true
	}
	if cur != s.globalFrame() {
		if v, ok := s.globalFrame().Lookup(name); ok {
			return v, s.globalFrame(), true
		}
	}
	return nil, nil, false
}

func (s *RuntimeState) pushTemp(v value.Value) { s.TempStack = append(s.TempStack, v) }

func (s *RuntimeState) popTemp() value.Value {
	n := len(s.TempStack) - 1
	v := s.TempStack[n]
	s.TempStack = s.TempStack[:n]
	return v
}
