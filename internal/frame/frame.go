// Package frame implements call frames and the append-only FrameEntry log
// described in spec §3 and §4.B.
package frame

import (
	"fmt"

	"github.com/pocketomega/vibe-runtime/internal/value"
)

// Source marks where a Variable entry's value came from, used by context
// formatting to prefix `<--` on entries produced by an AI/user interaction
// rather than ordinary program logic.
type Source string

const (
	SourceNone Source = ""
	SourceAI   Source = "ai"
	SourceUser Source = "user"
)

// Variable is the live binding held in a Frame's locals table.
type Variable struct {
	Value      value.Value
	Annotation value.TypeAnnotation
	IsConst    bool
}

// ScopeType enumerates the dynamic scope kinds bracketed by ScopeEnter/Exit.
type ScopeType string

const (
	ScopeFor   ScopeType = "for"
	ScopeWhile ScopeType = "while"
	ScopeIf    ScopeType = "if"
	ScopeBlock ScopeType = "block"
)

// EntryKind discriminates the FrameEntry tagged variant (spec §3).
type EntryKind int

const (
	EntryVariable EntryKind = iota
	EntryPrompt
	EntryScopeEnter
	EntryScopeExit
	EntrySummary
	EntryToolCall
)

// AIType enumerates the three AI invocation operations.
type AIType string

const (
	AIDo   AIType = "do"
	AIVibe AIType = "vibe"
	AIAsk  AIType = "ask"
)

// PromptToolCall is one tool invocation performed inside an LLM round trip,
// attached to the Prompt entry that produced it (spec §9: these are NOT
// separate ToolCall entries — that distinction is observable in context
// formatting).
type PromptToolCall struct {
	Name   string
	Args   map[string]any
	Result any    // nil if Error is set
	Error  string // "" if Result is set
}

// FrameEntry is one append-only record in a Frame's ordered log. Exactly
// one of the typed payload fields is populated, selected by Kind.
type FrameEntry struct {
	Kind EntryKind

	// EntryVariable
	VarName       string
	VarValue      value.Value
	VarAnnotation value.TypeAnnotation
	VarIsConst    bool
	VarSource     Source

	// EntryPrompt
	AIKind        AIType
	Prompt        string
	Response      value.Value
	HasResponse   bool
	PromptToolCalls []PromptToolCall

	// EntryScopeEnter / EntryScopeExit
	ScopeKind  ScopeType
	ScopeLabel string

	// EntrySummary
	SummaryText string

	// EntryToolCall (language-level, explicit tool invocation)
	ToolName     string
	ToolArgs     map[string]any
	ToolResult   any
	HasToolResult bool
	ToolError    string
}

// NewVariableEntry builds a Variable FrameEntry, deep-copying the value so
// the snapshot is immune to later mutation of the live binding (invariant 3).
func NewVariableEntry(name string, v value.Value, ann value.TypeAnnotation, isConst bool, src Source) FrameEntry {
	return FrameEntry{
		Kind:          EntryVariable,
		VarName:       name,
		VarValue:      v.DeepCopy(),
		VarAnnotation: ann,
		VarIsConst:    isConst,
		VarSource:     src,
	}
}

// Frame is a call-stack entry: a name, a locals table, and its ordered
// entry log. The entry frame is conventionally named "<entry>"; function
// frames take the function's declared name (spec §3).
type Frame struct {
	Name           string
	Locals         map[string]*Variable
	OrderedEntries []FrameEntry
}

// EntryFrameName is the conventional name of the program's outermost frame.
const EntryFrameName = "<entry>"

// New creates an empty Frame with the given name.
func New(name string) *Frame {
	return &Frame{
		Name:   name,
		Locals: make(map[string]*Variable),
	}
}

// DuplicateError is returned by Declare when name is already bound in this
// frame.
type DuplicateError struct{ Name string }

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("variable %q already declared in this scope", e.Name)
}

// Declare binds a new variable in the frame's locals and appends its first
// Variable entry.
func (f *Frame) Declare(name string, v value.Value, ann value.TypeAnnotation, isConst bool, src Source) error {
	if _, exists := f.Locals[name]; exists {
		return &DuplicateError{Name: name}
	}
	f.Locals[name] = &Variable{Value: v, Annotation: ann, IsConst: isConst}
	f.AppendEntry(NewVariableEntry(name, v, ann, isConst, src))
	return nil
}

// NotFoundError is returned when an identifier cannot be resolved.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("undefined variable %q", e.Name) }

// ImmutableError is returned when assigning to a const/function/model/import.
type ImmutableError struct{ Name string }

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("cannot assign to constant %q", e.Name)
}

// Lookup finds a variable by name, walking this frame only (callers compose
// the two-rung lexical chain themselves; see runtime.Resolve).
func (f *Frame) Lookup(name string) (*Variable, bool) {
	v, ok := f.Locals[name]
	return v, ok
}

// Assign mutates an existing binding's value in place and appends a new
// Variable entry snapshotting it (spec invariant: every write appends).
func (f *Frame) Assign(name string, v value.Value, src Source) error {
	existing, ok := f.Locals[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	if existing.IsConst {
		return &ImmutableError{Name: name}
	}
	existing.Value = v
	f.AppendEntry(NewVariableEntry(name, v, existing.Annotation, existing.IsConst, src))
	return nil
}

// Remove deletes name from locals (block-scope exit), leaving its snapshot
// entries in OrderedEntries untouched (spec §3 Lifecycles).
func (f *Frame) Remove(name string) {
	delete(f.Locals, name)
}

// AppendEntry appends e to the frame's ordered log.
func (f *Frame) AppendEntry(e FrameEntry) {
	f.OrderedEntries = append(f.OrderedEntries, e)
}
