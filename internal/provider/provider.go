// Package provider defines the external collaborator capabilities the
// interpreter core suspends on: the LLM provider, the host-language escape
// evaluator, and the tool executor signature. Concrete transports are out
// of scope for the core (spec §1) — this package is the interface boundary
// only; see internal/adapter/* for concrete implementations.
package provider

import (
	"context"
	"encoding/json"
)

// OperationType distinguishes "do"-style and "vibe"-style model
// invocations within a single Execute request (spec §6).
type OperationType string

const (
	OperationDo   OperationType = "do"
	OperationVibe OperationType = "vibe"
)

// ToolCallRequest is one tool call a model made during Execute, surfaced to
// the tool-calling loop (internal/toolloop).
type ToolCallRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// Request is the input to a single AIProvider.Execute call.
type Request struct {
	OperationType OperationType
	Prompt        string
	Model         string
	APIKey        string
	URL           string
	// Messages carries prior conversation turns (including tool round
	// results appended by the tool loop) for multi-round calls.
	Messages []Message
	// Tools advertises available tool definitions for function-calling
	// models; empty when the call site declared no tools.
	Tools []ToolDefinition
}

// Message is one chat-style turn in a Request's history.
type Message struct {
	Role    string // "system" | "user" | "assistant" | "tool"
	Content string
	// ToolCalls is populated on assistant messages that requested tools.
	ToolCalls []ToolCallRequest
	// ToolCallID correlates a tool-role message with the ToolCallRequest.ID
	// it answers.
	ToolCallID string
}

// ToolDefinition is the wire shape of a declared tool, per spec §6 "Tool
// schema (wire format)".
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  []ToolParamDefinition
}

// ToolParamDefinition is one parameter of a ToolDefinition.
type ToolParamDefinition struct {
	Name        string
	Type        string // "string" | "number" | "boolean" | "object" | "array"
	Description string
	Required    bool
}

// Usage reports token accounting for an Execute call, when available.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the result of a single AIProvider.Execute call.
type Response struct {
	// Value is the resolved value of the invocation — the model's final
	// text/JSON answer once any tool rounds have concluded.
	Value json.RawMessage
	// IsText distinguishes a plain-text Value from a JSON-encoded one, so
	// callers can decide whether to json.Unmarshal Value or use it as a
	// raw string.
	IsText    bool
	Text      string
	Usage     *Usage
	ToolCalls []ToolCallRequest // tool calls requested in this round, if any
}

// AIProvider is the capability the driver calls at awaiting_ai and
// awaiting_user pause points (spec §6). Transport (HTTP, SDK client,
// provider-specific wire format) lives entirely in the implementation.
type AIProvider interface {
	// Execute performs a single model call. Both `do` and `vibe`
	// invocations route here, distinguished by Request.OperationType.
	Execute(ctx context.Context, req Request) (Response, error)

	// AskUser solicits plain-text input from the human operator; no
	// usage/tool metadata is produced.
	AskUser(ctx context.Context, prompt string) (string, error)
}

// HostEvaluator is the capability the driver calls at awaiting_ts pause
// points to run a host-language escape block (spec §1, §6 TsBlock).
type HostEvaluator interface {
	// EvalTsBlock compiles and runs source with bindings available as
	// deep-frozen const values, returning the block's result value as a
	// JSON-encodable payload.
	EvalTsBlock(ctx context.Context, source string, bindings map[string]any) (json.RawMessage, error)
}

// ToolExecutor is the signature a bound tool's executor implements (spec
// §6 "Tool executors have signature (args, context) → any | throws").
type ToolExecutor interface {
	// Execute runs the tool. A non-nil error is equivalent to the source
	// language's "throws" — the tool loop captures it into the round's
	// error field rather than aborting.
	Execute(ctx context.Context, args map[string]any, execCtx ExecContext) (any, error)
}

// ToolExecutorFunc adapts a plain function to ToolExecutor.
type ToolExecutorFunc func(ctx context.Context, args map[string]any, execCtx ExecContext) (any, error)

func (f ToolExecutorFunc) Execute(ctx context.Context, args map[string]any, execCtx ExecContext) (any, error) {
	return f(ctx, args, execCtx)
}

// ExecContext is the context object passed to every tool executor.
type ExecContext struct {
	RootDir string
}
