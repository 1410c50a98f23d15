// Package toolloop implements the multi-round tool-calling protocol between
// an AIProvider response and tool executors (spec §4.G). This layer is
// distinct from the pause/resume controller (internal/runtime): it runs
// entirely inside the single awaiting_ai resume the driver performs, and
// its rounds are attached to the Prompt entry the caller appends — never
// recorded as separate ToolCall entries (spec §9).
package toolloop

import (
	"context"
	"fmt"

	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/provider"
)

// DefaultMaxRounds bounds the tool-calling loop when the caller does not
// specify one explicitly.
const DefaultMaxRounds = 8

// Options configures ExecuteWithTools.
type Options struct {
	// MaxRounds caps the number of tool-execution rounds (the provider is
	// called at most MaxRounds+1 times); zero selects DefaultMaxRounds.
	MaxRounds int
}

// Lookup resolves a tool name to its declared schema and executor.
// Implementations: a tool.Registry-backed adapter (internal/adapter/toolsvc)
// or a test double.
type Lookup interface {
	Resolve(name string) (provider.ToolDefinition, provider.ToolExecutor, bool)
}

// ProviderExec is the subset of AIProvider.Execute the loop depends on,
// expressed as a function so callers can wire it directly without
// satisfying the whole AIProvider interface.
type ProviderExec func(ctx context.Context, req provider.Request) (provider.Response, error)

// Result is the outcome of a completed tool-calling loop: the final
// response (carrying no further tool calls) plus every round that ran.
type Result struct {
	Response provider.Response
	Rounds   []Round
}

// Round is one provider-response/tool-execution cycle.
type Round struct {
	Calls []Call
}

// Call is one resolved tool invocation within a Round, in provider-returned
// order (spec §5 "tool-call ordering is preserved").
type Call struct {
	ID     string
	Name   string
	Args   map[string]any
	Result any
	Error  string
}

// MaxRoundsError is returned when the loop exceeds its round budget without
// the provider settling on a tool-call-free response (spec §7 "Protocol"
// errors: "max tool-call rounds exceeded").
type MaxRoundsError struct{ MaxRounds int }

func (e *MaxRoundsError) Error() string {
	return fmt.Sprintf("tool-calling loop exceeded max rounds (%d)", e.MaxRounds)
}

// ExecuteWithTools drives the protocol in spec §4.G:
//  1. call providerExec(request);
//  2. for every tool call the response carries, resolve + typecheck + run it;
//  3. append the results into the request's message history and recurse;
//  4. stop when a response carries no tool calls, or error past MaxRounds.
func ExecuteWithTools(ctx context.Context, req provider.Request, tools Lookup, rootDir string, exec ProviderExec, opts Options) (Result, error) {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	var rounds []Round
	for {
		resp, err := exec(ctx, req)
		if err != nil {
			return Result{}, fmt.Errorf("toolloop: provider call failed: %w", err)
		}
		if len(resp.ToolCalls) == 0 {
			return Result{Response: resp, Rounds: rounds}, nil
		}
		if len(rounds) >= maxRounds {
			return Result{}, &MaxRoundsError{MaxRounds: maxRounds}
		}

		round, toolMessages := runRound(ctx, resp, tools, rootDir)
		rounds = append(rounds, round)

		req.Messages = append(req.Messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		req.Messages = append(req.Messages, toolMessages...)
	}
}

// runRound resolves and executes every tool call in resp, in order,
// returning the Round record plus the tool-role messages to append to the
// provider conversation for the next round.
func runRound(ctx context.Context, resp provider.Response, tools Lookup, rootDir string) (Round, []provider.Message) {
	round := Round{Calls: make([]Call, 0, len(resp.ToolCalls))}
	messages := make([]provider.Message, 0, len(resp.ToolCalls))

	for _, tc := range resp.ToolCalls {
		call := Call{ID: tc.ID, Name: tc.Name, Args: tc.Args}

		def, executor, ok := tools.Resolve(tc.Name)
		switch {
		case !ok:
			call.Error = fmt.Sprintf("unknown tool %q", tc.Name)
		case validateArgs(def, tc.Args) != nil:
			call.Error = validateArgs(def, tc.Args).Error()
		default:
			result, err := executor.Execute(ctx, tc.Args, provider.ExecContext{RootDir: rootDir})
			if err != nil {
				call.Error = err.Error()
			} else {
				call.Result = result
			}
		}

		round.Calls = append(round.Calls, call)
		messages = append(messages, toolResultMessage(call))
	}
	return round, messages
}

// validateArgs type-checks a tool call's arguments against its declared
// schema (spec §4.G step 2). A wrong-typed argument fails the call with an
// error rather than reaching the executor (spec §6 "arguments of wrong
// type cause the tool call to fail with error rather than crashing the
// loop").
func validateArgs(def provider.ToolDefinition, args map[string]any) error {
	for _, p := range def.Parameters {
		v, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("tool %q: missing required argument %q", def.Name, p.Name)
			}
			continue
		}
		if !argMatchesType(v, p.Type) {
			return fmt.Errorf("tool %q: argument %q expects %s, got %T", def.Name, p.Name, p.Type, v)
		}
	}
	return nil
}

func argMatchesType(v any, want string) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

func toolResultMessage(call Call) provider.Message {
	content := call.Error
	if call.Error == "" {
		content = fmt.Sprintf("%v", call.Result)
	}
	return provider.Message{Role: "tool", Content: content, ToolCallID: call.ID}
}

// FlattenRounds converts a loop's Rounds into the PromptToolCall slice a
// Prompt FrameEntry carries, preserving provider-returned order across all
// rounds (spec §5).
func FlattenRounds(rounds []Round) []frame.PromptToolCall {
	var out []frame.PromptToolCall
	for _, r := range rounds {
		for _, c := range r.Calls {
			out = append(out, frame.PromptToolCall{Name: c.Name, Args: c.Args, Result: c.Result, Error: c.Error})
		}
	}
	return out
}
