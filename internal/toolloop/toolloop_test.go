package toolloop

import (
	"context"
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/provider"
)

type fakeExecutor func(ctx context.Context, args map[string]any, execCtx provider.ExecContext) (any, error)

func (f fakeExecutor) Execute(ctx context.Context, args map[string]any, execCtx provider.ExecContext) (any, error) {
	return f(ctx, args, execCtx)
}

type fakeLookup struct {
	defs map[string]provider.ToolDefinition
	execs map[string]provider.ToolExecutor
}

func (l fakeLookup) Resolve(name string) (provider.ToolDefinition, provider.ToolExecutor, bool) {
	e, ok := l.execs[name]
	return l.defs[name], e, ok
}

// TestExecuteWithTools_S2 reproduces spec §8 scenario S2: two sequential
// tool rounds (add then multiply) before the provider settles on a final
// text answer.
func TestExecuteWithTools_S2(t *testing.T) {
	lookup := fakeLookup{
		defs: map[string]provider.ToolDefinition{
			"add":      {Name: "add", Parameters: []provider.ToolParamDefinition{{Name: "a", Type: "number", Required: true}, {Name: "b", Type: "number", Required: true}}},
			"multiply": {Name: "multiply", Parameters: []provider.ToolParamDefinition{{Name: "a", Type: "number", Required: true}, {Name: "b", Type: "number", Required: true}}},
		},
		execs: map[string]provider.ToolExecutor{
			"add":      fakeExecutor(func(_ context.Context, args map[string]any, _ provider.ExecContext) (any, error) { return args["a"].(float64) + args["b"].(float64), nil }),
			"multiply": fakeExecutor(func(_ context.Context, args map[string]any, _ provider.ExecContext) (any, error) { return args["a"].(float64) * args["b"].(float64), nil }),
		},
	}

	call := 0
	exec := func(_ context.Context, req provider.Request) (provider.Response, error) {
		call++
		switch call {
		case 1:
			return provider.Response{ToolCalls: []provider.ToolCallRequest{{ID: "1", Name: "add", Args: map[string]any{"a": 2.0, "b": 3.0}}}}, nil
		case 2:
			return provider.Response{ToolCalls: []provider.ToolCallRequest{{ID: "2", Name: "multiply", Args: map[string]any{"a": 5.0, "b": 4.0}}}}, nil
		default:
			return provider.Response{IsText: true, Text: "The result of (2+3) * 4 is 20"}, nil
		}
	}

	res, err := ExecuteWithTools(context.Background(), provider.Request{}, lookup, "", exec, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(res.Rounds))
	}
	if res.Rounds[0].Calls[0].Result.(float64) != 5 {
		t.Errorf("round 1 result = %v, want 5", res.Rounds[0].Calls[0].Result)
	}
	if res.Rounds[1].Calls[0].Result.(float64) != 20 {
		t.Errorf("round 2 result = %v, want 20", res.Rounds[1].Calls[0].Result)
	}
	if res.Response.Text != "The result of (2+3) * 4 is 20" {
		t.Errorf("final response text = %q", res.Response.Text)
	}

	flat := FlattenRounds(res.Rounds)
	if len(flat) != 2 || flat[0].Name != "add" || flat[1].Name != "multiply" {
		t.Fatalf("FlattenRounds did not preserve order: %+v", flat)
	}
}

// TestExecuteWithTools_MaxRounds asserts the protocol error when the
// provider never stops requesting tool calls.
func TestExecuteWithTools_MaxRounds(t *testing.T) {
	lookup := fakeLookup{
		defs:  map[string]provider.ToolDefinition{"noop": {Name: "noop"}},
		execs: map[string]provider.ToolExecutor{"noop": fakeExecutor(func(context.Context, map[string]any, provider.ExecContext) (any, error) { return nil, nil })},
	}
	exec := func(_ context.Context, _ provider.Request) (provider.Response, error) {
		return provider.Response{ToolCalls: []provider.ToolCallRequest{{ID: "x", Name: "noop"}}}, nil
	}
	_, err := ExecuteWithTools(context.Background(), provider.Request{}, lookup, "", exec, Options{MaxRounds: 2})
	if err == nil {
		t.Fatal("expected max-rounds error, got nil")
	}
	if _, ok := err.(*MaxRoundsError); !ok {
		t.Fatalf("expected *MaxRoundsError, got %T: %v", err, err)
	}
}

// TestExecuteWithTools_UnknownToolRecorded asserts an unresolved tool name
// fails only that call (captured as an error) rather than aborting the
// loop (spec §6).
func TestExecuteWithTools_UnknownToolRecorded(t *testing.T) {
	lookup := fakeLookup{defs: map[string]provider.ToolDefinition{}, execs: map[string]provider.ToolExecutor{}}
	call := 0
	exec := func(_ context.Context, _ provider.Request) (provider.Response, error) {
		call++
		if call == 1 {
			return provider.Response{ToolCalls: []provider.ToolCallRequest{{ID: "1", Name: "ghost"}}}, nil
		}
		return provider.Response{IsText: true, Text: "done"}, nil
	}
	res, err := ExecuteWithTools(context.Background(), provider.Request{}, lookup, "", exec, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rounds) != 1 || res.Rounds[0].Calls[0].Error == "" {
		t.Fatalf("expected a recorded error for the unknown tool, got %+v", res.Rounds)
	}
}
