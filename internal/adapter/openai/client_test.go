package openai

import (
	"testing"

	"github.com/pocketomega/vibe-runtime/internal/provider"
)

func TestJSONArgsRoundTrip(t *testing.T) {
	args := map[string]any{"a": 2.0, "b": 3.0}
	raw := toJSONArgs(args)
	decoded := fromJSONArgs(raw)
	if decoded["a"] != 2.0 || decoded["b"] != 3.0 {
		t.Fatalf("round trip mismatch: got %v", decoded)
	}
}

func TestToJSONArgsEmpty(t *testing.T) {
	if got := toJSONArgs(nil); got != "{}" {
		t.Fatalf("expected {}, got %q", got)
	}
}

func TestToOpenAITools(t *testing.T) {
	defs := []provider.ToolDefinition{
		{Name: "add", Description: "adds two numbers", Parameters: []provider.ToolParamDefinition{
			{Name: "a", Type: "number", Required: true},
			{Name: "b", Type: "number", Required: false},
		}},
	}
	tools := toOpenAITools(defs)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	fn := tools[0].Function
	if fn.Name != "add" {
		t.Fatalf("expected name add, got %q", fn.Name)
	}
	params, ok := fn.Parameters.(map[string]any)
	if !ok {
		t.Fatalf("expected parameters map, got %T", fn.Parameters)
	}
	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "a" {
		t.Fatalf("expected required=[a], got %v", params["required"])
	}
}
