// Package toolsvc bridges internal/tool.Registry (JSON-RawMessage-argument
// tools, shared by native builtins and MCP adapters) to the
// map[string]any-argument executor shape internal/toolloop and
// internal/driver expect (spec §6 "Tool executors have signature (args,
// context) → any | throws").
package toolsvc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pocketomega/vibe-runtime/internal/provider"
	"github.com/pocketomega/vibe-runtime/internal/tool"
)

// Adapter exposes a *tool.Registry as a toolloop.Lookup and as the
// name-resolving function internal/driver.Driver.ToolExecutor needs for
// explicit call_tool invocations.
type Adapter struct {
	registry *tool.Registry
	defs     map[string]provider.ToolDefinition
}

// New builds an Adapter over reg. Definitions are snapshotted at
// construction time; call New again after registering further tools to
// pick them up.
func New(reg *tool.Registry) *Adapter {
	a := &Adapter{registry: reg, defs: make(map[string]provider.ToolDefinition)}
	for _, d := range reg.GenerateToolDefinitions() {
		a.defs[d.Name] = d
	}
	return a
}

// Resolve implements toolloop.Lookup.
func (a *Adapter) Resolve(name string) (provider.ToolDefinition, provider.ToolExecutor, bool) {
	executor, ok := a.ExecutorFor(name)
	if !ok {
		return provider.ToolDefinition{}, nil, false
	}
	return a.defs[name], executor, true
}

// ExecutorFor resolves a bare executor for name, for the driver's
// awaiting_tool pause point (an explicit call_tool, which bypasses the
// tool-calling loop's schema-advertisement step entirely).
func (a *Adapter) ExecutorFor(name string) (provider.ToolExecutor, bool) {
	t, ok := a.registry.Get(name)
	if !ok {
		return nil, false
	}
	return provider.ToolExecutorFunc(func(ctx context.Context, args map[string]any, _ provider.ExecContext) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		result, err := t.Execute(ctx, raw)
		if err != nil {
			return nil, err
		}
		if result.Error != "" {
			return nil, errors.New(result.Error)
		}
		return decodeOutput(result.Output), nil
	}), true
}

// decodeOutput tries to parse a tool's text output as JSON so a structured
// result (e.g. an HTTP tool's response body) round-trips as a Value rather
// than flattening to raw text; non-JSON output is returned verbatim.
func decodeOutput(output string) any {
	var decoded any
	if err := json.Unmarshal([]byte(output), &decoded); err == nil {
		return decoded
	}
	return output
}
