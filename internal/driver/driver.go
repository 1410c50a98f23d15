// Package driver implements the top-level loop wiring the stepper's
// pause/resume controller to its external collaborators: an AIProvider, a
// HostEvaluator, and the tool-calling loop (spec §4.J). The driver performs
// no type checks of its own — those live in internal/runtime's Resume*
// functions, called here with whatever value a collaborator returns.
package driver

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/interplog"
	"github.com/pocketomega/vibe-runtime/internal/promptctx"
	"github.com/pocketomega/vibe-runtime/internal/provider"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/toolloop"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// Driver wires one RuntimeState to its external collaborators and drives it
// to completion or error.
type Driver struct {
	Provider provider.AIProvider
	Host     provider.HostEvaluator
	Tools    toolloop.Lookup

	// ToolExecutor resolves the executor for an explicit, language-level
	// call_tool invocation (awaiting_tool) — distinct from Tools, which
	// the tool-calling loop uses for a model's own tool choices during an
	// awaiting_ai round trip.
	ToolExecutor func(name string) (provider.ToolExecutor, bool)

	// MaxToolRounds bounds a single vibe/do invocation's tool-calling
	// loop; zero selects toolloop.DefaultMaxRounds.
	MaxToolRounds int

	// Log, when non-nil, receives one line per pause point the driver
	// resolves — matching the teacher's handler logging convention.
	Log *log.Logger

	// RecordInteractions controls whether resolved AI calls are appended
	// to RuntimeState.AIInteractions (spec §3 "otherwise discarded after
	// resume").
	RecordInteractions bool

	// InteractionLog, when set alongside RecordInteractions, also mirrors
	// every resolved interaction into a bounded ring a caller can flush
	// into a snapshot document independent of RuntimeState's unbounded
	// per-run slice (spec §7).
	InteractionLog *interplog.Store
}

func (d *Driver) record(interaction *runtime.AIInteraction) {
	if interaction != nil && d.InteractionLog != nil {
		d.InteractionLog.Append(*interaction)
	}
}

// Run drives state from its current status to completed or error,
// resolving every pause point along the way (spec §4.J).
func (d *Driver) Run(ctx context.Context, s *runtime.RuntimeState) (value.Value, error) {
	for {
		runUntilPause(s)
		switch s.Status {
		case runtime.StatusCompleted:
			return s.LastResult, nil
		case runtime.StatusError:
			return value.Null, s.Err
		case runtime.StatusAwaitingAI:
			if err := d.resolveAwaitingAI(ctx, s); err != nil {
				return value.Null, err
			}
		case runtime.StatusAwaitingUser:
			if err := d.resolveAwaitingUser(ctx, s); err != nil {
				return value.Null, err
			}
		case runtime.StatusAwaitingTs:
			if err := d.resolveAwaitingTs(ctx, s); err != nil {
				return value.Null, err
			}
		case runtime.StatusAwaitingTool:
			if err := d.resolveAwaitingTool(ctx, s); err != nil {
				return value.Null, err
			}
		case runtime.StatusAwaitingCompress:
			if err := d.resolveAwaitingCompress(ctx, s); err != nil {
				return value.Null, err
			}
		default:
			return value.Null, fmt.Errorf("driver: unhandled status %q", s.Status)
		}
	}
}

// runUntilPause applies Step until status leaves running (spec §4.J
// "run_until_pause").
func runUntilPause(s *runtime.RuntimeState) {
	for s.Status == runtime.StatusRunning {
		runtime.Step(s)
	}
}

func (d *Driver) logf(format string, args ...any) {
	if d.Log != nil {
		d.Log.Printf(format, args...)
	}
}

func (d *Driver) resolveAwaitingAI(ctx context.Context, s *runtime.RuntimeState) error {
	pending := s.PendingAI
	opType := provider.OperationDo
	if pending.AIKind == frame.AIVibe {
		opType = provider.OperationVibe
	}
	req := provider.Request{
		OperationType: opType,
		Prompt:        pending.Prompt,
		Tools:         pending.Tools,
		Messages:      []provider.Message{{Role: "user", Content: pending.Prompt}},
	}
	if pending.HasModel {
		req.Model = pending.Model.Name
		req.APIKey = pending.Model.APIKey
		req.URL = pending.Model.URL
	}
	d.logf("awaiting_ai: %s %q", pending.AIKind, pending.Prompt)

	lookup := d.Tools
	if lookup == nil {
		lookup = noToolsLookup{}
	}
	result, err := toolloop.ExecuteWithTools(ctx, req, lookup, "", d.Provider.Execute, toolloop.Options{MaxRounds: d.MaxToolRounds})
	if err != nil {
		return fmt.Errorf("driver: ai invocation failed: %w", err)
	}

	resultValue, err := responseToValue(result.Response)
	if err != nil {
		return fmt.Errorf("driver: decoding ai response: %w", err)
	}

	var interaction *runtime.AIInteraction
	toolCalls := toolloop.FlattenRounds(result.Rounds)
	if d.RecordInteractions {
		interaction = &runtime.AIInteraction{
			ID: uuid.NewString(), AIKind: pending.AIKind, Prompt: pending.Prompt,
			Response: resultValue.String(), ToolCalls: toolCalls,
		}
	}
	d.record(interaction)
	return runtime.ResumeWithAI(s, resultValue, interaction, toolCalls)
}

func (d *Driver) resolveAwaitingUser(ctx context.Context, s *runtime.RuntimeState) error {
	pending := s.PendingAI
	d.logf("awaiting_user: %q", pending.Prompt)
	text, err := d.Provider.AskUser(ctx, pending.Prompt)
	if err != nil {
		return fmt.Errorf("driver: ask_user failed: %w", err)
	}
	var interaction *runtime.AIInteraction
	if d.RecordInteractions {
		interaction = &runtime.AIInteraction{ID: uuid.NewString(), AIKind: frame.AIAsk, Prompt: pending.Prompt, Response: text}
	}
	d.record(interaction)
	return runtime.ResumeWithUser(s, text, interaction)
}

func (d *Driver) resolveAwaitingTs(ctx context.Context, s *runtime.RuntimeState) error {
	pending := s.PendingTs
	d.logf("awaiting_ts: %d bytes of source, %d bindings", len(pending.Source), len(pending.Bindings))
	raw, err := d.Host.EvalTsBlock(ctx, pending.Source, pending.Bindings)
	if err != nil {
		return fmt.Errorf("driver: host escape block failed: %w", err)
	}
	return runtime.ResumeWithTs(s, raw)
}

func (d *Driver) resolveAwaitingTool(ctx context.Context, s *runtime.RuntimeState) error {
	pending := s.PendingTool
	d.logf("awaiting_tool: %s(%v)", pending.ToolName, pending.Args)
	if d.ToolExecutor == nil {
		return fmt.Errorf("driver: no tool executor configured for %q", pending.ToolName)
	}
	executor, ok := d.ToolExecutor(pending.ToolName)
	if !ok {
		return fmt.Errorf("driver: unknown tool %q", pending.ToolName)
	}
	result, err := executor.Execute(ctx, pending.Args, provider.ExecContext{RootDir: s.RootDir})
	if err != nil {
		return fmt.Errorf("driver: tool %q failed: %w", pending.ToolName, err)
	}
	return runtime.ResumeWithTool(s, plainToValue(result))
}

func (d *Driver) resolveAwaitingCompress(ctx context.Context, s *runtime.RuntimeState) error {
	pending := s.PendingCompress
	d.logf("awaiting_compress: %s %s, %d entries", pending.ScopeKind, pending.ScopeLabel, len(pending.Entries))

	history := promptctx.FormatEntries(pending.Entries)
	summaryPrompt := pending.Prompt
	if summaryPrompt == "" {
		summaryPrompt = "summarize"
	}
	req := provider.Request{
		OperationType: provider.OperationDo,
		Prompt:        summaryPrompt,
		Model:         pending.Model,
		Messages: []provider.Message{
			{Role: "user", Content: fmt.Sprintf("%s\n\n%s", summaryPrompt, history)},
		},
	}
	resp, err := d.Provider.Execute(ctx, req)
	if err != nil {
		return fmt.Errorf("driver: compress summarization failed: %w", err)
	}
	text := resp.Text
	if !resp.IsText {
		text = string(resp.Value)
	}
	return runtime.ResumeWithCompress(s, text)
}

// noToolsLookup is the toolloop.Lookup used when the driver has no tool
// registry wired in — every call resolves as unknown, which the tool loop
// records as a per-call error rather than failing the whole invocation.
type noToolsLookup struct{}

func (noToolsLookup) Resolve(string) (provider.ToolDefinition, provider.ToolExecutor, bool) {
	return provider.ToolDefinition{}, nil, false
}

// responseToValue converts an AIProvider.Response into the Value the
// stepper resumes with; Typecheck (inside ResumeWithAI) handles JSON
// parsing against the destination annotation.
func responseToValue(resp provider.Response) (value.Value, error) {
	if resp.IsText {
		return value.Text(resp.Text), nil
	}
	return value.Text(string(resp.Value)), nil
}

func plainToValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case string:
		return value.Text(t)
	case float64:
		return value.Number(t)
	case int:
		return value.Number(float64(t))
	case bool:
		return value.Boolean(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = plainToValue(e)
		}
		return value.Array(items)
	case map[string]any:
		return value.JSON(t)
	default:
		return value.Text(fmt.Sprintf("%v", t))
	}
}
