package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// execCallTool suspends into awaiting_tool for an explicit, language-level
// tool invocation (spec §6 "call_tool"). This is the only mechanism besides
// an LLM round's own tool choice that reaches a tool executor; unlike the
// round-trip loop, a failure here is not recoverable by the program — the
// driver either resumes with a result or fails the run (spec §5).
func (s *RuntimeState) execCallTool(ins instr.Instruction) {
	args := make([]value.Value, ins.ArgCount)
	for i := ins.ArgCount - 1; i >= 0; i-- {
		args[i] = s.popTemp()
	}
	if len(args) != len(ins.ToolParamNames) {
		s.failf(ErrArgumentCount, ins.ToolName, "tool %q expects %d arguments, got %d", ins.ToolName, len(ins.ToolParamNames), len(args))
		return
	}
	argMap := make(map[string]any, len(args))
	for i, name := range ins.ToolParamNames {
		argMap[name] = value.ToPlain(args[i])
	}
	s.PendingTool = &PendingTool{ToolName: ins.ToolName, Args: argMap, DestAnnotation: s.peekDestAnnotation()}
	s.Status = StatusAwaitingTool
}

// execCallTsBlock suspends into awaiting_ts for a `ts { ... }` host escape.
// Bound const identifiers are resolved and deep-copied here, before
// suspension, so the snapshot handed to the host evaluator cannot be
// retro-mutated by program code that runs concurrently with the host call.
func (s *RuntimeState) execCallTsBlock(ins instr.Instruction) {
	t := ins.TsBlockNode
	bindings := make(map[string]any, len(t.Bindings))
	for _, name := range t.Bindings {
		v, _, ok := s.resolve(name)
		if !ok {
			s.failf(ErrUndefinedVariable, name, "undefined ts block binding %q", name)
			return
		}
		bindings[name] = value.ToPlain(v.Value.DeepCopy())
	}
	s.PendingTs = &PendingTs{Source: t.Source, Bindings: bindings, DestAnnotation: s.peekDestAnnotation()}
	s.Status = StatusAwaitingTs
}
