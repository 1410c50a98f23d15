package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/provider"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

func (s *RuntimeState) lowerAIInvocation(inv *ast.AIInvocation, kind instr.Kind) {
	seq := []instr.Instruction{instr.NewExecExpression(inv.Prompt), {Kind: instr.KindStash}}
	if inv.Model != nil {
		seq = append(seq, instr.NewExecExpression(inv.Model))
	}
	seq = append(seq, instr.Instruction{Kind: kind, AIInvocation: inv})
	s.Instructions.Push(seq...)
}

func (s *RuntimeState) execAIInvoke(ins instr.Instruction) {
	var modelVal value.Value
	hasModel := ins.AIInvocation.Model != nil
	if hasModel {
		modelVal = s.LastResult
		if modelVal.Kind != value.KindModel {
			s.failf(ErrUnknownModel, "", "expected a model binding, got %s", modelVal.Kind)
			return
		}
	}
	promptVal := s.popTemp()
	if promptVal.Kind != value.KindText {
		s.failf(ErrTypeMismatch, "", "AI invocation prompt must be text, got %s", promptVal.Kind)
		return
	}

	var aiKind frame.AIType
	switch ins.Kind {
	case instr.KindAIDo:
		aiKind = frame.AIDo
	case instr.KindAIVibe:
		aiKind = frame.AIVibe
	default:
		aiKind = frame.AIAsk
	}

	pa := &PendingAI{AIKind: aiKind, Prompt: promptVal.Text, DestAnnotation: s.peekDestAnnotation()}
	if hasModel {
		pa.Model = modelVal.Model
		pa.HasModel = true
	}
	if aiKind != frame.AIAsk {
		pa.Tools = s.collectToolDefs()
	}
	s.PendingAI = pa
	if aiKind == frame.AIAsk {
		s.Status = StatusAwaitingUser
	} else {
		s.Status = StatusAwaitingAI
	}
}

// peekDestAnnotation inspects (without consuming) the instruction directly
// below the one currently executing, to discover whether its result will be
// assigned into a typed destination — used so an awaiting_ai/awaiting_ts/
// awaiting_tool resume can eagerly typecheck (e.g. parse JSON) before the
// value reaches the frame log.
func (s *RuntimeState) peekDestAnnotation() value.TypeAnnotation {
	next, ok := s.Instructions.Peek()
	if !ok {
		return value.None
	}
	switch next.Kind {
	case instr.KindDeclareVar:
		ann, err := value.ParseTypeAnnotation(next.TypeAnnotation)
		if err != nil {
			return value.None
		}
		return ann
	case instr.KindAssignVar:
		if v, _, ok := s.resolve(next.Name); ok {
			return v.Annotation
		}
	}
	return value.None
}

// collectToolDefs gathers every `tool`-bound variable visible in the
// current lexical scope into the wire shape AIProvider.Execute expects.
func (s *RuntimeState) collectToolDefs() []provider.ToolDefinition {
	seen := make(map[string]bool)
	var defs []provider.ToolDefinition
	collect := func(locals map[string]*frame.Variable) {
		for name, v := range locals {
			if seen[name] || v.Value.Kind != value.KindTool {
				continue
			}
			seen[name] = true
			params := make([]provider.ToolParamDefinition, len(v.Value.Tool.Parameters))
			for i, p := range v.Value.Tool.Parameters {
				params[i] = provider.ToolParamDefinition{Name: p.Name, Type: p.Type, Description: p.Description, Required: p.Required}
			}
			defs = append(defs, provider.ToolDefinition{Name: v.Value.Tool.Name, Description: v.Value.Tool.Description, Parameters: params})
		}
	}
	collect(s.currentFrame().Locals)
	if s.currentFrame() != s.globalFrame() {
		collect(s.globalFrame().Locals)
	}
	return defs
}
