package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// lowerExpression pushes the instructions implementing expr. Leaf
// expressions (literals, identifiers) resolve directly into lastResult with
// no further instructions pushed.
func (s *RuntimeState) lowerExpression(expr ast.Expression) {
	switch t := expr.(type) {
	case *ast.NullLiteral:
		s.LastResult = value.Null
	case *ast.TextLiteral:
		s.LastResult = value.Text(t.Value)
	case *ast.NumberLiteral:
		s.LastResult = value.Number(t.Value)
	case *ast.BooleanLiteral:
		s.LastResult = value.Boolean(t.Value)
	case *ast.Identifier:
		v, _, ok := s.resolve(t.Name)
		if !ok {
			s.failf(ErrUndefinedVariable, t.Name, "undefined variable %q", t.Name)
			return
		}
		s.LastResult = v.Value
	case *ast.InterpolatedString:
		s.LastResult = value.Text(s.interpolateSimple(t.Raw))
	case *ast.TemplateLiteral:
		ins := make([]instr.Instruction, 0, len(t.Exprs)+1)
		for _, e := range t.Exprs {
			ins = append(ins, instr.NewExecExpression(e), instr.Instruction{Kind: instr.KindStash})
		}
		ins = append(ins, instr.Instruction{Kind: instr.KindCollectTemplate, CollectCount: len(t.Exprs), TemplateParts: t.Parts})
		s.Instructions.Push(ins...)
	case *ast.ArrayLiteral:
		ins := make([]instr.Instruction, 0, len(t.Elements)*2+1)
		for _, e := range t.Elements {
			ins = append(ins, instr.NewExecExpression(e), instr.Instruction{Kind: instr.KindStash})
		}
		ins = append(ins, instr.Instruction{Kind: instr.KindCollectArray, CollectCount: len(t.Elements)})
		s.Instructions.Push(ins...)
	case *ast.ObjectLiteral:
		ins := make([]instr.Instruction, 0, len(t.Values)*2+1)
		for _, v := range t.Values {
			ins = append(ins, instr.NewExecExpression(v), instr.Instruction{Kind: instr.KindStash})
		}
		ins = append(ins, instr.Instruction{Kind: instr.KindCollectObject, CollectKeys: t.Keys})
		s.Instructions.Push(ins...)
	case *ast.RangeExpression:
		s.Instructions.Push(instr.NewExecExpression(t.Bound))
	case *ast.BinaryExpression:
		s.Instructions.Push(
			instr.NewExecExpression(t.Left),
			instr.Instruction{Kind: instr.KindStash},
			instr.NewExecExpression(t.Right),
			instr.Instruction{Kind: instr.KindBinaryOp, BinaryOp: t.Op},
		)
	case *ast.UnaryExpression:
		s.Instructions.Push(instr.NewExecExpression(t.Operand), instr.Instruction{Kind: instr.KindUnaryOp, UnaryOp: t.Op})
	case *ast.IndexExpression:
		s.Instructions.Push(
			instr.NewExecExpression(t.Object),
			instr.Instruction{Kind: instr.KindStash},
			instr.NewExecExpression(t.Index),
			instr.Instruction{Kind: instr.KindIndex},
		)
	case *ast.SliceExpression:
		ins := []instr.Instruction{instr.NewExecExpression(t.Object), {Kind: instr.KindStash}}
		if t.Low != nil {
			ins = append(ins, instr.NewExecExpression(t.Low), instr.Instruction{Kind: instr.KindStash})
		}
		if t.High != nil {
			ins = append(ins, instr.NewExecExpression(t.High))
		}
		ins = append(ins, instr.Instruction{Kind: instr.KindSlice, SliceLowOmitted: t.Low == nil, SliceHighOmitted: t.High == nil})
		s.Instructions.Push(ins...)
	case *ast.AssignmentExpression:
		s.lowerAssignment(t)
	case *ast.CallExpression:
		s.lowerCall(t)
	case *ast.MemberExpression:
		s.lowerMember(t)
	case *ast.DoExpression:
		s.lowerAIInvocation(&t.AIInvocation, instr.KindAIDo)
	case *ast.VibeExpression:
		s.lowerAIInvocation(&t.AIInvocation, instr.KindAIVibe)
	case *ast.AskExpression:
		s.lowerAIInvocation(&t.AIInvocation, instr.KindAIAsk)
	case *ast.TsBlock:
		s.Instructions.Push(instr.Instruction{Kind: instr.KindCallTsBlock, TsBlockNode: t})
	default:
		s.failf(ErrTypeMismatch, "", "unknown expression type %T", expr)
	}
}

func (s *RuntimeState) lowerAssignment(t *ast.AssignmentExpression) {
	switch target := t.Target.(type) {
	case *ast.Identifier:
		s.Instructions.Push(instr.NewExecExpression(t.Value), instr.Instruction{Kind: instr.KindAssignVar, Name: target.Name})
	default:
		s.failf(ErrUnsupportedAssign, "", "unsupported assignment target %T", t.Target)
	}
}

func (s *RuntimeState) lowerCall(t *ast.CallExpression) {
	callee, ok := t.Callee.(*ast.Identifier)
	if !ok {
		s.failf(ErrUnknownFunction, "", "call target must be a function name")
		return
	}
	ins := make([]instr.Instruction, 0, len(t.Args)*2+1)
	for _, a := range t.Args {
		ins = append(ins, instr.NewExecExpression(a), instr.Instruction{Kind: instr.KindStash})
	}

	if _, isFn := s.Functions[callee.Name]; !isFn {
		if tv, _, ok := s.resolve(callee.Name); ok && tv.Value.Kind == value.KindTool {
			names := make([]string, len(tv.Value.Tool.Parameters))
			for i, p := range tv.Value.Tool.Parameters {
				names[i] = p.Name
			}
			ins = append(ins, instr.Instruction{Kind: instr.KindCallTool, ToolName: callee.Name, ArgCount: len(t.Args), ToolParamNames: names})
			s.Instructions.Push(ins...)
			return
		}
	}
	ins = append(ins, instr.Instruction{Kind: instr.KindCallFunction, FunctionName: callee.Name, ArgCount: len(t.Args)})
	s.Instructions.Push(ins...)
}

func (s *RuntimeState) lowerMember(t *ast.MemberExpression) {
	if t.Args == nil {
		// plain field access — only meaningful on JSON objects.
		s.Instructions.Push(instr.NewExecExpression(t.Object), instr.Instruction{Kind: instr.KindFieldAccess, MemberName: t.Property})
		return
	}
	targetName := ""
	if id, ok := t.Object.(*ast.Identifier); ok {
		targetName = id.Name
	}
	ins := []instr.Instruction{instr.NewExecExpression(t.Object), {Kind: instr.KindStash}}
	for _, a := range t.Args {
		ins = append(ins, instr.NewExecExpression(a), instr.Instruction{Kind: instr.KindStash})
	}
	ins = append(ins, instr.Instruction{
		Kind: instr.KindCallMember, MemberName: t.Property, MemberArgCount: len(t.Args), MemberTargetName: targetName,
	})
	s.Instructions.Push(ins...)
}
