package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// Step advances state by exactly one instruction (spec §4.D: "step(state) →
// state'"). It mutates and returns the same pointer. Callers (internal/driver)
// loop Step until Status leaves StatusRunning.
func Step(s *RuntimeState) *RuntimeState {
	if s.Status != StatusRunning {
		return s
	}
	ins, ok := s.Instructions.Pop()
	if !ok {
		s.Status = StatusCompleted
		return s
	}
	switch ins.Kind {
	case instr.KindExecStatement:
		s.lowerStatement(ins.Statement)
	case instr.KindExecExpression:
		s.lowerExpression(ins.Expression)
	case instr.KindPushValue:
		s.LastResult = ins.Value
	case instr.KindPopDiscard:
		// intentionally drops lastResult between sequential statements
	case instr.KindStash:
		s.pushTemp(s.LastResult)
	case instr.KindDeclareVar:
		s.execDeclareVar(ins)
	case instr.KindAssignVar:
		s.execAssignVar(ins)
	case instr.KindBinaryOp:
		right := s.LastResult
		left := s.popTemp()
		v, err := applyBinaryOp(ins.BinaryOp, left, right)
		if err != nil {
			s.Fail(err)
			return s
		}
		s.LastResult = v
	case instr.KindUnaryOp:
		v, err := applyUnaryOp(ins.UnaryOp, s.LastResult)
		if err != nil {
			s.Fail(err)
			return s
		}
		s.LastResult = v
	case instr.KindIndex:
		idx := s.LastResult
		obj := s.popTemp()
		v, err := applyIndex(obj, idx)
		if err != nil {
			s.Fail(err)
			return s
		}
		s.LastResult = v
	case instr.KindSlice:
		var hi *value.Value
		if !ins.SliceHighOmitted {
			v := s.LastResult
			hi = &v
		}
		var lo *value.Value
		if !ins.SliceLowOmitted {
			v := s.popTemp()
			lo = &v
		}
		obj := s.popTemp()
		v, err := applySlice(obj, lo, hi)
		if err != nil {
			s.Fail(err)
			return s
		}
		s.LastResult = v
	case instr.KindCollectArray:
		items := make([]value.Value, ins.CollectCount)
		for i := ins.CollectCount - 1; i >= 0; i-- {
			items[i] = s.popTemp()
		}
		s.LastResult = value.Array(items)
	case instr.KindCollectObject:
		vals := make([]value.Value, len(ins.CollectKeys))
		for i := len(ins.CollectKeys) - 1; i >= 0; i-- {
			vals[i] = s.popTemp()
		}
		obj := make(map[string]any, len(ins.CollectKeys))
		for i, k := range ins.CollectKeys {
			obj[k] = value.ToPlain(vals[i])
		}
		s.LastResult = value.JSON(obj)
	case instr.KindCollectTemplate:
		vals := make([]value.Value, ins.CollectCount)
		for i := ins.CollectCount - 1; i >= 0; i-- {
			vals[i] = s.popTemp()
		}
		s.LastResult = value.Text(collectTemplate(ins.TemplateParts, vals))
	case instr.KindFieldAccess:
		obj := s.LastResult
		v, err := applyFieldAccess(obj, ins.MemberName)
		if err != nil {
			s.Fail(err)
			return s
		}
		s.LastResult = v
	case instr.KindCallMember:
		s.execCallMember(ins)
	case instr.KindCallFunction:
		s.execCallFunction(ins)
	case instr.KindReturn:
		s.execReturn(ins)
	case instr.KindFinishCall:
		s.execFinishCall()
	case instr.KindIfTest:
		s.execIfTest(ins)
	case instr.KindWhileTest:
		s.execWhileTest(ins)
	case instr.KindForNext:
		s.execForNext(ins)
	case instr.KindScopeEnter:
		s.currentFrame().ScopeEnter(ins.ScopeType, ins.ScopeLabel)
	case instr.KindScopeExit:
		s.execScopeExit(ins)
	case instr.KindEnterBlock:
		s.enterScope(frame.ScopeBlock, "")
	case instr.KindExitBlock:
		s.dropScopeLocals()
		s.currentFrame().ScopeExitVerbose(frame.ScopeBlock, "")
	case instr.KindAIDo, instr.KindAIVibe, instr.KindAIAsk:
		s.execAIInvoke(ins)
	case instr.KindCallTool:
		s.execCallTool(ins)
	case instr.KindCallTsBlock:
		s.execCallTsBlock(ins)
	default:
		s.failf(ErrTypeMismatch, "", "unhandled instruction kind %d", ins.Kind)
	}
	return s
}

// lowerStatement pushes the instructions implementing stmt. Declarations
// whose value has no runtime suspension risk (tool/function/import) are
// resolved synchronously, in place.
func (s *RuntimeState) lowerStatement(stmt ast.Statement) {
	switch t := stmt.(type) {
	case *ast.LetDeclaration:
		s.Instructions.Push(instr.NewExecExpression(t.Value), instr.Instruction{
			Kind: instr.KindDeclareVar, Name: t.Name, TypeAnnotation: t.TypeAnnotation,
		})
	case *ast.ConstDeclaration:
		s.Instructions.Push(instr.NewExecExpression(t.Value), instr.Instruction{
			Kind: instr.KindDeclareVar, Name: t.Name, IsConst: true,
		})
	case *ast.ModelDeclaration:
		s.Instructions.Push(instr.NewExecExpression(t.Config), instr.Instruction{
			Kind: instr.KindDeclareVar, Name: t.Name, IsConst: true, DeclareModel: true,
		})
	case *ast.ToolDeclaration:
		params := make([]value.ToolParam, len(t.Parameters))
		for i, p := range t.Parameters {
			params[i] = value.ToolParam{Name: p.Name, Type: p.Type, Description: p.Description, Required: p.Required}
		}
		tv := value.Tool(value.ToolBinding{Name: t.Name, Description: t.Description, Parameters: params})
		s.Instructions.Push(instr.NewPushValue(tv), instr.Instruction{Kind: instr.KindDeclareVar, Name: t.Name, IsConst: true})
	case *ast.FunctionDeclaration:
		s.Functions[t.Name] = t
		s.LastResult = value.Null
	case *ast.ImportDeclaration:
		for _, name := range t.Names {
			if err := s.currentFrame().Declare(name, value.TsFn(value.ImportID(t.From)), value.None, true, frame.SourceNone); err != nil {
				s.failf(ErrDuplicateVariable, name, "%v", err)
				return
			}
		}
		s.LastResult = value.Null
	case *ast.ExportDeclaration:
		s.Instructions.Push(instr.NewExecStatement(t.Decl))
	case *ast.ReturnStatement:
		if len(s.CallStack) <= 1 {
			s.failf(ErrReturnOutsideFunc, "", "return used outside of a function body")
			return
		}
		if t.Value != nil {
			s.Instructions.Push(instr.NewExecExpression(t.Value), instr.Instruction{Kind: instr.KindReturn, HasReturnValue: true})
		} else {
			s.Instructions.Push(instr.Instruction{Kind: instr.KindReturn, HasReturnValue: false})
		}
	case *ast.IfStatement:
		s.lowerIf(t)
	case *ast.ForInStatement:
		s.lowerFor(t)
	case *ast.WhileStatement:
		s.lowerWhile(t)
	case *ast.BlockStatement:
		seq := append([]instr.Instruction{{Kind: instr.KindEnterBlock}}, flattenStmts(t.Body)...)
		seq = append(seq, instr.Instruction{Kind: instr.KindExitBlock})
		s.Instructions.Push(seq...)
	case *ast.ExpressionStatement:
		s.Instructions.Push(instr.NewExecExpression(t.Expr))
	default:
		s.failf(ErrTypeMismatch, "", "unknown statement type %T", stmt)
	}
}

// flattenStmts builds the flat ExecStatement/PopDiscard sequence for a fixed
// statement list (if/while/for bodies, function bodies, blocks). Each
// statement's residual expression value is discarded so it cannot leak into
// the next statement's evaluation.
func flattenStmts(stmts []ast.Statement) []instr.Instruction {
	out := make([]instr.Instruction, 0, len(stmts)*2)
	for _, st := range stmts {
		out = append(out, instr.NewExecStatement(st), instr.NewPopDiscard())
	}
	return out
}

func (s *RuntimeState) execDeclareVar(ins instr.Instruction) {
	v := s.LastResult
	if ins.DeclareModel {
		mv, err := buildModelConfig(v)
		if err != nil {
			s.Fail(err)
			return
		}
		v = mv
	}
	ann, perr := value.ParseTypeAnnotation(ins.TypeAnnotation)
	if perr != nil {
		s.failf(ErrTypeMismatch, ins.Name, "%v", perr)
		return
	}
	checked, terr := value.Typecheck(v, ann)
	if terr != nil {
		s.failf(ErrTypeMismatch, ins.Name, "%v", terr)
		return
	}
	src := s.NextValueSource
	s.NextValueSource = frame.SourceNone
	if err := s.currentFrame().Declare(ins.Name, checked, ann, ins.IsConst, src); err != nil {
		s.failf(ErrDuplicateVariable, ins.Name, "%v", err)
		return
	}
	s.LastResult = checked
}

func (s *RuntimeState) execAssignVar(ins instr.Instruction) {
	existing, fr, ok := s.resolve(ins.Name)
	if !ok {
		s.failf(ErrUndefinedVariable, ins.Name, "undefined variable %q", ins.Name)
		return
	}
	checked, terr := value.Typecheck(s.LastResult, existing.Annotation)
	if terr != nil {
		s.failf(ErrTypeMismatch, ins.Name, "%v", terr)
		return
	}
	src := s.NextValueSource
	s.NextValueSource = frame.SourceNone
	if err := fr.Assign(ins.Name, checked, src); err != nil {
		s.failf(ErrImmutableAssign, ins.Name, "%v", err)
		return
	}
	s.LastResult = checked
}

// buildModelConfig converts a `model { name: ..., apiKey: ..., url: ... }`
// object-literal result (a JSON-kind Value wrapping map[string]any) into a
// value.Model binding.
func buildModelConfig(v value.Value) (value.Value, *RuntimeError) {
	if v.Kind != value.KindJSON {
		return value.Null, newError(ErrTypeMismatch, "", "model declaration requires an object literal")
	}
	m, ok := v.JSON.(map[string]any)
	if !ok {
		return value.Null, newError(ErrTypeMismatch, "", "model declaration requires an object literal")
	}
	field := func(key string) string {
		if raw, ok := m[key]; ok {
			if str, ok := raw.(string); ok {
				return str
			}
		}
		return ""
	}
	return value.Model(value.ModelConfig{Name: field("name"), APIKey: field("apiKey"), URL: field("url")}), nil
}
