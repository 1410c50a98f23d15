package runtime

import (
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

func (s *RuntimeState) execCallFunction(ins instr.Instruction) {
	fn, ok := s.Functions[ins.FunctionName]
	if !ok {
		s.failf(ErrUnknownFunction, ins.FunctionName, "undefined function %q", ins.FunctionName)
		return
	}
	if len(fn.Params) != ins.ArgCount {
		s.failf(ErrArgumentCount, ins.FunctionName, "%q expects %d arguments, got %d", ins.FunctionName, len(fn.Params), ins.ArgCount)
		return
	}
	args := make([]value.Value, ins.ArgCount)
	for i := ins.ArgCount - 1; i >= 0; i-- {
		args[i] = s.popTemp()
	}

	newFrame := frame.New(fn.Name)
	for i, p := range fn.Params {
		ann, perr := value.ParseTypeAnnotation(p.TypeAnnotation)
		if perr != nil {
			s.failf(ErrTypeMismatch, p.Name, "%v", perr)
			return
		}
		checked, terr := value.Typecheck(args[i], ann)
		if terr != nil {
			s.failf(ErrTypeMismatch, p.Name, "%v", terr)
			return
		}
		if err := newFrame.Declare(p.Name, checked, ann, false, frame.SourceNone); err != nil {
			s.failf(ErrDuplicateVariable, p.Name, "%v", err)
			return
		}
	}
	retAnn, rerr := value.ParseTypeAnnotation(fn.ReturnType)
	if rerr != nil {
		s.failf(ErrTypeMismatch, fn.Name, "%v", rerr)
		return
	}

	s.CallStack = append(s.CallStack, newFrame)
	s.ReturnTypes = append(s.ReturnTypes, retAnn)
	s.ScopeDepthAtCall = append(s.ScopeDepthAtCall, len(s.ScopeLocalsStack))

	body := flattenStmts(fn.Body)
	s.Instructions.Push(append(body, instr.Instruction{Kind: instr.KindFinishCall})...)
}

func (s *RuntimeState) execReturn(ins instr.Instruction) {
	retVal := value.Null
	if ins.HasReturnValue {
		retVal = s.LastResult
	}
	n := len(s.ReturnTypes)
	if n == 0 {
		s.failf(ErrReturnOutsideFunc, "", "return used outside of a function body")
		return
	}
	ann := s.ReturnTypes[n-1]
	checked, terr := value.Typecheck(retVal, ann)
	if terr != nil {
		s.failf(ErrTypeMismatch, "", "%v", terr)
		return
	}
	depth := s.ScopeDepthAtCall[n-1]
	s.closeScopesAbove(depth)
	s.ScopeDepthAtCall = s.ScopeDepthAtCall[:n-1]
	s.ReturnTypes = s.ReturnTypes[:n-1]
	s.CallStack = s.CallStack[:len(s.CallStack)-1]
	s.LastResult = checked

	for {
		next, ok := s.Instructions.Pop()
		if !ok {
			s.failf(ErrTypeMismatch, "", "internal error: return found no enclosing call frame")
			return
		}
		if next.Kind == instr.KindFinishCall {
			return
		}
	}
}

func (s *RuntimeState) execFinishCall() {
	n := len(s.ReturnTypes)
	if n > 0 {
		s.closeScopesAbove(s.ScopeDepthAtCall[n-1])
		s.ScopeDepthAtCall = s.ScopeDepthAtCall[:n-1]
		s.ReturnTypes = s.ReturnTypes[:n-1]
	}
	if len(s.CallStack) > 1 {
		s.CallStack = s.CallStack[:len(s.CallStack)-1]
	}
	s.LastResult = value.Null
}

// execCallMember handles a method call (arr.push/arr.pop/arr.len/text.len).
// The receiver was stashed before its arguments; mutating methods write the
// new receiver value back to MemberTargetName when the receiver was a bare
// identifier.
func (s *RuntimeState) execCallMember(ins instr.Instruction) {
	args := make([]value.Value, ins.MemberArgCount)
	for i := ins.MemberArgCount - 1; i >= 0; i-- {
		args[i] = s.popTemp()
	}
	recv := s.popTemp()

	result, mutated, didMutate, err := callMember(recv, ins.MemberName, args)
	if err != nil {
		s.Fail(err)
		return
	}
	if didMutate && ins.MemberTargetName != "" {
		existing, fr, ok := s.resolve(ins.MemberTargetName)
		if !ok {
			s.failf(ErrUndefinedVariable, ins.MemberTargetName, "undefined variable %q", ins.MemberTargetName)
			return
		}
		if existing.IsConst {
			s.failf(ErrImmutableAssign, ins.MemberTargetName, "cannot mutate constant %q", ins.MemberTargetName)
			return
		}
		if aerr := fr.Assign(ins.MemberTargetName, mutated, frame.SourceNone); aerr != nil {
			s.failf(ErrImmutableAssign, ins.MemberTargetName, "%v", aerr)
			return
		}
	}
	s.LastResult = result
}
