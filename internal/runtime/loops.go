package runtime

import (
	"math"

	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

func retentionOf(mode ast.ContextMode) frame.RetentionMode {
	switch mode {
	case ast.ModeForget:
		return frame.RetentionForget
	case ast.ModeCompress:
		return frame.RetentionCompress
	default:
		return frame.RetentionVerbose
	}
}

// scopeExitInstruction builds the instruction that closes a bracketed scope,
// applying its retention mode.
func scopeExitInstruction(kind frame.ScopeType, label string, mode frame.RetentionMode, enterIdx int, compressPrompt string) instr.Instruction {
	return instr.Instruction{
		Kind: instr.KindScopeExit, ScopeType: kind, ScopeLabel: label,
		ScopeMode: mode, ScopeEnterIx: enterIdx, CompressPrompt: compressPrompt,
	}
}

func (s *RuntimeState) execScopeExit(ins instr.Instruction) {
	s.dropScopeLocals()
	switch ins.ScopeMode {
	case frame.RetentionForget:
		s.currentFrame().ScopeExitForget(ins.ScopeEnterIx)
	case frame.RetentionCompress:
		pc := s.currentFrame().PrepareCompress(ins.ScopeEnterIx, ins.ScopeType, ins.ScopeLabel, ins.CompressPrompt, "")
		s.PendingCompress = &pc
		s.PendingCompressFrame = s.currentFrame()
		s.Status = StatusAwaitingCompress
	default:
		s.currentFrame().ScopeExitVerbose(ins.ScopeType, ins.ScopeLabel)
	}
}

// ── if ──

func (s *RuntimeState) lowerIf(t *ast.IfStatement) {
	idx := s.enterScope(frame.ScopeIf, "")
	s.Instructions.Push(
		instr.NewExecExpression(t.Condition),
		instr.Instruction{Kind: instr.KindIfTest, IfThen: t.Then, IfElse: t.Else, ScopeEnterIx: idx},
	)
}

func (s *RuntimeState) execIfTest(ins instr.Instruction) {
	cond := s.LastResult
	if cond.Kind != value.KindBoolean {
		s.failf(ErrTypeMismatch, "", "if condition must be boolean, got %s", cond.Kind)
		return
	}
	branch := ins.IfElse
	if cond.Boolean {
		branch = ins.IfThen
	}
	seq := append(flattenStmts(branch), scopeExitInstruction(frame.ScopeIf, "", frame.RetentionVerbose, ins.ScopeEnterIx, ""))
	s.Instructions.Push(seq...)
}

// ── while ──

func (s *RuntimeState) lowerWhile(t *ast.WhileStatement) {
	idx := s.enterScope(frame.ScopeWhile, "")
	s.Instructions.Push(
		instr.NewExecExpression(t.Condition),
		instr.Instruction{
			Kind: instr.KindWhileTest, WhileCond: t.Condition, WhileBody: t.Body,
			ScopeEnterIx: idx, ScopeMode: retentionOf(t.Mode), CompressPrompt: t.CompressArg,
		},
	)
}

func (s *RuntimeState) execWhileTest(ins instr.Instruction) {
	cond := s.LastResult
	if cond.Kind != value.KindBoolean {
		s.failf(ErrTypeMismatch, "", "while condition must be boolean, got %s", cond.Kind)
		return
	}
	if !cond.Boolean {
		s.Instructions.Push(scopeExitInstruction(frame.ScopeWhile, "", ins.ScopeMode, ins.ScopeEnterIx, ins.CompressPrompt))
		return
	}
	recheck := instr.Instruction{
		Kind: instr.KindWhileTest, WhileCond: ins.WhileCond, WhileBody: ins.WhileBody,
		ScopeEnterIx: ins.ScopeEnterIx, ScopeMode: ins.ScopeMode, CompressPrompt: ins.CompressPrompt,
	}
	seq := append(flattenStmts(ins.WhileBody), instr.NewExecExpression(ins.WhileCond), recheck)
	s.Instructions.Push(seq...)
}

// ── for ──

func (s *RuntimeState) lowerFor(t *ast.ForInStatement) {
	idx := s.enterScope(frame.ScopeFor, t.VarName)
	s.Instructions.Push(
		instr.NewExecExpression(t.Source),
		instr.Instruction{
			Kind: instr.KindForNext, LoopVarName: t.VarName, LoopBody: t.Body,
			LoopIndex: -1, LoopEnterIdx: idx, LoopMode: retentionOf(t.Mode), CompressPrompt: t.CompressArg,
		},
	)
}

func (s *RuntimeState) execForNext(ins instr.Instruction) {
	items := ins.LoopSourceArr
	enterIdx := ins.LoopEnterIdx
	if ins.LoopIndex == -1 {
		bound := s.LastResult
		switch bound.Kind {
		case value.KindNumber:
			n := bound.Number
			if n != math.Trunc(n) || n < 0 {
				s.failf(ErrInvalidRange, "", "for range bound must be a non-negative integer, got %v", n)
				return
			}
			items = make([]value.Value, int(n))
			for i := range items {
				items[i] = value.Number(float64(i + 1))
			}
		case value.KindArray:
			items = bound.Array
		default:
			s.failf(ErrNotIterable, "", "cannot iterate over a value of kind %s", bound.Kind)
			return
		}
	}

	index := ins.LoopIndex
	if index == -1 {
		index = 0
	}

	if index >= len(items) {
		s.Instructions.Push(scopeExitInstruction(frame.ScopeFor, ins.LoopVarName, ins.LoopMode, enterIdx, ins.CompressPrompt))
		return
	}

	bindInstr := instr.Instruction{Kind: instr.KindDeclareVar, Name: ins.LoopVarName}
	if index > 0 {
		bindInstr = instr.Instruction{Kind: instr.KindAssignVar, Name: ins.LoopVarName}
	}

	next := index + 1
	var seq []instr.Instruction
	seq = append(seq, instr.NewPushValue(items[index]), bindInstr)
	seq = append(seq, flattenStmts(ins.LoopBody)...)
	if next < len(items) {
		seq = append(seq, instr.Instruction{
			Kind: instr.KindForNext, LoopVarName: ins.LoopVarName, LoopBody: ins.LoopBody,
			LoopSourceArr: items, LoopIndex: next, LoopEnterIdx: enterIdx,
			LoopMode: ins.LoopMode, CompressPrompt: ins.CompressPrompt,
		})
	} else {
		seq = append(seq, scopeExitInstruction(frame.ScopeFor, ins.LoopVarName, ins.LoopMode, enterIdx, ins.CompressPrompt))
	}
	s.Instructions.Push(seq...)
}
