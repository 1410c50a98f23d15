package snapshot

import (
	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/instr"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// instrNode is the wire shape of one instr.Instruction: its Kind plus every
// field that can be populated for some Kind, with ast-interface fields
// routed through astcodec's node encoding. Unused fields for a given Kind
// simply round-trip as zero values.
type instrNode struct {
	Kind int `yaml:"kind"`

	Statement  node `yaml:"statement,omitempty"`
	Expression node `yaml:"expression,omitempty"`

	Name           string `yaml:"name,omitempty"`
	TypeAnnotation string `yaml:"typeAnnotation,omitempty"`
	IsConst        bool   `yaml:"isConst,omitempty"`
	AssignTarget   node   `yaml:"assignTarget,omitempty"`

	BinaryOp string `yaml:"binaryOp,omitempty"`
	UnaryOp  string `yaml:"unaryOp,omitempty"`

	FunctionName string `yaml:"functionName,omitempty"`
	ArgCount     int    `yaml:"argCount,omitempty"`

	ToolName       string   `yaml:"toolName,omitempty"`
	ToolParamNames []string `yaml:"toolParamNames,omitempty"`

	AIInvocation *node `yaml:"aiInvocation,omitempty"`

	TsBlockNode *node `yaml:"tsBlockNode,omitempty"`

	LoopVarName   string         `yaml:"loopVarName,omitempty"`
	LoopSourceArr []value.Value  `yaml:"loopSourceArr,omitempty"`
	LoopIndex     int            `yaml:"loopIndex,omitempty"`
	LoopEnterIdx  int            `yaml:"loopEnterIdx,omitempty"`
	LoopMode      string         `yaml:"loopMode,omitempty"`
	LoopBody      []node         `yaml:"loopBody,omitempty"`

	WhileCond node   `yaml:"whileCond,omitempty"`
	WhileBody []node `yaml:"whileBody,omitempty"`

	IfThen []node `yaml:"ifThen,omitempty"`
	IfElse []node `yaml:"ifElse,omitempty"`

	ScopeType      string `yaml:"scopeType,omitempty"`
	ScopeLabel     string `yaml:"scopeLabel,omitempty"`
	ScopeMode      string `yaml:"scopeMode,omitempty"`
	ScopeEnterIx   int    `yaml:"scopeEnterIx,omitempty"`
	CompressPrompt string `yaml:"compressPrompt,omitempty"`

	Value value.Value `yaml:"value,omitempty"`

	HasReturnValue bool `yaml:"hasReturnValue,omitempty"`

	SliceLowOmitted  bool `yaml:"sliceLowOmitted,omitempty"`
	SliceHighOmitted bool `yaml:"sliceHighOmitted,omitempty"`

	CollectCount  int      `yaml:"collectCount,omitempty"`
	CollectKeys   []string `yaml:"collectKeys,omitempty"`
	TemplateParts []string `yaml:"templateParts,omitempty"`

	MemberName       string `yaml:"memberName,omitempty"`
	MemberArgCount   int    `yaml:"memberArgCount,omitempty"`
	MemberTargetName string `yaml:"memberTargetName,omitempty"`

	DeclareModel bool `yaml:"declareModel,omitempty"`
}

func encodeInstruction(in instr.Instruction) instrNode {
	out := instrNode{
		Kind:             int(in.Kind),
		Statement:        encodeStmt(in.Statement),
		Expression:       encodeExpr(in.Expression),
		Name:             in.Name,
		TypeAnnotation:   in.TypeAnnotation,
		IsConst:          in.IsConst,
		AssignTarget:     encodeExpr(in.AssignTarget),
		BinaryOp:         string(in.BinaryOp),
		UnaryOp:          string(in.UnaryOp),
		FunctionName:     in.FunctionName,
		ArgCount:         in.ArgCount,
		ToolName:         in.ToolName,
		ToolParamNames:   in.ToolParamNames,
		LoopVarName:      in.LoopVarName,
		LoopSourceArr:    in.LoopSourceArr,
		LoopIndex:        in.LoopIndex,
		LoopEnterIdx:     in.LoopEnterIdx,
		LoopMode:         string(in.LoopMode),
		LoopBody:         encodeStmts(in.LoopBody),
		WhileCond:        encodeExpr(in.WhileCond),
		WhileBody:        encodeStmts(in.WhileBody),
		IfThen:           encodeStmts(in.IfThen),
		IfElse:           encodeStmts(in.IfElse),
		ScopeType:        string(in.ScopeType),
		ScopeLabel:       in.ScopeLabel,
		ScopeMode:        string(in.ScopeMode),
		ScopeEnterIx:     in.ScopeEnterIx,
		CompressPrompt:   in.CompressPrompt,
		Value:            in.Value,
		HasReturnValue:   in.HasReturnValue,
		SliceLowOmitted:  in.SliceLowOmitted,
		SliceHighOmitted: in.SliceHighOmitted,
		CollectCount:     in.CollectCount,
		CollectKeys:      in.CollectKeys,
		TemplateParts:    in.TemplateParts,
		MemberName:       in.MemberName,
		MemberArgCount:   in.MemberArgCount,
		MemberTargetName: in.MemberTargetName,
		DeclareModel:     in.DeclareModel,
	}
	if in.AIInvocation != nil {
		n := encodeAIInvocation(*in.AIInvocation)
		out.AIInvocation = &n
	}
	if in.TsBlockNode != nil {
		n := encodeExpr(in.TsBlockNode)
		out.TsBlockNode = &n
	}
	return out
}

func decodeInstruction(in instrNode) (instr.Instruction, error) {
	stmt, err := decodeStmt(in.Statement)
	if err != nil {
		return instr.Instruction{}, err
	}
	expr, err := decodeExpr(in.Expression)
	if err != nil {
		return instr.Instruction{}, err
	}
	assignTarget, err := decodeExpr(in.AssignTarget)
	if err != nil {
		return instr.Instruction{}, err
	}
	loopBody, err := decodeStmts(nodesToAny(in.LoopBody))
	if err != nil {
		return instr.Instruction{}, err
	}
	whileCond, err := decodeExpr(in.WhileCond)
	if err != nil {
		return instr.Instruction{}, err
	}
	whileBody, err := decodeStmts(nodesToAny(in.WhileBody))
	if err != nil {
		return instr.Instruction{}, err
	}
	ifThen, err := decodeStmts(nodesToAny(in.IfThen))
	if err != nil {
		return instr.Instruction{}, err
	}
	ifElse, err := decodeStmts(nodesToAny(in.IfElse))
	if err != nil {
		return instr.Instruction{}, err
	}

	out := instr.Instruction{
		Kind:             instr.Kind(in.Kind),
		Statement:        stmt,
		Expression:       expr,
		Name:             in.Name,
		TypeAnnotation:   in.TypeAnnotation,
		IsConst:          in.IsConst,
		AssignTarget:     assignTarget,
		BinaryOp:         ast.BinaryOperator(in.BinaryOp),
		UnaryOp:          ast.UnaryOperator(in.UnaryOp),
		FunctionName:     in.FunctionName,
		ArgCount:         in.ArgCount,
		ToolName:         in.ToolName,
		ToolParamNames:   in.ToolParamNames,
		LoopVarName:      in.LoopVarName,
		LoopSourceArr:    in.LoopSourceArr,
		LoopIndex:        in.LoopIndex,
		LoopEnterIdx:     in.LoopEnterIdx,
		LoopMode:         frame.RetentionMode(in.LoopMode),
		LoopBody:         loopBody,
		WhileCond:        whileCond,
		WhileBody:        whileBody,
		IfThen:           ifThen,
		IfElse:           ifElse,
		ScopeType:        frame.ScopeType(in.ScopeType),
		ScopeLabel:       in.ScopeLabel,
		ScopeMode:        frame.RetentionMode(in.ScopeMode),
		ScopeEnterIx:     in.ScopeEnterIx,
		CompressPrompt:   in.CompressPrompt,
		Value:            in.Value,
		HasReturnValue:   in.HasReturnValue,
		SliceLowOmitted:  in.SliceLowOmitted,
		SliceHighOmitted: in.SliceHighOmitted,
		CollectCount:     in.CollectCount,
		CollectKeys:      in.CollectKeys,
		TemplateParts:    in.TemplateParts,
		MemberName:       in.MemberName,
		MemberArgCount:   in.MemberArgCount,
		MemberTargetName: in.MemberTargetName,
		DeclareModel:     in.DeclareModel,
	}
	if in.AIInvocation != nil {
		inv, err := decodeAIInvocation(*in.AIInvocation)
		if err != nil {
			return instr.Instruction{}, err
		}
		out.AIInvocation = &inv
	}
	if in.TsBlockNode != nil {
		e, err := decodeExpr(*in.TsBlockNode)
		if err != nil {
			return instr.Instruction{}, err
		}
		if tb, ok := e.(*ast.TsBlock); ok {
			out.TsBlockNode = tb
		}
	}
	return out, nil
}

func nodesToAny(ns []node) []any {
	if ns == nil {
		return nil
	}
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

// encodeStack snapshots stk into a document-friendly, ordered slice
// (bottom-first, matching Stack.Restore's expectations).
func encodeStack(stk *instr.Stack) []instrNode {
	items := stk.Snapshot()
	out := make([]instrNode, len(items))
	for i, it := range items {
		out[i] = encodeInstruction(it)
	}
	return out
}

func decodeStack(items []instrNode) (*instr.Stack, error) {
	stk := instr.NewStack()
	decoded := make([]instr.Instruction, len(items))
	for i, it := range items {
		d, err := decodeInstruction(it)
		if err != nil {
			return nil, err
		}
		decoded[i] = d
	}
	stk.Restore(decoded)
	return stk, nil
}
