// Package snapshot implements the versioned, self-contained persisted-state
// document described in spec §4.I. A Document carries every field needed
// to resume a RuntimeState with no replay of earlier instructions —
// including the pending instruction stack, which requires encoding
// internal/ast's interface-typed nodes into plain, YAML-marshalable trees
// (ast.Statement/ast.Expression carry no Kind discriminator of their own,
// unlike value.Value and frame.FrameEntry, so this package supplies one).
package snapshot

import (
	"fmt"

	"github.com/pocketomega/vibe-runtime/internal/ast"
)

// node is the wire shape every encoded ast.Statement/ast.Expression takes:
// a type discriminator plus a flat field bag. Nested statements/expressions
// recurse as further `node` values, so the whole tree is built from plain
// maps/slices/primitives that gopkg.in/yaml.v3 marshals natively.
type node map[string]any

func encodeExpr(e ast.Expression) node {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case *ast.NullLiteral:
		return node{"type": "Null"}
	case *ast.TextLiteral:
		return node{"type": "Text", "value": v.Value}
	case *ast.NumberLiteral:
		return node{"type": "Number", "value": v.Value}
	case *ast.BooleanLiteral:
		return node{"type": "Boolean", "value": v.Value}
	case *ast.Identifier:
		return node{"type": "Identifier", "name": v.Name}
	case *ast.ObjectLiteral:
		return node{"type": "Object", "keys": v.Keys, "values": encodeExprs(v.Values)}
	case *ast.ArrayLiteral:
		return node{"type": "Array", "elements": encodeExprs(v.Elements)}
	case *ast.RangeExpression:
		return node{"type": "Range", "bound": encodeExpr(v.Bound)}
	case *ast.TemplateLiteral:
		return node{"type": "Template", "parts": v.Parts, "exprs": encodeExprs(v.Exprs)}
	case *ast.InterpolatedString:
		return node{"type": "Interpolated", "raw": v.Raw}
	case *ast.AssignmentExpression:
		return node{"type": "Assignment", "target": encodeExpr(v.Target), "value": encodeExpr(v.Value)}
	case *ast.CallExpression:
		return node{"type": "Call", "callee": encodeExpr(v.Callee), "args": encodeExprs(v.Args), "contextMode": string(v.ContextMode)}
	case *ast.MemberExpression:
		n := node{"type": "Member", "object": encodeExpr(v.Object), "property": v.Property}
		if v.Args != nil {
			n["args"] = encodeExprs(v.Args)
		}
		return n
	case *ast.IndexExpression:
		return node{"type": "Index", "object": encodeExpr(v.Object), "index": encodeExpr(v.Index)}
	case *ast.SliceExpression:
		return node{"type": "Slice", "object": encodeExpr(v.Object), "low": encodeExpr(v.Low), "high": encodeExpr(v.High)}
	case *ast.BinaryExpression:
		return node{"type": "Binary", "op": string(v.Op), "left": encodeExpr(v.Left), "right": encodeExpr(v.Right)}
	case *ast.UnaryExpression:
		return node{"type": "Unary", "op": string(v.Op), "operand": encodeExpr(v.Operand)}
	case *ast.DoExpression:
		return node{"type": "Do", "invocation": encodeAIInvocation(v.AIInvocation)}
	case *ast.VibeExpression:
		return node{"type": "Vibe", "invocation": encodeAIInvocation(v.AIInvocation)}
	case *ast.AskExpression:
		return node{"type": "Ask", "invocation": encodeAIInvocation(v.AIInvocation)}
	case *ast.TsBlock:
		return node{"type": "TsBlock", "source": v.Source, "bindings": v.Bindings}
	default:
		return node{"type": "Unknown"}
	}
}

func decodeExpr(n node) (ast.Expression, error) {
	if n == nil {
		return nil, nil
	}
	t, _ := n["type"].(string)
	switch t {
	case "Null":
		return &ast.NullLiteral{}, nil
	case "Text":
		return &ast.TextLiteral{Value: asString(n["value"])}, nil
	case "Number":
		return &ast.NumberLiteral{Value: asFloat(n["value"])}, nil
	case "Boolean":
		return &ast.BooleanLiteral{Value: asBool(n["value"])}, nil
	case "Identifier":
		return &ast.Identifier{Name: asString(n["name"])}, nil
	case "Object":
		values, err := decodeExprs(n["values"])
		if err != nil {
			return nil, err
		}
		return &ast.ObjectLiteral{Keys: asStringSlice(n["keys"]), Values: values}, nil
	case "Array":
		elems, err := decodeExprs(n["elements"])
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{Elements: elems}, nil
	case "Range":
		bound, err := decodeExpr(asNode(n["bound"]))
		if err != nil {
			return nil, err
		}
		return &ast.RangeExpression{Bound: bound}, nil
	case "Template":
		exprs, err := decodeExprs(n["exprs"])
		if err != nil {
			return nil, err
		}
		return &ast.TemplateLiteral{Parts: asStringSlice(n["parts"]), Exprs: exprs}, nil
	case "Interpolated":
		return &ast.InterpolatedString{Raw: asString(n["raw"])}, nil
	case "Assignment":
		target, err := decodeExpr(asNode(n["target"]))
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(asNode(n["value"]))
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpression{Target: target, Value: value}, nil
	case "Call":
		callee, err := decodeExpr(asNode(n["callee"]))
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(n["args"])
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Callee: callee, Args: args, ContextMode: ast.ContextMode(asString(n["contextMode"]))}, nil
	case "Member":
		object, err := decodeExpr(asNode(n["object"]))
		if err != nil {
			return nil, err
		}
		var args []ast.Expression
		if n["args"] != nil {
			args, err = decodeExprs(n["args"])
			if err != nil {
				return nil, err
			}
		}
		return &ast.MemberExpression{Object: object, Property: asString(n["property"]), Args: args}, nil
	case "Index":
		object, err := decodeExpr(asNode(n["object"]))
		if err != nil {
			return nil, err
		}
		index, err := decodeExpr(asNode(n["index"]))
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpression{Object: object, Index: index}, nil
	case "Slice":
		object, err := decodeExpr(asNode(n["object"]))
		if err != nil {
			return nil, err
		}
		low, err := decodeExpr(asNode(n["low"]))
		if err != nil {
			return nil, err
		}
		high, err := decodeExpr(asNode(n["high"]))
		if err != nil {
			return nil, err
		}
		return &ast.SliceExpression{Object: object, Low: low, High: high}, nil
	case "Binary":
		left, err := decodeExpr(asNode(n["left"]))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(asNode(n["right"]))
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Op: ast.BinaryOperator(asString(n["op"])), Left: left, Right: right}, nil
	case "Unary":
		operand, err := decodeExpr(asNode(n["operand"]))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Op: ast.UnaryOperator(asString(n["op"])), Operand: operand}, nil
	case "Do":
		inv, err := decodeAIInvocation(asNode(n["invocation"]))
		if err != nil {
			return nil, err
		}
		return &ast.DoExpression{AIInvocation: inv}, nil
	case "Vibe":
		inv, err := decodeAIInvocation(asNode(n["invocation"]))
		if err != nil {
			return nil, err
		}
		return &ast.VibeExpression{AIInvocation: inv}, nil
	case "Ask":
		inv, err := decodeAIInvocation(asNode(n["invocation"]))
		if err != nil {
			return nil, err
		}
		return &ast.AskExpression{AIInvocation: inv}, nil
	case "TsBlock":
		return &ast.TsBlock{Source: asString(n["source"]), Bindings: asStringSlice(n["bindings"])}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown expression node type %q", t)
	}
}

func encodeExprs(es []ast.Expression) []node {
	if es == nil {
		return nil
	}
	out := make([]node, len(es))
	for i, e := range es {
		out[i] = encodeExpr(e)
	}
	return out
}

func decodeExprs(raw any) ([]ast.Expression, error) {
	items := asSlice(raw)
	if items == nil {
		return nil, nil
	}
	out := make([]ast.Expression, len(items))
	for i, it := range items {
		e, err := decodeExpr(asNode(it))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func encodeAIInvocation(inv ast.AIInvocation) node {
	return node{"prompt": encodeExpr(inv.Prompt), "model": encodeExpr(inv.Model), "mode": inv.Mode}
}

func decodeAIInvocation(n node) (ast.AIInvocation, error) {
	if n == nil {
		return ast.AIInvocation{}, nil
	}
	prompt, err := decodeExpr(asNode(n["prompt"]))
	if err != nil {
		return ast.AIInvocation{}, err
	}
	model, err := decodeExpr(asNode(n["model"]))
	if err != nil {
		return ast.AIInvocation{}, err
	}
	return ast.AIInvocation{Prompt: prompt, Model: model, Mode: asString(n["mode"])}, nil
}

func encodeStmt(s ast.Statement) node {
	if s == nil {
		return nil
	}
	switch v := s.(type) {
	case *ast.LetDeclaration:
		return node{"type": "Let", "name": v.Name, "typeAnnotation": v.TypeAnnotation, "value": encodeExpr(v.Value)}
	case *ast.ConstDeclaration:
		return node{"type": "Const", "name": v.Name, "value": encodeExpr(v.Value)}
	case *ast.ModelDeclaration:
		return node{"type": "Model", "name": v.Name, "config": encodeExpr(v.Config)}
	case *ast.ToolDeclaration:
		params := make([]node, len(v.Parameters))
		for i, p := range v.Parameters {
			params[i] = node{"name": p.Name, "type": p.Type, "description": p.Description, "required": p.Required}
		}
		return node{"type": "Tool", "name": v.Name, "description": v.Description, "parameters": params}
	case *ast.FunctionDeclaration:
		return node(encodeFunctionDecl(v))
	case *ast.ImportDeclaration:
		return node{"type": "Import", "names": v.Names, "from": v.From}
	case *ast.ExportDeclaration:
		return node{"type": "Export", "decl": encodeStmt(v.Decl)}
	case *ast.ReturnStatement:
		return node{"type": "Return", "value": encodeExpr(v.Value)}
	case *ast.IfStatement:
		return node{"type": "If", "condition": encodeExpr(v.Condition), "then": encodeStmts(v.Then), "else": encodeStmts(v.Else)}
	case *ast.ForInStatement:
		return node{
			"type": "ForIn", "varName": v.VarName, "source": encodeExpr(v.Source), "body": encodeStmts(v.Body),
			"mode": string(v.Mode), "compressArg": v.CompressArg, "functionLevel": string(v.FunctionLevel),
		}
	case *ast.WhileStatement:
		return node{
			"type": "While", "condition": encodeExpr(v.Condition), "body": encodeStmts(v.Body),
			"mode": string(v.Mode), "compressArg": v.CompressArg, "functionLevel": string(v.FunctionLevel),
		}
	case *ast.BlockStatement:
		return node{"type": "Block", "body": encodeStmts(v.Body)}
	case *ast.ExpressionStatement:
		return node{"type": "ExprStmt", "expr": encodeExpr(v.Expr)}
	default:
		return node{"type": "Unknown"}
	}
}

func decodeStmt(n node) (ast.Statement, error) {
	if n == nil {
		return nil, nil
	}
	t, _ := n["type"].(string)
	switch t {
	case "Let":
		value, err := decodeExpr(asNode(n["value"]))
		if err != nil {
			return nil, err
		}
		return &ast.LetDeclaration{Name: asString(n["name"]), TypeAnnotation: asString(n["typeAnnotation"]), Value: value}, nil
	case "Const":
		value, err := decodeExpr(asNode(n["value"]))
		if err != nil {
			return nil, err
		}
		return &ast.ConstDeclaration{Name: asString(n["name"]), Value: value}, nil
	case "Model":
		config, err := decodeExpr(asNode(n["config"]))
		if err != nil {
			return nil, err
		}
		return &ast.ModelDeclaration{Name: asString(n["name"]), Config: config}, nil
	case "Tool":
		raw := asSlice(n["parameters"])
		params := make([]ast.ToolParamDecl, len(raw))
		for i, p := range raw {
			pn := asNode(p)
			params[i] = ast.ToolParamDecl{
				Name: asString(pn["name"]), Type: asString(pn["type"]),
				Description: asString(pn["description"]), Required: asBool(pn["required"]),
			}
		}
		return &ast.ToolDeclaration{Name: asString(n["name"]), Description: asString(n["description"]), Parameters: params}, nil
	case "Function":
		return decodeFunctionDecl(n)
	case "Import":
		return &ast.ImportDeclaration{Names: asStringSlice(n["names"]), From: asString(n["from"])}, nil
	case "Export":
		decl, err := decodeStmt(asNode(n["decl"]))
		if err != nil {
			return nil, err
		}
		return &ast.ExportDeclaration{Decl: decl}, nil
	case "Return":
		value, err := decodeExpr(asNode(n["value"]))
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Value: value}, nil
	case "If":
		cond, err := decodeExpr(asNode(n["condition"]))
		if err != nil {
			return nil, err
		}
		then, err := decodeStmts(n["then"])
		if err != nil {
			return nil, err
		}
		els, err := decodeStmts(n["else"])
		if err != nil {
			return nil, err
		}
		return &ast.IfStatement{Condition: cond, Then: then, Else: els}, nil
	case "ForIn":
		source, err := decodeExpr(asNode(n["source"]))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n["body"])
		if err != nil {
			return nil, err
		}
		return &ast.ForInStatement{
			VarName: asString(n["varName"]), Source: source, Body: body,
			Mode: ast.ContextMode(asString(n["mode"])), CompressArg: asString(n["compressArg"]),
			FunctionLevel: ast.ContextMode(asString(n["functionLevel"])),
		}, nil
	case "While":
		cond, err := decodeExpr(asNode(n["condition"]))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n["body"])
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{
			Condition: cond, Body: body,
			Mode: ast.ContextMode(asString(n["mode"])), CompressArg: asString(n["compressArg"]),
			FunctionLevel: ast.ContextMode(asString(n["functionLevel"])),
		}, nil
	case "Block":
		body, err := decodeStmts(n["body"])
		if err != nil {
			return nil, err
		}
		return &ast.BlockStatement{Body: body}, nil
	case "ExprStmt":
		expr, err := decodeExpr(asNode(n["expr"]))
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Expr: expr}, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown statement node type %q", t)
	}
}

func encodeStmts(ss []ast.Statement) []node {
	if ss == nil {
		return nil
	}
	out := make([]node, len(ss))
	for i, s := range ss {
		out[i] = encodeStmt(s)
	}
	return out
}

func decodeStmts(raw any) ([]ast.Statement, error) {
	items := asSlice(raw)
	if items == nil {
		return nil, nil
	}
	out := make([]ast.Statement, len(items))
	for i, it := range items {
		s, err := decodeStmt(asNode(it))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func encodeFunctionDecl(fn *ast.FunctionDeclaration) node {
	params := make([]node, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = node{"name": p.Name, "typeAnnotation": p.TypeAnnotation}
	}
	return node{
		"type": "Function", "name": fn.Name, "params": params,
		"returnType": fn.ReturnType, "body": encodeStmts(fn.Body),
	}
}

func decodeFunctionDecl(n node) (*ast.FunctionDeclaration, error) {
	raw := asSlice(n["params"])
	params := make([]ast.FunctionParam, len(raw))
	for i, p := range raw {
		pn := asNode(p)
		params[i] = ast.FunctionParam{Name: asString(pn["name"]), TypeAnnotation: asString(pn["typeAnnotation"])}
	}
	body, err := decodeStmts(n["body"])
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{Name: asString(n["name"]), Params: params, ReturnType: asString(n["returnType"]), Body: body}, nil
}
