package runtime

import (
	"math"

	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// applyBinaryOp evaluates op over left, right, already-computed operand
// values. Comparison and arithmetic follow spec §4.D; `and`/`or` evaluate
// both operands eagerly (the stack machine computes both sides before the
// BinaryOp instruction fires), so there is no short-circuit.
func applyBinaryOp(op ast.BinaryOperator, left, right value.Value) (value.Value, *RuntimeError) {
	switch op {
	case ast.OpAdd:
		if left.Kind == value.KindText || right.Kind == value.KindText {
			return value.Text(left.String() + right.String()), nil
		}
		if left.Kind != value.KindNumber || right.Kind != value.KindNumber {
			return value.Null, newError(ErrTypeMismatch, "", "operator + requires number or text operands")
		}
		return value.Number(left.Number + right.Number), nil
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if left.Kind != value.KindNumber || right.Kind != value.KindNumber {
			return value.Null, newError(ErrTypeMismatch, "", "operator %s requires number operands", op)
		}
		switch op {
		case ast.OpSub:
			return value.Number(left.Number - right.Number), nil
		case ast.OpMul:
			return value.Number(left.Number * right.Number), nil
		case ast.OpDiv:
			if right.Number == 0 {
				return value.Null, newError(ErrDivisionByZero, "", "division by zero")
			}
			return value.Number(left.Number / right.Number), nil
		case ast.OpMod:
			if right.Number == 0 {
				return value.Null, newError(ErrDivisionByZero, "", "modulo by zero")
			}
			return value.Number(math.Mod(left.Number, right.Number)), nil
		}
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return compareOrdered(op, left, right)
	case ast.OpEq:
		return value.Boolean(value.Equal(left, right)), nil
	case ast.OpNeq:
		return value.Boolean(!value.Equal(left, right)), nil
	case ast.OpAnd:
		if left.Kind != value.KindBoolean || right.Kind != value.KindBoolean {
			return value.Null, newError(ErrTypeMismatch, "", "operator and requires boolean operands")
		}
		return value.Boolean(left.Boolean && right.Boolean), nil
	case ast.OpOr:
		if left.Kind != value.KindBoolean || right.Kind != value.KindBoolean {
			return value.Null, newError(ErrTypeMismatch, "", "operator or requires boolean operands")
		}
		return value.Boolean(left.Boolean || right.Boolean), nil
	}
	return value.Null, newError(ErrTypeMismatch, "", "unknown operator %s", op)
}

func compareOrdered(op ast.BinaryOperator, left, right value.Value) (value.Value, *RuntimeError) {
	var cmp int
	switch {
	case left.Kind == value.KindNumber && right.Kind == value.KindNumber:
		switch {
		case left.Number < right.Number:
			cmp = -1
		case left.Number > right.Number:
			cmp = 1
		}
	case left.Kind == value.KindText && right.Kind == value.KindText:
		switch {
		case left.Text < right.Text:
			cmp = -1
		case left.Text > right.Text:
			cmp = 1
		}
	default:
		return value.Null, newError(ErrTypeMismatch, "", "operator %s requires two numbers or two text values", op)
	}
	switch op {
	case ast.OpLt:
		return value.Boolean(cmp < 0), nil
	case ast.OpLte:
		return value.Boolean(cmp <= 0), nil
	case ast.OpGt:
		return value.Boolean(cmp > 0), nil
	default:
		return value.Boolean(cmp >= 0), nil
	}
}

func applyUnaryOp(op ast.UnaryOperator, v value.Value) (value.Value, *RuntimeError) {
	switch op {
	case ast.OpNeg:
		if v.Kind != value.KindNumber {
			return value.Null, newError(ErrTypeMismatch, "", "unary - requires a number operand")
		}
		return value.Number(-v.Number), nil
	case ast.OpNot:
		if v.Kind != value.KindBoolean {
			return value.Null, newError(ErrTypeMismatch, "", "unary not requires a boolean operand")
		}
		return value.Boolean(!v.Boolean), nil
	}
	return value.Null, newError(ErrTypeMismatch, "", "unknown unary operator %s", op)
}

func applyIndex(obj, idx value.Value) (value.Value, *RuntimeError) {
	if idx.Kind != value.KindNumber || idx.Number != math.Trunc(idx.Number) {
		return value.Null, newError(ErrTypeMismatch, "", "index must be an integer")
	}
	i := int(idx.Number)
	switch obj.Kind {
	case value.KindArray:
		if i < 0 || i >= len(obj.Array) {
			return value.Null, newError(ErrIndexOutOfRange, "", "index %d out of range for array of length %d", i, len(obj.Array))
		}
		return obj.Array[i], nil
	case value.KindText:
		r := []rune(obj.Text)
		if i < 0 || i >= len(r) {
			return value.Null, newError(ErrIndexOutOfRange, "", "index %d out of range for text of length %d", i, len(r))
		}
		return value.Text(string(r[i])), nil
	default:
		return value.Null, newError(ErrNotIterable, "", "cannot index a value of kind %s", obj.Kind)
	}
}

// applySlice returns the inclusive-bound slice [low, high] of obj, clamped
// to the valid index range. An omitted bound that ends up past the other
// (after clamping) yields an empty result of the same kind; an explicit
// a>b with both bounds given is a structural error (spec §7/§8).
func applySlice(obj value.Value, low, high *value.Value) (value.Value, *RuntimeError) {
	var length int
	switch obj.Kind {
	case value.KindArray:
		length = len(obj.Array)
	case value.KindText:
		length = len([]rune(obj.Text))
	default:
		return value.Null, newError(ErrNotIterable, "", "cannot slice a value of kind %s", obj.Kind)
	}

	lo := 0
	if low != nil {
		if low.Kind != value.KindNumber {
			return value.Null, newError(ErrTypeMismatch, "", "slice bound must be a number")
		}
		lo = int(low.Number)
	}
	hi := length - 1
	if high != nil {
		if high.Kind != value.KindNumber {
			return value.Null, newError(ErrTypeMismatch, "", "slice bound must be a number")
		}
		hi = int(high.Number)
	}
	if low != nil && high != nil && lo > hi {
		return value.Null, newError(ErrSliceBounds, "", "slice bounds inverted: %d > %d", lo, hi)
	}
	if lo < 0 {
		lo = 0
	}
	if hi > length-1 {
		hi = length - 1
	}
	if lo > hi {
		if obj.Kind == value.KindText {
			return value.Text(""), nil
		}
		return value.Array(nil), nil
	}

	if obj.Kind == value.KindText {
		r := []rune(obj.Text)
		return value.Text(string(r[lo : hi+1])), nil
	}
	out := make([]value.Value, hi-lo+1)
	copy(out, obj.Array[lo:hi+1])
	return value.Array(out), nil
}

// applyFieldAccess reads a named field from a JSON object value.
func applyFieldAccess(obj value.Value, field string) (value.Value, *RuntimeError) {
	if obj.Kind != value.KindJSON {
		return value.Null, newError(ErrUnknownMember, "", "cannot access field %q on %s", field, obj.Kind)
	}
	m, ok := obj.JSON.(map[string]any)
	if !ok {
		return value.Null, newError(ErrUnknownMember, "", "cannot access field %q on a JSON array", field)
	}
	raw, ok := m[field]
	if !ok {
		return value.Null, nil
	}
	return plainToValue(raw), nil
}

// plainToValue converts a decoded JSON tree node back into a Value.
func plainToValue(raw any) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.Null
	case string:
		return value.Text(t)
	case float64:
		return value.Number(t)
	case bool:
		return value.Boolean(t)
	case map[string]any, []any:
		return value.JSON(t)
	default:
		return value.Null
	}
}

// callMember dispatches a method call (spec §4.D member-method table):
// len() on array/text, push/pop on array. It returns the call's result
// plus, for mutating methods, the new value the receiving variable should
// be reassigned to (returned as mutated, with didMutate == true).
func callMember(recv value.Value, method string, args []value.Value) (result value.Value, mutated value.Value, didMutate bool, rerr *RuntimeError) {
	switch method {
	case "len":
		switch recv.Kind {
		case value.KindArray:
			return value.Number(float64(len(recv.Array))), value.Null, false, nil
		case value.KindText:
			return value.Number(float64(len([]rune(recv.Text)))), value.Null, false, nil
		default:
			return value.Null, value.Null, false, newError(ErrUnknownMember, "", "len() is not defined on %s", recv.Kind)
		}
	case "push":
		if recv.Kind != value.KindArray {
			return value.Null, value.Null, false, newError(ErrUnknownMember, "", "push() is not defined on %s", recv.Kind)
		}
		if len(args) != 1 {
			return value.Null, value.Null, false, newError(ErrArgumentCount, "", "push() takes exactly 1 argument")
		}
		next := make([]value.Value, len(recv.Array)+1)
		copy(next, recv.Array)
		next[len(recv.Array)] = args[0]
		nv := value.Array(next)
		return nv, nv, true, nil
	case "pop":
		if recv.Kind != value.KindArray {
			return value.Null, value.Null, false, newError(ErrUnknownMember, "", "pop() is not defined on %s", recv.Kind)
		}
		if len(recv.Array) == 0 {
			return value.Null, value.Null, false, newError(ErrIndexOutOfRange, "", "pop() on an empty array")
		}
		last := recv.Array[len(recv.Array)-1]
		nv := value.Array(append([]value.Value(nil), recv.Array[:len(recv.Array)-1]...))
		return last, nv, true, nil
	default:
		return value.Null, value.Null, false, newError(ErrUnknownMember, "", "unknown method %q", method)
	}
}
