// Package value implements the interpreter's tagged value union and the
// runtime type checks layered on top of it.
package value

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind discriminates the variant held by a Value. Dispatch on Kind, never
// on Go's dynamic type, keeps the value union a closed set matching the
// finite, statically-known set of runtime shapes the interpreter supports.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindJSON
	KindArray
	KindModel
	KindTool
	KindVibeFunction
	KindTsFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	case KindModel:
		return "model"
	case KindTool:
		return "tool"
	case KindVibeFunction:
		return "vibe_function"
	case KindTsFunction:
		return "ts_function"
	default:
		return "unknown"
	}
}

// ModelConfig is the configuration bound to a `model` declaration.
type ModelConfig struct {
	Name   string
	APIKey string
	URL    string
}

// ToolBinding is the declarative shape of a `tool` declaration: a name,
// description, and JSON-schema-like parameter list bound to an executor
// that the driver resolves at call time (see internal/toolloop).
type ToolBinding struct {
	Name        string
	Description string
	Parameters  []ToolParam
}

// ToolParam describes one typed, optionally-required tool parameter.
type ToolParam struct {
	Name        string
	Type        string // "string" | "number" | "boolean" | "object" | "array"
	Description string
	Required    bool
}

// FunctionID identifies a `vibe`-declared host function by name.
type FunctionID string

// ImportID identifies a TypeScript/host import binding.
type ImportID string

// Value is the tagged union described in spec §3. Only one of the typed
// fields is meaningful for a given Kind; callers must switch on Kind.
type Value struct {
	Kind Kind

	Text    string
	Number  float64
	Boolean bool
	JSON    any // decoded JSON tree: map[string]any, []any, or a JSON primitive
	Array   []Value
	Model   ModelConfig
	Tool    ToolBinding
	Vibe    FunctionID
	Ts      ImportID
}

// Null is the canonical null value.
var Null = Value{Kind: KindNull}

func Text(s string) Value       { return Value{Kind: KindText, Text: s} }
func Number(n float64) Value    { return Value{Kind: KindNumber, Number: n} }
func Boolean(b bool) Value      { return Value{Kind: KindBoolean, Boolean: b} }
func JSON(v any) Value          { return Value{Kind: KindJSON, JSON: v} }
func Array(items []Value) Value { return Value{Kind: KindArray, Array: items} }
func Model(m ModelConfig) Value { return Value{Kind: KindModel, Model: m} }
func Tool(t ToolBinding) Value  { return Value{Kind: KindTool, Tool: t} }
func VibeFn(id FunctionID) Value { return Value{Kind: KindVibeFunction, Vibe: id} }
func TsFn(id ImportID) Value     { return Value{Kind: KindTsFunction, Ts: id} }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// DeepCopy returns a value with no shared mutable state with v. Required at
// every FrameEntry snapshot point (spec invariant 3): json/array values are
// trees and must not be retro-edited by later mutation of the live variable.
func (v Value) DeepCopy() Value {
	switch v.Kind {
	case KindArray:
		cp := make([]Value, len(v.Array))
		for i, e := range v.Array {
			cp[i] = e.DeepCopy()
		}
		return Value{Kind: KindArray, Array: cp}
	case KindJSON:
		return Value{Kind: KindJSON, JSON: deepCopyJSON(v.JSON)}
	default:
		return v
	}
}

func deepCopyJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, val := range t {
			cp[k] = deepCopyJSON(val)
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, val := range t {
			cp[i] = deepCopyJSON(val)
		}
		return cp
	default:
		return t
	}
}

// Equal implements structural equality for `==`/`!=` over all primitive
// value variants, per spec §4.H.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindText:
		return a.Text == b.Text
	case KindNumber:
		return a.Number == b.Number
	case KindBoolean:
		return a.Boolean == b.Boolean
	case KindJSON:
		aj, _ := json.Marshal(a.JSON)
		bj, _ := json.Marshal(b.JSON)
		return string(aj) == string(bj)
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindModel:
		return a.Model == b.Model
	case KindTool:
		return a.Tool.Name == b.Tool.Name
	case KindVibeFunction:
		return a.Vibe == b.Vibe
	case KindTsFunction:
		return a.Ts == b.Ts
	default:
		return false
	}
}

// String renders v for interpolation into a plain/template string. Objects
// and arrays use their JSON-stringified semantic form; everything else uses
// its natural text form.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindText:
		return v.Text
	case KindNumber:
		if v.Number == math.Trunc(v.Number) && !math.IsInf(v.Number, 0) {
			return fmt.Sprintf("%d", int64(v.Number))
		}
		return fmt.Sprintf("%g", v.Number)
	case KindBoolean:
		if v.Boolean {
			return "true"
		}
		return "false"
	case KindJSON:
		b, err := json.Marshal(v.JSON)
		if err != nil {
			return ""
		}
		return string(b)
	case KindArray:
		items := make([]any, len(v.Array))
		for i, e := range v.Array {
			items[i] = jsonable(e)
		}
		b, err := json.Marshal(items)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// ToPlain converts v into a plain Go value (map[string]any/[]any/string/
// float64/bool/nil) suitable for json.Marshal or for building a JSON-kind
// Value's JSON field — used when assembling object/array literals.
func ToPlain(v Value) any { return jsonable(v) }

// jsonable converts a Value into a plain Go value suitable for json.Marshal,
// used when stringifying arrays that may contain JSON/array elements.
func jsonable(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBoolean:
		return v.Boolean
	case KindJSON:
		return v.JSON
	case KindArray:
		items := make([]any, len(v.Array))
		for i, e := range v.Array {
			items[i] = jsonable(e)
		}
		return items
	default:
		return v.String()
	}
}
