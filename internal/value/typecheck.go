package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ErrorKind enumerates the runtime type-error taxonomy from spec §4.A.
type ErrorKind int

const (
	ErrExpectedBoolean ErrorKind = iota
	ErrExpectedNumber
	ErrExpectedJSONObjectOrArray
	ErrInvalidJSONString
	ErrArrayElementMismatch
	ErrExpectedArray
	ErrNonFinite
	ErrExpectedText
	ErrUnknownType
)

// TypeError is returned by Typecheck on failure.
type TypeError struct {
	Kind    ErrorKind
	Message string
	Index   int // meaningful only for ErrArrayElementMismatch
}

func (e *TypeError) Error() string { return e.Message }

func newTypeError(kind ErrorKind, format string, args ...any) *TypeError {
	return &TypeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wireKindName renders a Kind using the annotation vocabulary spec §3/§8
// messages are worded in ("got string", not "got text"); Kind.String()
// itself stays "text" since context projection's variable type labels (§4.F)
// print the annotation's own spelling, not this error-message wording.
func wireKindName(k Kind) string {
	if k == KindText {
		return "string"
	}
	return k.String()
}

// TypeAnnotation is the optional static type attached to a variable,
// function parameter, or return value. The zero value (Base="") means "no
// annotation" — any value is accepted without a check.
type TypeAnnotation struct {
	Base  string // "text" | "json" | "prompt" | "boolean" | "number" | ""
	Depth int    // array-suffix depth: 0 = scalar, 1 = T[], 2 = T[][], ...
}

// None is the absence of a type annotation.
var None = TypeAnnotation{}

// HasAnnotation reports whether t is a real (non-empty) annotation.
func (t TypeAnnotation) HasAnnotation() bool { return t.Base != "" }

// IsArray reports whether t carries an array suffix.
func (t TypeAnnotation) IsArray() bool { return t.Depth > 0 }

// Elem returns the annotation for one array dimension down (T[][] → T[]).
func (t TypeAnnotation) Elem() TypeAnnotation {
	if t.Depth <= 0 {
		return t
	}
	return TypeAnnotation{Base: t.Base, Depth: t.Depth - 1}
}

// String renders the annotation in parser wire form, e.g. "text[][]".
func (t TypeAnnotation) String() string {
	if t.Base == "" {
		return ""
	}
	return t.Base + strings.Repeat("[]", t.Depth)
}

// ParseTypeAnnotation parses the wire-format string emitted by the parser
// (spec §6 "TypeAnnotation wire"). An empty string yields None. Unknown
// base types are rejected — spec §3 requires unknown types be rejected
// statically, but the interpreter itself also refuses to construct one.
func ParseTypeAnnotation(s string) (TypeAnnotation, error) {
	if s == "" {
		return None, nil
	}
	depth := 0
	base := s
	for strings.HasSuffix(base, "[]") {
		base = strings.TrimSuffix(base, "[]")
		depth++
	}
	switch base {
	case "text", "json", "prompt", "boolean", "number":
		return TypeAnnotation{Base: base, Depth: depth}, nil
	default:
		return TypeAnnotation{}, fmt.Errorf("unknown type annotation %q", s)
	}
}

// IsPrompt reports whether the annotation is the `prompt` semantic type,
// which context projection filters out of the rendered prompt (spec §4.F).
func (t TypeAnnotation) IsPrompt() bool { return t.Base == "prompt" && t.Depth == 0 }

// IsModelType reports whether the annotation denotes a `model` binding.
// `model` is not a TypeAnnotation base (models are untyped declarations),
// but context projection needs to recognize Value.Kind == KindModel
// regardless of annotation; see promptctx for the actual filter.
func (t TypeAnnotation) IsModelType() bool { return false }

// Typecheck validates v against annotation, per the eager rules of spec §4.A.
// A zero TypeAnnotation (no annotation) always succeeds. On success for a
// `json`-annotated Text value, the returned Value is the JSON-parsed
// replacement; callers must use the returned value, not the original.
func Typecheck(v Value, annotation TypeAnnotation) (Value, error) {
	if !annotation.HasAnnotation() {
		return v, nil
	}
	if annotation.IsArray() {
		return typecheckArray(v, annotation)
	}
	switch annotation.Base {
	case "boolean":
		if v.Kind != KindBoolean {
			return v, newTypeError(ErrExpectedBoolean, "expected boolean, got %s", wireKindName(v.Kind))
		}
		return v, nil
	case "number":
		if v.Kind != KindNumber {
			return v, newTypeError(ErrExpectedNumber, "expected number, got %s", wireKindName(v.Kind))
		}
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return v, newTypeError(ErrNonFinite, "expected finite number, got %v", v.Number)
		}
		return v, nil
	case "text", "prompt":
		if v.Kind != KindText {
			return v, newTypeError(ErrExpectedText, "expected text, got %s", wireKindName(v.Kind))
		}
		return v, nil
	case "json":
		return typecheckJSON(v)
	default:
		return v, newTypeError(ErrUnknownType, "unknown type annotation %q", annotation.Base)
	}
}

func typecheckJSON(v Value) (Value, error) {
	switch v.Kind {
	case KindJSON:
		switch v.JSON.(type) {
		case map[string]any, []any:
			return v, nil
		default:
			return v, newTypeError(ErrExpectedJSONObjectOrArray, "expected JSON object or array")
		}
	case KindText:
		var parsed any
		if err := json.Unmarshal([]byte(v.Text), &parsed); err != nil {
			return v, newTypeError(ErrInvalidJSONString, "invalid JSON string: %v", err)
		}
		switch parsed.(type) {
		case map[string]any, []any:
			return JSON(parsed), nil
		default:
			return v, newTypeError(ErrExpectedJSONObjectOrArray, "expected JSON object or array")
		}
	default:
		return v, newTypeError(ErrExpectedJSONObjectOrArray, "expected JSON object or array, got %s", wireKindName(v.Kind))
	}
}

func typecheckArray(v Value, annotation TypeAnnotation) (Value, error) {
	if v.Kind != KindArray {
		return v, newTypeError(ErrExpectedArray, "expected array, got %s", wireKindName(v.Kind))
	}
	elemAnnotation := annotation.Elem()
	checked := make([]Value, len(v.Array))
	for i, elem := range v.Array {
		ok, err := Typecheck(elem, elemAnnotation)
		if err != nil {
			te, _ := err.(*TypeError)
			msg := fmt.Sprintf("array element %d: %v", i, err)
			if te != nil {
				return v, &TypeError{Kind: ErrArrayElementMismatch, Message: msg, Index: i}
			}
			return v, newTypeError(ErrArrayElementMismatch, "%s", msg)
		}
		checked[i] = ok
	}
	return Array(checked), nil
}

// AssignmentCompatible reports whether a value of type `from` may be
// assigned into a variable declared as `to` without a runtime check being
// strictly required by the static layer. `prompt` and `text` are mutually
// assignable per spec §3; this is advisory for the (out-of-scope) static
// checker and not consulted by Typecheck, which always re-validates at
// runtime per spec §4.A.
func AssignmentCompatible(from, to TypeAnnotation) bool {
	if from == to {
		return true
	}
	if from.Depth != to.Depth {
		return false
	}
	textLike := map[string]bool{"text": true, "prompt": true}
	if textLike[from.Base] && textLike[to.Base] {
		return true
	}
	return false
}
