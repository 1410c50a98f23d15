package value

import (
	"math"
	"testing"
)

func TestParseTypeAnnotation(t *testing.T) {
	cases := []struct {
		in      string
		want    TypeAnnotation
		wantErr bool
	}{
		{"", None, false},
		{"text", TypeAnnotation{Base: "text"}, false},
		{"number[]", TypeAnnotation{Base: "number", Depth: 1}, false},
		{"json[][]", TypeAnnotation{Base: "json", Depth: 2}, false},
		{"bogus", TypeAnnotation{}, true},
	}
	for _, c := range cases {
		got, err := ParseTypeAnnotation(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTypeAnnotation(%q): expected error, got none", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTypeAnnotation(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseTypeAnnotation(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestTypecheckScalars(t *testing.T) {
	if _, err := Typecheck(Boolean(true), TypeAnnotation{Base: "boolean"}); err != nil {
		t.Errorf("boolean typecheck failed: %v", err)
	}
	if _, err := Typecheck(Text("x"), TypeAnnotation{Base: "boolean"}); err == nil {
		t.Errorf("expected mismatch error for text against boolean annotation")
	}
	if _, err := Typecheck(Number(math.NaN()), TypeAnnotation{Base: "number"}); err == nil {
		t.Errorf("expected NaN to fail the finite-number check")
	}
}

func TestTypecheckJSONFromTextString(t *testing.T) {
	v, err := Typecheck(Text(`{"a":1}`), TypeAnnotation{Base: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindJSON {
		t.Fatalf("expected parsed value to become KindJSON, got %s", v.Kind)
	}
	if _, err := Typecheck(Text("not json"), TypeAnnotation{Base: "json"}); err == nil {
		t.Fatalf("expected invalid JSON string to fail")
	}
	if _, err := Typecheck(Text(`"bare string"`), TypeAnnotation{Base: "json"}); err == nil {
		t.Fatalf("expected a bare JSON scalar to be rejected (object/array only)")
	}
}

func TestTypecheckArray(t *testing.T) {
	arr := Array([]Value{Number(1), Number(2)})
	if _, err := Typecheck(arr, TypeAnnotation{Base: "number", Depth: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := Array([]Value{Number(1), Text("x")})
	_, err := Typecheck(bad, TypeAnnotation{Base: "number", Depth: 1})
	if err == nil {
		t.Fatalf("expected element type mismatch to fail")
	}
	te, ok := err.(*TypeError)
	if !ok || te.Kind != ErrArrayElementMismatch || te.Index != 1 {
		t.Fatalf("expected ErrArrayElementMismatch at index 1, got %+v", err)
	}
}

func TestAssignmentCompatible(t *testing.T) {
	text := TypeAnnotation{Base: "text"}
	prompt := TypeAnnotation{Base: "prompt"}
	number := TypeAnnotation{Base: "number"}

	if !AssignmentCompatible(text, prompt) {
		t.Fatalf("expected text/prompt to be mutually assignable")
	}
	if AssignmentCompatible(text, number) {
		t.Fatalf("expected text/number to be incompatible")
	}
	if AssignmentCompatible(TypeAnnotation{Base: "text", Depth: 1}, TypeAnnotation{Base: "text"}) {
		t.Fatalf("expected mismatched array depth to be incompatible")
	}
}
