package value

import "testing"

func TestDeepCopyArrayIsIndependent(t *testing.T) {
	original := Array([]Value{Text("a"), Number(1)})
	cp := original.DeepCopy()

	original.Array[0] = Text("mutated")
	if cp.Array[0].Text != "a" {
		t.Fatalf("expected snapshot to be immune to later mutation, got %q", cp.Array[0].Text)
	}
}

func TestDeepCopyJSONIsIndependent(t *testing.T) {
	m := map[string]any{"nested": map[string]any{"n": 1.0}}
	original := JSON(m)
	cp := original.DeepCopy()

	m["nested"].(map[string]any)["n"] = 2.0
	inner := cp.JSON.(map[string]any)["nested"].(map[string]any)
	if inner["n"] != 1.0 {
		t.Fatalf("expected deep copy to be immune to later mutation, got %v", inner["n"])
	}
}

func TestDeepCopyScalarsReturnSameValue(t *testing.T) {
	v := Number(42)
	if cp := v.DeepCopy(); cp.Number != 42 {
		t.Fatalf("expected scalar deep copy to preserve value, got %v", cp.Number)
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal text", Text("a"), Text("a"), true},
		{"different text", Text("a"), Text("b"), false},
		{"different kind", Text("1"), Number(1), false},
		{"equal numbers", Number(1.5), Number(1.5), true},
		{"equal booleans", Boolean(true), Boolean(true), true},
		{"equal arrays", Array([]Value{Number(1), Text("x")}), Array([]Value{Number(1), Text("x")}), true},
		{"different length arrays", Array([]Value{Number(1)}), Array([]Value{Number(1), Number(2)}), false},
		{"equal json", JSON(map[string]any{"a": 1.0}), JSON(map[string]any{"a": 1.0}), true},
		{"tool by name", Tool(ToolBinding{Name: "t"}), Tool(ToolBinding{Name: "t", Description: "ignored"}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Equal(c.a, c.b); got != c.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestStringRendering(t *testing.T) {
	if got := Number(3).String(); got != "3" {
		t.Fatalf("expected integral number to render without decimal, got %q", got)
	}
	if got := Number(3.5).String(); got != "3.5" {
		t.Fatalf("expected fractional number to render as-is, got %q", got)
	}
	if got := Null.String(); got != "" {
		t.Fatalf("expected null to render as empty string, got %q", got)
	}
	if got := Boolean(true).String(); got != "true" {
		t.Fatalf("expected boolean to render as true/false, got %q", got)
	}
	arr := Array([]Value{Number(1), Text("x")})
	if got := arr.String(); got != `[1,"x"]` {
		t.Fatalf("expected array to render as JSON, got %q", got)
	}
}

func TestIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Fatalf("expected Null.IsNull() to be true")
	}
	if Text("").IsNull() {
		t.Fatalf("expected an empty text value to not be null")
	}
}
