package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestParseOperator(t *testing.T) {
	op, ok := ParseOperator("eq")
	if !ok || op != OpEqual {
		t.Errorf("expected eq to parse, got %q, %v", op, ok)
	}

	if _, ok := ParseOperator("between"); ok {
		t.Error("expected unknown operator to fail")
	}
	if _, ok := ParseOperator(""); ok {
		t.Error("expected empty operator to fail")
	}
}

func TestOperatorLegal(t *testing.T) {
	str := Field{Name: "name", Type: arrow.BinaryTypes.String}
	num := Field{Name: "age", Type: arrow.PrimitiveTypes.Int64}
	boolean := Field{Name: "active", Type: arrow.FixedWidthTypes.Boolean}
	list := Field{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String)}

	tests := []struct {
		op    Operator
		field Field
		legal bool
	}{
		{OpEqual, str, true},
		{OpEqual, boolean, true},
		{OpGreaterThan, num, true},
		{OpGreaterThan, str, true}, // strings are ordered
		{OpGreaterThan, boolean, false},
		{OpLike, str, true},
		{OpLike, num, false},
		{OpILike, boolean, false},
		{OpIn, num, true},
		{OpContains, list, true},
		{OpContains, str, false},
		{OpIsNil, boolean, true},
		{OpEmpty, num, true},
	}

	for _, tt := range tests {
		if got := OperatorLegal(tt.op, tt.field); got != tt.legal {
			t.Errorf("OperatorLegal(%q, %s): expected %v, got %v", tt.op, tt.field.Name, tt.legal, got)
		}
	}
}

func TestOperatorsFor(t *testing.T) {
	boolean := Field{Name: "active", Type: arrow.FixedWidthTypes.Boolean}
	ops := OperatorsFor(boolean)

	for _, op := range ops {
		if op == OpGreaterThan || op == OpLike {
			t.Errorf("unexpected operator %q for boolean field", op)
		}
	}
	found := false
	for _, op := range ops {
		if op == OpEqual {
			found = true
		}
	}
	if !found {
		t.Error("expected eq to be legal on boolean field")
	}
}

func TestIsNullTest(t *testing.T) {
	for _, op := range []Operator{OpEmpty, OpNotEmpty, OpIsNil, OpIsNotNil} {
		if !IsNullTest(op) {
			t.Errorf("expected %q to be a null test", op)
		}
	}
	for _, op := range []Operator{OpEqual, OpIn, OpLike} {
		if IsNullTest(op) {
			t.Errorf("expected %q to not be a null test", op)
		}
	}
}

func TestAllOperators(t *testing.T) {
	all := AllOperators()
	if len(all) != len(categories) {
		t.Errorf("expected %d operators, got %d", len(categories), len(all))
	}
	seen := map[Operator]bool{}
	for _, op := range all {
		if seen[op] {
			t.Errorf("duplicate operator %q", op)
		}
		seen[op] = true
		if _, ok := OperatorCategory(op); !ok {
			t.Errorf("operator %q has no category", op)
		}
	}
}
