// Package expr defines the executable boolean expression tree produced by
// query compilation, and an encoder that renders it to SQL.
//
// Expressions form a closed set: the Expression interface carries an
// unexported marker method, so only the types in this package can implement
// it. Use type switches to walk a tree.
package expr

import (
	"github.com/hugr-lab/queryspec-go/schema"
)

// ConjunctionOp is the boolean join operator of a conjunction.
type ConjunctionOp string

const (
	ConjunctionAnd ConjunctionOp = "and"
	ConjunctionOr  ConjunctionOp = "or"
)

// Expression is the interface implemented by all expression types.
type Expression interface {
	// expressionMarker is a marker method to prevent external implementation.
	expressionMarker()
}

// True matches everything. An empty group compiles to True.
type True struct{}

func (*True) expressionMarker() {}

// Conjunction is AND/OR over one or more children.
type Conjunction struct {
	Op       ConjunctionOp
	Children []Expression
}

func (*Conjunction) expressionMarker() {}

// Not negates its child.
type Not struct {
	Child Expression
}

func (*Not) expressionMarker() {}

// Comparison applies a filter operator to a subject and a value.
type Comparison struct {
	Op    schema.Operator
	Left  Expression
	Right Expression
}

func (*Comparison) expressionMarker() {}

// Ref references a field, optionally through a relationship path.
type Ref struct {
	// Path holds the relationship segments leading to the field's resource.
	// Empty for local fields.
	Path []string

	// Name is the field name on the target resource.
	Name string
}

func (*Ref) expressionMarker() {}

// Constant is a literal value.
type Constant struct {
	Value any
}

func (*Constant) expressionMarker() {}

// Call invokes a named function, used for parameterized calculated fields.
type Call struct {
	Function string
	Args     []Expression
}

func (*Call) expressionMarker() {}

// Match is a full-text search predicate: the compiled tsquery applied to the
// resource's searchable fields.
type Match struct {
	Fields []string
	Query  string
}

func (*Match) expressionMarker() {}

// NewAnd joins expressions under AND. Zero expressions yield True; a single
// expression is returned unchanged.
func NewAnd(children ...Expression) Expression {
	return newConjunction(ConjunctionAnd, children)
}

// NewOr joins expressions under OR, with the same simplifications as NewAnd.
func NewOr(children ...Expression) Expression {
	return newConjunction(ConjunctionOr, children)
}

func newConjunction(op ConjunctionOp, children []Expression) Expression {
	filtered := make([]Expression, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if _, isTrue := c.(*True); isTrue && op == ConjunctionAnd {
			continue
		}
		filtered = append(filtered, c)
	}
	switch len(filtered) {
	case 0:
		return &True{}
	case 1:
		return filtered[0]
	}
	return &Conjunction{Op: op, Children: filtered}
}
