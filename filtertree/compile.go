package filtertree

import (
	"fmt"

	"github.com/hugr-lab/queryspec-go/expr"
	"github.com/hugr-lab/queryspec-go/filtermap"
	"github.com/hugr-lab/queryspec-go/schema"
)

// TreeError reports that a tree with invalid components was compiled. The
// annotated tree is attached so callers can display per-component errors.
type TreeError struct {
	Tree *Tree
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("filtertree: tree has %d invalid components", len(e.Tree.Errors()))
}

// ToFilterMap compiles the tree into the canonical filter-map shape:
// a group becomes {operator: [child, ...]}, wrapped in {"not": ...} when
// negated; a predicate becomes a path-nested {field: {operator: value}}
// map. An empty group compiles to absence (it matches everything), so an
// empty tree yields an empty map.
//
// Fails with a *TreeError unless every component is valid.
func (t *Tree) ToFilterMap() (map[string]any, error) {
	if !t.Valid() {
		return nil, &TreeError{Tree: t}
	}
	m := groupToMap(t.Root)
	if m == nil {
		return map[string]any{}, nil
	}
	return m, nil
}

func groupToMap(g *Group) map[string]any {
	var children []any
	for _, c := range g.Components {
		switch n := c.(type) {
		case *Group:
			if m := groupToMap(n); m != nil {
				children = append(children, m)
			}
		case *Predicate:
			children = append(children, predicateToMap(n))
		}
	}
	if len(children) == 0 {
		// Empty groups match everything and serialize to absence.
		return nil
	}
	m := map[string]any{string(g.Operator): children}
	if g.Negated {
		return map[string]any{filtermap.KeyNot: m}
	}
	return m
}

func predicateToMap(p *Predicate) map[string]any {
	opMap := map[string]any{p.Operator: p.Value}
	if len(p.Arguments) > 0 {
		opMap[filtermap.KeyArgs] = p.Arguments
	}
	m := map[string]any{p.Field: opMap}
	for i := len(p.Path) - 1; i >= 0; i-- {
		m = map[string]any{p.Path[i]: m}
	}
	if p.Negated {
		return map[string]any{filtermap.KeyNot: m}
	}
	return m
}

// ToExpression compiles the tree into an executable boolean expression for
// the query executor. An empty group compiles to True. Calculated fields
// with supplied arguments compile to call nodes.
//
// Fails with a *TreeError unless every component is valid.
func (t *Tree) ToExpression() (expr.Expression, error) {
	if !t.Valid() {
		return nil, &TreeError{Tree: t}
	}
	return groupToExpression(t.resource, t.Root), nil
}

func groupToExpression(r schema.Resource, g *Group) expr.Expression {
	children := make([]expr.Expression, 0, len(g.Components))
	for _, c := range g.Components {
		switch n := c.(type) {
		case *Group:
			children = append(children, groupToExpression(r, n))
		case *Predicate:
			children = append(children, predicateToExpression(r, n))
		}
	}

	var e expr.Expression
	if g.Operator == CombinatorOr {
		e = expr.NewOr(children...)
	} else {
		e = expr.NewAnd(children...)
	}
	if g.Negated {
		return &expr.Not{Child: e}
	}
	return e
}

// predicateToExpression compiles one valid predicate. The predicate has
// passed validation, so lookups here cannot fail.
func predicateToExpression(r schema.Resource, p *Predicate) expr.Expression {
	target, _ := schema.RelationshipTarget(r, p.Path)
	field, _ := target.Field(p.Field)
	op, _ := schema.ParseOperator(p.Operator)

	var left expr.Expression = &expr.Ref{Path: p.Path, Name: p.Field}
	if field.Calc != nil && len(p.Arguments) > 0 {
		call := &expr.Call{Function: field.Calc.Function}
		for _, name := range field.Calc.Args {
			call.Args = append(call.Args, &expr.Constant{Value: p.Arguments[name]})
		}
		left = call
	}

	var e expr.Expression = &expr.Comparison{
		Op:    op,
		Left:  left,
		Right: &expr.Constant{Value: p.Value},
	}
	if p.Negated {
		return &expr.Not{Child: e}
	}
	return e
}
