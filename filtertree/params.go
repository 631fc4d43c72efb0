package filtertree

import (
	"strconv"
	"strings"

	"github.com/hugr-lab/queryspec-go/schema"
)

// ParamsOptions configures ParamsForQuery.
type ParamsOptions struct {
	// KeepBlanks preserves predicates with blank values and the groups
	// containing them, so a form the user is still typing into round-trips
	// without losing structure. Without it, blank predicates are dropped and
	// groups left empty collapse away.
	KeepBlanks bool

	// KeepKeys includes the application-defined group keys in the output.
	KeepKeys bool
}

// ParamsForQuery serializes the tree into the minimal parameter map
// suitable for a URL or query string. A predicate with a blank value is
// dropped unless its operator is a null test or KeepBlanks is set; a group
// left with no surviving children collapses to nothing and is pruned from
// its parent. An empty result is the empty map.
func (t *Tree) ParamsForQuery(opts ParamsOptions) map[string]any {
	m := groupParams(t.Root, opts)
	if m == nil {
		return map[string]any{}
	}
	return m
}

func groupParams(g *Group, opts ParamsOptions) map[string]any {
	if g.implicit && len(g.Components) == 1 {
		if p, ok := g.Components[0].(*Predicate); ok {
			return predicateParams(p, opts)
		}
	}

	components := map[string]any{}
	i := 0
	for _, c := range g.Components {
		var m map[string]any
		switch n := c.(type) {
		case *Group:
			m = groupParams(n, opts)
		case *Predicate:
			m = predicateParams(n, opts)
		}
		if m == nil {
			continue
		}
		components[strconv.Itoa(i)] = m
		i++
	}

	if len(components) == 0 && !opts.KeepBlanks {
		return nil
	}

	out := map[string]any{
		keyID:       g.ID,
		keyOperator: string(g.Operator),
	}
	if len(components) > 0 {
		out[keyComponents] = components
	}
	if g.Negated {
		out[keyNegated] = true
	}
	if opts.KeepKeys && g.Key != "" {
		out[keyKey] = g.Key
	}
	return out
}

func predicateParams(p *Predicate, opts ParamsOptions) map[string]any {
	op, known := schema.ParseOperator(p.Operator)
	nullTest := known && schema.IsNullTest(op)
	if !opts.KeepBlanks && !nullTest && isBlank(p.Value) {
		return nil
	}

	out := map[string]any{
		keyID:       p.ID,
		keyField:    p.Field,
		keyOperator: p.Operator,
		keyValue:    p.Value,
	}
	if len(p.Path) > 0 {
		out[keyPath] = strings.Join(p.Path, ".")
	}
	if len(p.Arguments) > 0 {
		out[keyArguments] = p.Arguments
	}
	if p.Negated {
		out[keyNegated] = true
	}
	return out
}

// isBlank reports whether a predicate value carries no information: nil,
// an empty or whitespace-only string, or an empty list/map.
func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
