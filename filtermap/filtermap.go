// Package filtermap handles ad-hoc filter maps: the user-supplied
// {field: {operator: value}} / {"and"/"or": [...]} shape.
//
// It normalizes filter maps into a canonical combinator-rooted form, deep
// merges multiple sources into one map, and parses the result into an
// executable expression tree against a resource.
package filtermap

import (
	"fmt"
	"reflect"
	"sort"

	"dario.cat/mergo"

	"github.com/hugr-lab/queryspec-go/expr"
	"github.com/hugr-lab/queryspec-go/schema"
)

// Combinator keys recognized at any level of a filter map.
const (
	KeyAnd = "and"
	KeyOr  = "or"
	KeyNot = "not"
)

// IsCombinator reports whether key is a boolean combinator key.
func IsCombinator(key string) bool {
	return key == KeyAnd || key == KeyOr
}

// Normalize converts a filter map into canonical combinator-rooted form:
// a bare field map becomes {"and": [m]}; an already combinator-rooted map
// passes through unchanged. Nil input normalizes to an empty map.
func Normalize(m map[string]any) map[string]any {
	if len(m) == 0 {
		return map[string]any{}
	}
	for key := range m {
		if IsCombinator(key) {
			return m
		}
	}
	return map[string]any{KeyAnd: []any{m}}
}

// Merge deep-merges source into target and returns the merged map. Both
// operands are normalized first. Matching combinator keys concatenate their
// lists (target entries first); non-combinator list leaves concatenate too;
// conflicting scalar leaves take the source value. Combinator keys left with
// empty lists are dropped, and deeply-equal sibling list entries are
// de-duplicated in first-seen order.
func Merge(target, source map[string]any) (map[string]any, error) {
	t := Normalize(target)
	s := Normalize(source)

	merged := map[string]any{}
	if err := mergo.Merge(&merged, t, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("filtermap: merging target: %w", err)
	}
	if err := mergo.Merge(&merged, s, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("filtermap: merging source: %w", err)
	}

	return prune(merged), nil
}

// prune drops combinator keys with empty lists and de-duplicates deeply
// equal entries within each list.
func prune(m map[string]any) map[string]any {
	for key, v := range m {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		list = dedup(list)
		if IsCombinator(key) && len(list) == 0 {
			delete(m, key)
			continue
		}
		m[key] = list
	}
	return m
}

// dedup removes entries deeply equal to an earlier entry, preserving order.
// Structurally equal maps are treated as the same predicate.
func dedup(list []any) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		duplicate := false
		for _, seen := range out {
			if reflect.DeepEqual(item, seen) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, item)
		}
	}
	return out
}

// Parse parses a filter map against the resource into an expression tree.
// An empty map parses to True. Returns the first resolution error
// encountered; the caller decides whether to strip and retry.
func Parse(r schema.Resource, m map[string]any) (expr.Expression, error) {
	return parseMap(r, nil, m)
}

// parseMap parses one map level. path carries the relationship segments
// walked so far.
func parseMap(r schema.Resource, path []string, m map[string]any) (expr.Expression, error) {
	if len(m) == 0 {
		return &expr.True{}, nil
	}

	var children []expr.Expression
	for _, key := range sortedKeys(m) {
		v := m[key]
		switch key {
		case KeyAnd, KeyOr:
			sub, err := parseList(r, path, v)
			if err != nil {
				return nil, err
			}
			if key == KeyAnd {
				children = append(children, expr.NewAnd(sub...))
			} else {
				children = append(children, expr.NewOr(sub...))
			}
		case KeyNot:
			inner, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("filtermap: %q expects a map, got %T", KeyNot, v)
			}
			sub, err := parseMap(r, path, inner)
			if err != nil {
				return nil, err
			}
			children = append(children, &expr.Not{Child: sub})
		default:
			sub, err := parseField(r, path, key, v)
			if err != nil {
				return nil, err
			}
			children = append(children, sub)
		}
	}
	return expr.NewAnd(children...), nil
}

// parseList parses the []any value of a combinator key.
func parseList(r schema.Resource, path []string, v any) ([]expr.Expression, error) {
	items, err := anyList(v)
	if err != nil {
		return nil, err
	}
	out := make([]expr.Expression, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filtermap: combinator entries must be maps, got %T", item)
		}
		sub, err := parseMap(r, path, m)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// parseField parses a non-combinator key: a filterable field, or a
// relationship segment leading to a nested field map.
func parseField(r schema.Resource, path []string, key string, v any) (expr.Expression, error) {
	target, ok := schema.RelationshipTarget(r, path)
	if !ok {
		return nil, &schema.InvalidPathError{Resource: r.Name(), Path: path}
	}

	if field, ok := target.Field(key); ok && field.Filterable {
		return parsePredicates(target, path, field, v)
	}

	// Not a field; try a relationship segment.
	if _, ok := target.Relationship(key); ok {
		inner, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filtermap: relationship %q expects a map, got %T", key, v)
		}
		return parseMap(r, append(append([]string{}, path...), key), inner)
	}

	return nil, &schema.NoSuchFieldError{Resource: target.Name(), Field: key}
}

// KeyArgs is the reserved key carrying calculated-field arguments inside an
// {operator: value} map.
const KeyArgs = "args"

// parsePredicates parses the value side of a field key: either a bare scalar
// (implicit equality) or an {operator: value} map, optionally carrying an
// "args" entry for parameterized calculated fields.
func parsePredicates(target schema.Resource, path []string, field schema.Field, v any) (expr.Expression, error) {
	opMap, ok := v.(map[string]any)
	if !ok {
		// Bare value means equality.
		return comparison(path, field, schema.OpEqual, v, nil), nil
	}

	var args map[string]any
	if rawArgs, ok := opMap[KeyArgs]; ok {
		args, _ = rawArgs.(map[string]any)
	}

	var children []expr.Expression
	for _, opName := range sortedKeys(opMap) {
		if opName == KeyArgs {
			continue
		}
		op, known := schema.ParseOperator(opName)
		if !known || !schema.OperatorLegal(op, field) {
			return nil, &schema.NoSuchOperatorError{Resource: target.Name(), Field: field.Name, Operator: opName}
		}
		children = append(children, comparison(path, field, op, opMap[opName], args))
	}
	return expr.NewAnd(children...), nil
}

// comparison builds a single comparison node, resolving calculated fields
// into call subjects.
func comparison(path []string, field schema.Field, op schema.Operator, value any, args map[string]any) expr.Expression {
	var left expr.Expression = &expr.Ref{Path: path, Name: field.Name}
	if field.Calc != nil {
		call := &expr.Call{Function: field.Calc.Function}
		for _, name := range field.Calc.Args {
			call.Args = append(call.Args, &expr.Constant{Value: args[name]})
		}
		left = call
	}
	return &expr.Comparison{Op: op, Left: left, Right: &expr.Constant{Value: value}}
}

// StripField removes every predicate referencing the named field anywhere in
// the map, pruning combinator lists left empty. Used by validation to
// recover from a single bad field without discarding the whole filter.
func StripField(m map[string]any, field string) map[string]any {
	out := map[string]any{}
	for key, v := range m {
		if key == field {
			continue
		}
		switch {
		case IsCombinator(key):
			items, err := anyList(v)
			if err != nil {
				out[key] = v
				continue
			}
			var kept []any
			for _, item := range items {
				if sub, ok := item.(map[string]any); ok {
					stripped := StripField(sub, field)
					if len(stripped) > 0 {
						kept = append(kept, stripped)
					}
					continue
				}
				kept = append(kept, item)
			}
			if len(kept) > 0 {
				out[key] = kept
			}
		default:
			// "not" and relationship keys both nest field maps; strip
			// inside them too, dropping the key when nothing survives.
			if sub, ok := v.(map[string]any); ok {
				stripped := StripField(sub, field)
				if len(stripped) > 0 {
					out[key] = stripped
				}
				continue
			}
			out[key] = v
		}
	}
	return out
}

// FirstField returns the field name referenced by the error, if the error
// carries one. Used to decide which field to strip on retry.
func FirstField(err error) (string, bool) {
	switch e := err.(type) {
	case *schema.NoSuchFieldError:
		return e.Field, true
	case *schema.NoSuchOperatorError:
		return e.Field, true
	}
	return "", false
}

func anyList(v any) ([]any, error) {
	switch list := v.(type) {
	case []any:
		return list, nil
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("filtermap: expected a list, got %T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
