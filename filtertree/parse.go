package filtertree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"github.com/hugr-lab/queryspec-go/schema"
)

// Raw parameter keys of the filter-tree wire shape.
const (
	keyID         = "id"
	keyKey        = "key"
	keyOperator   = "operator"
	keyNegated    = "negated"
	keyComponents = "components"
	keyField      = "field"
	keyPath       = "path"
	keyValue      = "value"
	keyArguments  = "arguments"
)

// New builds a tree for the resource from raw nested parameters.
//
// Raw input is sanitized first: list-valued component collections are
// coerced to a stable index-keyed map, missing component ids are generated,
// and each component's shape (group vs predicate) is inferred from the
// presence of "field"/"value" keys. If opts.InitialTree is set, its stored
// parameters are merged under the incoming parameters, newer values winning
// per leaf.
//
// Construction never fails: components that do not resolve against the
// resource become invalid predicates carrying typed errors.
func New(r schema.Resource, raw map[string]any, opts Options) *Tree {
	m := sanitize(raw)

	if opts.InitialTree != nil {
		base := opts.InitialTree.ParamsForQuery(ParamsOptions{KeepBlanks: true, KeepKeys: true})
		merged := map[string]any{}
		// Merge errors can only come from type mismatches between layers;
		// the incoming shape wins in that case.
		if err := mergo.Merge(&merged, base, mergo.WithOverride); err == nil {
			if err := mergo.Merge(&merged, m, mergo.WithOverride); err == nil {
				m = merged
			}
		}
	}

	t := &Tree{resource: r, opts: opts, Root: parseRoot(m)}
	t.revalidate()
	return t
}

// parseRoot routes the top-level map through the same shape inference as
// nested components. A predicate-shaped root is wrapped in an implicit AND
// group so edits and compilation see a uniform tree; serialization unwraps
// it again.
func parseRoot(m map[string]any) *Group {
	n := parseNode(m)
	if p, ok := n.(*Predicate); ok {
		return &Group{
			ID:         uuid.NewString(),
			Operator:   CombinatorAnd,
			implicit:   true,
			Components: []Node{p},
		}
	}
	return n.(*Group)
}

// Validate re-applies incoming raw parameters onto the tree, matching
// components by id. A predicate whose field changed resets its operator and
// value, unless Options.KeepValueOnFieldChange is set. Returns the resulting
// tree; the receiver is unchanged.
func (t *Tree) Validate(incoming map[string]any) *Tree {
	next := New(t.resource, incoming, Options{
		RemoveEmptyGroups:      t.opts.RemoveEmptyGroups,
		KeepValueOnFieldChange: t.opts.KeepValueOnFieldChange,
	})

	if !t.opts.KeepValueOnFieldChange {
		walk(next.Root, func(n Node) {
			p, ok := n.(*Predicate)
			if !ok {
				return
			}
			prev, ok := t.Find(p.ID).(*Predicate)
			if !ok {
				return
			}
			if prev.Field != p.Field {
				p.Operator = ""
				p.Value = nil
			}
		})
		next.revalidate()
	}
	return next
}

// sanitize normalizes a raw group map: component collections become
// index-keyed maps with recursively sanitized entries.
func sanitize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != keyComponents {
			out[k] = v
			continue
		}
		out[k] = sanitizeComponents(v)
	}
	return out
}

func sanitizeComponents(v any) map[string]any {
	indexed := map[string]any{}
	switch components := v.(type) {
	case []any:
		for i, c := range components {
			indexed[strconv.Itoa(i)] = c
		}
	case []map[string]any:
		for i, c := range components {
			indexed[strconv.Itoa(i)] = c
		}
	case map[string]any:
		indexed = components
	}

	out := make(map[string]any, len(indexed))
	for idx, c := range indexed {
		if m, ok := c.(map[string]any); ok {
			out[idx] = sanitize(m)
		} else {
			out[idx] = c
		}
	}
	return out
}

// parseGroup parses a sanitized group map into a Group node.
func parseGroup(m map[string]any) *Group {
	g := &Group{
		ID:       stringValue(m[keyID]),
		Key:      stringValue(m[keyKey]),
		Operator: CombinatorAnd,
		Negated:  boolValue(m[keyNegated]),
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if stringValue(m[keyOperator]) == string(CombinatorOr) {
		g.Operator = CombinatorOr
	}

	components, _ := m[keyComponents].(map[string]any)
	for _, idx := range sortedIndexes(components) {
		cm, ok := components[idx].(map[string]any)
		if !ok {
			continue
		}
		g.Components = append(g.Components, parseNode(cm))
	}
	return g
}

// parseNode infers the component shape: a map carrying "field" or "value"
// is a predicate, anything else is a nested group.
func parseNode(m map[string]any) Node {
	if _, ok := m[keyField]; ok {
		return parsePredicate(m)
	}
	if _, ok := m[keyValue]; ok {
		return parsePredicate(m)
	}
	return parseGroup(m)
}

func parsePredicate(m map[string]any) *Predicate {
	p := &Predicate{
		ID:       stringValue(m[keyID]),
		Field:    stringValue(m[keyField]),
		Operator: stringValue(m[keyOperator]),
		Value:    m[keyValue],
		Path:     pathValue(m[keyPath]),
		Negated:  boolValue(m[keyNegated]),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if args, ok := m[keyArguments].(map[string]any); ok {
		p.Arguments = args
	}
	return p
}

// revalidate recomputes the error annotations of every predicate.
func (t *Tree) revalidate() {
	walk(t.Root, func(n Node) {
		if p, ok := n.(*Predicate); ok {
			p.Errors = validatePredicate(t.resource, p)
		}
	})
}

// validatePredicate resolves the predicate against the resource and returns
// all applicable errors: an unresolvable relationship path, an unknown or
// non-filterable field, and an unknown or illegal operator.
func validatePredicate(r schema.Resource, p *Predicate) []error {
	var errs []error

	target, ok := schema.RelationshipTarget(r, p.Path)
	if !ok {
		errs = append(errs, &schema.InvalidPathError{Resource: r.Name(), Path: p.Path})
		target = nil
	}

	var field schema.Field
	haveField := false
	if target != nil {
		field, haveField = target.Field(p.Field)
		if !haveField || !field.Filterable {
			haveField = false
			errs = append(errs, &schema.NoSuchFieldError{Resource: target.Name(), Field: p.Field})
		}
	}

	op, known := schema.ParseOperator(p.Operator)
	switch {
	case !known:
		resource := r.Name()
		if target != nil {
			resource = target.Name()
		}
		errs = append(errs, &schema.NoSuchOperatorError{Resource: resource, Field: p.Field, Operator: p.Operator})
	case haveField && !schema.OperatorLegal(op, field):
		errs = append(errs, &schema.NoSuchOperatorError{Resource: target.Name(), Field: p.Field, Operator: p.Operator})
	}

	return errs
}

// sortedIndexes orders component keys numerically where possible, keeping a
// stable lexicographic order for non-numeric keys.
func sortedIndexes(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		if aErr == nil && bErr == nil {
			return a < b
		}
		if aErr == nil {
			return true
		}
		if bErr == nil {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}

func pathValue(v any) []string {
	switch p := v.(type) {
	case string:
		if p == "" {
			return nil
		}
		return strings.Split(p, ".")
	case []string:
		return p
	case []any:
		out := make([]string, 0, len(p))
		for _, seg := range p {
			out = append(out, fmt.Sprintf("%v", seg))
		}
		return out
	}
	return nil
}
