// Package filtertree implements the recursively nested, user-built filter
// tree: boolean groups over field predicates, constructed incrementally from
// untrusted form parameters.
//
// A tree is built with New from raw nested input, edited with the structural
// mutators (AddPredicate, AddGroup, Remove, UpdatePredicate, UpdateGroup),
// revalidated against later form submissions with Validate, and finally
// compiled in two directions: ToFilterMap / ToExpression for execution, and
// ParamsForQuery for URL round-tripping.
//
// Construction and validation are total: a predicate referencing an unknown
// field or operator becomes an invalid predicate carrying typed errors, it
// never aborts the tree. Trees are designed for single-owner incremental
// editing; every mutator returns a fresh tree value and leaves the receiver
// untouched.
package filtertree

import (
	"github.com/hugr-lab/queryspec-go/schema"
)

// Combinator is the boolean operator of a group.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// Node is a component of a filter tree: a Group or a Predicate.
type Node interface {
	// ComponentID returns the node's stable identity, used to address nested
	// components during incremental edits.
	ComponentID() string

	// Valid reports whether the node and all its descendants are valid.
	Valid() bool

	// nodeMarker is a marker method to prevent external implementation.
	nodeMarker()
}

// Group is a boolean combinator over child components.
type Group struct {
	// ID is the stable component identity. Generated if the input carries
	// none.
	ID string

	// Operator joins the components (AND/OR).
	Operator Combinator

	// Negated inverts the group.
	Negated bool

	// Key is an optional application-defined tag for bulk updates.
	Key string

	// Components holds the child nodes in input order.
	Components []Node

	// implicit marks a root group synthesized around a bare predicate from
	// the wire shape. ParamsForQuery unwraps it while it still holds only
	// that predicate.
	implicit bool
}

// ComponentID implements Node.
func (g *Group) ComponentID() string { return g.ID }

// Valid implements Node: a group is valid iff all descendants are valid.
// An empty group is always valid.
func (g *Group) Valid() bool {
	for _, c := range g.Components {
		if !c.Valid() {
			return false
		}
	}
	return true
}

func (*Group) nodeMarker() {}

// clone returns a deep copy of the group.
func (g *Group) clone() *Group {
	out := *g
	out.Components = make([]Node, len(g.Components))
	for i, c := range g.Components {
		switch n := c.(type) {
		case *Group:
			out.Components[i] = n.clone()
		case *Predicate:
			out.Components[i] = n.clone()
		}
	}
	return &out
}

// Predicate is a single field/operator/value condition, optionally scoped to
// a relationship path.
type Predicate struct {
	// ID is the stable component identity.
	ID string

	// Field is the field name on the path's target resource.
	Field string

	// Path holds relationship segments; empty for local fields.
	Path []string

	// Operator is the raw operator name. Kept verbatim even when unknown so
	// the form can be round-tripped while the user is still editing.
	Operator string

	// Value is the comparison value.
	Value any

	// Arguments carries arguments for parameterized calculated fields.
	Arguments map[string]any

	// Negated inverts the predicate.
	Negated bool

	// Errors holds the validation errors annotated on this predicate.
	// Empty for valid predicates.
	Errors []error
}

// ComponentID implements Node.
func (p *Predicate) ComponentID() string { return p.ID }

// Valid implements Node.
func (p *Predicate) Valid() bool { return len(p.Errors) == 0 }

func (*Predicate) nodeMarker() {}

// clone returns a deep copy of the predicate.
func (p *Predicate) clone() *Predicate {
	out := *p
	out.Path = append([]string(nil), p.Path...)
	out.Errors = append([]error(nil), p.Errors...)
	if p.Arguments != nil {
		out.Arguments = make(map[string]any, len(p.Arguments))
		for k, v := range p.Arguments {
			out.Arguments[k] = v
		}
	}
	return &out
}

// Tree is one filter tree bound to the resource it filters.
type Tree struct {
	resource schema.Resource
	opts     Options

	// Root is the top-level group.
	Root *Group
}

// Options configures tree construction and editing.
type Options struct {
	// InitialTree seeds construction: its stored parameters are merged under
	// the incoming raw parameters (new parameters win per leaf).
	InitialTree *Tree

	// RemoveEmptyGroups prunes groups left without components after Remove,
	// cascading upward. The root group is never pruned.
	RemoveEmptyGroups bool

	// KeepValueOnFieldChange disables the default reset of operator/value
	// when Validate sees a predicate's field change.
	KeepValueOnFieldChange bool
}

// Resource returns the resource the tree is bound to.
func (t *Tree) Resource() schema.Resource { return t.resource }

// Valid reports whether every component of the tree is valid.
func (t *Tree) Valid() bool { return t.Root.Valid() }

// Errors returns the errors of every invalid predicate, keyed by component
// id. Empty map for valid trees.
func (t *Tree) Errors() map[string][]error {
	out := map[string][]error{}
	walk(t.Root, func(n Node) {
		if p, ok := n.(*Predicate); ok && len(p.Errors) > 0 {
			out[p.ID] = append([]error(nil), p.Errors...)
		}
	})
	return out
}

// Find returns the node with the given component id, or nil.
func (t *Tree) Find(id string) Node {
	var found Node
	walk(t.Root, func(n Node) {
		if n.ComponentID() == id {
			found = n
		}
	})
	return found
}

// clone returns a deep copy of the tree.
func (t *Tree) clone() *Tree {
	return &Tree{resource: t.resource, opts: t.opts, Root: t.Root.clone()}
}

// walk visits every node of the subtree rooted at n, parents first.
func walk(n Node, visit func(Node)) {
	visit(n)
	if g, ok := n.(*Group); ok {
		for _, c := range g.Components {
			walk(c, visit)
		}
	}
}
