package filtertree

import (
	"github.com/google/uuid"
)

// AddPredicate appends a predicate to the group identified by toGroupID, or
// to the root when toGroupID is empty or does not identify a group. A
// predicate whose field or operator is not permitted on the resource is
// still added, carrying its validation errors.
func (t *Tree) AddPredicate(field, operator string, value any, toGroupID string) *Tree {
	return t.addPredicate(&Predicate{
		ID:       uuid.NewString(),
		Field:    field,
		Operator: operator,
		Value:    value,
	}, toGroupID)
}

// AddPredicatePath is AddPredicate for a field reached through a
// relationship path.
func (t *Tree) AddPredicatePath(path []string, field, operator string, value any, toGroupID string) *Tree {
	return t.addPredicate(&Predicate{
		ID:       uuid.NewString(),
		Field:    field,
		Path:     append([]string(nil), path...),
		Operator: operator,
		Value:    value,
	}, toGroupID)
}

func (t *Tree) addPredicate(p *Predicate, toGroupID string) *Tree {
	next := t.clone()
	target := next.locateGroup(toGroupID)
	target.Components = append(target.Components, p)
	next.revalidate()
	return next
}

// AddGroup appends an empty group with the given combinator to the group
// identified by toGroupID (root when empty). The new group's id is the
// provided id, or generated when empty.
func (t *Tree) AddGroup(operator Combinator, id, toGroupID string) *Tree {
	if operator != CombinatorOr {
		operator = CombinatorAnd
	}
	if id == "" {
		id = uuid.NewString()
	}
	next := t.clone()
	target := next.locateGroup(toGroupID)
	target.Components = append(target.Components, &Group{ID: id, Operator: operator})
	return next
}

// Remove deletes the component with the given id anywhere in the tree. With
// Options.RemoveEmptyGroups set, a group left without components is pruned
// as well, cascading upward; the root group always survives.
func (t *Tree) Remove(id string) *Tree {
	next := t.clone()
	removeFrom(next.Root, id, next.opts.RemoveEmptyGroups)
	return next
}

// removeFrom removes the identified component from g's subtree. Reports
// whether g ended up empty and subject to pruning.
func removeFrom(g *Group, id string, pruneEmpty bool) {
	kept := g.Components[:0]
	for _, c := range g.Components {
		if c.ComponentID() == id {
			continue
		}
		if sub, ok := c.(*Group); ok {
			removeFrom(sub, id, pruneEmpty)
			if pruneEmpty && len(sub.Components) == 0 {
				continue
			}
		}
		kept = append(kept, c)
	}
	g.Components = kept
}

// UpdatePredicate applies fn to the predicate with the given id and
// revalidates. Unknown ids leave the tree unchanged.
func (t *Tree) UpdatePredicate(id string, fn func(*Predicate)) *Tree {
	next := t.clone()
	if p, ok := next.Find(id).(*Predicate); ok {
		fn(p)
		next.revalidate()
	}
	return next
}

// UpdateGroup applies fn to every group whose id or application-defined key
// matches idOrKey, including the root.
func (t *Tree) UpdateGroup(idOrKey string, fn func(*Group)) *Tree {
	next := t.clone()
	changed := false
	walk(next.Root, func(n Node) {
		g, ok := n.(*Group)
		if !ok {
			return
		}
		if g.ID == idOrKey || (g.Key != "" && g.Key == idOrKey) {
			fn(g)
			changed = true
		}
	})
	if changed {
		next.revalidate()
	}
	return next
}

// locateGroup finds the group with the given id, falling back to the root.
func (t *Tree) locateGroup(id string) *Group {
	if id == "" {
		return t.Root
	}
	if g, ok := t.Find(id).(*Group); ok {
		return g
	}
	return t.Root
}
