package schema

// Scope is a named, pre-authored filter the caller selects by name instead
// of supplying raw filter logic.
type Scope struct {
	// Name identifies the scope within its group.
	Name string

	// Filter is the filter map applied when the scope is selected, in the
	// ad-hoc filter shape ({field: {operator: value}} or combinator-rooted).
	Filter map[string]any

	// Default marks the scope as applied whenever its group is not
	// explicitly overridden by the caller.
	Default bool
}

// ScopeGroup is a named group of mutually exclusive scopes.
type ScopeGroup struct {
	Name   string
	Scopes []Scope
}

// Catalogue is a compiled scope catalogue with fast (group, name) lookup.
// Immutable after compilation; safe for concurrent use.
type Catalogue struct {
	groups   map[string]map[string]Scope
	order    []string
	defaults map[string]Scope
}

// CompileScopes compiles one or more scope-group lists into a Catalogue.
// Lists are applied in order; a later (group, name) pair replaces an earlier
// one, which lets option layers override resource-declared scopes.
func CompileScopes(lists ...[]ScopeGroup) *Catalogue {
	c := &Catalogue{
		groups:   make(map[string]map[string]Scope),
		defaults: make(map[string]Scope),
	}
	for _, list := range lists {
		for _, group := range list {
			scopes, ok := c.groups[group.Name]
			if !ok {
				scopes = make(map[string]Scope)
				c.groups[group.Name] = scopes
				c.order = append(c.order, group.Name)
			}
			for _, s := range group.Scopes {
				scopes[s.Name] = s
				if s.Default {
					c.defaults[group.Name] = s
				}
			}
		}
	}
	return c
}

// Lookup resolves a (group, name) pair. Returns (Scope{}, false) if either
// the group or the scope is unknown.
func (c *Catalogue) Lookup(group, name string) (Scope, bool) {
	scopes, ok := c.groups[group]
	if !ok {
		return Scope{}, false
	}
	s, ok := scopes[name]
	return s, ok
}

// Groups returns the group names in first-seen order.
func (c *Catalogue) Groups() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Defaults returns, per group, the scope marked default. Groups without a
// default scope are absent.
func (c *Catalogue) Defaults() map[string]Scope {
	out := make(map[string]Scope, len(c.defaults))
	for g, s := range c.defaults {
		out[g] = s
	}
	return out
}
