// Package schema provides resource introspection for query validation and
// compilation.
//
// The package follows an interface-based design: validation consults a
// Resource for field existence, filterability, sortability, search
// capability, relationship targets, and the scope catalogue. A static
// implementation built with NewResourceBuilder() covers the common case;
// callers with live schemas can implement Resource themselves.
//
// Fields are modelled on Arrow data types. The Arrow type of a field decides
// which filter operators are legal on it (ordering comparisons on numeric
// and temporal fields, pattern matching on strings, and so on).
package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Resource describes one queryable data resource. Implementations MUST be
// goroutine-safe: many validation calls may introspect the same resource
// concurrently.
type Resource interface {
	// Name returns the resource name (e.g. "posts").
	// MUST return non-empty string.
	Name() string

	// Fields returns all declared fields.
	// Returns empty slice (not nil) if no fields are declared.
	Fields() []Field

	// Field returns a field by name.
	// Returns (Field{}, false) if the field does not exist (not an error).
	Field(name string) (Field, bool)

	// Relationship returns the target resource of a named relationship.
	// Returns (nil, false) if the relationship does not exist.
	Relationship(name string) (Resource, bool)

	// ScopeGroups returns the predefined filter scopes grouped by name.
	// Returns empty slice (not nil) if the resource declares no scopes.
	ScopeGroups() []ScopeGroup

	// Settings returns resource-level option values (default limit, max
	// limit, default order). Used as the resource layer during option
	// resolution. May return nil.
	Settings() map[string]any

	// DefaultOrder returns the ordering applied when the caller supplies
	// none. May return nil.
	DefaultOrder() []OrderClause
}

// Field describes one queryable field of a resource.
type Field struct {
	// Name is the field name as it appears in parameters.
	Name string

	// Type is the Arrow data type of the field.
	Type arrow.DataType

	// Filterable marks the field as usable in filters.
	Filterable bool

	// Sortable marks the field as usable in order-by clauses.
	Sortable bool

	// Searchable includes the field in full-text search. Only meaningful
	// for string-typed fields.
	Searchable bool

	// Calc describes a calculated, optionally parameterized field. Nil for
	// plain columns.
	Calc *CalculatedField
}

// CalculatedField describes a field computed by a named function, optionally
// taking named arguments supplied per predicate.
type CalculatedField struct {
	// Function is the function name emitted in compiled expressions.
	Function string

	// Args lists the declared argument names, in call order.
	Args []string
}

// FieldExists reports whether the resource declares the named field.
func FieldExists(r Resource, name string) bool {
	_, ok := r.Field(name)
	return ok
}

// IsFilterable reports whether the named field exists and is filterable.
func IsFilterable(r Resource, name string) bool {
	f, ok := r.Field(name)
	return ok && f.Filterable
}

// IsSortable reports whether the named field exists and is sortable.
func IsSortable(r Resource, name string) bool {
	f, ok := r.Field(name)
	return ok && f.Sortable
}

// RelationshipTarget walks a relationship path from r. An empty path returns
// r itself. Returns (nil, false) if any segment does not resolve.
func RelationshipTarget(r Resource, path []string) (Resource, bool) {
	current := r
	for _, segment := range path {
		next, ok := current.Relationship(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// SearchFields returns the names of the resource's searchable fields.
func SearchFields(r Resource) []string {
	var names []string
	for _, f := range r.Fields() {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	return names
}

// HasFullTextCapability reports whether the resource can serve full-text
// search, i.e. declares at least one searchable field.
func HasFullTextCapability(r Resource) bool {
	return len(SearchFields(r)) > 0
}
