package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ResourceBuilder builds static resources using a fluent API.
// Not thread-safe - use only during initialization.
//
// Example:
//
//	posts, err := schema.NewResourceBuilder("posts").
//	    Field(schema.FieldDef{Name: "name", Type: arrow.BinaryTypes.String, Filterable: true, Sortable: true, Searchable: true}).
//	    Field(schema.FieldDef{Name: "age", Type: arrow.PrimitiveTypes.Int64, Filterable: true, Sortable: true}).
//	    Relationship("author", authors).
//	    ScopeGroup("role",
//	        schema.Scope{Name: "admin", Filter: map[string]any{"author": map[string]any{"eq": "John"}}},
//	        schema.Scope{Name: "user", Filter: map[string]any{"author": map[string]any{"eq": "Doe"}}},
//	    ).
//	    DefaultLimit(20).
//	    Build()
type ResourceBuilder struct {
	name         string
	fields       []Field
	rels         map[string]Resource
	scopeGroups  []ScopeGroup
	settings     map[string]any
	defaultOrder []OrderClause
	errs         []error
	built        bool
}

// FieldDef defines one field of a resource under construction.
type FieldDef struct {
	// Name is the field name.
	// REQUIRED: MUST be non-empty and unique within the resource.
	Name string

	// Type is the Arrow data type.
	// REQUIRED: MUST NOT be nil.
	Type arrow.DataType

	// Filterable, Sortable, Searchable set the field's capability flags.
	Filterable bool
	Sortable   bool
	Searchable bool

	// Calc marks the field as calculated.
	// OPTIONAL: nil for plain columns.
	Calc *CalculatedField
}

// NewResourceBuilder creates a builder for a resource with the given name.
func NewResourceBuilder(name string) *ResourceBuilder {
	return &ResourceBuilder{
		name:     name,
		rels:     make(map[string]Resource),
		settings: make(map[string]any),
	}
}

// Field adds a field definition.
func (b *ResourceBuilder) Field(def FieldDef) *ResourceBuilder {
	if def.Name == "" {
		b.errs = append(b.errs, fmt.Errorf("schema: field with empty name in resource %q", b.name))
		return b
	}
	if def.Type == nil {
		b.errs = append(b.errs, fmt.Errorf("schema: field %q has nil type", def.Name))
		return b
	}
	for _, f := range b.fields {
		if f.Name == def.Name {
			b.errs = append(b.errs, fmt.Errorf("schema: duplicate field %q in resource %q", def.Name, b.name))
			return b
		}
	}
	b.fields = append(b.fields, Field{
		Name:       def.Name,
		Type:       def.Type,
		Filterable: def.Filterable,
		Sortable:   def.Sortable,
		Searchable: def.Searchable,
		Calc:       def.Calc,
	})
	return b
}

// Relationship declares a named relationship to another resource.
// The target may be the resource itself (self-referential relationships).
func (b *ResourceBuilder) Relationship(name string, target Resource) *ResourceBuilder {
	if name == "" || target == nil {
		b.errs = append(b.errs, fmt.Errorf("schema: invalid relationship %q in resource %q", name, b.name))
		return b
	}
	if _, exists := b.rels[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("schema: duplicate relationship %q in resource %q", name, b.name))
		return b
	}
	b.rels[name] = target
	return b
}

// ScopeGroup declares a group of predefined filter scopes.
func (b *ResourceBuilder) ScopeGroup(name string, scopes ...Scope) *ResourceBuilder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("schema: scope group with empty name in resource %q", b.name))
		return b
	}
	b.scopeGroups = append(b.scopeGroups, ScopeGroup{Name: name, Scopes: scopes})
	return b
}

// DefaultLimit sets the resource-level default page size.
func (b *ResourceBuilder) DefaultLimit(n int) *ResourceBuilder {
	b.settings["default_limit"] = n
	return b
}

// MaxLimit sets the resource-level maximum page size.
func (b *ResourceBuilder) MaxLimit(n int) *ResourceBuilder {
	b.settings["max_limit"] = n
	return b
}

// DefaultOrder sets the ordering applied when a request supplies none.
func (b *ResourceBuilder) DefaultOrder(clauses ...OrderClause) *ResourceBuilder {
	b.defaultOrder = clauses
	return b
}

// Setting sets an arbitrary resource-level option value.
func (b *ResourceBuilder) Setting(key string, value any) *ResourceBuilder {
	b.settings[key] = value
	return b
}

// Build finalizes the resource. Can only be called once.
func (b *ResourceBuilder) Build() (*StaticResource, error) {
	if b.built {
		return nil, fmt.Errorf("schema: resource %q already built", b.name)
	}
	if b.name == "" {
		return nil, fmt.Errorf("schema: resource name must not be empty")
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	b.built = true

	index := make(map[string]Field, len(b.fields))
	for _, f := range b.fields {
		index[f.Name] = f
	}
	return &StaticResource{
		name:         b.name,
		fields:       b.fields,
		index:        index,
		rels:         b.rels,
		scopeGroups:  b.scopeGroups,
		settings:     b.settings,
		defaultOrder: b.defaultOrder,
	}, nil
}
