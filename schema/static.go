package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// StaticResource is an immutable Resource built from ResourceBuilder.
type StaticResource struct {
	name         string
	fields       []Field
	index        map[string]Field
	rels         map[string]Resource
	scopeGroups  []ScopeGroup
	settings     map[string]any
	defaultOrder []OrderClause
}

// Name implements Resource.
func (r *StaticResource) Name() string { return r.name }

// Fields implements Resource.
func (r *StaticResource) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Field implements Resource.
func (r *StaticResource) Field(name string) (Field, bool) {
	f, ok := r.index[name]
	return f, ok
}

// Relationship implements Resource.
func (r *StaticResource) Relationship(name string) (Resource, bool) {
	target, ok := r.rels[name]
	return target, ok
}

// ScopeGroups implements Resource.
func (r *StaticResource) ScopeGroups() []ScopeGroup {
	out := make([]ScopeGroup, len(r.scopeGroups))
	copy(out, r.scopeGroups)
	return out
}

// Settings implements Resource.
func (r *StaticResource) Settings() map[string]any { return r.settings }

// DefaultOrder implements Resource.
func (r *StaticResource) DefaultOrder() []OrderClause {
	if r.defaultOrder == nil {
		return nil
	}
	out := make([]OrderClause, len(r.defaultOrder))
	copy(out, r.defaultOrder)
	return out
}

// ArrowSchema returns the Arrow schema describing the resource's fields.
func (r *StaticResource) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(r.fields))
	for _, f := range r.fields {
		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     f.Type,
			Nullable: true,
		})
	}
	return arrow.NewSchema(fields, nil)
}
