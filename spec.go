package queryspec

import (
	"github.com/hugr-lab/queryspec-go/filtertree"
	"github.com/hugr-lab/queryspec-go/schema"
)

// Specification is the validated, canonical representation of one request:
// every referenced field has been checked against the resource, defaults
// are filled in, and pagination is bounded. Produced by Validate, consumed
// by Compile and ToURLParams.
type Specification struct {
	// Search is the raw search text; empty when no search was requested.
	Search string

	// Scopes maps group name to the selected scope name, including scopes
	// applied by default.
	Scopes map[string]string

	// FilterTree is the validated user-built filter tree, or nil.
	FilterTree *filtertree.Tree

	// Filters is the validated ad-hoc filter map, or nil.
	Filters map[string]any

	// OrderBy is the validated ordering, including a resource default order
	// applied when the caller supplied none.
	OrderBy []schema.OrderClause

	// Limit is the page size. Always positive after replace-policy
	// validation; may hold the rejected value under the strict policy.
	Limit int

	// Offset is the window start.
	Offset int
}
