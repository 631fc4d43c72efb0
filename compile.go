package queryspec

import (
	"fmt"

	"github.com/hugr-lab/queryspec-go/expr"
	"github.com/hugr-lab/queryspec-go/filtermap"
	"github.com/hugr-lab/queryspec-go/options"
	"github.com/hugr-lab/queryspec-go/schema"
	"github.com/hugr-lab/queryspec-go/search"
)

// Window is the pagination window of one compiled query.
type Window struct {
	Limit  int
	Offset int
}

// Clauses is the executable form of a Specification, ready to hand to a
// query executor.
type Clauses struct {
	// Filter is the combined boolean filter: ad-hoc filters, the filter
	// tree, selected scopes, and the full-text predicate joined under AND.
	// Never nil; an unfiltered query carries True.
	Filter expr.Expression

	// Order is the sort order.
	Order []schema.OrderClause

	// Window is the pagination window. A zero Limit means no limit.
	Window Window
}

// Compile turns a validated Specification into executable clauses.
//
// Filter sources merge in a fixed order: the ad-hoc filter map, then the
// filter tree's compiled map, then each selected scope's filter.
// Independent predicates accumulate under the AND root; on direct key
// conflicts the later source wins. The full-text search predicate, when
// present, is joined on top under AND.
func Compile(r schema.Resource, spec *Specification, layers options.Layers) (*Clauses, error) {
	if layers.Resource == nil {
		layers.Resource = r.Settings()
	}

	merged := map[string]any{}
	var err error
	if len(spec.Filters) > 0 {
		merged, err = filtermap.Merge(merged, spec.Filters)
		if err != nil {
			return nil, fmt.Errorf("queryspec: merging ad-hoc filters: %w", err)
		}
	}
	if spec.FilterTree != nil {
		treeMap, err := spec.FilterTree.ToFilterMap()
		if err != nil {
			return nil, err
		}
		if len(treeMap) > 0 {
			merged, err = filtermap.Merge(merged, treeMap)
			if err != nil {
				return nil, fmt.Errorf("queryspec: merging filter tree: %w", err)
			}
		}
	}
	catalogue := scopeCatalogue(r, &layers)
	for _, group := range catalogue.Groups() {
		name, ok := spec.Scopes[group]
		if !ok {
			continue
		}
		scope, ok := catalogue.Lookup(group, name)
		if !ok {
			return nil, &schema.NoSuchScopeError{Group: group, Name: name}
		}
		if len(scope.Filter) == 0 {
			continue
		}
		merged, err = filtermap.Merge(merged, scope.Filter)
		if err != nil {
			return nil, fmt.Errorf("queryspec: merging scope %s/%s: %w", group, name, err)
		}
	}

	filter, err := filtermap.Parse(r, merged)
	if err != nil {
		return nil, err
	}
	if q := searchQuery(r, spec.Search, layers); q != nil {
		filter = expr.NewAnd(filter, q)
	}

	order := spec.OrderBy
	if len(order) == 0 {
		order = r.DefaultOrder()
	}
	return &Clauses{
		Filter: filter,
		Order:  order,
		Window: Window{Limit: spec.Limit, Offset: spec.Offset},
	}, nil
}

// searchQuery compiles the full-text predicate, or nil when the
// specification carries no search or the compiled query is empty.
func searchQuery(r schema.Resource, raw string, layers options.Layers) expr.Expression {
	if raw == "" {
		return nil
	}
	q := search.Compile(raw, search.Options{
		Prefix:   boolOption(layers, options.KeySearchPrefix),
		Negation: boolOption(layers, options.KeySearchNegation),
		AnyWord:  boolOption(layers, options.KeySearchAnyWord),
	})
	if q == "" {
		return nil
	}
	return &expr.Match{Fields: schema.SearchFields(r), Query: q}
}
