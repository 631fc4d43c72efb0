package queryspec

import (
	"reflect"
	"strings"

	"github.com/hugr-lab/queryspec-go/filtertree"
	"github.com/hugr-lab/queryspec-go/options"
	"github.com/hugr-lab/queryspec-go/schema"
)

// ToURLParams serializes a Specification back into the wire parameter
// shape, the inverse of Validate. Any parameter whose value equals its
// resolved default is omitted — default scopes, the resource default order,
// the default limit, a zero offset — so canonical state produces the empty
// query string. Validate over the result reconstructs the specification,
// re-expanding the omitted defaults.
func ToURLParams(r schema.Resource, spec *Specification, layers options.Layers) map[string]any {
	if layers.Resource == nil {
		layers.Resource = r.Settings()
	}
	out := map[string]any{}

	if spec.Search != "" {
		out[ParamSearch] = spec.Search
	}

	catalogue := scopeCatalogue(r, &layers)
	defaults := catalogue.Defaults()
	scopes := map[string]string{}
	for group, name := range spec.Scopes {
		if d, ok := defaults[group]; ok && d.Name == name {
			continue
		}
		scopes[group] = name
	}
	if len(scopes) > 0 {
		out[ParamScopes] = scopes
	}

	if spec.FilterTree != nil {
		form := spec.FilterTree.ParamsForQuery(filtertree.ParamsOptions{
			KeepBlanks: !boolOption(layers, options.KeyNillifyBlanks),
		})
		if len(form) > 0 {
			out[ParamFilterForm] = form
		}
	}

	if len(spec.Filters) > 0 {
		out[ParamFilters] = spec.Filters
	}

	if len(spec.OrderBy) > 0 && !reflect.DeepEqual(spec.OrderBy, r.DefaultOrder()) {
		out[ParamOrderBy] = OrderByString(spec.OrderBy)
	}

	if spec.Limit != 0 && spec.Limit != intOption(layers, options.KeyDefaultLimit) {
		out[ParamLimit] = spec.Limit
	}
	if spec.Offset != 0 {
		out[ParamOffset] = spec.Offset
	}
	return out
}

// OrderByString renders an ordering in the comma-separated prefix notation
// accepted by Validate.
func OrderByString(order []schema.OrderClause) string {
	parts := make([]string, len(order))
	for i, clause := range order {
		parts[i] = clause.Direction.Prefix() + clause.Field
	}
	return strings.Join(parts, ",")
}
