package queryspec

import (
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/hugr-lab/queryspec-go/filtermap"
	"github.com/hugr-lab/queryspec-go/filtertree"
	"github.com/hugr-lab/queryspec-go/options"
	"github.com/hugr-lab/queryspec-go/schema"
)

// Policy decides what validation does with invalid parameter values.
type Policy int

const (
	// Strict reports errors and keeps the offending values unchanged.
	Strict Policy = iota

	// ReplaceWithDefaults reports errors and repairs the parameters:
	// invalid values fall back to resolved defaults, unknown scopes and
	// order-by entries are dropped, invalid filter-tree components are
	// pruned, and unparseable ad-hoc filter fields are stripped.
	ReplaceWithDefaults
)

// Validate turns an untrusted parameter map into a Specification.
//
// Every parameter is validated even when earlier ones already failed, so
// the caller sees all problems at once. On success the error is nil. On
// failure the error is a *ValidationError carrying the per-parameter error
// lists and the parameter values: the original input under Strict, the
// best-effort repaired values under ReplaceWithDefaults. The returned
// Specification is always usable; under ReplaceWithDefaults it reflects the
// repaired parameters.
func Validate(r schema.Resource, raw map[string]any, policy Policy, layers options.Layers) (*Specification, error) {
	p, errs := DecodeParams(raw)
	return validateParams(r, p, errs, policy, layers)
}

// ValidateParams is Validate for already-decoded parameters.
func ValidateParams(r schema.Resource, p Params, policy Policy, layers options.Layers) (*Specification, error) {
	return validateParams(r, p, Errors{}, policy, layers)
}

func validateParams(r schema.Resource, p Params, errs Errors, policy Policy, layers options.Layers) (*Specification, error) {
	if layers.Resource == nil {
		layers.Resource = r.Settings()
	}
	orig := p
	v := &validator{
		resource:  r,
		policy:    policy,
		layers:    layers,
		logger:    layers.Logger(),
		catalogue: scopeCatalogue(r, &layers),
		errs:      errs,
	}

	spec := &Specification{}
	v.validateSearch(spec, &p)
	v.validateScopes(spec, &p)
	v.validateFilterTree(spec, &p)
	v.validateFilters(spec, &p)
	v.validateOrderBy(spec, &p)
	v.validatePagination(spec, &p)

	if len(v.errs) == 0 {
		return spec, nil
	}
	if policy != ReplaceWithDefaults {
		p = orig
	}
	return spec, &ValidationError{Errors: v.errs, Params: p}
}

// validator carries the shared state of one validation call.
type validator struct {
	resource  schema.Resource
	policy    Policy
	layers    options.Layers
	logger    *slog.Logger
	catalogue *schema.Catalogue
	errs      Errors
}

func (v *validator) replace() bool { return v.policy == ReplaceWithDefaults }

// repaired logs one replace-policy repair.
func (v *validator) repaired(param string, err error) {
	v.logger.Debug("queryspec: replaced invalid parameter",
		slog.String("resource", v.resource.Name()),
		slog.String("param", param),
		slog.Any("reason", err))
}

func (v *validator) validateSearch(spec *Specification, p *Params) {
	if strings.TrimSpace(p.Search) == "" {
		return
	}
	if !schema.HasFullTextCapability(v.resource) {
		err := &SearchNotImplementedError{Resource: v.resource.Name()}
		v.errs.Add(ParamSearch, err)
		if v.replace() {
			p.Search = ""
			v.repaired(ParamSearch, err)
		}
		return
	}
	spec.Search = p.Search
}

func (v *validator) validateScopes(spec *Specification, p *Params) {
	selected := map[string]string{}
	kept := map[string]string{}
	groups := make([]string, 0, len(p.Scopes))
	for group := range p.Scopes {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		name := p.Scopes[group]
		if _, ok := v.catalogue.Lookup(group, name); !ok {
			err := &schema.NoSuchScopeError{Group: group, Name: name}
			v.errs.Add(ParamScopes, err)
			if v.replace() {
				v.repaired(ParamScopes, err)
			}
			continue
		}
		selected[group] = name
		kept[group] = name
	}
	if v.replace() {
		if len(kept) == 0 {
			kept = nil
		}
		p.Scopes = kept
	}

	// Default scopes apply to every group the caller did not override.
	for group, s := range v.catalogue.Defaults() {
		if _, ok := selected[group]; !ok {
			selected[group] = s.Name
		}
	}
	if len(selected) > 0 {
		spec.Scopes = selected
	}
}

func (v *validator) validateFilterTree(spec *Specification, p *Params) {
	if len(p.FilterForm) == 0 {
		return
	}
	tree := filtertree.New(v.resource, p.FilterForm, filtertree.Options{
		RemoveEmptyGroups:      v.optBool(options.KeyRemoveEmptyGroups),
		KeepValueOnFieldChange: !v.optBool(options.KeyResetOnChange),
	})
	if !tree.Valid() {
		treeErrs := tree.Errors()
		ids := make([]string, 0, len(treeErrs))
		for id := range treeErrs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			v.errs.Add(ParamFilterForm, treeErrs[id]...)
		}
		if v.replace() {
			for _, id := range ids {
				v.repaired(ParamFilterForm, treeErrs[id][0])
				tree = tree.Remove(id)
			}
			p.FilterForm = tree.ParamsForQuery(filtertree.ParamsOptions{
				KeepBlanks: !v.optBool(options.KeyNillifyBlanks),
			})
		}
	}
	spec.FilterTree = tree
}

func (v *validator) validateFilters(spec *Specification, p *Params) {
	if len(p.Filters) == 0 {
		return
	}
	m := p.Filters
	for len(m) > 0 {
		_, err := filtermap.Parse(v.resource, m)
		if err == nil {
			break
		}
		v.errs.Add(ParamFilters, err)
		if !v.replace() {
			break
		}
		v.repaired(ParamFilters, err)
		field, ok := filtermap.FirstField(err)
		if !ok {
			// Structural failure with no field to strip: drop the filters.
			m = nil
			break
		}
		stripped := filtermap.StripField(m, field)
		if reflect.DeepEqual(stripped, m) {
			// Stripping made no progress; drop the filters rather than
			// retry the same parse.
			m = nil
			break
		}
		m = stripped
	}
	if len(m) == 0 {
		m = nil
	}
	if v.replace() {
		p.Filters = m
	}
	spec.Filters = m
}

func (v *validator) validateOrderBy(spec *Specification, p *Params) {
	if len(p.OrderBy) == 0 {
		spec.OrderBy = v.resource.DefaultOrder()
		return
	}

	var clauses []schema.OrderClause
	var kept []any
	for _, entry := range p.OrderBy {
		clause, err := parseOrderEntry(entry)
		if err == nil && !schema.IsSortable(v.resource, clause.Field) {
			err = &schema.NoSuchFieldError{Resource: v.resource.Name(), Field: clause.Field}
		}
		if err != nil {
			v.errs.Add(ParamOrderBy, err)
			if v.replace() {
				v.repaired(ParamOrderBy, err)
			}
			continue
		}
		clauses = append(clauses, clause)
		kept = append(kept, entry)
	}
	if v.replace() {
		p.OrderBy = kept
	}
	if len(clauses) == 0 && v.replace() {
		clauses = v.resource.DefaultOrder()
	}
	spec.OrderBy = clauses
}

// parseOrderEntry normalizes one order-by entry: a prefix-notation string
// ("name", "+name", "-age", "++rank", "--age") or a field/direction pair
// map.
func parseOrderEntry(entry any) (schema.OrderClause, error) {
	switch e := entry.(type) {
	case string:
		dir := schema.Asc
		field := e
		switch {
		case strings.HasPrefix(e, "++"):
			dir, field = schema.AscNullsFirst, e[2:]
		case strings.HasPrefix(e, "--"):
			dir, field = schema.DescNullsLast, e[2:]
		case strings.HasPrefix(e, "-"):
			dir, field = schema.Desc, e[1:]
		case strings.HasPrefix(e, "+"):
			dir, field = schema.Asc, e[1:]
		}
		if field == "" {
			return schema.OrderClause{}, &InvalidOrderByParameterError{Value: entry}
		}
		return schema.OrderClause{Field: field, Direction: dir}, nil
	case map[string]any:
		field, _ := e["field"].(string)
		if field == "" {
			return schema.OrderClause{}, &InvalidOrderByParameterError{Value: entry}
		}
		dirName, _ := e["direction"].(string)
		if dirName == "" {
			return schema.OrderClause{Field: field, Direction: schema.Asc}, nil
		}
		dir, ok := schema.ParseDirection(dirName)
		if !ok {
			return schema.OrderClause{}, &InvalidDirectionsError{Field: field, Direction: dirName}
		}
		return schema.OrderClause{Field: field, Direction: dir}, nil
	}
	return schema.OrderClause{}, &InvalidOrderByParameterError{Value: entry}
}

func (v *validator) validatePagination(spec *Specification, p *Params) {
	defaultLimit := v.optInt(options.KeyDefaultLimit)
	maxLimit := v.optInt(options.KeyMaxLimit)

	if p.Limit == nil {
		spec.Limit = defaultLimit
	} else {
		n, parsed := intValue(p.Limit)
		if !parsed || n <= 0 || (maxLimit > 0 && n > maxLimit) {
			err := &InvalidLimitError{Value: p.Limit, Max: maxLimit}
			v.errs.Add(ParamLimit, err)
			if v.replace() {
				n = defaultLimit
				p.Limit = defaultLimit
				v.repaired(ParamLimit, err)
			}
		}
		spec.Limit = n
	}

	if p.Offset == nil {
		return
	}
	n, parsed := intValue(p.Offset)
	if !parsed || n < 0 {
		err := &InvalidOffsetError{Value: p.Offset}
		v.errs.Add(ParamOffset, err)
		if v.replace() {
			n = 0
			p.Offset = 0
			v.repaired(ParamOffset, err)
		}
	}
	spec.Offset = n
}

func (v *validator) optBool(key string) bool { return boolOption(v.layers, key) }

func (v *validator) optInt(key string) int { return intOption(v.layers, key) }

// boolOption resolves a boolean option. Every key used by the pipeline has
// a compiled-in default, so resolution errors only mean a caller put a
// value of the wrong type into a layer; the default applies then.
func boolOption(l options.Layers, key string) bool {
	b, err := l.Bool(key)
	if err != nil {
		fallback, _ := options.Default(key).(bool)
		return fallback
	}
	return b
}

func intOption(l options.Layers, key string) int {
	n, err := l.Int(key)
	if err != nil {
		fallback, _ := options.Default(key).(int)
		return fallback
	}
	return n
}

// intValue coerces the wire shapes of a numeric parameter.
func intValue(v any) (int, bool) {
	var n int
	if err := weakDecode(v, &n); err != nil {
		return 0, false
	}
	return n, true
}

// scopeCatalogue compiles the scope catalogue for the resource, combining
// the resource-declared scope groups with any catalogue supplied through
// the option layers. The compiled catalogue is cached on the layers so
// nested calls sharing them do not recompile.
func scopeCatalogue(r schema.Resource, layers *options.Layers) *schema.Catalogue {
	if v, ok := layers.Compiled(); ok {
		if cat, ok := v.(*schema.Catalogue); ok {
			return cat
		}
	}
	lists := [][]schema.ScopeGroup{r.ScopeGroups()}
	if v, err := layers.Resolve(options.KeyScopes); err == nil {
		if extra, ok := v.([]schema.ScopeGroup); ok {
			lists = append(lists, extra)
		}
	}
	cat := schema.CompileScopes(lists...)
	*layers = layers.WithCompiled(cat)
	return cat
}
