package queryspec

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidLimitError indicates a limit that is not a positive integer within
// the resolved maximum.
type InvalidLimitError struct {
	Value any
	Max   int
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("queryspec: invalid limit %v, want a positive integer not exceeding %d", e.Value, e.Max)
}

// InvalidOffsetError indicates an offset that is not a non-negative integer.
type InvalidOffsetError struct {
	Value any
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("queryspec: invalid offset %v, want a non-negative integer", e.Value)
}

// SearchNotImplementedError indicates a search parameter was supplied for a
// resource without full-text capability.
type SearchNotImplementedError struct {
	Resource string
}

func (e *SearchNotImplementedError) Error() string {
	return fmt.Sprintf("queryspec: resource %q does not implement full-text search", e.Resource)
}

// InvalidSearchParameterError indicates the search parameter is not a string.
type InvalidSearchParameterError struct {
	Value any
}

func (e *InvalidSearchParameterError) Error() string {
	return fmt.Sprintf("queryspec: invalid search parameter of type %T", e.Value)
}

// InvalidOrderByParameterError indicates an order-by parameter that is not a
// string, a list of strings, or a (field, direction) pair.
type InvalidOrderByParameterError struct {
	Value any
}

func (e *InvalidOrderByParameterError) Error() string {
	return fmt.Sprintf("queryspec: invalid order_by parameter %v", e.Value)
}

// InvalidDirectionsError indicates a (field, direction) order-by pair with
// an unknown direction.
type InvalidDirectionsError struct {
	Field     string
	Direction string
}

func (e *InvalidDirectionsError) Error() string {
	return fmt.Sprintf("queryspec: invalid sort direction %q for field %q", e.Direction, e.Field)
}

// InvalidFilterValueError indicates the ad-hoc filters parameter has an
// unusable shape or value.
type InvalidFilterValueError struct {
	Value any
}

func (e *InvalidFilterValueError) Error() string {
	return fmt.Sprintf("queryspec: invalid filters parameter of type %T", e.Value)
}

// InvalidFilterTreeParameterError indicates the filter_form parameter is not
// a nested map.
type InvalidFilterTreeParameterError struct {
	Value any
}

func (e *InvalidFilterTreeParameterError) Error() string {
	return fmt.Sprintf("queryspec: invalid filter_form parameter of type %T", e.Value)
}

// InvalidScopesParameterError indicates the scopes parameter is not a map of
// group name to scope name.
type InvalidScopesParameterError struct {
	Value any
}

func (e *InvalidScopesParameterError) Error() string {
	return fmt.Sprintf("queryspec: invalid scopes parameter of type %T", e.Value)
}

// Errors accumulates validation errors per parameter name. A validator only
// ever appends to its own parameter's list.
type Errors map[string][]error

// Add appends errs to the list for the named parameter.
func (e Errors) Add(param string, errs ...error) {
	e[param] = append(e[param], errs...)
}

// Params returns the parameter names carrying errors, sorted.
func (e Errors) Params() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError is the error returned by Validate when any parameter is
// invalid. Errors carries every problem found, keyed by parameter name, and
// Params the accompanying parameter values: the original input under the
// strict policy, the best-effort repaired values under the replace policy.
type ValidationError struct {
	Errors Errors
	Params Params
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("queryspec: validation failed for parameters %s",
		strings.Join(e.Errors.Params(), ", "))
}
