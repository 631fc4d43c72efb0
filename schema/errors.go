package schema

import (
	"fmt"
	"strings"
)

// NoSuchFieldError indicates a referenced field does not exist on the
// resource, or is not permitted for the attempted use.
type NoSuchFieldError struct {
	Resource string
	Field    string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("no such field %q on resource %q", e.Field, e.Resource)
}

// NoSuchOperatorError indicates an unknown filter operator, or one that is
// not legal on the referenced field.
type NoSuchOperatorError struct {
	Resource string
	Field    string
	Operator string
}

func (e *NoSuchOperatorError) Error() string {
	return fmt.Sprintf("no such operator %q for field %q on resource %q", e.Operator, e.Field, e.Resource)
}

// InvalidPathError indicates a relationship path that does not resolve on
// the resource.
type InvalidPathError struct {
	Resource string
	Path     []string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid relationship path %q on resource %q", strings.Join(e.Path, "."), e.Resource)
}

// NoSuchScopeError indicates a (group, name) pair absent from the compiled
// scope catalogue.
type NoSuchScopeError struct {
	Group string
	Name  string
}

func (e *NoSuchScopeError) Error() string {
	return fmt.Sprintf("no such scope %q in group %q", e.Name, e.Group)
}
