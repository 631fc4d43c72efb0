package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Operator is a named filter operator applied to a field.
type Operator string

// Equality operators.
const (
	OpEqual    Operator = "eq"
	OpNotEqual Operator = "neq"
)

// Ordering operators.
const (
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "gte"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "lte"
)

// Membership operators.
const (
	OpIn       Operator = "in"
	OpNotIn    Operator = "nin"
	OpContains Operator = "contains"
)

// Text operators.
const (
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// Presence operators. These are null tests and carry a boolean value.
const (
	OpEmpty    Operator = "empty"
	OpNotEmpty Operator = "not_empty"
	OpIsNil    Operator = "is_nil"
	OpIsNotNil Operator = "is_not_nil"
)

// Category groups operators by the kind of comparison they perform.
type Category string

const (
	CategoryEquality   Category = "equality"
	CategoryOrdering   Category = "ordering"
	CategoryMembership Category = "membership"
	CategoryText       Category = "text"
	CategoryPresence   Category = "presence"
)

// categories maps every known operator to its category. Membership in this
// map is what makes an operator known.
var categories = map[Operator]Category{
	OpEqual:              CategoryEquality,
	OpNotEqual:           CategoryEquality,
	OpGreaterThan:        CategoryOrdering,
	OpGreaterThanOrEqual: CategoryOrdering,
	OpLessThan:           CategoryOrdering,
	OpLessThanOrEqual:    CategoryOrdering,
	OpIn:                 CategoryMembership,
	OpNotIn:              CategoryMembership,
	OpContains:           CategoryMembership,
	OpLike:               CategoryText,
	OpILike:              CategoryText,
	OpEmpty:              CategoryPresence,
	OpNotEmpty:           CategoryPresence,
	OpIsNil:              CategoryPresence,
	OpIsNotNil:           CategoryPresence,
}

// operatorOrder fixes the enumeration order of All and OperatorsFor.
var operatorOrder = []Operator{
	OpEqual, OpNotEqual,
	OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
	OpIn, OpNotIn, OpContains,
	OpLike, OpILike,
	OpEmpty, OpNotEmpty, OpIsNil, OpIsNotNil,
}

// ParseOperator converts a string to an Operator.
// Returns the operator and true if known, or empty operator and false.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(s)
	_, ok := categories[op]
	if !ok {
		return "", false
	}
	return op, true
}

// OperatorCategory returns the category of a known operator.
func OperatorCategory(op Operator) (Category, bool) {
	cat, ok := categories[op]
	return cat, ok
}

// IsNullTest reports whether the operator tests for absence/presence of a
// value rather than comparing against one. Null tests keep empty values
// during parameter serialization.
func IsNullTest(op Operator) bool {
	return categories[op] == CategoryPresence
}

// AllOperators returns every known operator in a stable order.
func AllOperators() []Operator {
	out := make([]Operator, len(operatorOrder))
	copy(out, operatorOrder)
	return out
}

// OperatorLegal reports whether the operator may be applied to the field,
// based on the field's Arrow type.
func OperatorLegal(op Operator, f Field) bool {
	cat, ok := categories[op]
	if !ok {
		return false
	}
	switch cat {
	case CategoryEquality, CategoryPresence:
		return true
	case CategoryOrdering:
		return isOrdered(f.Type)
	case CategoryText:
		return isText(f.Type)
	case CategoryMembership:
		if op == OpContains {
			return f.Type != nil && f.Type.ID() == arrow.LIST
		}
		return true
	}
	return false
}

// OperatorsFor returns the operators legal on the field, in a stable order.
func OperatorsFor(f Field) []Operator {
	var out []Operator
	for _, op := range operatorOrder {
		if OperatorLegal(op, f) {
			out = append(out, op)
		}
	}
	return out
}

// isOrdered reports whether the Arrow type supports ordering comparisons.
func isOrdered(dt arrow.DataType) bool {
	if dt == nil {
		return false
	}
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128, arrow.DECIMAL256,
		arrow.DATE32, arrow.DATE64,
		arrow.TIME32, arrow.TIME64,
		arrow.TIMESTAMP, arrow.DURATION,
		arrow.STRING, arrow.LARGE_STRING:
		return true
	}
	return false
}

// isText reports whether the Arrow type supports pattern matching.
func isText(dt arrow.DataType) bool {
	if dt == nil {
		return false
	}
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return true
	}
	return false
}
