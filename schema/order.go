package schema

// Direction is a sort direction, including the null-placement variants.
type Direction string

const (
	Asc           Direction = "asc"
	Desc          Direction = "desc"
	AscNullsFirst Direction = "asc_nulls_first"
	DescNullsLast Direction = "desc_nulls_last"
)

// ParseDirection converts a direction string to a Direction.
// Returns (Direction, true) if valid, ("", false) otherwise.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Asc, Desc, AscNullsFirst, DescNullsLast:
		return Direction(s), true
	}
	return "", false
}

// Prefix returns the order-by wire prefix for the direction: "" for
// ascending, "-" for descending, "++" and "--" for the null-placement
// variants.
func (d Direction) Prefix() string {
	switch d {
	case Desc:
		return "-"
	case AscNullsFirst:
		return "++"
	case DescNullsLast:
		return "--"
	default:
		return ""
	}
}

// OrderClause is one (field, direction) pair of an ordering.
type OrderClause struct {
	Field     string
	Direction Direction
}
