package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hugr-lab/queryspec-go/schema"
)

// EncoderOptions configures how field references render as SQL.
type EncoderOptions struct {
	// ColumnMapping renames fields to their storage columns; unmapped
	// fields render under their own names.
	ColumnMapping map[string]string

	// ColumnExpressions substitutes a raw SQL fragment for a field,
	// overriding ColumnMapping. Intended for computed columns.
	ColumnExpressions map[string]string

	// MatchFunction is the SQL function used to render full-text Match
	// expressions. Defaults to "match". The executor side is expected to
	// provide it (e.g. as a DuckDB macro over its FTS index).
	MatchFunction string
}

// SQLEncoder renders expression trees to SQL (DuckDB dialect).
type SQLEncoder struct {
	opts *EncoderOptions
}

// NewSQLEncoder creates a new SQL encoder.
// If opts is nil, default options are used.
func NewSQLEncoder(opts *EncoderOptions) *SQLEncoder {
	if opts == nil {
		opts = &EncoderOptions{}
	}
	return &SQLEncoder{opts: opts}
}

// Encode converts an expression to a SQL condition.
// A nil or True expression encodes to "TRUE".
func (e *SQLEncoder) Encode(expr Expression) string {
	if expr == nil {
		return "TRUE"
	}

	switch ex := expr.(type) {
	case *True:
		return "TRUE"
	case *Conjunction:
		return e.encodeConjunction(ex)
	case *Not:
		return "NOT (" + e.Encode(ex.Child) + ")"
	case *Comparison:
		return e.encodeComparison(ex)
	case *Ref:
		return e.encodeRef(ex)
	case *Constant:
		return encodeValue(ex.Value)
	case *Call:
		return e.encodeCall(ex)
	case *Match:
		return e.encodeMatch(ex)
	default:
		return "TRUE"
	}
}

// EncodeOrder renders an ordering list to an ORDER BY body.
// Returns empty string for an empty list.
func (e *SQLEncoder) EncodeOrder(order []schema.OrderClause) string {
	parts := make([]string, 0, len(order))
	for _, c := range order {
		col := e.column(c.Field)
		switch c.Direction {
		case schema.Desc:
			parts = append(parts, col+" DESC")
		case schema.AscNullsFirst:
			parts = append(parts, col+" ASC NULLS FIRST")
		case schema.DescNullsLast:
			parts = append(parts, col+" DESC NULLS LAST")
		default:
			parts = append(parts, col+" ASC")
		}
	}
	return strings.Join(parts, ", ")
}

// EncodeWindow renders LIMIT/OFFSET. Zero limit means no limit clause;
// zero offset means no offset clause.
func (e *SQLEncoder) EncodeWindow(limit, offset int) string {
	var parts []string
	if limit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(limit))
	}
	if offset > 0 {
		parts = append(parts, "OFFSET "+strconv.Itoa(offset))
	}
	return strings.Join(parts, " ")
}

func (e *SQLEncoder) encodeConjunction(c *Conjunction) string {
	if len(c.Children) == 0 {
		return "TRUE"
	}
	parts := make([]string, 0, len(c.Children))
	for _, child := range c.Children {
		parts = append(parts, e.Encode(child))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	join := ") AND ("
	if c.Op == ConjunctionOr {
		join = ") OR ("
	}
	return "(" + strings.Join(parts, join) + ")"
}

func (e *SQLEncoder) encodeComparison(c *Comparison) string {
	left := e.Encode(c.Left)

	switch c.Op {
	case schema.OpEqual:
		if isNullConstant(c.Right) {
			return left + " IS NULL"
		}
		return left + " = " + e.Encode(c.Right)
	case schema.OpNotEqual:
		if isNullConstant(c.Right) {
			return left + " IS NOT NULL"
		}
		return left + " <> " + e.Encode(c.Right)
	case schema.OpGreaterThan:
		return left + " > " + e.Encode(c.Right)
	case schema.OpGreaterThanOrEqual:
		return left + " >= " + e.Encode(c.Right)
	case schema.OpLessThan:
		return left + " < " + e.Encode(c.Right)
	case schema.OpLessThanOrEqual:
		return left + " <= " + e.Encode(c.Right)
	case schema.OpIn:
		return e.encodeIn(left, c.Right, false)
	case schema.OpNotIn:
		return e.encodeIn(left, c.Right, true)
	case schema.OpLike:
		return left + " LIKE " + encodePattern(c.Right)
	case schema.OpILike:
		return left + " ILIKE " + encodePattern(c.Right)
	case schema.OpContains:
		return "list_contains(" + left + ", " + e.Encode(c.Right) + ")"
	case schema.OpEmpty, schema.OpIsNil:
		if boolValue(c.Right) {
			return left + " IS NULL"
		}
		return left + " IS NOT NULL"
	case schema.OpNotEmpty, schema.OpIsNotNil:
		if boolValue(c.Right) {
			return left + " IS NOT NULL"
		}
		return left + " IS NULL"
	default:
		return "TRUE"
	}
}

func (e *SQLEncoder) encodeIn(left string, right Expression, negated bool) string {
	values := listValues(right)
	if len(values) == 0 {
		// IN over the empty set matches nothing.
		if negated {
			return "TRUE"
		}
		return "FALSE"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, encodeValue(v))
	}
	op := " IN ("
	if negated {
		op = " NOT IN ("
	}
	return left + op + strings.Join(parts, ", ") + ")"
}

func (e *SQLEncoder) encodeRef(r *Ref) string {
	if sqlExpr, ok := e.opts.ColumnExpressions[r.Name]; ok && len(r.Path) == 0 {
		return sqlExpr
	}
	parts := make([]string, 0, len(r.Path)+1)
	for _, segment := range r.Path {
		parts = append(parts, QuoteIdentifier(segment))
	}
	parts = append(parts, e.column(r.Name))
	return strings.Join(parts, ".")
}

func (e *SQLEncoder) encodeCall(c *Call) string {
	args := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, e.Encode(a))
	}
	return c.Function + "(" + strings.Join(args, ", ") + ")"
}

func (e *SQLEncoder) encodeMatch(m *Match) string {
	fn := e.opts.MatchFunction
	if fn == "" {
		fn = "match"
	}
	parts := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		parts = append(parts, fn+"("+e.column(f)+", "+quoteLiteral(m.Query)+")")
	}
	if len(parts) == 0 {
		return "FALSE"
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// column resolves a field name through the encoder's column mapping.
func (e *SQLEncoder) column(field string) string {
	if sqlExpr, ok := e.opts.ColumnExpressions[field]; ok {
		return sqlExpr
	}
	if mapped, ok := e.opts.ColumnMapping[field]; ok {
		field = mapped
	}
	return QuoteIdentifier(field)
}

func isNullConstant(ex Expression) bool {
	c, ok := ex.(*Constant)
	return ok && c.Value == nil
}

func boolValue(ex Expression) bool {
	c, ok := ex.(*Constant)
	if !ok {
		return true
	}
	switch v := c.Value.(type) {
	case bool:
		return v
	case string:
		return v != "false"
	case nil:
		return true
	}
	return true
}

func listValues(ex Expression) []any {
	c, ok := ex.(*Constant)
	if !ok {
		return nil
	}
	switch v := c.Value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}

// encodePattern renders a LIKE/ILIKE pattern with wildcards around the
// escaped value (substring match).
func encodePattern(ex Expression) string {
	c, ok := ex.(*Constant)
	if !ok {
		return "'%%'"
	}
	s := fmt.Sprintf("%v", c.Value)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return quoteLiteral("%"+s+"%") + ` ESCAPE '\'`
}

// encodeValue renders a Go value as a SQL literal.
func encodeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return quoteLiteral(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return "TIMESTAMP " + quoteLiteral(val.UTC().Format("2006-01-02 15:04:05.999999"))
	default:
		return quoteLiteral(fmt.Sprintf("%v", val))
	}
}

// quoteLiteral renders a single-quoted SQL string literal, doubling any
// embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// reservedWords holds the keywords this encoder can collide with: the
// clauses and literals it emits itself plus the DML/DDL verbs an executor
// wraps around its output. Field names matching one are always quoted.
var reservedWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"select", "from", "where", "and", "or", "not", "null", "true", "false",
		"in", "is", "like", "ilike", "between", "exists", "case", "when",
		"then", "else", "end", "order", "by", "group", "having", "limit",
		"offset", "asc", "desc", "nulls", "first", "last", "as", "on", "all",
		"distinct", "cast", "date", "time", "timestamp", "interval",
		"insert", "update", "delete", "table", "values", "set", "default",
	} {
		reservedWords[w] = struct{}{}
	}
}

// QuoteIdentifier renders name as a DuckDB identifier, double-quoting it
// when it is not a plain lower-risk identifier (leading letter or
// underscore, word characters throughout, not a reserved word).
func QuoteIdentifier(name string) string {
	if plainIdentifier(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func plainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	_, reserved := reservedWords[strings.ToLower(name)]
	return !reserved
}
