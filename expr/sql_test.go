package expr

import (
	"testing"
	"time"

	"github.com/hugr-lab/queryspec-go/schema"
)

func ref(name string) *Ref     { return &Ref{Name: name} }
func constant(v any) *Constant { return &Constant{Value: v} }

func cmp(name string, op schema.Operator, v any) *Comparison {
	return &Comparison{Op: op, Left: ref(name), Right: constant(v)}
}

func TestEncodeComparisons(t *testing.T) {
	enc := NewSQLEncoder(nil)

	tests := []struct {
		name     string
		expr     Expression
		expected string
	}{
		{"eq string", cmp("name", schema.OpEqual, "Post 1"), "name = 'Post 1'"},
		{"eq escaped", cmp("name", schema.OpEqual, "it's"), "name = 'it''s'"},
		{"eq null", cmp("name", schema.OpEqual, nil), "name IS NULL"},
		{"neq", cmp("age", schema.OpNotEqual, 5), "age <> 5"},
		{"neq null", cmp("age", schema.OpNotEqual, nil), "age IS NOT NULL"},
		{"gt", cmp("age", schema.OpGreaterThan, 25), "age > 25"},
		{"gte float", cmp("score", schema.OpGreaterThanOrEqual, 1.5), "score >= 1.5"},
		{"lt", cmp("age", schema.OpLessThan, int64(10)), "age < 10"},
		{"lte", cmp("age", schema.OpLessThanOrEqual, 10), "age <= 10"},
		{"bool", cmp("active", schema.OpEqual, true), "active = TRUE"},
		{"in", cmp("status", schema.OpIn, []any{"a", "b"}), "status IN ('a', 'b')"},
		{"in scalar", cmp("status", schema.OpIn, "a"), "status IN ('a')"},
		{"in empty", cmp("status", schema.OpIn, []any{}), "FALSE"},
		{"nin", cmp("status", schema.OpNotIn, []string{"a"}), "status NOT IN ('a')"},
		{"nin empty", cmp("status", schema.OpNotIn, []any{}), "TRUE"},
		{"like", cmp("name", schema.OpLike, "foo"), `name LIKE '%foo%' ESCAPE '\'`},
		{"like wildcard escaped", cmp("name", schema.OpLike, "100%"), `name LIKE '%100\%%' ESCAPE '\'`},
		{"ilike", cmp("name", schema.OpILike, "foo"), `name ILIKE '%foo%' ESCAPE '\'`},
		{"contains", cmp("tags", schema.OpContains, "go"), "list_contains(tags, 'go')"},
		{"empty true", cmp("name", schema.OpEmpty, true), "name IS NULL"},
		{"empty false", cmp("name", schema.OpEmpty, false), "name IS NOT NULL"},
		{"not_empty", cmp("name", schema.OpNotEmpty, true), "name IS NOT NULL"},
		{"is_nil", cmp("name", schema.OpIsNil, true), "name IS NULL"},
		{"is_not_nil false", cmp("name", schema.OpIsNotNil, false), "name IS NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enc.Encode(tt.expr)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEncodeConjunctions(t *testing.T) {
	enc := NewSQLEncoder(nil)

	and := &Conjunction{Op: ConjunctionAnd, Children: []Expression{
		cmp("age", schema.OpGreaterThan, 18),
		cmp("name", schema.OpEqual, "x"),
	}}
	if got := enc.Encode(and); got != "(age > 18) AND (name = 'x')" {
		t.Errorf("unexpected AND encoding: %q", got)
	}

	or := &Conjunction{Op: ConjunctionOr, Children: []Expression{
		cmp("age", schema.OpGreaterThan, 18),
		cmp("name", schema.OpEqual, "x"),
	}}
	if got := enc.Encode(or); got != "(age > 18) OR (name = 'x')" {
		t.Errorf("unexpected OR encoding: %q", got)
	}

	not := &Not{Child: cmp("age", schema.OpGreaterThan, 18)}
	if got := enc.Encode(not); got != "NOT (age > 18)" {
		t.Errorf("unexpected NOT encoding: %q", got)
	}

	if got := enc.Encode(&True{}); got != "TRUE" {
		t.Errorf("expected TRUE, got %q", got)
	}
	if got := enc.Encode(nil); got != "TRUE" {
		t.Errorf("expected TRUE for nil, got %q", got)
	}
}

func TestNewAndSimplifies(t *testing.T) {
	if _, ok := NewAnd().(*True); !ok {
		t.Error("expected empty AND to be True")
	}

	single := cmp("a", schema.OpEqual, 1)
	if NewAnd(single) != Expression(single) {
		t.Error("expected single-child AND to collapse")
	}

	// True children are dropped under AND.
	got := NewAnd(&True{}, single, nil)
	if got != Expression(single) {
		t.Errorf("expected True/nil children to be dropped, got %T", got)
	}

	both := NewAnd(single, cmp("b", schema.OpEqual, 2))
	conj, ok := both.(*Conjunction)
	if !ok || conj.Op != ConjunctionAnd || len(conj.Children) != 2 {
		t.Errorf("unexpected conjunction: %#v", both)
	}
}

func TestEncodeRefPathAndCall(t *testing.T) {
	enc := NewSQLEncoder(nil)

	r := &Ref{Path: []string{"author_rel"}, Name: "name"}
	if got := enc.Encode(r); got != "author_rel.name" {
		t.Errorf("unexpected path ref: %q", got)
	}

	call := &Comparison{
		Op:    schema.OpEqual,
		Left:  &Call{Function: "word_count", Args: []Expression{ref("body"), constant("en")}},
		Right: constant(100),
	}
	if got := enc.Encode(call); got != "word_count(body, 'en') = 100" {
		t.Errorf("unexpected call encoding: %q", got)
	}
}

func TestEncodeMatch(t *testing.T) {
	enc := NewSQLEncoder(nil)

	m := &Match{Fields: []string{"name", "body"}, Query: "cheap & flight"}
	expected := "(match(name, 'cheap & flight') OR match(body, 'cheap & flight'))"
	if got := enc.Encode(m); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	single := &Match{Fields: []string{"name"}, Query: "x"}
	if got := enc.Encode(single); got != "match(name, 'x')" {
		t.Errorf("unexpected single-field match: %q", got)
	}

	if got := enc.Encode(&Match{Query: "x"}); got != "FALSE" {
		t.Errorf("expected FALSE for match without fields, got %q", got)
	}
}

func TestEncodeColumnMapping(t *testing.T) {
	enc := NewSQLEncoder(&EncoderOptions{
		ColumnMapping:     map[string]string{"name": "full_name"},
		ColumnExpressions: map[string]string{"age": "date_diff('year', birthday, today())"},
	})

	if got := enc.Encode(cmp("name", schema.OpEqual, "x")); got != "full_name = 'x'" {
		t.Errorf("unexpected mapped encoding: %q", got)
	}
	if got := enc.Encode(cmp("age", schema.OpGreaterThan, 18)); got != "date_diff('year', birthday, today()) > 18" {
		t.Errorf("unexpected expression encoding: %q", got)
	}
}

func TestEncodeIdentifierQuoting(t *testing.T) {
	enc := NewSQLEncoder(nil)

	tests := []struct {
		field    string
		expected string
	}{
		{"order", `"order" = 'x'`},
		{"weird name", `"weird name" = 'x'`},
		{"2fast", `"2fast" = 'x'`},
		{`a"b`, `"a""b" = 'x'`},
		{"Timestamp", `"Timestamp" = 'x'`},
		{"plain_col", "plain_col = 'x'"},
	}
	for _, tt := range tests {
		if got := enc.Encode(cmp(tt.field, schema.OpEqual, "x")); got != tt.expected {
			t.Errorf("field %q: expected %q, got %q", tt.field, tt.expected, got)
		}
	}
}

func TestEncodeOrderAndWindow(t *testing.T) {
	enc := NewSQLEncoder(nil)

	order := []schema.OrderClause{
		{Field: "name", Direction: schema.Asc},
		{Field: "age", Direction: schema.DescNullsLast},
		{Field: "score", Direction: schema.AscNullsFirst},
		{Field: "id", Direction: schema.Desc},
	}
	expected := "name ASC, age DESC NULLS LAST, score ASC NULLS FIRST, id DESC"
	if got := enc.EncodeOrder(order); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	if got := enc.EncodeOrder(nil); got != "" {
		t.Errorf("expected empty order, got %q", got)
	}

	if got := enc.EncodeWindow(10, 20); got != "LIMIT 10 OFFSET 20" {
		t.Errorf("unexpected window: %q", got)
	}
	if got := enc.EncodeWindow(10, 0); got != "LIMIT 10" {
		t.Errorf("unexpected window: %q", got)
	}
	if got := enc.EncodeWindow(0, 0); got != "" {
		t.Errorf("unexpected window: %q", got)
	}
}

func TestEncodeTimestamp(t *testing.T) {
	enc := NewSQLEncoder(nil)
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	got := enc.Encode(cmp("created_at", schema.OpGreaterThanOrEqual, ts))
	expected := "created_at >= TIMESTAMP '2026-03-01 12:30:00'"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
