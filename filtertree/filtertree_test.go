package filtertree

import (
	"errors"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/queryspec-go/expr"
	"github.com/hugr-lab/queryspec-go/schema"
)

func testResource(t *testing.T) schema.Resource {
	t.Helper()

	authors, err := schema.NewResourceBuilder("authors").
		Field(schema.FieldDef{Name: "name", Type: arrow.BinaryTypes.String, Filterable: true}).
		Build()
	if err != nil {
		t.Fatalf("building authors: %v", err)
	}

	posts, err := schema.NewResourceBuilder("posts").
		Field(schema.FieldDef{Name: "name", Type: arrow.BinaryTypes.String, Filterable: true}).
		Field(schema.FieldDef{Name: "age", Type: arrow.PrimitiveTypes.Int64, Filterable: true}).
		Field(schema.FieldDef{Name: "word_count", Type: arrow.PrimitiveTypes.Int64, Filterable: true,
			Calc: &schema.CalculatedField{Function: "word_count", Args: []string{"lang"}}}).
		Relationship("author", authors).
		Build()
	if err != nil {
		t.Fatalf("building posts: %v", err)
	}
	return posts
}

func TestNewFromRawParams(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"operator": "or",
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": "Post 1"},
			"1": map[string]any{
				"operator": "and",
				"components": map[string]any{
					"0": map[string]any{"field": "age", "operator": "gt", "value": 5},
				},
			},
		},
	}, Options{})

	if tree.Root.Operator != CombinatorOr {
		t.Errorf("expected or root, got %q", tree.Root.Operator)
	}
	if len(tree.Root.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(tree.Root.Components))
	}
	p, ok := tree.Root.Components[0].(*Predicate)
	if !ok {
		t.Fatalf("expected predicate first, got %T", tree.Root.Components[0])
	}
	if p.ID == "" {
		t.Error("expected generated id on predicate")
	}
	if _, ok := tree.Root.Components[1].(*Group); !ok {
		t.Fatalf("expected group second, got %T", tree.Root.Components[1])
	}
	if !tree.Valid() {
		t.Errorf("expected valid tree, errors: %v", tree.Errors())
	}
}

func TestNewCoercesListComponents(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"components": []any{
			map[string]any{"field": "name", "operator": "eq", "value": "a"},
			map[string]any{"field": "age", "operator": "lt", "value": 10},
		},
	}, Options{})

	if len(tree.Root.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(tree.Root.Components))
	}
	second := tree.Root.Components[1].(*Predicate)
	if second.Field != "age" {
		t.Errorf("expected list order preserved, got %q", second.Field)
	}
}

func TestValidityPropagation(t *testing.T) {
	r := testResource(t)

	empty := New(r, nil, Options{})
	if !empty.Valid() {
		t.Error("expected empty tree to be valid")
	}

	tree := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": "ok"},
			"1": map[string]any{
				"components": map[string]any{
					"0": map[string]any{"field": "missing", "operator": "eq", "value": "x"},
				},
			},
		},
	}, Options{})

	if tree.Valid() {
		t.Fatal("expected tree with unknown field to be invalid")
	}
	// The inner group inherits invalidity, the valid sibling does not.
	inner := tree.Root.Components[1].(*Group)
	if inner.Valid() {
		t.Error("expected inner group to be invalid")
	}
	if !tree.Root.Components[0].Valid() {
		t.Error("expected valid predicate to stay valid")
	}

	errMap := tree.Errors()
	if len(errMap) != 1 {
		t.Fatalf("expected 1 errored component, got %d", len(errMap))
	}
	for _, errs := range errMap {
		var nsf *schema.NoSuchFieldError
		if !errors.As(errs[0], &nsf) {
			t.Errorf("expected NoSuchFieldError, got %v", errs[0])
		}
	}
}

func TestPredicateErrorKinds(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"field": "age", "operator": "like", "value": "x"},
			"1": map[string]any{"field": "name", "operator": "eq", "value": "x", "path": "nowhere"},
		},
	}, Options{})

	bad := tree.Root.Components[0].(*Predicate)
	var nso *schema.NoSuchOperatorError
	if len(bad.Errors) != 1 || !errors.As(bad.Errors[0], &nso) {
		t.Errorf("expected NoSuchOperatorError for like on int, got %v", bad.Errors)
	}

	pathless := tree.Root.Components[1].(*Predicate)
	var ipe *schema.InvalidPathError
	found := false
	for _, err := range pathless.Errors {
		if errors.As(err, &ipe) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected InvalidPathError, got %v", pathless.Errors)
	}
}

func TestAddRemove(t *testing.T) {
	r := testResource(t)

	tree := New(r, nil, Options{})
	tree2 := tree.AddPredicate("name", "eq", "Post 1", "")
	if len(tree.Root.Components) != 0 {
		t.Error("AddPredicate must not mutate the receiver")
	}
	if len(tree2.Root.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(tree2.Root.Components))
	}

	tree3 := tree2.AddGroup(CombinatorOr, "g1", "")
	tree4 := tree3.AddPredicate("age", "gt", 5, "g1")
	g := tree4.Find("g1").(*Group)
	if len(g.Components) != 1 {
		t.Fatalf("expected predicate inside g1, got %d components", len(g.Components))
	}
	inner := g.Components[0].(*Predicate)

	tree5 := tree4.Remove(inner.ID)
	if tree5.Find(inner.ID) != nil {
		t.Error("expected predicate removed")
	}
	// Without RemoveEmptyGroups the emptied group survives.
	if tree5.Find("g1") == nil {
		t.Error("expected empty group to survive")
	}
}

func TestRemoveEmptyGroupsCascade(t *testing.T) {
	r := testResource(t)

	tree := New(r, nil, Options{RemoveEmptyGroups: true}).
		AddGroup(CombinatorAnd, "outer", "").
		AddGroup(CombinatorOr, "inner", "outer").
		AddPredicate("name", "eq", "x", "inner")

	inner := tree.Find("inner").(*Group)
	p := inner.Components[0]

	pruned := tree.Remove(p.ComponentID())
	if pruned.Find("inner") != nil {
		t.Error("expected inner group pruned")
	}
	if pruned.Find("outer") != nil {
		t.Error("expected prune to cascade to outer group")
	}
	if pruned.Root == nil {
		t.Error("root must never be pruned")
	}
}

func TestUpdatePredicateAndGroup(t *testing.T) {
	r := testResource(t)

	tree := New(r, nil, Options{}).AddPredicate("name", "eq", "x", "")
	p := tree.Root.Components[0].(*Predicate)

	updated := tree.UpdatePredicate(p.ID, func(pred *Predicate) {
		pred.Value = "y"
		pred.Negated = true
	})
	got := updated.Find(p.ID).(*Predicate)
	if got.Value != "y" || !got.Negated {
		t.Errorf("unexpected predicate after update: %+v", got)
	}
	if orig := tree.Find(p.ID).(*Predicate); orig.Value != "x" {
		t.Error("update must not mutate the receiver")
	}

	// Bulk update by key.
	keyed := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"key": "dates", "components": map[string]any{}},
			"1": map[string]any{"key": "dates", "components": map[string]any{}},
		},
	}, Options{})
	negated := keyed.UpdateGroup("dates", func(g *Group) { g.Negated = true })
	count := 0
	walk(negated.Root, func(n Node) {
		if g, ok := n.(*Group); ok && g.Negated {
			count++
		}
	})
	if count != 2 {
		t.Errorf("expected 2 groups updated by key, got %d", count)
	}
}

func TestValidateResetsOnFieldChange(t *testing.T) {
	r := testResource(t)

	tree := New(r, nil, Options{}).AddPredicate("name", "eq", "x", "")
	p := tree.Root.Components[0].(*Predicate)

	incoming := map[string]any{
		"id":       tree.Root.ID,
		"operator": "and",
		"components": map[string]any{
			"0": map[string]any{"id": p.ID, "field": "age", "operator": "eq", "value": "x"},
		},
	}

	next := tree.Validate(incoming)
	np := next.Find(p.ID).(*Predicate)
	if np.Operator != "" || np.Value != nil {
		t.Errorf("expected operator/value reset on field change, got %q %v", np.Operator, np.Value)
	}

	keep := New(r, nil, Options{KeepValueOnFieldChange: true}).AddPredicate("name", "eq", "x", "")
	kp := keep.Root.Components[0].(*Predicate)
	incoming["components"].(map[string]any)["0"].(map[string]any)["id"] = kp.ID
	kept := keep.Validate(incoming)
	knp := kept.Find(kp.ID).(*Predicate)
	if knp.Operator != "eq" || knp.Value != "x" {
		t.Errorf("expected operator/value preserved, got %q %v", knp.Operator, knp.Value)
	}
}

func TestToFilterMap(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"operator": "or",
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": "a"},
			"1": map[string]any{"field": "age", "operator": "gt", "value": 5, "negated": true},
		},
	}, Options{})

	m, err := tree.ToFilterMap()
	if err != nil {
		t.Fatalf("ToFilterMap failed: %v", err)
	}
	expected := map[string]any{"or": []any{
		map[string]any{"name": map[string]any{"eq": "a"}},
		map[string]any{"not": map[string]any{"age": map[string]any{"gt": 5}}},
	}}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("expected %v, got %v", expected, m)
	}

	// Path nesting.
	pathTree := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": "John", "path": "author"},
		},
	}, Options{})
	m, err = pathTree.ToFilterMap()
	if err != nil {
		t.Fatalf("ToFilterMap failed: %v", err)
	}
	expected = map[string]any{"and": []any{
		map[string]any{"author": map[string]any{"name": map[string]any{"eq": "John"}}},
	}}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("expected %v, got %v", expected, m)
	}

	// Empty tree compiles to the empty map.
	m, err = New(r, nil, Options{}).ToFilterMap()
	if err != nil || len(m) != 0 {
		t.Errorf("expected empty map for empty tree, got %v, %v", m, err)
	}

	// Invalid trees refuse to compile.
	bad := New(r, nil, Options{}).AddPredicate("missing", "eq", "x", "")
	if _, err := bad.ToFilterMap(); err == nil {
		t.Error("expected error for invalid tree")
	} else {
		var te *TreeError
		if !errors.As(err, &te) {
			t.Errorf("expected TreeError, got %T", err)
		}
	}
}

func TestToExpression(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"negated": true,
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": "a"},
		},
	}, Options{})

	e, err := tree.ToExpression()
	if err != nil {
		t.Fatalf("ToExpression failed: %v", err)
	}
	not, ok := e.(*expr.Not)
	if !ok {
		t.Fatalf("expected Not at root, got %T", e)
	}
	if _, ok := not.Child.(*expr.Comparison); !ok {
		t.Fatalf("expected comparison child, got %T", not.Child)
	}

	// Empty tree is True.
	e, err = New(r, nil, Options{}).ToExpression()
	if err != nil {
		t.Fatalf("ToExpression failed: %v", err)
	}
	if _, ok := e.(*expr.True); !ok {
		t.Errorf("expected True for empty tree, got %T", e)
	}
}

func TestToExpressionCalculatedField(t *testing.T) {
	r := testResource(t)

	tree := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{
				"field": "word_count", "operator": "gt", "value": 100,
				"arguments": map[string]any{"lang": "en"},
			},
		},
	}, Options{})

	e, err := tree.ToExpression()
	if err != nil {
		t.Fatalf("ToExpression failed: %v", err)
	}
	cmp := e.(*expr.Comparison)
	call, ok := cmp.Left.(*expr.Call)
	if !ok {
		t.Fatalf("expected Call subject, got %T", cmp.Left)
	}
	if call.Function != "word_count" || len(call.Args) != 1 {
		t.Errorf("unexpected call: %+v", call)
	}
	if call.Args[0].(*expr.Constant).Value != "en" {
		t.Errorf("unexpected call argument: %v", call.Args[0])
	}
}

func TestParamsForQueryBlanks(t *testing.T) {
	r := testResource(t)

	blank := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "eq", "value": ""},
		},
	}, Options{})

	if got := blank.ParamsForQuery(ParamsOptions{}); len(got) != 0 {
		t.Errorf("expected blank predicate dropped, got %v", got)
	}

	full := blank.ParamsForQuery(ParamsOptions{KeepBlanks: true})
	components, ok := full["components"].(map[string]any)
	if !ok || len(components) != 1 {
		t.Fatalf("expected full structure with KeepBlanks, got %v", full)
	}
	pm := components["0"].(map[string]any)
	if pm["field"] != "name" || pm["operator"] != "eq" {
		t.Errorf("unexpected predicate params: %v", pm)
	}

	// Null tests keep their (blank) value.
	nullTest := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"field": "name", "operator": "is_nil", "value": true},
			"1": map[string]any{"field": "name", "operator": "empty", "value": nil},
		},
	}, Options{})
	got := nullTest.ParamsForQuery(ParamsOptions{})
	components = got["components"].(map[string]any)
	if len(components) != 2 {
		t.Errorf("expected null tests kept, got %v", got)
	}
}

func TestNewBarePredicateRoot(t *testing.T) {
	r := testResource(t)

	// The wire shape allows a lone predicate map as the root.
	tree := New(r, map[string]any{"field": "name", "operator": "eq", "value": ""}, Options{})
	if len(tree.Root.Components) != 1 {
		t.Fatalf("expected one root component, got %d", len(tree.Root.Components))
	}
	p, ok := tree.Root.Components[0].(*Predicate)
	if !ok || p.Field != "name" || p.Operator != "eq" {
		t.Fatalf("expected the predicate preserved, got %#v", tree.Root.Components[0])
	}

	// Blank value: dropped by default, the full predicate map with KeepBlanks.
	if got := tree.ParamsForQuery(ParamsOptions{}); len(got) != 0 {
		t.Errorf("expected empty params for blank predicate, got %v", got)
	}
	full := tree.ParamsForQuery(ParamsOptions{KeepBlanks: true})
	if full["field"] != "name" || full["operator"] != "eq" || full["value"] != "" {
		t.Errorf("expected the predicate map back, got %v", full)
	}
	if _, ok := full["components"]; ok {
		t.Errorf("expected no group wrapper in params, got %v", full)
	}

	// A non-blank predicate root compiles like a single-child group.
	tree = New(r, map[string]any{"field": "name", "operator": "eq", "value": "x"}, Options{})
	m, err := tree.ToFilterMap()
	if err != nil {
		t.Fatalf("ToFilterMap failed: %v", err)
	}
	expected := map[string]any{"and": []any{map[string]any{"name": map[string]any{"eq": "x"}}}}
	if !reflect.DeepEqual(m, expected) {
		t.Errorf("expected %v, got %v", expected, m)
	}
}

func TestParamsForQueryRoundTrip(t *testing.T) {
	r := testResource(t)

	tree := New(r, nil, Options{}).
		AddPredicate("name", "eq", "Post 1", "").
		AddGroup(CombinatorOr, "g1", "").
		AddPredicate("age", "gt", 5, "g1")

	params := tree.ParamsForQuery(ParamsOptions{})
	back := New(r, params, Options{})

	m1, err := tree.ToFilterMap()
	if err != nil {
		t.Fatalf("ToFilterMap failed: %v", err)
	}
	m2, err := back.ToFilterMap()
	if err != nil {
		t.Fatalf("ToFilterMap after round trip failed: %v", err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("round trip changed the tree: %v vs %v", m1, m2)
	}
}

func TestInitialTreeMerge(t *testing.T) {
	r := testResource(t)

	initial := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"id": "p0", "field": "name", "operator": "eq", "value": "old"},
		},
	}, Options{})

	merged := New(r, map[string]any{
		"components": map[string]any{
			"0": map[string]any{"id": "p0", "value": "new"},
		},
	}, Options{InitialTree: initial})

	p := merged.Find("p0").(*Predicate)
	if p.Value != "new" {
		t.Errorf("expected incoming value to win, got %v", p.Value)
	}
	if p.Field != "name" || p.Operator != "eq" {
		t.Errorf("expected initial field/operator preserved, got %q %q", p.Field, p.Operator)
	}
}
