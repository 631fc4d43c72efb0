// Package queryspec validates untrusted query parameters and compiles them
// into executable filter, sort, and pagination clauses.
//
// The queryspec package turns a string-keyed parameter map (a URL query
// string, a stored session, a UI form) into a validated Specification by:
//   - Resolving options across four layered sources (call site, resource,
//     global, compiled-in defaults)
//   - Validating search, scopes, filter tree, ad-hoc filters, order-by, and
//     pagination, collecting every error instead of stopping at the first
//   - Repairing invalid values with resolved defaults under the
//     ReplaceWithDefaults policy
//   - Compiling the specification into a boolean filter expression, a sort
//     list, and a pagination window for a query executor
//   - Serializing the compiled state back into the parameter shape, omitting
//     defaults, for persistence and URL round-tripping
//
// # Quick Start
//
// Validate and compile a request against a resource:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/apache/arrow-go/v18/arrow"
//
//	    "github.com/hugr-lab/queryspec-go"
//	    "github.com/hugr-lab/queryspec-go/options"
//	    "github.com/hugr-lab/queryspec-go/schema"
//	)
//
//	func main() {
//	    posts, err := schema.NewResourceBuilder("posts").
//	        Field(schema.FieldDef{Name: "title", Type: arrow.BinaryTypes.String,
//	            Filterable: true, Sortable: true}).
//	        Field(schema.FieldDef{Name: "rating", Type: arrow.PrimitiveTypes.Int64,
//	            Filterable: true, Sortable: true}).
//	        Build()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    spec, err := queryspec.Validate(posts, map[string]any{
//	        "filters":  map[string]any{"rating": map[string]any{"gte": 4}},
//	        "order_by": "-rating,title",
//	        "limit":    "25",
//	    }, queryspec.ReplaceWithDefaults, options.Layers{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    clauses, err := queryspec.Compile(posts, spec, options.Layers{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(clauses.Window.Limit) // 25
//	}
//
// The compiled Clauses hand off to any executor; the duckdb subpackage runs
// them against a DuckDB database through database/sql, rendering the filter
// with the expr package's SQL encoder.
//
// # Packages
//
//   - schema: resource introspection (fields, operators, scopes, ordering)
//   - filtertree: the incrementally edited group/predicate filter tree
//   - filtermap: ad-hoc filter maps, normalization, and deep merge
//   - expr: the boolean expression tree and its DuckDB SQL encoder
//   - search: full-text query compilation from raw search text
//   - options: layered option resolution
//   - snapshot: compact binary persistence of specifications
//   - duckdb: executing compiled clauses against DuckDB
package queryspec
