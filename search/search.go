// Package search compiles raw, untrusted search text into a tsquery-style
// full-text expression string.
//
// Compilation is total: malformed or adversarial input degrades to fewer or
// zero terms, never to an error. Characters that would break query syntax
// (quotes, backslashes, colons, combinators) are replaced with spaces before
// the term is used.
package search

import "strings"

// Options controls how raw search text is compiled.
type Options struct {
	// Prefix appends a prefix-match marker to every term, so "fli" matches
	// "flight".
	Prefix bool

	// Negation treats a leading "!" on a term as negation.
	Negation bool

	// AnyWord joins terms with OR instead of AND.
	AnyWord bool
}

// disallowed is the character class stripped from every term. Any of these
// would change the meaning of the compiled query.
const disallowed = "'\"\\:|&" + "‘’“”"

// Compile turns raw search text into a query expression string. Empty or
// blank input compiles to the empty query.
func Compile(raw string, opts Options) string {
	terms := strings.Fields(raw)
	if len(terms) == 0 {
		return ""
	}

	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		negated := false
		if opts.Negation && strings.HasPrefix(term, "!") {
			negated = true
			term = strings.TrimPrefix(term, "!")
		}

		term = sanitize(term)
		if term == "" {
			continue
		}

		if opts.Prefix {
			term += ":*"
		}
		if negated {
			term = "!(" + term + ")"
		}
		parts = append(parts, term)
	}

	join := " & "
	if opts.AnyWord {
		join = " | "
	}
	return strings.Join(parts, join)
}

// sanitize replaces disallowed characters with spaces and collapses the
// remaining whitespace. Returns "" if nothing survives.
func sanitize(term string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(disallowed, r) {
			return ' '
		}
		return r
	}, term)
	return strings.Join(strings.Fields(cleaned), " ")
}
