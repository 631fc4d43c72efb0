// Package options implements layered option resolution for query validation
// and compilation.
//
// Options are resolved from four ordered sources, highest precedence first:
//
//  1. Call-site options passed to the entry point
//  2. Resource-level static configuration
//  3. Global (process-wide) configuration
//  4. Compiled-in library defaults
//
// Resolution is a pure fold over the layers: no layer is ever written to,
// so a Layers value can be shared across concurrent validation calls.
// Structured values (maps) present in more than one layer are merged
// recursively, with the higher-precedence layer winning per leaf key.
package options

import (
	"fmt"
	"log/slog"

	"dario.cat/mergo"
)

// Option keys understood by the library.
const (
	KeyDefaultLimit      = "default_limit"
	KeyMaxLimit          = "max_limit"
	KeySearchPrefix      = "search_prefix"
	KeySearchNegation    = "search_negation"
	KeySearchAnyWord     = "search_any_word"
	KeyRemoveEmptyGroups = "remove_empty_groups"
	KeyResetOnChange     = "reset_on_change"
	KeyNillifyBlanks     = "nillify_blanks"
	KeyScopes            = "scopes"
	KeyLogger            = "logger"
)

// defaults holds the compiled-in lowest-precedence layer.
var defaults = map[string]any{
	KeyDefaultLimit:      50,
	KeyMaxLimit:          1000,
	KeySearchPrefix:      false,
	KeySearchNegation:    true,
	KeySearchAnyWord:     false,
	KeyRemoveEmptyGroups: false,
	KeyResetOnChange:     true,
	KeyNillifyBlanks:     true,
}

// Default returns the compiled-in default value for key, or nil if the key
// has none.
func Default(key string) any {
	return defaults[key]
}

// UnknownOptionError indicates a requested key is absent from every layer
// and has no compiled-in default.
type UnknownOptionError struct {
	Key string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("options: unknown option %q", e.Key)
}

// Layers is an immutable set of option sources for one validation or
// compilation call. The zero value is valid and resolves everything to the
// compiled-in defaults.
type Layers struct {
	// Call contains call-site options (highest precedence).
	Call map[string]any

	// Resource contains resource-level static configuration.
	Resource map[string]any

	// Global contains process-wide configuration. Read-only: many calls may
	// share the same map concurrently.
	Global map[string]any

	// compiled caches a derived value (the compiled scope catalogue) for the
	// duration of one call, so nested lookups do not recompute it.
	compiled any
}

// ordered returns the layers lowest precedence first, for merge folding.
func (l Layers) ordered() []map[string]any {
	return []map[string]any{defaults, l.Global, l.Resource, l.Call}
}

// Resolve looks up key across all layers. Scalar values from a higher layer
// win outright; map values are merged recursively with higher layers winning
// per leaf key. Returns UnknownOptionError if the key is absent everywhere.
func (l Layers) Resolve(key string) (any, error) {
	var (
		found  bool
		result any
	)
	for _, layer := range l.ordered() {
		v, ok := layer[key]
		if !ok {
			continue
		}
		m, isMap := v.(map[string]any)
		prev, prevIsMap := result.(map[string]any)
		if found && isMap && prevIsMap {
			merged := map[string]any{}
			if err := mergo.Merge(&merged, prev, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("options: merging %q: %w", key, err)
			}
			if err := mergo.Merge(&merged, m, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("options: merging %q: %w", key, err)
			}
			result = merged
		} else {
			result = v
		}
		found = true
	}
	if !found {
		return nil, &UnknownOptionError{Key: key}
	}
	return result, nil
}

// Int resolves key as an int. Returns the resolution error unchanged, or an
// error if the resolved value has a different type.
func (l Layers) Int(key string) (int, error) {
	v, err := l.Resolve(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("options: %q is %T, want int", key, v)
	}
	return n, nil
}

// Bool resolves key as a bool.
func (l Layers) Bool(key string) (bool, error) {
	v, err := l.Resolve(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("options: %q is %T, want bool", key, v)
	}
	return b, nil
}

// String resolves key as a string.
func (l Layers) String(key string) (string, error) {
	v, err := l.Resolve(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("options: %q is %T, want string", key, v)
	}
	return s, nil
}

// Logger returns the configured *slog.Logger, or slog.Default() if none is
// set in any layer.
func (l Layers) Logger() *slog.Logger {
	v, err := l.Resolve(KeyLogger)
	if err != nil {
		return slog.Default()
	}
	logger, ok := v.(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// WithCompiled returns a copy of l carrying a derived value (such as a
// compiled scope catalogue). The copy is used for nested calls so the value
// is computed at most once per top-level call.
func (l Layers) WithCompiled(v any) Layers {
	l.compiled = v
	return l
}

// Compiled returns the value stored by WithCompiled, if any.
func (l Layers) Compiled() (any, bool) {
	return l.compiled, l.compiled != nil
}
