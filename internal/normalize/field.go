package normalize

import (
	"math"
	"strings"

	"plantkeeper/internal/types"
)

// Coercer converts one raw JSON value into a target type, reporting whether
// the value was usable.
type Coercer[T any] func(v interface{}) (T, bool)

// Field describes how one target field is found in model output.
type Field[T any] struct {
	Name    string
	Paths   []string // dotted paths, tried in order
	Coerce  Coercer[T]
	Default T
}

// Lookup returns the first coercible value along Paths.
func (f Field[T]) Lookup(src map[string]interface{}) (T, bool) {
	for _, p := range f.Paths {
		v, ok := types.Lookup(src, p)
		if !ok {
			continue
		}
		if out, ok := f.Coerce(v); ok {
			return out, true
		}
	}
	var zero T
	return zero, false
}

// Resolve returns the looked-up value or the default.
func (f Field[T]) Resolve(src map[string]interface{}) T {
	if v, ok := f.Lookup(src); ok {
		return v
	}
	return f.Default
}

// placeholders are values models emit in place of "I don't know".
var placeholders = map[string]bool{
	"unknown": true, "n/a": true, "na": true, "none": true, "null": true,
	"undefined": true, "not available": true, "not applicable": true, "-": true, "?": true,
}

func isPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

func asString(v interface{}) (string, bool) {
	s := types.ExtractString(v)
	if s == "" || isPlaceholder(s) {
		return "", false
	}
	return s, true
}

func asList(v interface{}) ([]string, bool) {
	items, ok := types.ExtractStringList(v)
	if !ok {
		return nil, false
	}
	out := items[:0]
	for _, s := range items {
		if !isPlaceholder(s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func asConfidence(v interface{}) (float64, bool) {
	f, ok := types.ExtractFloat64(v)
	if !ok {
		return 0, false
	}
	return NormalizeConfidence(f), true
}

// text flattens any value into lowercase prose for keyword classification.
func text(v interface{}) string {
	if s := types.ExtractString(v); s != "" {
		return strings.ToLower(s)
	}
	if items, ok := types.ExtractStringList(v); ok {
		return strings.ToLower(strings.Join(items, " "))
	}
	return ""
}

// NormalizeConfidence maps a model confidence into [0,1]. Values above 1 are
// read as percentages.
func NormalizeConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func str(name, def string, paths ...string) Field[string] {
	return Field[string]{Name: name, Paths: paths, Coerce: asString, Default: def}
}

func list(name string, paths ...string) Field[[]string] {
	return Field[[]string]{Name: name, Paths: paths, Coerce: asList, Default: []string{}}
}
