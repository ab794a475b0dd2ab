package types

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// JSON VALUE EXTRACTION UTILITIES
// =============================================================================
//
// Values decoded by encoding/json into interface{} are one of:
//   - string
//   - float64 (or json.Number when the decoder uses UseNumber)
//   - bool
//   - nil
//   - []interface{}
//   - map[string]interface{}
//
// AI models return these shapes inconsistently (numbers as strings, lists as
// comma separated text, objects where lists were requested), so every helper
// here accepts the whole family and reports whether it found a usable value.

// ExtractString returns a trimmed string representation of v.
// Lists are joined with ", ". Objects and nil yield "".
func ExtractString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		parts := stringItems(x)
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(cleanStrings(x), ", ")
	default:
		return ""
	}
}

// ExtractFloat64 extracts a number from numeric values or numeric-looking strings.
// A trailing "%" and thousands separators are tolerated in strings.
func ExtractFloat64(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ExtractBool extracts a boolean from bools, yes/no style strings, or numbers.
// Returns (value, true) on success, (false, false) if the value is not boolean-like.
func ExtractBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
		return false, false
	case float64:
		return x != 0, true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	default:
		return false, false
	}
}

// ExtractStringList builds a list of non-empty trimmed strings.
// Arrays are taken element-wise, strings are split on ",", ";" or newlines,
// and objects contribute their values in key order.
func ExtractStringList(v interface{}) ([]string, bool) {
	var out []string
	switch x := v.(type) {
	case []interface{}:
		out = stringItems(x)
	case []string:
		out = cleanStrings(x)
	case string:
		out = splitDelimited(x)
	case map[string]interface{}:
		out = flattenValues(x)
	default:
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Lookup walks a dotted path ("taxonomy.genus") through nested objects.
// The value is reported as present only when it is non-nil.
func Lookup(m map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = m
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

func stringItems(items []interface{}) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case map[string]interface{}:
			out = append(out, flattenValues(x)...)
		default:
			if s := ExtractString(x); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitDelimited(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	return cleanStrings(fields)
}

func flattenValues(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		switch x := m[k].(type) {
		case map[string]interface{}:
			out = append(out, flattenValues(x)...)
		case []interface{}:
			out = append(out, stringItems(x)...)
		default:
			if s := ExtractString(x); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
