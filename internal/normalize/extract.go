// Package normalize turns loosely structured AI output into fully populated
// PlantIdentification and PlantHealth records.
//
// Every target field is described by a Field: an ordered list of source paths
// the model might have used, a coercion, and a default. Resolution takes the
// first path whose value coerces, otherwise the default. A handful of fields
// then get semantic treatment (keyword classification into enums, confidence
// scaling, taxonomy back-fill) and cross-field reconciliation.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"plantkeeper/internal/logging"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the first JSON object out of free-form model output.
// Code fences and surrounding prose are ignored. When no object can be parsed,
// even after cleanup, it returns an empty object so normalization still yields
// a complete, clearly-defaulted record.
func ExtractJSON(text string) map[string]interface{} {
	candidate := sliceObject(stripFences(text))
	if candidate == "" {
		logging.NormalizeWarn("no JSON object found in model output (%d bytes)", len(text))
		return map[string]interface{}{}
	}

	if obj, ok := decodeObject(candidate); ok {
		return obj
	}

	cleaned := cleanupJSON(candidate)
	if obj, ok := decodeObject(cleaned); ok {
		logging.NormalizeDebug("model output parsed after cleanup")
		return obj
	}

	logging.NormalizeWarn("model output is not parseable JSON, using empty payload")
	return map[string]interface{}{}
}

func decodeObject(s string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// stripFences removes markdown code fences such as ```json ... ```.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "```") {
		return text
	}
	start := strings.Index(text, "```")
	body := text[start+3:]
	// Drop the info string ("json", "JSON", ...) on the opening fence line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// sliceObject returns the first brace-balanced {...} span, honoring strings
// and escapes. An unbalanced object is cut at the last closing brace.
func sliceObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	if end := strings.LastIndexByte(text, '}'); end > start {
		return text[start : end+1]
	}
	return ""
}

// cleanupJSON fixes the usual model mistakes: raw line breaks inside strings,
// runs of whitespace, and trailing commas before a closing bracket.
func cleanupJSON(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = trailingComma.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

var envelopeKeys = []string{"result", "data", "plant", "identification", "analysis", "healthAnalysis", "health", "response"}

// unwrap flattens a wrapper object ({"result": {...}}) into the top level.
// The wrapper is used when the top level carries none of the expected keys or
// the wrapper itself carries one. Sibling fields beside the wrapper are kept;
// the wrapper's fields win on conflict.
func unwrap(raw map[string]interface{}, expected []string) map[string]interface{} {
	outerHasKeys := hasAnyKey(raw, expected)
	for _, k := range envelopeKeys {
		inner, ok := raw[k].(map[string]interface{})
		if !ok || (outerHasKeys && !hasAnyKey(inner, expected)) {
			continue
		}
		logging.NormalizeDebug("unwrapping %q envelope", k)
		merged := make(map[string]interface{}, len(raw)+len(inner))
		for key, v := range raw {
			if key != k {
				merged[key] = v
			}
		}
		for key, v := range inner {
			merged[key] = v
		}
		return merged
	}
	return raw
}

func hasAnyKey(m map[string]interface{}, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
