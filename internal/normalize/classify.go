package normalize

import (
	"strings"

	"plantkeeper/internal/types"
)

// rule maps any of its keywords (substring match on lowercase text) to value.
// Rules are checked in order, so more specific phrases come first.
type rule[T any] struct {
	value    T
	keywords []string
}

func classify[T ~string](raw string, rules []rule[T]) (T, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		var zero T
		return zero, false
	}
	// Canonical values pass through untouched.
	for _, r := range rules {
		if strings.EqualFold(s, string(r.value)) {
			return r.value, true
		}
	}
	for _, r := range rules {
		if containsAny(s, r.keywords) {
			return r.value, true
		}
	}
	var zero T
	return zero, false
}

// containsWord reports whether kw occurs in s starting at a word boundary, so
// "rot" matches "root rot" and "rotting" but not "protect".
func containsWord(s, kw string) bool {
	for offset := 0; offset <= len(s)-len(kw); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		i += offset
		if i == 0 || !isLetter(s[i-1]) {
			return true
		}
		offset = i + 1
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// =============================================================================
// HEALTH STATUS
// =============================================================================

var healthRules = []rule[types.HealthStatus]{
	{types.HealthNutrientDeficiency, []string{"nutrient", "deficien", "chlorosis", "nitrogen", "potassium", "phosphorus", "magnesium", "iron"}},
	{types.HealthOverwatered, []string{"overwater", "over-water", "over water", "too much water", "waterlogged", "water-logged", "soggy", "root rot", "edema", "oedema"}},
	{types.HealthUnderwatered, []string{"underwater", "under-water", "under water", "too little water", "drought", "dehydrat", "thirst", "lack of water", "dried out", "dry soil"}},
	{types.HealthPest, []string{"pest", "insect", "aphid", "mite", "mealybug", "scale", "thrip", "whitefl", "fungus gnat", "infest", "caterpillar", "larva", "slug", "snail", "beetle", "weevil"}},
	{types.HealthDiseased, []string{"disease", "fung", "blight", "mildew", "mold", "mould", "rot", "bacteri", "virus", "viral", "rust", "leaf spot", "canker", "infect", "pathogen", "sick"}},
	{types.HealthHealthy, []string{"healthy", "thriving", "good health", "good condition", "no issue", "no problem", "vigorous"}},
}

// HealthStatusFromText classifies free text or a near-miss key into a
// HealthStatus, reporting whether anything matched.
func HealthStatusFromText(raw string) (types.HealthStatus, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ").Replace(s)
	if s == "nutrient deficiency" {
		return types.HealthNutrientDeficiency, true
	}
	if strings.Contains(s, "not healthy") {
		// Negated "healthy" must not fall through to the healthy rule.
		return classify(strings.ReplaceAll(s, "not healthy", ""), healthRules[:len(healthRules)-1])
	}
	return classify(s, healthRules)
}

// NormalizeHealthStatus classifies raw, returning fallback when nothing matches.
func NormalizeHealthStatus(raw string, fallback types.HealthStatus) types.HealthStatus {
	if st, ok := HealthStatusFromText(raw); ok {
		return st
	}
	return fallback
}

// =============================================================================
// SEVERITY, STAGE, PROGNOSIS, DIFFICULTY
// =============================================================================

var severityRules = []rule[types.Severity]{
	{types.SeverityHigh, []string{"high", "severe", "critical", "serious", "extreme", "urgent", "advanced"}},
	{types.SeverityMedium, []string{"medium", "moderate", "intermediate"}},
	{types.SeverityLow, []string{"low", "mild", "minor", "slight", "minimal", "none"}},
}

// NormalizeSeverity classifies raw into low/medium/high.
func NormalizeSeverity(raw string, fallback types.Severity) types.Severity {
	if v, ok := classify(raw, severityRules); ok {
		return v
	}
	return fallback
}

// severityFromNumber reads a 0-1 or 1-10 severity score.
func severityFromNumber(f float64) types.Severity {
	// Fractions are read on a 0-1 scale; 1 itself is the bottom of 1-10.
	if f < 1 {
		f *= 10
	}
	switch {
	case f >= 7:
		return types.SeverityHigh
	case f >= 4:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

var stageRules = []rule[types.ProgressionStage]{
	{types.StageAdvanced, []string{"advanced", "late stage", "late-stage", "severe", "progressed", "extensive", "final"}},
	{types.StageModerate, []string{"moderate", "intermediate", "mid-stage", "developing", "spreading"}},
	{types.StageEarly, []string{"early", "initial", "beginning", "onset", "first signs", "mild"}},
}

// NormalizeStage classifies raw into early/moderate/advanced.
func NormalizeStage(raw string, fallback types.ProgressionStage) types.ProgressionStage {
	if v, ok := classify(raw, stageRules); ok {
		return v
	}
	return fallback
}

var prognosisRules = []rule[types.Prognosis]{
	{types.PrognosisExcellent, []string{"excellent", "full recovery", "very good", "complete recovery"}},
	{types.PrognosisPoor, []string{"poor", "grim", "bad", "unlikely", "not good", "dire", "terminal"}},
	{types.PrognosisFair, []string{"fair", "moderate", "uncertain", "guarded", "possible"}},
	{types.PrognosisGood, []string{"good", "positive", "favorable", "favourable", "likely", "promising"}},
}

// NormalizePrognosis classifies raw into excellent/good/fair/poor.
func NormalizePrognosis(raw string, fallback types.Prognosis) types.Prognosis {
	if v, ok := classify(raw, prognosisRules); ok {
		return v
	}
	return fallback
}

var difficultyRules = []rule[types.PropagationDifficulty]{
	{types.DifficultyDifficult, []string{"difficult", "challenging", "expert", "advanced", "tricky"}},
	{types.DifficultyModerate, []string{"moderate", "medium", "intermediate", "average"}},
	{types.DifficultyEasy, []string{"easy", "simple", "beginner", "straightforward"}},
}

// NormalizeDifficulty classifies raw into Easy/Moderate/Difficult.
func NormalizeDifficulty(raw string, fallback types.PropagationDifficulty) types.PropagationDifficulty {
	if v, ok := classify(raw, difficultyRules); ok {
		return v
	}
	return fallback
}

// =============================================================================
// TOXICITY / EDIBILITY
// =============================================================================

var (
	nonToxicKeywords = []string{"non-toxic", "nontoxic", "non toxic", "not toxic", "pet-safe", "pet safe", "safe for pets", "safe for cats", "safe for dogs", "harmless", "not poisonous", "non-poisonous"}
	toxicKeywords    = []string{"toxic", "poison", "harmful", "irritant", "dangerous", "fatal"}

	inedibleKeywords = []string{"inedible", "not edible", "non-edible", "nonedible", "do not eat", "should not be eaten", "not safe to eat"}
	edibleKeywords   = []string{"edible", "culinary", "eaten", "safe to eat", "food"}
)

// ClassifyToxicity reads free text; negated phrases win over "toxic".
func ClassifyToxicity(raw string, fallback bool) bool {
	s := strings.ToLower(raw)
	if containsAny(s, nonToxicKeywords) {
		return false
	}
	if containsAny(s, toxicKeywords) {
		return true
	}
	return fallback
}

// ClassifyEdibility reads free text; negated phrases win over "edible".
func ClassifyEdibility(raw string, fallback bool) bool {
	s := strings.ToLower(raw)
	if containsAny(s, inedibleKeywords) {
		return false
	}
	if containsAny(s, edibleKeywords) {
		return true
	}
	return fallback
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if containsWord(s, kw) {
			return true
		}
	}
	return false
}

// =============================================================================
// COERCERS
// =============================================================================

func asHealthStatus(v interface{}) (types.HealthStatus, bool) {
	return HealthStatusFromText(text(v))
}

func asSeverity(v interface{}) (types.Severity, bool) {
	if f, ok := types.ExtractFloat64(v); ok {
		return severityFromNumber(f), true
	}
	return classify(text(v), severityRules)
}

func asStage(v interface{}) (types.ProgressionStage, bool) {
	return classify(text(v), stageRules)
}

func asPrognosis(v interface{}) (types.Prognosis, bool) {
	return classify(text(v), prognosisRules)
}

func asDifficulty(v interface{}) (types.PropagationDifficulty, bool) {
	return classify(text(v), difficultyRules)
}

func asToxic(v interface{}) (bool, bool) {
	if b, ok := types.ExtractBool(v); ok {
		return b, true
	}
	s := text(v)
	if containsAny(s, nonToxicKeywords) {
		return false, true
	}
	if containsAny(s, toxicKeywords) {
		return true, true
	}
	return false, false
}

func asEdible(v interface{}) (bool, bool) {
	if b, ok := types.ExtractBool(v); ok {
		return b, true
	}
	s := text(v)
	if containsAny(s, inedibleKeywords) {
		return false, true
	}
	if containsAny(s, edibleKeywords) {
		return true, true
	}
	return false, false
}
