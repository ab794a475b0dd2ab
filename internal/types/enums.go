package types

// HealthStatus is the overall condition of an analyzed plant.
type HealthStatus string

const (
	HealthHealthy            HealthStatus = "healthy"
	HealthDiseased           HealthStatus = "diseased"
	HealthPest               HealthStatus = "pest"
	HealthNutrientDeficiency HealthStatus = "nutrient_deficiency"
	HealthOverwatered        HealthStatus = "overwatered"
	HealthUnderwatered       HealthStatus = "underwatered"
)

// HealthStatuses lists every canonical HealthStatus.
var HealthStatuses = []HealthStatus{
	HealthHealthy, HealthDiseased, HealthPest,
	HealthNutrientDeficiency, HealthOverwatered, HealthUnderwatered,
}

// Valid reports whether s is canonical.
func (s HealthStatus) Valid() bool {
	for _, v := range HealthStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type ProgressionStage string

const (
	StageEarly    ProgressionStage = "early"
	StageModerate ProgressionStage = "moderate"
	StageAdvanced ProgressionStage = "advanced"
)

func (s ProgressionStage) Valid() bool {
	return s == StageEarly || s == StageModerate || s == StageAdvanced
}

type Prognosis string

const (
	PrognosisExcellent Prognosis = "excellent"
	PrognosisGood      Prognosis = "good"
	PrognosisFair      Prognosis = "fair"
	PrognosisPoor      Prognosis = "poor"
)

func (p Prognosis) Valid() bool {
	switch p {
	case PrognosisExcellent, PrognosisGood, PrognosisFair, PrognosisPoor:
		return true
	}
	return false
}

// PropagationDifficulty keeps the capitalized spelling clients display verbatim.
type PropagationDifficulty string

const (
	DifficultyEasy      PropagationDifficulty = "Easy"
	DifficultyModerate  PropagationDifficulty = "Moderate"
	DifficultyDifficult PropagationDifficulty = "Difficult"
)

func (d PropagationDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyModerate || d == DifficultyDifficult
}
