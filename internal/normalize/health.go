package normalize

import (
	"strings"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/types"
)

// health field table
var (
	hStatus     = Field[types.HealthStatus]{Name: "healthStatus", Paths: []string{"healthStatus", "health_status", "status", "overallHealth", "health", "condition"}, Coerce: asHealthStatus}
	hSeverity   = Field[types.Severity]{Name: "severity", Paths: []string{"severity", "severityLevel", "severity_level", "diagnosis.severity", "urgency"}, Coerce: asSeverity}
	hConfidence = Field[float64]{Name: "confidence", Paths: []string{"confidence", "confidenceScore", "confidence_score", "diagnosis.confidence", "certainty"}, Coerce: asConfidence, Default: 0}

	hCondition     = str("diagnosis.condition", "", "diagnosis.condition", "diagnosis.name", "diagnosis.issue", "condition", "issue", "problem", "disease", "diagnosis")
	hDescription   = str("diagnosis.description", "", "diagnosis.description", "diagnosis.details", "description", "summary", "analysis")
	hAffectedParts = list("diagnosis.affectedParts", "diagnosis.affectedParts", "diagnosis.affected_parts", "affectedParts", "affected_parts", "affectedAreas")
	hStage         = Field[types.ProgressionStage]{Name: "diagnosis.stage", Paths: []string{"diagnosis.stage", "diagnosis.progressionStage", "stage", "progressionStage", "progression_stage"}, Coerce: asStage}

	hVisual      = list("symptoms.visual", "symptoms.visual", "symptoms.visible", "visualSymptoms", "visual_symptoms", "symptoms")
	hPhysical    = list("symptoms.physical", "symptoms.physical", "symptoms.tactile", "physicalSymptoms", "physical_symptoms")
	hProgression = str("symptoms.progression", unknown, "symptoms.progression", "progression", "symptomProgression")

	hImmediate = list("treatment.immediate", "treatment.immediate", "treatment.immediateActions", "immediateActions", "immediate_actions", "immediateTreatment")
	hShortTerm = list("treatment.shortTerm", "treatment.shortTerm", "treatment.short_term", "shortTermTreatment", "shortTerm")
	hLongTerm  = list("treatment.longTerm", "treatment.longTerm", "treatment.long_term", "longTermTreatment", "longTerm")
	hOrganic   = list("treatment.organic", "treatment.organic", "treatment.organicOptions", "organicTreatment", "organic_treatment")
	hChemical  = list("treatment.chemical", "treatment.chemical", "treatment.chemicalOptions", "chemicalTreatment", "chemical_treatment")

	hPrimaryCause  = str("causes.primary", "", "causes.primary", "causes.primaryCause", "primaryCause", "primary_cause", "cause", "rootCause")
	hContributing  = list("causes.contributing", "causes.contributing", "causes.contributingFactors", "contributingFactors", "contributing_factors")
	hEnvironmental = list("causes.environmental", "causes.environmental", "causes.environmentalFactors", "environmentalFactors", "environmental_factors")

	hPrevention = list("prevention", "prevention", "preventionTips", "prevention_tips", "preventiveMeasures", "preventionMeasures")

	hCheckFrequency = str("monitoring.checkFrequency", "Weekly", "monitoring.checkFrequency", "monitoring.frequency", "checkFrequency", "check_frequency")
	hWarningSigns   = list("monitoring.warningSigns", "monitoring.warningSigns", "monitoring.warning_signs", "warningSigns", "warning_signs")
	hRecovery       = str("monitoring.recoveryTimeline", unknown, "monitoring.recoveryTimeline", "monitoring.recoveryTime", "recoveryTimeline", "recovery_timeline", "recoveryTime")
	hPrognosis      = Field[types.Prognosis]{Name: "monitoring.prognosis", Paths: []string{"monitoring.prognosis", "prognosis", "outlook", "monitoring.outlook"}, Coerce: asPrognosis}
)

const (
	undeterminedCondition = "Unable to determine"
	undeterminedDetail    = "The health analysis could not determine the plant's condition. Retake the photo in good light, close to the affected leaves, and analyze again."
)

var healthKeys = []string{"healthStatus", "health_status", "status", "diagnosis", "symptoms", "treatment", "severity"}

// ParseHealth extracts and normalizes model output text.
func ParseHealth(text string) types.PlantHealth {
	return Health(ExtractJSON(text))
}

// Health normalizes an arbitrary decoded object into a fully populated
// PlantHealth. ID, PlantID, Timestamp and ImageURI are left for the caller.
func Health(raw map[string]interface{}) types.PlantHealth {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	src := unwrap(raw, healthKeys)

	h := types.PlantHealth{
		Confidence: hConfidence.Resolve(src),
		Diagnosis: types.Diagnosis{
			Condition:     hCondition.Resolve(src),
			Description:   hDescription.Resolve(src),
			AffectedParts: hAffectedParts.Resolve(src),
		},
		Symptoms: types.Symptoms{
			Visual:      hVisual.Resolve(src),
			Physical:    hPhysical.Resolve(src),
			Progression: hProgression.Resolve(src),
		},
		Treatment: types.Treatment{
			Immediate: hImmediate.Resolve(src),
			ShortTerm: hShortTerm.Resolve(src),
			LongTerm:  hLongTerm.Resolve(src),
			Organic:   hOrganic.Resolve(src),
			Chemical:  hChemical.Resolve(src),
		},
		Causes: types.Causes{
			Primary:       hPrimaryCause.Resolve(src),
			Contributing:  hContributing.Resolve(src),
			Environmental: hEnvironmental.Resolve(src),
		},
		Prevention: hPrevention.Resolve(src),
		Monitoring: types.Monitoring{
			CheckFrequency:   hCheckFrequency.Resolve(src),
			WarningSigns:     hWarningSigns.Resolve(src),
			RecoveryTimeline: hRecovery.Resolve(src),
		},
	}

	status, ok := hStatus.Lookup(src)
	// Nothing to go on: keep valid enums but label the record as undetermined.
	undetermined := !ok && h.Diagnosis.Condition == "" && h.Diagnosis.Description == ""
	if !ok {
		// The condition name often carries the verdict ("Spider mite infestation").
		status = NormalizeHealthStatus(h.Diagnosis.Condition+" "+h.Diagnosis.Description, types.HealthHealthy)
	}
	h.HealthStatus = status

	severity, ok := hSeverity.Lookup(src)
	if !ok {
		severity = defaultSeverity(status)
	}
	h.Severity = severity

	stage, ok := hStage.Lookup(src)
	if !ok {
		stage = defaultStage(severity)
	}
	h.Diagnosis.Stage = stage

	prognosis, ok := hPrognosis.Lookup(src)
	if !ok {
		prognosis = defaultPrognosis(status, severity)
		if undetermined {
			prognosis = types.PrognosisFair
		}
	}
	h.Monitoring.Prognosis = prognosis

	reconcileHealth(&h, src, undetermined)

	if undetermined {
		logging.NormalizeWarn("health output carried no status, condition or description; saved as undetermined")
	}
	logging.NormalizeDebug("health normalized: status=%s severity=%s confidence=%.2f", h.HealthStatus, h.Severity, h.Confidence)
	return h
}

func reconcileHealth(h *types.PlantHealth, src map[string]interface{}, undetermined bool) {
	// "causes" sometimes arrives as a bare list: first entry is the primary
	// cause, the rest contribute.
	if v, ok := src["causes"]; ok {
		if _, isObject := v.(map[string]interface{}); !isObject {
			if items, ok := asList(v); ok {
				if h.Causes.Primary == "" {
					h.Causes.Primary = items[0]
					items = items[1:]
				}
				if len(h.Causes.Contributing) == 0 {
					h.Causes.Contributing = append([]string{}, items...)
				}
			}
		}
	}
	if h.Causes.Primary == "" {
		if h.HealthStatus == types.HealthHealthy && !undetermined {
			h.Causes.Primary = "None identified"
		} else {
			h.Causes.Primary = unknown
		}
	}

	if undetermined {
		h.Diagnosis.Condition = undeterminedCondition
		h.Diagnosis.Description = undeterminedDetail
	}
	if h.Diagnosis.Condition == "" {
		h.Diagnosis.Condition = conditionLabel(h.HealthStatus)
	}
	if h.Diagnosis.Description == "" {
		if h.HealthStatus == types.HealthHealthy {
			h.Diagnosis.Description = "The plant appears healthy with no visible signs of disease or stress."
		} else {
			h.Diagnosis.Description = "Signs of " + strings.ToLower(conditionLabel(h.HealthStatus)) + " were detected. Inspect the plant closely and follow the treatment steps."
		}
	}
	// Warning signs default to what was already observed.
	if len(h.Monitoring.WarningSigns) == 0 && h.HealthStatus != types.HealthHealthy && len(h.Symptoms.Visual) > 0 {
		h.Monitoring.WarningSigns = append([]string{}, h.Symptoms.Visual...)
	}
}

func conditionLabel(s types.HealthStatus) string {
	switch s {
	case types.HealthHealthy:
		return "Healthy"
	case types.HealthPest:
		return "Pest infestation"
	case types.HealthNutrientDeficiency:
		return "Nutrient deficiency"
	case types.HealthOverwatered:
		return "Overwatering"
	case types.HealthUnderwatered:
		return "Underwatering"
	default:
		return "Plant disease"
	}
}

func defaultSeverity(s types.HealthStatus) types.Severity {
	if s == types.HealthHealthy {
		return types.SeverityLow
	}
	return types.SeverityMedium
}

func defaultStage(s types.Severity) types.ProgressionStage {
	switch s {
	case types.SeverityLow:
		return types.StageEarly
	case types.SeverityHigh:
		return types.StageAdvanced
	default:
		return types.StageModerate
	}
}

func defaultPrognosis(status types.HealthStatus, sev types.Severity) types.Prognosis {
	if status == types.HealthHealthy {
		return types.PrognosisExcellent
	}
	switch sev {
	case types.SeverityLow:
		return types.PrognosisGood
	case types.SeverityHigh:
		return types.PrognosisPoor
	default:
		return types.PrognosisFair
	}
}
