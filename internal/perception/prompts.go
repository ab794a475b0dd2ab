package perception

import "strings"

// systemPrompt frames every request. The schemas below are what we ask for;
// the normalizer copes with whatever actually comes back.
const systemPrompt = `You are an expert botanist and plant pathologist.
You analyze a single photo of a plant and answer with ONE JSON object only.
Do not wrap the JSON in markdown. Do not add commentary before or after it.
Use "Unknown" for anything you cannot determine. Confidence is a number between 0 and 1.`

const identifyPrompt = `Identify the plant in this photo. Respond with JSON matching this shape:
{
  "plantName": "most common English name",
  "scientificName": "Genus species",
  "commonNames": ["..."],
  "family": "...",
  "confidence": 0.0,
  "description": "two or three sentences",
  "taxonomy": {"kingdom": "Plantae", "phylum": "...", "class": "...", "order": "...", "family": "...", "genus": "...", "species": "..."},
  "morphology": {"height": "...", "spread": "...", "leafType": "...", "leafArrangement": "...", "flowerColors": ["..."], "fruitType": "...", "growthHabit": "..."},
  "habitat": {"nativeHabitat": "...", "climate": "...", "soilType": "...", "elevation": "..."},
  "distribution": {"nativeRegions": ["..."], "introducedRegions": ["..."]},
  "nativeRegion": "...",
  "uses": {"medicinal": ["..."], "culinary": ["..."], "ornamental": ["..."], "ecological": ["..."]},
  "conservationStatus": {"status": "...", "threats": ["..."]},
  "seasonality": {"bloomingSeason": "...", "fruitingSeason": "...", "growingSeason": "..."},
  "propagation": {"methods": ["..."], "difficulty": "Easy|Moderate|Difficult", "bestTime": "..."},
  "care": {"watering": "...", "sunlight": "...", "soil": "...", "temperature": "...", "humidity": "...", "fertilizer": "..."},
  "isToxic": false,
  "isEdible": false,
  "toxicityInfo": "...",
  "companionPlants": ["..."],
  "commonPests": ["..."],
  "commonDiseases": ["..."],
  "funFacts": ["..."],
  "culturalSignificance": "..."
}`

const healthPrompt = `Assess the health of the plant in this photo. Respond with JSON matching this shape:
{
  "healthStatus": "healthy|diseased|pest|nutrient_deficiency|overwatered|underwatered",
  "severity": "low|medium|high",
  "confidence": 0.0,
  "diagnosis": {"condition": "...", "description": "...", "affectedParts": ["..."], "stage": "early|moderate|advanced"},
  "symptoms": {"visual": ["..."], "physical": ["..."], "progression": "..."},
  "treatment": {"immediate": ["..."], "shortTerm": ["..."], "longTerm": ["..."], "organic": ["..."], "chemical": ["..."]},
  "causes": {"primary": "...", "contributing": ["..."], "environmental": ["..."]},
  "prevention": ["..."],
  "monitoring": {"checkFrequency": "...", "warningSigns": ["..."], "recoveryTimeline": "...", "prognosis": "excellent|good|fair|poor"}
}`

// buildHealthPrompt appends the grower's own notes, if any.
func buildHealthPrompt(userContext string) string {
	userContext = strings.TrimSpace(userContext)
	if userContext == "" {
		return healthPrompt
	}
	return healthPrompt + "\n\nThe grower adds this context about the plant:\n" + userContext
}
