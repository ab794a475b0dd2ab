package normalize

import (
	"strings"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/types"
)

const (
	unknown            = "Unknown"
	noGuidance         = "No specific guidance available."
	unidentifiedPlant  = "Unknown Plant"
	unidentifiedDetail = "Unable to identify this plant with certainty. Try a clearer photo showing leaves, flowers or fruit."
)

// identification field table. Paths are tried in order; the first usable
// value wins.
var (
	idPlantName      = str("plantName", unidentifiedPlant, "plantName", "plant_name", "commonName", "common_name", "name", "plant.name")
	idScientificName = str("scientificName", unknown, "scientificName", "scientific_name", "latinName", "latin_name", "botanicalName", "binomial", "taxonomy.scientificName", "plant.scientificName")
	idCommonNames    = list("commonNames", "commonNames", "common_names", "otherNames", "aliases", "alternativeNames", "plant.commonNames")
	idFamily         = str("family", unknown, "family", "plantFamily", "plant_family", "taxonomy.family")
	idConfidence     = Field[float64]{Name: "confidence", Paths: []string{"confidence", "confidenceScore", "confidence_score", "certainty", "probability", "score"}, Coerce: asConfidence, Default: 0}
	idDescription    = str("description", unidentifiedDetail, "description", "summary", "overview", "about", "plant.description")

	idKingdom = str("taxonomy.kingdom", "Plantae", "taxonomy.kingdom", "kingdom")
	idPhylum  = str("taxonomy.phylum", unknown, "taxonomy.phylum", "taxonomy.division", "phylum", "division")
	idClass   = str("taxonomy.class", unknown, "taxonomy.class", "class")
	idOrder   = str("taxonomy.order", unknown, "taxonomy.order", "order")
	idTaxFam  = str("taxonomy.family", unknown, "taxonomy.family")
	idGenus   = str("taxonomy.genus", unknown, "taxonomy.genus", "genus")
	idSpecies = str("taxonomy.species", unknown, "taxonomy.species", "species", "specificEpithet")

	idHeight          = str("morphology.height", unknown, "morphology.height", "height", "size.height", "matureHeight")
	idSpread          = str("morphology.spread", unknown, "morphology.spread", "spread", "width", "size.spread", "matureSpread")
	idLeafType        = str("morphology.leafType", unknown, "morphology.leafType", "morphology.leaves", "leafType", "leaf_type", "leaves")
	idLeafArrangement = str("morphology.leafArrangement", unknown, "morphology.leafArrangement", "leafArrangement", "leaf_arrangement")
	idFlowerColors    = list("morphology.flowerColors", "morphology.flowerColors", "morphology.flowerColor", "flowerColors", "flowerColor", "flower_colors", "flowers.colors")
	idFruitType       = str("morphology.fruitType", unknown, "morphology.fruitType", "fruitType", "fruit_type", "fruit")
	idGrowthHabit     = str("morphology.growthHabit", unknown, "morphology.growthHabit", "growthHabit", "growth_habit", "habit", "growthForm")

	idNativeHabitat = str("habitat.nativeHabitat", unknown, "habitat.nativeHabitat", "habitat.native", "nativeHabitat", "native_habitat", "habitat")
	idClimate       = str("habitat.climate", unknown, "habitat.climate", "climate", "climateZone", "hardinessZone")
	idSoilType      = str("habitat.soilType", unknown, "habitat.soilType", "habitat.soil", "soilType", "soil_type")
	idElevation     = str("habitat.elevation", unknown, "habitat.elevation", "elevation", "altitude")

	idNativeRegions     = list("distribution.nativeRegions", "distribution.nativeRegions", "distribution.native", "nativeRegions", "native_regions", "nativeRange")
	idIntroducedRegions = list("distribution.introducedRegions", "distribution.introducedRegions", "distribution.introduced", "introducedRegions", "introduced_regions")
	idNativeRegion      = str("nativeRegion", "", "nativeRegion", "native_region", "origin", "nativeTo", "native_to")

	idMedicinal  = list("uses.medicinal", "uses.medicinal", "medicinalUses", "medicinal_uses", "medicinal")
	idCulinary   = list("uses.culinary", "uses.culinary", "culinaryUses", "culinary_uses", "culinary")
	idOrnamental = list("uses.ornamental", "uses.ornamental", "ornamentalUses", "ornamental_uses", "ornamental")
	idEcological = list("uses.ecological", "uses.ecological", "ecologicalUses", "ecological_uses", "ecologicalRole", "ecological")

	idConservation = str("conservationStatus.status", "Not Evaluated", "conservationStatus.status", "conservationStatus", "conservation_status", "iucnStatus", "conservation.status")
	idThreats      = list("conservationStatus.threats", "conservationStatus.threats", "conservation.threats", "threats")

	idBlooming = str("seasonality.bloomingSeason", unknown, "seasonality.bloomingSeason", "seasonality.blooming", "bloomingSeason", "blooming_season", "floweringSeason", "bloomTime")
	idFruiting = str("seasonality.fruitingSeason", unknown, "seasonality.fruitingSeason", "seasonality.fruiting", "fruitingSeason", "fruiting_season")
	idGrowing  = str("seasonality.growingSeason", unknown, "seasonality.growingSeason", "seasonality.growing", "growingSeason", "growing_season")

	idPropagationMethods = list("propagation.methods", "propagation.methods", "propagationMethods", "propagation_methods")
	idDifficulty         = Field[types.PropagationDifficulty]{Name: "propagation.difficulty", Paths: []string{"propagation.difficulty", "propagationDifficulty", "difficulty", "careLevel", "care.difficulty"}, Coerce: asDifficulty, Default: types.DifficultyModerate}
	idBestTime           = str("propagation.bestTime", unknown, "propagation.bestTime", "propagation.timing", "bestPropagationTime", "propagation_time")

	idWatering    = str("care.watering", noGuidance, "care.watering", "care.water", "careInstructions.watering", "watering", "water", "wateringNeeds")
	idSunlight    = str("care.sunlight", noGuidance, "care.sunlight", "care.light", "careInstructions.sunlight", "sunlight", "light", "lightRequirements")
	idSoil        = str("care.soil", noGuidance, "care.soil", "careInstructions.soil", "soil", "soilRequirements")
	idTemperature = str("care.temperature", noGuidance, "care.temperature", "careInstructions.temperature", "temperature", "temperatureRange")
	idHumidity    = str("care.humidity", noGuidance, "care.humidity", "careInstructions.humidity", "humidity")
	idFertilizer  = str("care.fertilizer", noGuidance, "care.fertilizer", "care.fertilizing", "careInstructions.fertilizer", "fertilizer", "fertilizing", "feeding")

	idToxicityInfo = str("toxicityInfo", "", "toxicityInfo", "toxicity_info", "toxicity", "toxicityDetails", "safety.toxicity", "petSafety")
	idIsToxic      = Field[bool]{Name: "isToxic", Paths: []string{"isToxic", "is_toxic", "toxic", "poisonous", "safety.isToxic"}, Coerce: asToxic}
	idIsEdible     = Field[bool]{Name: "isEdible", Paths: []string{"isEdible", "is_edible", "edible", "edibility", "safety.isEdible"}, Coerce: asEdible}

	idCompanions     = list("companionPlants", "companionPlants", "companion_plants", "companions", "goodCompanions")
	idPests          = list("commonPests", "commonPests", "common_pests", "pests", "problems.pests")
	idDiseases       = list("commonDiseases", "commonDiseases", "common_diseases", "diseases", "problems.diseases")
	idFunFacts       = list("funFacts", "funFacts", "fun_facts", "facts", "interestingFacts", "trivia")
	idCulturalSignif = str("culturalSignificance", unknown, "culturalSignificance", "cultural_significance", "culture", "history", "symbolism")
)

// identificationKeys are the top-level keys that mark an object as an
// identification rather than a wrapper around one.
var identificationKeys = []string{"plantName", "plant_name", "scientificName", "scientific_name", "commonName", "commonNames", "taxonomy", "confidence", "family"}

// ParseIdentification extracts and normalizes model output text.
func ParseIdentification(text string) types.PlantIdentification {
	return Identification(ExtractJSON(text))
}

// Identification normalizes an arbitrary decoded object into a fully
// populated PlantIdentification. ID, Timestamp and ImageURI are left for the
// caller.
func Identification(raw map[string]interface{}) types.PlantIdentification {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	src := unwrap(raw, identificationKeys)

	p := types.PlantIdentification{
		PlantName:      idPlantName.Resolve(src),
		ScientificName: idScientificName.Resolve(src),
		CommonNames:    idCommonNames.Resolve(src),
		Family:         idFamily.Resolve(src),
		Confidence:     idConfidence.Resolve(src),
		Description:    idDescription.Resolve(src),
		Taxonomy: types.Taxonomy{
			Kingdom: idKingdom.Resolve(src),
			Phylum:  idPhylum.Resolve(src),
			Class:   idClass.Resolve(src),
			Order:   idOrder.Resolve(src),
			Family:  idTaxFam.Resolve(src),
			Genus:   idGenus.Resolve(src),
			Species: idSpecies.Resolve(src),
		},
		Morphology: types.Morphology{
			Height:          idHeight.Resolve(src),
			Spread:          idSpread.Resolve(src),
			LeafType:        idLeafType.Resolve(src),
			LeafArrangement: idLeafArrangement.Resolve(src),
			FlowerColors:    idFlowerColors.Resolve(src),
			FruitType:       idFruitType.Resolve(src),
			GrowthHabit:     idGrowthHabit.Resolve(src),
		},
		Habitat: types.Habitat{
			NativeHabitat: idNativeHabitat.Resolve(src),
			Climate:       idClimate.Resolve(src),
			SoilType:      idSoilType.Resolve(src),
			Elevation:     idElevation.Resolve(src),
		},
		Distribution: types.Distribution{
			NativeRegions:     idNativeRegions.Resolve(src),
			IntroducedRegions: idIntroducedRegions.Resolve(src),
		},
		NativeRegion: idNativeRegion.Resolve(src),
		Uses: types.Uses{
			Medicinal:  idMedicinal.Resolve(src),
			Culinary:   idCulinary.Resolve(src),
			Ornamental: idOrnamental.Resolve(src),
			Ecological: idEcological.Resolve(src),
		},
		ConservationStatus: types.ConservationStatus{
			Status:  idConservation.Resolve(src),
			Threats: idThreats.Resolve(src),
		},
		Seasonality: types.Seasonality{
			BloomingSeason: idBlooming.Resolve(src),
			FruitingSeason: idFruiting.Resolve(src),
			GrowingSeason:  idGrowing.Resolve(src),
		},
		Propagation: types.Propagation{
			Methods:    idPropagationMethods.Resolve(src),
			Difficulty: idDifficulty.Resolve(src),
			BestTime:   idBestTime.Resolve(src),
		},
		Care: types.CareGuide{
			Watering:    idWatering.Resolve(src),
			Sunlight:    idSunlight.Resolve(src),
			Soil:        idSoil.Resolve(src),
			Temperature: idTemperature.Resolve(src),
			Humidity:    idHumidity.Resolve(src),
			Fertilizer:  idFertilizer.Resolve(src),
		},
		ToxicityInfo:         idToxicityInfo.Resolve(src),
		CompanionPlants:      idCompanions.Resolve(src),
		CommonPests:          idPests.Resolve(src),
		CommonDiseases:       idDiseases.Resolve(src),
		FunFacts:             idFunFacts.Resolve(src),
		CulturalSignificance: idCulturalSignif.Resolve(src),
	}

	reconcileIdentification(&p, src)

	logging.NormalizeDebug("identification normalized: %q (%s) confidence=%.2f", p.PlantName, p.ScientificName, p.Confidence)
	return p
}

func reconcileIdentification(p *types.PlantIdentification, src map[string]interface{}) {
	// Family and taxonomy.family describe the same rank.
	switch {
	case p.Family == unknown && p.Taxonomy.Family != unknown:
		p.Family = p.Taxonomy.Family
	case p.Taxonomy.Family == unknown && p.Family != unknown:
		p.Taxonomy.Family = p.Family
	}

	// Scientific name and genus/species back-fill each other.
	if p.ScientificName == unknown && p.Taxonomy.Genus != unknown {
		p.ScientificName = p.Taxonomy.Genus
		if p.Taxonomy.Species != unknown {
			p.ScientificName = strings.TrimSpace(p.Taxonomy.Genus + " " + strings.TrimPrefix(p.Taxonomy.Species, p.Taxonomy.Genus+" "))
		}
	}
	if p.ScientificName != unknown {
		parts := strings.Fields(p.ScientificName)
		if p.Taxonomy.Genus == unknown && len(parts) > 0 {
			p.Taxonomy.Genus = parts[0]
		}
		if p.Taxonomy.Species == unknown && len(parts) > 1 {
			p.Taxonomy.Species = strings.Join(parts[1:], " ")
		}
	}
	// Some models repeat the genus in the species field ("Ficus lyrata").
	if g := p.Taxonomy.Genus; g != unknown {
		if rest, ok := strings.CutPrefix(p.Taxonomy.Species, g+" "); ok && rest != "" {
			p.Taxonomy.Species = rest
		}
	}

	if _, ok := idPlantName.Lookup(src); !ok {
		switch {
		case len(p.CommonNames) > 0:
			p.PlantName = p.CommonNames[0]
		case p.ScientificName != unknown:
			p.PlantName = p.ScientificName
		}
	}
	if len(p.CommonNames) == 0 && p.PlantName != unidentifiedPlant {
		p.CommonNames = []string{p.PlantName}
	}

	if p.NativeRegion == "" {
		if len(p.Distribution.NativeRegions) > 0 {
			p.NativeRegion = strings.Join(p.Distribution.NativeRegions, ", ")
		} else {
			p.NativeRegion = unknown
		}
	} else if len(p.Distribution.NativeRegions) == 0 {
		p.Distribution.NativeRegions = splitRegions(p.NativeRegion)
	}

	// Explicit flags win; otherwise classify whatever the toxicity prose says.
	isToxic, ok := idIsToxic.Lookup(src)
	if !ok {
		isToxic = ClassifyToxicity(p.ToxicityInfo, false)
	}
	p.IsToxic = isToxic

	isEdible, ok := idIsEdible.Lookup(src)
	if !ok {
		isEdible = !p.IsToxic && ClassifyEdibility(p.ToxicityInfo, len(p.Uses.Culinary) > 0)
	}
	p.IsEdible = isEdible

	if p.ToxicityInfo == "" {
		if p.IsToxic {
			p.ToxicityInfo = "Toxic if ingested. Keep away from pets and children."
		} else {
			p.ToxicityInfo = "No known toxicity."
		}
	}
}

func splitRegions(s string) []string {
	items, ok := types.ExtractStringList(s)
	if !ok {
		return []string{}
	}
	return items
}
