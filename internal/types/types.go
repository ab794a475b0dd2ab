// Package types provides the record shapes shared by the normalization engine,
// the record store and the remote gateway. Every field of PlantIdentification
// and PlantHealth is always populated; producers fill defaults rather than
// leaving zero values that marshal to null.
package types

import "time"

// Record is anything the record store can merge and cache by id.
type Record interface {
	RecordID() string
}

// =============================================================================
// PLANT IDENTIFICATION
// =============================================================================

// PlantIdentification is an immutable identification result keyed by ID.
type PlantIdentification struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ImageURI  string    `json:"imageUri"`

	PlantName      string   `json:"plantName"`
	ScientificName string   `json:"scientificName"`
	CommonNames    []string `json:"commonNames"`
	Family         string   `json:"family"`
	Confidence     float64  `json:"confidence"`
	Description    string   `json:"description"`

	Taxonomy           Taxonomy           `json:"taxonomy"`
	Morphology         Morphology         `json:"morphology"`
	Habitat            Habitat            `json:"habitat"`
	Distribution       Distribution       `json:"distribution"`
	NativeRegion       string             `json:"nativeRegion"`
	Uses               Uses               `json:"uses"`
	ConservationStatus ConservationStatus `json:"conservationStatus"`
	Seasonality        Seasonality        `json:"seasonality"`
	Propagation        Propagation        `json:"propagation"`
	Care               CareGuide          `json:"care"`

	IsToxic      bool   `json:"isToxic"`
	IsEdible     bool   `json:"isEdible"`
	ToxicityInfo string `json:"toxicityInfo"`

	CompanionPlants      []string `json:"companionPlants"`
	CommonPests          []string `json:"commonPests"`
	CommonDiseases       []string `json:"commonDiseases"`
	FunFacts             []string `json:"funFacts"`
	CulturalSignificance string   `json:"culturalSignificance"`
}

// RecordID implements Record.
func (p PlantIdentification) RecordID() string { return p.ID }

// Taxonomy is the Linnaean classification.
type Taxonomy struct {
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

type Morphology struct {
	Height          string   `json:"height"`
	Spread          string   `json:"spread"`
	LeafType        string   `json:"leafType"`
	LeafArrangement string   `json:"leafArrangement"`
	FlowerColors    []string `json:"flowerColors"`
	FruitType       string   `json:"fruitType"`
	GrowthHabit     string   `json:"growthHabit"`
}

type Habitat struct {
	NativeHabitat string `json:"nativeHabitat"`
	Climate       string `json:"climate"`
	SoilType      string `json:"soilType"`
	Elevation     string `json:"elevation"`
}

type Distribution struct {
	NativeRegions     []string `json:"nativeRegions"`
	IntroducedRegions []string `json:"introducedRegions"`
}

type Uses struct {
	Medicinal  []string `json:"medicinal"`
	Culinary   []string `json:"culinary"`
	Ornamental []string `json:"ornamental"`
	Ecological []string `json:"ecological"`
}

type ConservationStatus struct {
	Status  string   `json:"status"`
	Threats []string `json:"threats"`
}

type Seasonality struct {
	BloomingSeason string `json:"bloomingSeason"`
	FruitingSeason string `json:"fruitingSeason"`
	GrowingSeason  string `json:"growingSeason"`
}

type Propagation struct {
	Methods    []string              `json:"methods"`
	Difficulty PropagationDifficulty `json:"difficulty"`
	BestTime   string                `json:"bestTime"`
}

// CareGuide holds free-text care instructions.
type CareGuide struct {
	Watering    string `json:"watering"`
	Sunlight    string `json:"sunlight"`
	Soil        string `json:"soil"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Fertilizer  string `json:"fertilizer"`
}

// =============================================================================
// PLANT HEALTH
// =============================================================================

// PlantHealth is a health analysis, optionally tied to a garden plant.
type PlantHealth struct {
	ID        string    `json:"id"`
	PlantID   string    `json:"plantId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ImageURI  string    `json:"imageUri"`

	HealthStatus HealthStatus `json:"healthStatus"`
	Severity     Severity     `json:"severity"`
	Confidence   float64      `json:"confidence"`

	Diagnosis  Diagnosis  `json:"diagnosis"`
	Symptoms   Symptoms   `json:"symptoms"`
	Treatment  Treatment  `json:"treatment"`
	Causes     Causes     `json:"causes"`
	Prevention []string   `json:"prevention"`
	Monitoring Monitoring `json:"monitoring"`
}

// RecordID implements Record.
func (h PlantHealth) RecordID() string { return h.ID }

type Diagnosis struct {
	Condition     string           `json:"condition"`
	Description   string           `json:"description"`
	AffectedParts []string         `json:"affectedParts"`
	Stage         ProgressionStage `json:"stage"`
}

type Symptoms struct {
	Visual      []string `json:"visual"`
	Physical    []string `json:"physical"`
	Progression string   `json:"progression"`
}

type Treatment struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"shortTerm"`
	LongTerm  []string `json:"longTerm"`
	Organic   []string `json:"organic"`
	Chemical  []string `json:"chemical"`
}

type Causes struct {
	Primary       string   `json:"primary"`
	Contributing  []string `json:"contributing"`
	Environmental []string `json:"environmental"`
}

type Monitoring struct {
	CheckFrequency   string    `json:"checkFrequency"`
	WarningSigns     []string  `json:"warningSigns"`
	RecoveryTimeline string    `json:"recoveryTimeline"`
	Prognosis        Prognosis `json:"prognosis"`
}

// =============================================================================
// GARDEN
// =============================================================================

// UserPlant is a garden entry. Care metadata is mutable.
type UserPlant struct {
	ID               string     `json:"id"`
	IdentificationID string     `json:"identificationId"`
	Nickname         string     `json:"nickname,omitempty"`
	Location         string     `json:"location,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	LastWatered      *time.Time `json:"lastWatered,omitempty"`
	DateAdded        time.Time  `json:"dateAdded"`
}

// RecordID implements Record.
func (u UserPlant) RecordID() string { return u.ID }
