package domain

import "time"

// ─── Crystal Catalog ────────────────────────────────────────────────────────

// Crystal is a read-only catalog entity. The catalog is seeded once and never
// mutated by the prediction pipeline.
type Crystal struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"` // English name
	ChineseName       string    `json:"chinese_name"`
	Category          string    `json:"category"`
	Color             string    `json:"color"`
	Elements          []Element `json:"five_elements"`
	HealingProperties []string  `json:"healing_properties"`
	SuitableFor       []string  `json:"suitable_for"`
	ImageURL          string    `json:"image_url"`
	Price             float64   `json:"price"`
	Description       string    `json:"description"`
	CreatedAt         time.Time `json:"created_at"`
}

// RecommendedCrystal is a catalog entry tagged with the reason and score the
// recommender assigned to it.
type RecommendedCrystal struct {
	Crystal
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

// WearingGuide is the fixed usage guidance attached to a recommendation.
type WearingGuide struct {
	DailyRoutine     string   `json:"daily_routine"`
	WearingTime      string   `json:"wearing_time"`
	CareInstructions string   `json:"care_instructions"`
	Combinations     []string `json:"combinations"`
}

// RecommendationBundle is the merged, tiered recommendation output.
// Primary and Secondary each hold at most three entries; empty lists are a
// valid result, not an error.
type RecommendationBundle struct {
	Primary      []RecommendedCrystal `json:"primary_crystals"`
	Secondary    []RecommendedCrystal `json:"secondary_crystals"`
	Reasoning    string               `json:"reasoning"`
	WearingGuide WearingGuide         `json:"wearing_guide"`
}
