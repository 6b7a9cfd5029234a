package domain

import "time"

// ─── Narrative ──────────────────────────────────────────────────────────────

// CrystalMention is a crystal name/reason pair extracted from narrative text.
type CrystalMention struct {
	ChineseName string `json:"chinese_name"`
	EnglishName string `json:"english_name"`
	Reason      string `json:"reason"`
}

// Narrative is the five-section analysis text, produced either by the
// completion service or by the local generator. Sections are best-effort
// extractions and may be empty; callers must tolerate that.
type Narrative struct {
	MainIssues       string           `json:"main_issues"`
	CrystalMentions  []CrystalMention `json:"crystal_recommendations"`
	WearingAdvice    string           `json:"wearing_advice"`
	ExpectedEffects  string           `json:"expected_effects"`
	AdditionalAdvice string           `json:"additional_advice"`
	FullText         string           `json:"full_analysis"`
	Source           string           `json:"source"` // "siliconflow" or "local"
}

// ─── Prediction ─────────────────────────────────────────────────────────────

// PredictionRecord is one completed prediction, owned by exactly one user.
// Created once per successful prediction call; never updated or deleted.
type PredictionRecord struct {
	ID             int64                `json:"id"`
	UserID         int64                `json:"user_id"`
	BirthDate      string               `json:"birth_date"`
	BirthTime      string               `json:"birth_time"`
	BirthLocation  string               `json:"birth_location"`
	Chart          BirthChart           `json:"chart"`
	Analysis       ElementAnalysis      `json:"element_analysis"`
	Fortune        FortuneScore         `json:"fortune"`
	FengShui       FengShuiAdvice       `json:"feng_shui_advice"`
	Recommendation RecommendationBundle `json:"crystal_recommendations"`
	Narrative      Narrative            `json:"narrative"`
	CreatedAt      time.Time            `json:"created_at"`
}
