package bazi

import (
	"math"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ScoreFortune derives the four domain scores from the balance score plus
// fixed generative-relationship bonuses anchored on the day master (the day
// pillar's element). Each domain score is clamped to [0,100] independently;
// the overall score is the rounded mean of the clamped four.
func ScoreFortune(chart domain.BirthChart, analysis domain.ElementAnalysis) domain.FortuneScore {
	dayMaster := chart.Day.Element
	base := analysis.Balance

	career := base
	if dayMaster == domain.Fire && analysis.Counts[domain.Wood] > 0 {
		career += 10 // wood feeds fire
	}
	if dayMaster == domain.Earth && analysis.Counts[domain.Fire] > 0 {
		career += 10 // fire feeds earth
	}

	wealth := base
	if dayMaster == domain.Earth && analysis.Counts[domain.Metal] > 0 {
		wealth += 15 // earth bears metal
	}
	if dayMaster == domain.Metal && analysis.Counts[domain.Water] > 0 {
		wealth += 15 // metal carries water
	}

	health := base
	switch {
	case analysis.Balance > 80:
		health += 20
	case analysis.Balance < 30:
		health -= 20
	}

	relationship := base
	if dayMaster == domain.Water && analysis.Counts[domain.Wood] > 0 {
		relationship += 10 // water feeds wood
	}
	if dayMaster == domain.Wood && analysis.Counts[domain.Fire] > 0 {
		relationship += 10 // wood feeds fire
	}

	score := domain.FortuneScore{
		Career:       clamp(career),
		Wealth:       clamp(wealth),
		Health:       clamp(health),
		Relationship: clamp(relationship),
	}
	sum := score.Career + score.Wealth + score.Health + score.Relationship
	score.Overall = int(math.Round(float64(sum) / 4))
	return score
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
