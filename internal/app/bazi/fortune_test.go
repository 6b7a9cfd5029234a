package bazi

import (
	"reflect"
	"testing"

	"github.com/pzyt/crystal-healing/internal/domain"
)

func TestScoreFortune_AllScoresClamped(t *testing.T) {
	charts := []domain.BirthChart{
		chartOf(domain.Fire, domain.Fire, domain.Fire, domain.Fire),
		chartOf(domain.Wood, domain.Fire, domain.Earth, domain.Metal),
		chartOf(domain.Earth, domain.Metal, domain.Earth, domain.Metal),
	}
	for _, chart := range charts {
		analysis := AnalyzeElements(chart)
		score := ScoreFortune(chart, analysis)
		for name, v := range map[string]int{
			"career": score.Career, "wealth": score.Wealth,
			"health": score.Health, "relationship": score.Relationship,
			"overall": score.Overall,
		} {
			if v < 0 || v > 100 {
				t.Errorf("%s = %d, want within [0,100]", name, v)
			}
		}
	}
}

func TestScoreFortune_EarthDayMasterMetalBonus(t *testing.T) {
	// Day master earth with a nonzero metal count earns the +15 wealth bonus.
	chart := chartOf(domain.Metal, domain.Wood, domain.Earth, domain.Water)
	analysis := AnalyzeElements(chart)
	score := ScoreFortune(chart, analysis)

	want := clamp(analysis.Balance + 15)
	if score.Wealth != want {
		t.Errorf("Wealth = %d, want %d (balance %d + 15)", score.Wealth, want, analysis.Balance)
	}
}

func TestScoreFortune_HealthThresholds(t *testing.T) {
	tests := []struct {
		name    string
		balance int
		want    int
	}{
		{"high balance gains 20", 85, 100},
		{"mid balance unchanged", 50, 50},
		{"low balance loses 20", 20, 0},
	}
	chart := chartOf(domain.Wood, domain.Wood, domain.Wood, domain.Wood)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := domain.ElementAnalysis{
				Counts:  map[domain.Element]int{domain.Wood: 4},
				Balance: tt.balance,
			}
			score := ScoreFortune(chart, analysis)
			if score.Health != tt.want {
				t.Errorf("Health = %d, want %d", score.Health, tt.want)
			}
		})
	}
}

func TestScoreFortune_OverallIsRoundedMean(t *testing.T) {
	chart := chartOf(domain.Wood, domain.Fire, domain.Earth, domain.Metal)
	analysis := AnalyzeElements(chart)
	score := ScoreFortune(chart, analysis)

	sum := score.Career + score.Wealth + score.Health + score.Relationship
	want := (sum + 2) / 4 // round-half-up of sum/4
	if score.Overall != want {
		t.Errorf("Overall = %d, want %d (mean of %d)", score.Overall, want, sum)
	}
}

func TestScoreFortune_Idempotent(t *testing.T) {
	chart := chartOf(domain.Water, domain.Wood, domain.Water, domain.Fire)
	analysis := AnalyzeElements(chart)
	first := ScoreFortune(chart, analysis)
	second := ScoreFortune(chart, analysis)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scoring differs:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestWeakestDomain_TieResolvesToFirst(t *testing.T) {
	score := domain.FortuneScore{Career: 50, Wealth: 50, Health: 60, Relationship: 50}
	if got := score.WeakestDomain(); got != domain.Career {
		t.Errorf("WeakestDomain = %s, want career", got)
	}
}
