package bazi

import (
	"math"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// AnalyzeElements counts the four pillars' elements into the five buckets and
// derives the balance breakdown. Pure function; no error conditions.
//
// Exactly 4 tokens are distributed across 5 buckets, so at least one bucket
// is always zero.
func AnalyzeElements(chart domain.BirthChart) domain.ElementAnalysis {
	counts := make(map[domain.Element]int, len(domain.ElementOrder))
	for _, e := range domain.ElementOrder {
		counts[e] = 0
	}
	for _, p := range chart.Pillars() {
		counts[p.Element]++
	}

	strongest := domain.ElementOrder[0]
	weakest := domain.ElementOrder[0]
	var missing []domain.Element
	for _, e := range domain.ElementOrder {
		if counts[e] > counts[strongest] {
			strongest = e
		}
		if counts[e] < counts[weakest] {
			weakest = e
		}
		if counts[e] == 0 {
			missing = append(missing, e)
		}
	}

	return domain.ElementAnalysis{
		Counts:    counts,
		Strongest: strongest,
		Weakest:   weakest,
		Missing:   missing,
		Balance:   balanceScore(counts),
	}
}

// balanceScore converts count variance around the ideal (total/5 per element)
// into a 0..100 score. Higher variance, lower score.
func balanceScore(counts map[domain.Element]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	ideal := float64(total) / 5

	variance := 0.0
	for _, c := range counts {
		d := float64(c) - ideal
		variance += d * d
	}

	return int(math.Round(math.Max(0, 100-variance/ideal*10)))
}
