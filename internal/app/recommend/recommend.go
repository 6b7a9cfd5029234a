// Package recommend merges element-gap, weakest-domain, and
// narrative-extracted crystal candidates against the catalog into a tiered
// recommendation bundle. Pure function of its inputs; zero catalog matches
// yield empty lists, never an error.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// Candidate scores. Element-gap matches outrank narrative matches, which
// outrank weakest-domain matches; the merge keeps the highest score per
// catalog id.
const (
	elementScore   = 90
	narrativeScore = 85
	domainScore    = 70
)

// nameRef is a catalog lookup key: candidates resolve by case-insensitive
// substring match on the English name or containment on the Chinese name.
type nameRef struct {
	english string
	chinese string
}

// elementCrystalRefs lists the fixed candidates that patch one missing
// element.
var elementCrystalRefs = map[domain.Element][]nameRef{
	domain.Wood: {
		{"Green Aventurine", "绿东陵石"},
		{"Malachite", "孔雀石"},
		{"Green Jade", "绿玉"},
		{"Amazonite", "天河石"},
	},
	domain.Fire: {
		{"Carnelian", "红玉髓"},
		{"Red Jasper", "红碧玉"},
		{"Garnet", "红石榴石"},
		{"Ruby", "红宝石"},
	},
	domain.Earth: {
		{"Yellow Jade", "黄玉"},
		{"Tiger Eye", "虎眼石"},
		{"Brown Jasper", "棕碧玉"},
		{"Citrine", "黄水晶"},
	},
	domain.Metal: {
		{"Clear Quartz", "白水晶"},
		{"White Jade", "白玉"},
		{"Howlite", "白纹石"},
		{"Moonstone", "月光石"},
	},
	domain.Water: {
		{"Amethyst", "紫水晶"},
		{"Sodalite", "苏打石"},
		{"Lapis Lazuli", "青金石"},
		{"Black Tourmaline", "黑电气石"},
	},
}

// domainCrystalRefs lists the fixed candidates for whichever fortune domain
// scored lowest.
var domainCrystalRefs = map[domain.FortuneDomain][]nameRef{
	domain.Career:       {{"Citrine", "黄水晶"}, {"Tiger Eye", "虎眼石"}, {"Pyrite", "黄铁矿"}, {"Carnelian", "红玉髓"}},
	domain.Wealth:       {{"Citrine", "黄水晶"}, {"Green Aventurine", "绿东陵石"}, {"Pyrite", "黄铁矿"}, {"Jade", "玉"}},
	domain.Health:       {{"Amethyst", "紫水晶"}, {"Clear Quartz", "白水晶"}, {"Rose Quartz", "粉水晶"}, {"Green Aventurine", "绿东陵石"}},
	domain.Relationship: {{"Rose Quartz", "粉水晶"}, {"Moonstone", "月光石"}, {"Rhodonite", "蔷薇辉石"}, {"Green Aventurine", "绿东陵石"}},
}

// Recommend builds the tiered bundle: top 3 by score as primary, next 3 as
// secondary.
func Recommend(analysis domain.ElementAnalysis, fortune domain.FortuneScore, catalog []domain.Crystal, narrative domain.Narrative) domain.RecommendationBundle {
	var candidates []domain.RecommendedCrystal
	candidates = append(candidates, elementCandidates(analysis, catalog)...)
	candidates = append(candidates, domainCandidates(fortune, catalog)...)
	candidates = append(candidates, narrativeCandidates(narrative, catalog)...)

	merged := dedupeAndSort(candidates)

	primary := merged
	if len(primary) > 3 {
		primary = merged[:3:3]
	}
	var secondary []domain.RecommendedCrystal
	if len(merged) > 3 {
		end := len(merged)
		if end > 6 {
			end = 6
		}
		secondary = merged[3:end:end]
	}

	return domain.RecommendationBundle{
		Primary:      primary,
		Secondary:    secondary,
		Reasoning:    reasoning(analysis, fortune, narrative),
		WearingGuide: wearingGuide(primary),
	}
}

func elementCandidates(analysis domain.ElementAnalysis, catalog []domain.Crystal) []domain.RecommendedCrystal {
	var out []domain.RecommendedCrystal
	for _, element := range analysis.Missing {
		for _, ref := range elementCrystalRefs[element] {
			if crystal, ok := resolve(catalog, ref.english, ref.chinese); ok {
				out = append(out, domain.RecommendedCrystal{
					Crystal: crystal,
					Reason:  fmt.Sprintf("补强%s五行能量", element.Han()),
					Score:   elementScore,
				})
			}
		}
	}
	return out
}

func domainCandidates(fortune domain.FortuneScore, catalog []domain.Crystal) []domain.RecommendedCrystal {
	weakest := fortune.WeakestDomain()
	var out []domain.RecommendedCrystal
	for _, ref := range domainCrystalRefs[weakest] {
		if crystal, ok := resolve(catalog, ref.english, ref.chinese); ok {
			out = append(out, domain.RecommendedCrystal{
				Crystal: crystal,
				Reason:  fmt.Sprintf("改善%s", weakest.Han()),
				Score:   domainScore,
			})
		}
	}
	return out
}

func narrativeCandidates(narrative domain.Narrative, catalog []domain.Crystal) []domain.RecommendedCrystal {
	var out []domain.RecommendedCrystal
	for _, mention := range narrative.CrystalMentions {
		crystal, ok := resolve(catalog, mention.EnglishName, mention.ChineseName)
		if !ok {
			continue
		}
		reason := mention.Reason
		if reason == "" {
			reason = "来自命理分析的推荐"
		}
		out = append(out, domain.RecommendedCrystal{Crystal: crystal, Reason: reason, Score: narrativeScore})
	}
	return out
}

// resolve finds the first catalog entry whose English name contains the
// English key (case-insensitive) or whose Chinese name contains the Chinese
// key. Empty keys never match.
func resolve(catalog []domain.Crystal, english, chinese string) (domain.Crystal, bool) {
	english = strings.ToLower(strings.TrimSpace(english))
	chinese = strings.TrimSpace(chinese)
	for _, c := range catalog {
		if english != "" && strings.Contains(strings.ToLower(c.Name), english) {
			return c, true
		}
		if chinese != "" && strings.Contains(c.ChineseName, chinese) {
			return c, true
		}
	}
	return domain.Crystal{}, false
}

// dedupeAndSort keeps the highest-score instance per catalog id and orders
// the result by score, descending. Ties keep first-seen order.
func dedupeAndSort(candidates []domain.RecommendedCrystal) []domain.RecommendedCrystal {
	best := make(map[int64]domain.RecommendedCrystal)
	var order []int64
	for _, c := range candidates {
		existing, seen := best[c.ID]
		if !seen {
			best[c.ID] = c
			order = append(order, c.ID)
			continue
		}
		if c.Score > existing.Score {
			best[c.ID] = c
		}
	}

	merged := make([]domain.RecommendedCrystal, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	return merged
}

func reasoning(analysis domain.ElementAnalysis, fortune domain.FortuneScore, narrative domain.Narrative) string {
	var b strings.Builder
	b.WriteString("根据您的八字分析：\n")

	if len(analysis.Missing) > 0 {
		names := make([]string, 0, len(analysis.Missing))
		for _, e := range analysis.Missing {
			names = append(names, e.Han())
		}
		fmt.Fprintf(&b, "\n您的五行中缺少%s能量，建议佩带相应的水晶来补强。", strings.Join(names, "、"))
	}

	fmt.Fprintf(&b, "\n您的%s相对较弱，可以通过特定水晶来增强这方面的能量。", fortune.WeakestDomain().Han())

	if narrative.MainIssues != "" {
		fmt.Fprintf(&b, "\n\n命理分析认为：%s", narrative.MainIssues)
	}
	return b.String()
}

func wearingGuide(primary []domain.RecommendedCrystal) domain.WearingGuide {
	guide := domain.WearingGuide{
		DailyRoutine:     "建议每天佩带水晶，可以选择手链、项链或随身携带。",
		WearingTime:      "最佳佩带时间为每天6-8小时，避免过度佩带。",
		CareInstructions: "定期清洗水晶，可用清水冲洗或日光净化。",
		Combinations:     []string{},
	}
	if len(primary) >= 2 {
		guide.Combinations = append(guide.Combinations,
			fmt.Sprintf("%s和%s可以同时佩带，增强效果。", primary[0].ChineseName, primary[1].ChineseName))
	}
	return guide
}
