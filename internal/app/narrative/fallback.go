package narrative

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// The local generator reconstructs all five sections from the same fixed rule
// tables the scoring pipeline uses, plus season-aware day-master narratives.
// The season is taken from the current calendar month at generation time,
// independent of the birth chart's season.

// ─── Rule Tables ────────────────────────────────────────────────────────────

var elementMeanings = map[domain.Element]string{
	domain.Wood:  "创造力、成长力和事业发展",
	domain.Fire:  "热情、活力和人际关系",
	domain.Earth: "稳定性、财运和健康基础",
	domain.Metal: "理性思维、决断力和领导能力",
	domain.Water: "智慧、直觉和适应能力",
}

var seasonalAdvice = map[domain.Element]map[string]string{
	domain.Wood: {
		"春": "正值木旺之季，是您发展事业的最佳时机。",
		"夏": "火旺消耗木气，注意保持充足休息。",
		"秋": "金克木，需要特别注意健康和人际关系。",
		"冬": "水生木，适合学习充电和规划未来。",
	},
	domain.Fire: {
		"春": "木生火，您的创造力和热情将得到很好的发挥。",
		"夏": "火旺当季，正是您大展身手的好时机。",
		"秋": "需要保持内心的热情，避免过度消耗。",
		"冬": "水克火，注意保暖养生，维持内在能量。",
	},
	domain.Earth: {
		"春": "木克土，需要加强稳定性和耐心。",
		"夏": "火生土，财运和事业都有不错的发展机会。",
		"秋": "金泄土气，适合整理和巩固已有成果。",
		"冬": "寒土需要温暖，多关注家庭和健康。",
	},
	domain.Metal: {
		"春": "木消耗金气，需要多补充营养和休息。",
		"夏": "火克金，避免过度劳累和情绪激动。",
		"秋": "金旺之季，您的理性思维和决断力最强。",
		"冬": "土生金，适合深度思考和长远规划。",
	},
	domain.Water: {
		"春": "水生木，您的智慧能够很好地转化为行动力。",
		"夏": "火蒸水，需要保持内心平静，避免急躁。",
		"秋": "金生水，您的直觉和洞察力特别敏锐。",
		"冬": "水旺当季，是您思考人生和蓄积能量的好时期。",
	},
}

var environmentAdvice = map[domain.Element]string{
	domain.Wood:  "家中可多放置绿色植物，使用木质家具，选择东方或东南方向的住所。",
	domain.Fire:  "可使用温暖的照明，布置红色或橙色装饰，选择南方向的房间。",
	domain.Earth: "使用土黄色调的装饰，可放置陶瓷制品，选择中央或西南方向的位置。",
	domain.Metal: "使用金属装饰品，选择白色或银色主色调，住所宜选择西方或西北方向。",
	domain.Water: "可设置水景或鱼缸，使用蓝色或黑色装饰，选择北方向的房间。",
}

// localPick is one crystal candidate of the local generator with its fixed
// priority for dedup and ordering.
type localPick struct {
	chinese  string
	english  string
	reason   string
	priority int
}

var elementPicks = map[domain.Element][]localPick{
	domain.Wood: {
		{"绿东陵石", "Green Aventurine", "增强木元素，促进事业发展和创造力", 9},
		{"绿幽灵", "Green Phantom", "激发成长潜能，帮助事业突破", 8},
	},
	domain.Fire: {
		{"红石榴石", "Garnet", "增强火元素，提升热情和行动力", 9},
		{"红宝石", "Ruby", "激发内在能量，增强领导力", 8},
	},
	domain.Earth: {
		{"黄水晶", "Citrine", "增强土元素，吸引财富和稳定性", 10},
		{"黄玉", "Yellow Jade", "带来健康和财运，稳定情绪", 8},
	},
	domain.Metal: {
		{"白水晶", "Clear Quartz", "增强金元素，提升理性思维和决断力", 9},
		{"白玉", "White Jade", "净化心灵，增强智慧和清晰思维", 8},
	},
	domain.Water: {
		{"紫水晶", "Amethyst", "增强水元素，开发直觉和智慧", 10},
		{"海蓝宝", "Aquamarine", "平静心灵，增强沟通能力", 8},
	},
}

var fortunePicks = map[domain.FortuneDomain]localPick{
	domain.Career:       {"虎眼石", "Tiger Eye", "增强事业运势，提升勇气和决断力", 8},
	domain.Wealth:       {"黄水晶", "Citrine", "提升财运，吸引财富和机遇", 9},
	domain.Health:       {"绿东陵石", "Green Aventurine", "增强健康运势，平衡身心能量", 8},
	domain.Relationship: {"粉水晶", "Rose Quartz", "增强感情运势，促进人际关系和爱情", 9},
}

// ─── Local Generation ───────────────────────────────────────────────────────

// GenerateLocal builds the complete narrative from the rule tables. Pure
// function of its inputs and the reference time; exported for reuse in tests.
func GenerateLocal(chart domain.BirthChart, analysis domain.ElementAnalysis, fortune domain.FortuneScore, at time.Time) domain.Narrative {
	picks := localCrystalPicks(analysis, fortune)
	mentions := make([]domain.CrystalMention, 0, len(picks))
	for _, p := range picks {
		mentions = append(mentions, domain.CrystalMention{
			ChineseName: p.chinese,
			EnglishName: p.english,
			Reason:      p.reason,
		})
	}

	return domain.Narrative{
		MainIssues:       localMainIssues(chart, analysis, fortune, at),
		CrystalMentions:  mentions,
		WearingAdvice:    localWearingAdvice(analysis, picks),
		ExpectedEffects:  localExpectedEffects(analysis, fortune),
		AdditionalAdvice: localAdditionalAdvice(chart),
		FullText:         localFullReport(chart, analysis, fortune, picks),
		Source:           SourceLocal,
	}
}

func seasonOf(at time.Time) string {
	switch month := int(at.Month()); {
	case month <= 2 || month == 12:
		return "冬"
	case month <= 5:
		return "春"
	case month <= 8:
		return "夏"
	default:
		return "秋"
	}
}

func localMainIssues(chart domain.BirthChart, analysis domain.ElementAnalysis, fortune domain.FortuneScore, at time.Time) string {
	var issues []string

	if analysis.Balance < 60 {
		issues = append(issues, fmt.Sprintf("您的五行平衡度较低(%d%%)，这可能导致能量流动不畅，影响各方面运势。", analysis.Balance))
	}
	for _, element := range analysis.Missing {
		issues = append(issues, fmt.Sprintf("%s元素不足，可能影响您的%s。", element.Han(), elementMeanings[element]))
	}

	var low []string
	for _, d := range domain.FortuneDomainOrder {
		if fortune.Domain(d) < 70 {
			low = append(low, d.Han())
		}
	}
	if len(low) > 0 {
		issues = append(issues, fmt.Sprintf("%s相对较弱，需要重点关注和调理。", strings.Join(low, "、")))
	}

	if advice := seasonalAdvice[chart.Day.Element][seasonOf(at)]; advice != "" {
		issues = append(issues, advice)
	}
	return strings.Join(issues, " ")
}

// localCrystalPicks merges element-gap picks for every missing element with
// per-domain picks for every domain under 70, deduplicates by Chinese name
// keeping the higher priority, and returns the top three.
func localCrystalPicks(analysis domain.ElementAnalysis, fortune domain.FortuneScore) []localPick {
	var candidates []localPick
	for _, element := range analysis.Missing {
		candidates = append(candidates, elementPicks[element]...)
	}
	for _, d := range domain.FortuneDomainOrder {
		if fortune.Domain(d) < 70 {
			candidates = append(candidates, fortunePicks[d])
		}
	}

	best := make(map[string]localPick)
	var order []string
	for _, c := range candidates {
		existing, seen := best[c.chinese]
		if !seen {
			best[c.chinese] = c
			order = append(order, c.chinese)
			continue
		}
		if c.priority > existing.priority {
			best[c.chinese] = c
		}
	}

	merged := make([]localPick, 0, len(order))
	for _, name := range order {
		merged = append(merged, best[name])
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].priority > merged[j].priority })

	if len(merged) > 3 {
		merged = merged[:3]
	}
	return merged
}

func localWearingAdvice(analysis domain.ElementAnalysis, picks []localPick) string {
	advice := []string{"建议每天佩带推荐的水晶，最好放置在心轮位置或直接佩带。"}
	if analysis.Balance < 60 {
		advice = append(advice, "由于您的五行平衡度较低，建议同时佩带2-3种不同水晶，平衡能量。")
	}
	if len(picks) > 0 {
		advice = append(advice, fmt.Sprintf("主要佩带%s，可以做成手链或项链形式。", picks[0].chinese))
	}
	advice = append(advice, "每天早上起床后和晚上睡前，各花费5-10分钟冥想，手持水晶感受其能量振动。")
	return strings.Join(advice, " ")
}

func localExpectedEffects(analysis domain.ElementAnalysis, fortune domain.FortuneScore) string {
	var effects []string
	if analysis.Balance < 50 {
		effects = append(effects,
			"在1-2周内，您将逐渐感受到内心的平静和能量的流动。",
			"在2-4周内，五行能量将得到显著平衡，运势开始好转。",
			"在1-3个月内，您的整体运势将得到稳定提升。")
	} else {
		effects = append(effects,
			"在1周内，您将感受到水晶带来的正面能量。",
			"在2-3周内，相应的运势领域将得到明显改善。")
	}

	if fortune.Career < 70 {
		effects = append(effects, "事业方面：工作灵感增加，决断力提升，更容易获得上司和同事的认可。")
	}
	if fortune.Wealth < 70 {
		effects = append(effects, "财运方面：理财意识增强，更容易发现赚钱机会，把握能力提升。")
	}
	if fortune.Health < 70 {
		effects = append(effects, "健康方面：身体能量增强，睡眠质量改善，抵抗力提升。")
	}
	if fortune.Relationship < 70 {
		effects = append(effects, "感情方面：人际关系改善，更容易吸引到合适的伴侣，家庭和谐度提升。")
	}
	return strings.Join(effects, " ")
}

func localAdditionalAdvice(chart domain.BirthChart) string {
	advice := []string{
		"生活习惯：保持规律作息，早睡早起，适度运动，均衡饮食。",
		"水晶保养：每周用清水清洗水晶，每月放在月光下净化一次，保持水晶能量纯净。",
	}
	if env := environmentAdvice[chart.Day.Element]; env != "" {
		advice = append(advice, "环境布置："+env)
	}
	advice = append(advice, "心理调节：保持乐观积极的心态，定期冥想，提升精神层面的能量振动。")
	return strings.Join(advice, " ")
}

func localFullReport(chart domain.BirthChart, analysis domain.ElementAnalysis, fortune domain.FortuneScore, picks []localPick) string {
	var report []string

	report = append(report, fmt.Sprintf("您的八字为：%s%s %s%s %s%s %s%s。",
		chart.Year.Stem, chart.Year.Branch,
		chart.Month.Stem, chart.Month.Branch,
		chart.Day.Stem, chart.Day.Branch,
		chart.Hour.Stem, chart.Hour.Branch))
	report = append(report, fmt.Sprintf("您的日主为%s(%s)，这决定了您的根本性格和命运特质。",
		chart.Day.Stem, chart.Day.Element.Han()))

	counts := make([]string, 0, len(domain.ElementOrder))
	for _, e := range domain.ElementOrder {
		counts = append(counts, fmt.Sprintf("%s(%d)", e.Han(), analysis.Counts[e]))
	}
	report = append(report, fmt.Sprintf("五行分布：%s，平衡度%d%%。", strings.Join(counts, "、"), analysis.Balance))
	report = append(report, fmt.Sprintf("各项运势评分：事业%d分、财运%d分、健康%d分、感情%d分，综合评分%d分。",
		fortune.Career, fortune.Wealth, fortune.Health, fortune.Relationship, fortune.Overall))

	if len(picks) > 0 {
		names := make([]string, 0, len(picks))
		for _, p := range picks {
			names = append(names, p.chinese)
		}
		report = append(report, fmt.Sprintf("根据您的八字特点，特别推荐佩带%s等水晶，这些水晶能够有效平衡您的五行能量。", strings.Join(names, "、")))
	}
	report = append(report, "此分析基于传统五行理论和水晶能量学，旨在为您提供参考和指导。请结合自身实际情况，理性对待。")
	return strings.Join(report, "")
}
