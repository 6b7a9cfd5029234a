package bazi

import "github.com/pzyt/crystal-healing/internal/domain"

// fengShuiBundle is the fixed suggestion set appended for one missing
// element: two colors, one direction, two lifestyle phrases.
type fengShuiBundle struct {
	colors    [2]string
	direction string
	lifestyle [2]string
}

var fengShuiBundles = map[domain.Element]fengShuiBundle{
	domain.Wood: {
		colors:    [2]string{"绿色", "青色"},
		direction: "东方",
		lifestyle: [2]string{"多接触自然", "可养植绿植"},
	},
	domain.Fire: {
		colors:    [2]string{"红色", "紫色"},
		direction: "南方",
		lifestyle: [2]string{"多晒太阳", "可佩带红色饰品"},
	},
	domain.Earth: {
		colors:    [2]string{"黄色", "棕色"},
		direction: "中宫",
		lifestyle: [2]string{"多接触土地", "可佩带黄水晶"},
	},
	domain.Metal: {
		colors:    [2]string{"白色", "金色"},
		direction: "西方",
		lifestyle: [2]string{"多佩带金属饰品", "可放置金属用品"},
	},
	domain.Water: {
		colors:    [2]string{"黑色", "蓝色"},
		direction: "北方",
		lifestyle: [2]string{"多喝水", "可放置水景装饰"},
	},
}

// FengShuiAdvice maps each missing element to its fixed suggestion bundle.
// Suggestions are appended without dedup: if two missing elements share a
// phrase it appears twice.
func FengShuiAdvice(analysis domain.ElementAnalysis) domain.FengShuiAdvice {
	advice := domain.FengShuiAdvice{
		Colors:     []string{},
		Directions: []string{},
		Lifestyle:  []string{},
	}
	for _, element := range analysis.Missing {
		bundle, ok := fengShuiBundles[element]
		if !ok {
			continue
		}
		advice.Colors = append(advice.Colors, bundle.colors[:]...)
		advice.Directions = append(advice.Directions, bundle.direction)
		advice.Lifestyle = append(advice.Lifestyle, bundle.lifestyle[:]...)
	}
	return advice
}
