package domain

// ─── Birth Chart ────────────────────────────────────────────────────────────

// Pillar is one stem/branch pair of the eight characters. Zodiac is set only
// on the year pillar.
type Pillar struct {
	Stem    string  `json:"stem"`
	Branch  string  `json:"branch"`
	Element Element `json:"element"`
	Zodiac  string  `json:"zodiac,omitempty"`
}

// LunarDate is the traditional calendar date the birth timestamp converts to,
// carried for display.
type LunarDate struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	ChineseDate string `json:"chinese_date"`
}

// BirthChart holds the four pillars derived once at prediction time.
// Immutable after derivation.
type BirthChart struct {
	Year  Pillar    `json:"year"`
	Month Pillar    `json:"month"`
	Day   Pillar    `json:"day"`
	Hour  Pillar    `json:"hour"`
	Lunar LunarDate `json:"lunar_date"`
}

// Pillars returns the four pillars in year/month/day/hour order.
func (c BirthChart) Pillars() [4]Pillar {
	return [4]Pillar{c.Year, c.Month, c.Day, c.Hour}
}

// ElementAnalysis is the five-bucket balance breakdown of a chart.
// Counts always carries all five keys and sums to 4.
type ElementAnalysis struct {
	Counts    map[Element]int `json:"counts"`
	Strongest Element         `json:"strongest"`
	Weakest   Element         `json:"weakest"`
	Missing   []Element       `json:"missing"`
	Balance   int             `json:"balance"`
}

// FengShuiAdvice accumulates fixed suggestion bundles for each missing
// element. Duplicate suggestions across elements are preserved.
type FengShuiAdvice struct {
	Colors     []string `json:"colors"`
	Directions []string `json:"directions"`
	Lifestyle  []string `json:"lifestyle"`
}
