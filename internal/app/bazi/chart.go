// Package bazi implements the birth-chart pipeline: chart derivation,
// five-element balance analysis, fortune scoring, and feng-shui advice.
// Everything past derivation is a pure function of its input.
package bazi

import (
	"fmt"
	"time"

	"github.com/6tail/lunar-go/calendar"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ─── Lookup Tables ──────────────────────────────────────────────────────────

// stemElements maps each of the ten heavenly stems to its element.
var stemElements = map[string]domain.Element{
	"甲": domain.Wood, "乙": domain.Wood,
	"丙": domain.Fire, "丁": domain.Fire,
	"戊": domain.Earth, "己": domain.Earth,
	"庚": domain.Metal, "辛": domain.Metal,
	"壬": domain.Water, "癸": domain.Water,
}

// branchZodiacs maps each of the twelve earthly branches to its zodiac
// animal. Applied only to the year pillar.
var branchZodiacs = map[string]string{
	"子": "鼠", "丑": "牛", "寅": "虎", "卯": "兔",
	"辰": "龙", "巳": "蛇", "午": "马", "未": "羊",
	"申": "猴", "酉": "鸡", "戌": "狗", "亥": "猪",
}

// StemElement returns the element of a heavenly stem.
func StemElement(stem string) (domain.Element, bool) {
	e, ok := stemElements[stem]
	return e, ok
}

// ZodiacOf returns the zodiac animal of an earthly branch.
func ZodiacOf(branch string) (string, bool) {
	z, ok := branchZodiacs[branch]
	return z, ok
}

// ─── Chart Derivation ───────────────────────────────────────────────────────

// DeriveChart converts a birth date ("2006-01-02"), time ("15:04" or
// "15:04:05"), and free-text location into the four pillars. The location is
// carried for display only and does not affect the calculation.
func DeriveChart(birthDate, birthTime, birthLocation string) (domain.BirthChart, error) {
	_ = birthLocation

	ts, err := parseBirthTimestamp(birthDate, birthTime)
	if err != nil {
		return domain.BirthChart{}, &domain.ChartDerivationError{
			Input: birthDate + " " + birthTime,
			Err:   err,
		}
	}

	solar := calendar.NewSolar(ts.Year(), int(ts.Month()), ts.Day(), ts.Hour(), ts.Minute(), 0)
	lunar := solar.GetLunar()
	eight := lunar.GetEightChar()

	year, err := newPillar(eight.GetYearGan(), eight.GetYearZhi())
	if err != nil {
		return domain.BirthChart{}, &domain.ChartDerivationError{Input: birthDate + " " + birthTime, Err: err}
	}
	year.Zodiac = branchZodiacs[year.Branch]

	month, err := newPillar(eight.GetMonthGan(), eight.GetMonthZhi())
	if err != nil {
		return domain.BirthChart{}, &domain.ChartDerivationError{Input: birthDate + " " + birthTime, Err: err}
	}
	day, err := newPillar(eight.GetDayGan(), eight.GetDayZhi())
	if err != nil {
		return domain.BirthChart{}, &domain.ChartDerivationError{Input: birthDate + " " + birthTime, Err: err}
	}
	hour, err := newPillar(eight.GetTimeGan(), eight.GetTimeZhi())
	if err != nil {
		return domain.BirthChart{}, &domain.ChartDerivationError{Input: birthDate + " " + birthTime, Err: err}
	}

	return domain.BirthChart{
		Year:  year,
		Month: month,
		Day:   day,
		Hour:  hour,
		Lunar: domain.LunarDate{
			Year:        lunar.GetYear(),
			Month:       lunar.GetMonth(),
			Day:         lunar.GetDay(),
			ChineseDate: lunar.String(),
		},
	}, nil
}

func newPillar(stem, branch string) (domain.Pillar, error) {
	element, ok := stemElements[stem]
	if !ok {
		return domain.Pillar{}, fmt.Errorf("unknown heavenly stem %q", stem)
	}
	return domain.Pillar{Stem: stem, Branch: branch, Element: element}, nil
}

func parseBirthTimestamp(birthDate, birthTime string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.Parse(layout, birthDate+" "+birthTime); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable birth timestamp %q %q", birthDate, birthTime)
}
