package bazi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pzyt/crystal-healing/internal/domain"
)

func TestDeriveChart_ValidTimestamp(t *testing.T) {
	chart, err := DeriveChart("1990-05-15", "14:30", "北京")
	if err != nil {
		t.Fatalf("DeriveChart: %v", err)
	}

	for i, p := range chart.Pillars() {
		if p.Stem == "" || p.Branch == "" {
			t.Errorf("pillar %d has empty stem/branch: %+v", i, p)
		}
		if element, ok := StemElement(p.Stem); !ok || element != p.Element {
			t.Errorf("pillar %d element %s does not match stem %q", i, p.Element, p.Stem)
		}
	}

	zodiac, ok := ZodiacOf(chart.Year.Branch)
	if !ok || chart.Year.Zodiac != zodiac {
		t.Errorf("year zodiac = %q, want %q for branch %q", chart.Year.Zodiac, zodiac, chart.Year.Branch)
	}
	if chart.Month.Zodiac != "" || chart.Day.Zodiac != "" || chart.Hour.Zodiac != "" {
		t.Error("zodiac must only be set on the year pillar")
	}
	if chart.Lunar.ChineseDate == "" {
		t.Error("lunar display date is empty")
	}
}

func TestDeriveChart_CountsAlwaysSumToFour(t *testing.T) {
	dates := []struct{ date, clock string }{
		{"1984-02-02", "00:00"},
		{"1990-05-15", "14:30"},
		{"2000-12-31", "23:59"},
		{"2024-06-01", "08:05:30"},
	}
	for _, d := range dates {
		chart, err := DeriveChart(d.date, d.clock, "")
		if err != nil {
			t.Fatalf("DeriveChart(%s %s): %v", d.date, d.clock, err)
		}
		analysis := AnalyzeElements(chart)
		total := 0
		for _, c := range analysis.Counts {
			total += c
		}
		if total != 4 {
			t.Errorf("%s %s: counts sum = %d, want 4", d.date, d.clock, total)
		}
		if analysis.Balance < 0 || analysis.Balance > 100 {
			t.Errorf("%s %s: balance = %d out of range", d.date, d.clock, analysis.Balance)
		}
	}
}

func TestDeriveChart_Deterministic(t *testing.T) {
	first, err := DeriveChart("1975-09-09", "06:45", "上海")
	if err != nil {
		t.Fatalf("DeriveChart: %v", err)
	}
	second, err := DeriveChart("1975-09-09", "06:45", "上海")
	if err != nil {
		t.Fatalf("DeriveChart: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated derivation differs:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestDeriveChart_BadInput(t *testing.T) {
	tests := []struct{ date, clock string }{
		{"not-a-date", "12:00"},
		{"1990-02-30", "12:00"}, // impossible calendar day
		{"1990-05-15", "25:99"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := DeriveChart(tt.date, tt.clock, "")
		if err == nil {
			t.Errorf("DeriveChart(%q, %q) succeeded, want error", tt.date, tt.clock)
			continue
		}
		var derivationErr *domain.ChartDerivationError
		if !errors.As(err, &derivationErr) {
			t.Errorf("DeriveChart(%q, %q) error = %T, want *domain.ChartDerivationError", tt.date, tt.clock, err)
		}
	}
}
