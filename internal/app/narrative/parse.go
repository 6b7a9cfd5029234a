package narrative

import (
	"regexp"
	"strings"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// Section extraction is best-effort keyword scanning over free text; the
// completion service guarantees no structure, so any section may come back
// empty and callers must tolerate that.

// crystalPattern matches "中文名 (English Name)" with either ASCII or
// full-width parentheses.
var crystalPattern = regexp.MustCompile(`\p{Han}+\s*[（(][A-Za-z][A-Za-z\s]*[)）]`)

func parseNarrative(text string) domain.Narrative {
	return domain.Narrative{
		MainIssues:       extractSection(text, "主要问题", "推荐水晶"),
		CrystalMentions:  extractCrystalMentions(text),
		WearingAdvice:    extractSection(text, "佩带建议", "疗愈效果"),
		ExpectedEffects:  extractSection(text, "疗愈效果", "额外建议"),
		AdditionalAdvice: extractSection(text, "额外建议", ""),
		FullText:         text,
	}
}

// extractSection returns the lines between the line containing startKeyword
// and the line containing endKeyword (exclusive on both sides). An empty
// endKeyword reads to the end of the text.
func extractSection(text, startKeyword, endKeyword string) string {
	var content []string
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if !inSection {
			if strings.Contains(line, startKeyword) {
				inSection = true
			}
			continue
		}
		if endKeyword != "" && strings.Contains(line, endKeyword) {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			content = append(content, trimmed)
		}
	}
	return strings.TrimSpace(strings.Join(content, "\n"))
}

// extractCrystalMentions scans the crystal-recommendation section for
// name pairs, keeping the full line as the reason.
func extractCrystalMentions(text string) []domain.CrystalMention {
	var mentions []domain.CrystalMention
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "推荐水晶") || strings.Contains(line, "水晶组合") {
			inSection = true
			continue
		}
		if inSection && (strings.Contains(line, "佩带建议") || strings.Contains(line, "疗愈效果")) {
			break
		}
		if !inSection || strings.TrimSpace(line) == "" {
			continue
		}
		for _, match := range crystalPattern.FindAllString(line, -1) {
			split := strings.IndexAny(match, "（(")
			if split < 0 {
				continue
			}
			chinese := strings.TrimSpace(match[:split])
			english := strings.TrimSpace(strings.Trim(match[split:], "（()）"))
			if chinese == "" {
				continue
			}
			mentions = append(mentions, domain.CrystalMention{
				ChineseName: chinese,
				EnglishName: english,
				Reason:      strings.TrimSpace(line),
			})
		}
	}
	return mentions
}
