package fields

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	oggettoMinLen = 30
	oggettoMaxLen = 2000
)

// The upper bound lives in code (oggettoMaxLen), not in the repeat count:
// RE2 rejects repeat counts above 1000.
var oggettoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:OGGETTO SOCIALE|Oggetto sociale|Oggetto)[\s:]+(.{30,})`),
	regexp.MustCompile(`(?is)(?:Attività|ATTIVITA)[\s:]+(.{30,})`),
}

// The label alone often anchors the wrong paragraph, so a capture counts
// only if it talks about business activity.
var businessKeywords = []string{
	"produzione", "commercio", "servizi", "consulenza",
	"vendita", "gestione", "prestazione", "attività", "investiment",
}

// ExtractOggettoSociale captures the corporate-purpose span: a label-anchored
// run of at least oggettoMinLen characters that contains a business keyword.
// Internal whitespace is collapsed; over-length captures are truncated with
// an ellipsis.
func ExtractOggettoSociale(text string) (string, bool) {
	for i, re := range oggettoPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		oggetto := Normalize(m[1])
		runes := []rune(oggetto)
		if len(runes) < oggettoMinLen {
			continue
		}

		lower := strings.ToLower(oggetto)
		hasKeyword := false
		for _, kw := range businessKeywords {
			if strings.Contains(lower, kw) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}

		if len(runes) > oggettoMaxLen {
			oggetto = string(runes[:oggettoMaxLen]) + "..."
		}
		zap.L().Debug("fields: oggetto sociale matched",
			zap.Int("pattern", i), zap.Int("chars", len(oggetto)))
		return oggetto, true
	}
	return "", false
}
