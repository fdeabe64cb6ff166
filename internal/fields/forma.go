package fields

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Each pattern captures the form token itself; bare abbreviations must be
// followed by a separator so "SPA" inside a longer word does not match.
var formaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(SOCIETA' PER AZIONI|S\.P\.A\.)`),
	regexp.MustCompile(`(?i)(SPA)(?:\s|,|$)`),
	regexp.MustCompile(`(?i)(SOCIETA' A RESPONSABILITA' LIMITATA|S\.R\.L\.)`),
	regexp.MustCompile(`(?i)(SRL)(?:\s|,|$)`),
	regexp.MustCompile(`(?i)(SOCIETA' IN ACCOMANDITA SEMPLICE|S\.A\.S\.)`),
	regexp.MustCompile(`(?i)(SAS)(?:\s|,|$)`),
	regexp.MustCompile(`(?i)(SOCIETA' IN NOME COLLETTIVO|S\.N\.C\.)`),
	regexp.MustCompile(`(?i)(SNC)(?:\s|,|$)`),
	regexp.MustCompile(`(?i)(DITTA INDIVIDUALE|IMPRESA INDIVIDUALE)`),
}

// Abbreviations normalize to the canonical long form.
var formaCanonical = map[string]string{
	"S.P.A.": "SOCIETA' PER AZIONI",
	"SPA":    "SOCIETA' PER AZIONI",
	"S.R.L.": "SOCIETA' A RESPONSABILITA' LIMITATA",
	"SRL":    "SOCIETA' A RESPONSABILITA' LIMITATA",
	"S.A.S.": "SOCIETA' IN ACCOMANDITA SEMPLICE",
	"SAS":    "SOCIETA' IN ACCOMANDITA SEMPLICE",
	"S.N.C.": "SOCIETA' IN NOME COLLETTIVO",
	"SNC":    "SOCIETA' IN NOME COLLETTIVO",
}

// ExtractFormaGiuridica recognizes the company legal form and normalizes
// abbreviations to their canonical long form.
func ExtractFormaGiuridica(text string) (string, bool) {
	for i, re := range formaPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		raw := strings.ToUpper(strings.TrimSpace(m[1]))
		forma := raw
		if canonical, ok := formaCanonical[raw]; ok {
			forma = canonical
		}
		zap.L().Debug("fields: forma giuridica matched", zap.Int("pattern", i))
		return forma, true
	}
	return "", false
}
