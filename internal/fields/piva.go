package fields

import (
	"regexp"

	"go.uber.org/zap"
)

// pivaRe validates the final candidate: an Italian VAT number is exactly 11
// digits, no more, no less.
var pivaRe = regexp.MustCompile(`^\d{11}$`)

// Labeled patterns first, then any standalone 11-digit run as a last resort.
var pivaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Partita IVA|P\.?\s?IVA|VAT)[\s:]+(\d{11})`),
	regexp.MustCompile(`(?i)(?:Codice Fiscale|C\.F\.)[\s:]+(\d{11})`),
	regexp.MustCompile(`(\d{11})`),
}

// ExtractPartitaIVA finds the company tax identifier in the normalized text.
func ExtractPartitaIVA(text string) (string, bool) {
	for i, re := range pivaPatterns {
		guards := []guard{}
		if i == len(pivaPatterns)-1 {
			// The bare-digits fallback needs word boundaries so it does not
			// fire inside longer numeric runs.
			guards = append(guards, notPrecededByWord, notFollowedByWord)
		}
		piva, ok := firstMatch(re, text, guards...)
		if !ok {
			continue
		}
		if pivaRe.MatchString(piva) {
			zap.L().Debug("fields: partita IVA matched", zap.Int("pattern", i))
			return piva, true
		}
	}
	return "", false
}
