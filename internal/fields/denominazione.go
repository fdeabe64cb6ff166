package fields

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// The capture stops at the next labeled field ("Forma ...") or end of text.
var denominazionePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:Denominazione|DENOMINAZIONE|Ragione sociale|RAGIONE SOCIALE)[\s:]+([A-Z][A-Za-z0-9\s.&'\-]{5,150}?)(?:\s+Forma|\n|$)`),
	regexp.MustCompile(`(?:denominazione|ragione sociale)[\s:]+([A-Z][A-Za-z0-9\s.&'\-]{5,150}?)(?:\s+forma|\n|$)`),
}

// ExtractDenominazione finds the registered legal name.
func ExtractDenominazione(text string) (string, bool) {
	for i, re := range denominazionePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		denom := strings.TrimSpace(m[1])
		if len(denom) >= 5 && len(denom) <= 150 {
			zap.L().Debug("fields: denominazione matched", zap.Int("pattern", i))
			return denom, true
		}
	}
	return "", false
}
