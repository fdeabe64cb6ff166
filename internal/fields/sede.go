package fields

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/celerya/visura-cli/internal/model"
)

// Case-sensitive on purpose: locality names in visure are capitalized, and a
// case-insensitive match would drown in false positives.
var sedePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:SEDE LEGALE|Sede legale|Sede)[\s:]+([A-Z][A-Za-z\s]+?)\s*\(([A-Z]{2})\)`),
	regexp.MustCompile(`(?:SEDE|Sede)[\s:]+(?:in\s+)?([A-Z][A-Za-z\s]+?)\s*\(([A-Z]{2})\)`),
	regexp.MustCompile(`[Vv]ia\s+[^,]+,\s*([A-Z][A-Za-z\s]+?)\s*\(([A-Z]{2})\)`),
	regexp.MustCompile(`([A-Z][A-Za-z\s]{3,30}?)\s*\(([A-Z]{2})\)`),
}

// Street and filler words that would otherwise false-positive as a locality.
var sedeDenylist = map[string]bool{
	"VIA": true, "VIALE": true, "PIAZZA": true, "CORSO": true,
	"STRADA": true, "LOCALITÀ": true, "FRAZIONE": true, "PRESSO": true,
	"ITALY": true, "ITALIA": true,
}

var comuneTitle = cases.Title(language.Italian)

// ExtractSedeLegale finds the registered office as "Locality (PR)". A leading
// definite-article "di " prefix is stripped and the locality is title-cased.
func ExtractSedeLegale(text string) (*model.SedeLegale, bool) {
	for i, re := range sedePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			comune := strings.TrimSpace(m[1])
			provincia := strings.TrimSpace(m[2])

			if sedeDenylist[strings.ToUpper(comune)] || len(comune) <= 3 {
				continue
			}

			if strings.HasPrefix(strings.ToLower(comune), "di ") {
				comune = comune[3:]
			}

			sede := &model.SedeLegale{
				Comune:    comuneTitle.String(comune),
				Provincia: strings.ToUpper(provincia),
			}
			zap.L().Debug("fields: sede legale matched",
				zap.Int("pattern", i), zap.String("provincia", sede.Provincia))
			return sede, true
		}
	}
	return nil, false
}
