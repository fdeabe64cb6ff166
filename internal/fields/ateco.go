package fields

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// AtecoCandidate is an activity code lifted from the document, before any
// recode. Legacy marks the 4-digit 2022-taxonomy form, which the caller must
// resolve to its current equivalent before use.
type AtecoCandidate struct {
	Code   string
	Legacy bool
}

var (
	atecoCurrentRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{1,2}$`)
	atecoLegacyRe  = regexp.MustCompile(`^\d{2}\.\d{2}$`)
)

// atecoPattern pairs a regex with the context guards its original
// lookahead-based form relied on.
type atecoPattern struct {
	re     *regexp.Regexp
	guards []guard
}

// Ordered most-specific-first: labeled current-form codes, generic
// current-form guarded against date shapes, then the legacy 4-digit forms
// guarded against re-matching the head of a longer code.
var atecoPatterns = []atecoPattern{
	{re: regexp.MustCompile(`(?i)(?:Codice ATECO|ATECO|Attività prevalente|Codice attività)[\s:]+(\d{2}[\s.]\d{2}[\s.]\d{1,2})`)},
	{re: regexp.MustCompile(`(?i)Codice[\s:]+(\d{2}\.?\d{2}\.?\d{1,2})\s*-`)},
	{
		re:     regexp.MustCompile(`(\d{2}\.\d{2}\.\d{1,2})`),
		guards: []guard{notPrecededByWord, notFollowedByDigit, notFollowedByWord},
	},
	{
		re:     regexp.MustCompile(`(?i)(?:Codice ATECO|ATECO|Attività prevalente|Codice attività)[\s:]+(\d{2}[\s.]\d{2})`),
		guards: []guard{notFollowedByDotDigit},
	},
	{
		re:     regexp.MustCompile(`(\d{2}\.\d{2})`),
		guards: []guard{notPrecededByWord, notFollowedByDotDigit, notFollowedByWord},
	},
}

// ExtractAteco finds the first plausible activity code in the normalized
// text and reports which taxonomy era it belongs to. Candidates whose
// leading pair is 19, 20 or 21 are rejected as probable calendar years; this
// is a documented heuristic, not a guaranteed classifier.
func ExtractAteco(text string) (AtecoCandidate, bool) {
	for i, p := range atecoPatterns {
		raw, ok := firstMatch(p.re, text, p.guards...)
		if !ok {
			continue
		}

		code := whitespaceRe.ReplaceAllString(raw, ".")

		if leading, err := strconv.Atoi(strings.SplitN(code, ".", 2)[0]); err == nil {
			if leading == 19 || leading == 20 || leading == 21 {
				continue
			}
		}

		switch {
		case atecoCurrentRe.MatchString(code):
			zap.L().Debug("fields: ATECO matched", zap.Int("pattern", i), zap.String("era", "current"))
			return AtecoCandidate{Code: code}, true
		case atecoLegacyRe.MatchString(code):
			zap.L().Debug("fields: ATECO matched", zap.Int("pattern", i), zap.String("era", "legacy"))
			return AtecoCandidate{Code: code, Legacy: true}, true
		}
	}
	return AtecoCandidate{}, false
}
