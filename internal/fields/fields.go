// Package fields holds one deterministic extractor per visura field. Every
// extractor is a pure function over the normalized document text: it returns
// either a self-validated value or nothing, and never mutates its input.
// Patterns are ordered most-specific-first with first-match-wins semantics.
package fields

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses runs of whitespace (including newlines) into single
// spaces so label/value pairs match regardless of the PDF's line wrapping.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// guard is a trailing/leading context check on a regex match. Go's RE2 has
// no lookaround, so the context conditions the original patterns expressed
// with lookaheads live here as explicit predicates.
type guard func(text string, start, end int) bool

func notPrecededByWord(text string, start, _ int) bool {
	return start == 0 || !isWordByte(text[start-1])
}

func notFollowedByWord(text string, _, end int) bool {
	return end >= len(text) || !isWordByte(text[end])
}

func notFollowedByDigit(text string, _, end int) bool {
	if end >= len(text) {
		return true
	}
	b := text[end]
	return b < '0' || b > '9'
}

var dotDigitRe = regexp.MustCompile(`^\s*\.\s*\d`)

// notFollowedByDotDigit rejects a 4-digit code that is really the head of a
// 5-6 digit code (e.g. "64.99" inside "64.99.1").
func notFollowedByDotDigit(text string, _, end int) bool {
	return !dotDigitRe.MatchString(text[end:])
}

// firstMatch returns the captured group of the first occurrence of re whose
// guards all pass, scanning left to right.
func firstMatch(re *regexp.Regexp, text string, guards ...guard) (string, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		ok := true
		for _, g := range guards {
			if !g(text, loc[2], loc[3]) {
				ok = false
				break
			}
		}
		if ok {
			return text[loc[2]:loc[3]], true
		}
	}
	return "", false
}
