package ateco

import (
	"go.uber.org/zap"
)

// Lookup is the smart-search surface the resolver depends on; *Table
// satisfies it, tests substitute fixtures.
type Lookup interface {
	Search(code, prefer string, prefix bool) []Row
}

// Resolver converts a legacy 4-digit activity code to its current-taxonomy
// equivalent. A nil or empty lookup makes every resolution a miss; callers
// must treat a miss exactly like "no code found" and never surface the
// legacy code as if it were current.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a Resolver over the given lookup engine (may be nil).
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the current-taxonomy code for a validated legacy code, or
// false when the dataset is unavailable, yields no row, or the row lacks a
// current-taxonomy value.
func (r *Resolver) Resolve(legacy string) (string, bool) {
	if r == nil || r.lookup == nil {
		zap.L().Warn("ateco: resolver has no dataset, reporting code absent",
			zap.String("legacy", legacy))
		return "", false
	}

	rows := r.lookup.Search(legacy, "2025", false)
	if len(rows) == 0 {
		zap.L().Warn("ateco: legacy code not found in dataset", zap.String("legacy", legacy))
		return "", false
	}

	current := rows[0][Col2025]
	if current == "" {
		zap.L().Warn("ateco: no current-taxonomy mapping for legacy code",
			zap.String("legacy", legacy))
		return "", false
	}

	resolved := NormalizeCode(current)
	zap.L().Info("ateco: legacy code resolved",
		zap.String("legacy", legacy), zap.String("current", resolved))
	return resolved, true
}

// Describe returns the best available title for a code, preferring the
// current taxonomy. Used to enrich lookup responses; extraction records keep
// an empty description when no dataset is loaded.
func (r *Resolver) Describe(code string) string {
	if r == nil || r.lookup == nil {
		return ""
	}
	rows := r.lookup.Search(code, "2025", false)
	if len(rows) == 0 {
		return ""
	}
	for _, col := range []string{ColTitle2025, ColTitle2025Camerale, ColTitle2022} {
		if title := rows[0][col]; title != "" {
			return title
		}
	}
	return ""
}
