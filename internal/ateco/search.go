package ateco

import (
	"sort"
	"strings"
)

// NormalizeCode canonicalizes an activity code: trimmed, comma decimal
// separators to dots, spaces removed, uppercased.
func NormalizeCode(raw string) string {
	c := strings.TrimSpace(raw)
	c = strings.ReplaceAll(c, ",", ".")
	c = strings.ReplaceAll(c, " ", "")
	return strings.ToUpper(c)
}

// StripCode reduces a code to its alphanumeric characters only.
func StripCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// CodeVariants expands a code into the spellings the dataset may use: with
// and without dots, trailing dot removed, and trailing group zero-padded
// (64.99.1 also tries 64.99.10 and 64.99.100).
func CodeVariants(code string) []string {
	c := NormalizeCode(code)
	if c == "" {
		return nil
	}

	parts := strings.Split(c, ".")
	variants := map[string]bool{
		c:                       true,
		strings.Join(parts, ""): true,
	}
	if strings.HasSuffix(c, ".") {
		variants[strings.TrimSuffix(c, ".")] = true
	}

	last := parts[len(parts)-1]
	if last != "" && isDigits(last) {
		switch len(last) {
		case 1:
			variants[strings.Join(append(parts[:len(parts)-1:len(parts)-1], last+"0"), ".")] = true
			variants[strings.Join(append(parts[:len(parts)-1:len(parts)-1], last+"00"), ".")] = true
		case 2:
			variants[strings.Join(append(parts[:len(parts)-1:len(parts)-1], last+"0"), ".")] = true
		}
	}

	out := make([]string, 0, len(variants))
	for v := range variants {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// searchOrder maps a preferred taxonomy label to the column tried first.
var searchOrder = []struct {
	label  string
	column string
}{
	{"2022", Col2022},
	{"2025", Col2025},
	{"2025-camerale", Col2025Camerale},
}

// Search finds dataset rows for a code. Exact matches (normalized, stripped
// or raw) are tried across the code columns in preference order; when prefix
// is set and nothing matched exactly, a prefix search follows; as a last
// resort the 2022 hierarchy family of the code is returned.
func (t *Table) Search(code, prefer string, prefix bool) []Row {
	variants := CodeVariants(code)
	if len(variants) == 0 {
		return nil
	}

	order := make([]string, 0, len(searchOrder))
	for _, so := range searchOrder {
		if so.label == prefer {
			order = append([]string{so.column}, order...)
		} else {
			order = append(order, so.column)
		}
	}

	variantSet := make(map[string]bool, len(variants))
	for _, v := range variants {
		variantSet[v] = true
	}

	for _, col := range order {
		var hits []Row
		for _, rec := range t.rows {
			if variantSet[rec.norm[col]] || variantSet[rec.strip[col]] || variantSet[rec.values[col]] {
				hits = append(hits, rec.values)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}

	if prefix {
		for _, col := range order {
			var hits []Row
			for _, rec := range t.rows {
				if hasAnyPrefix(rec.norm[col], variants) || hasAnyPrefix(rec.strip[col], variants) {
					hits = append(hits, rec.values)
				}
			}
			if len(hits) > 0 {
				return hits
			}
		}
	}

	var family []Row
	for _, rec := range t.rows {
		if hasAnyPrefix(rec.norm[Col2022], variants) {
			family = append(family, rec.values)
		}
	}
	return family
}

func hasAnyPrefix(s string, prefixes []string) bool {
	if s == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
