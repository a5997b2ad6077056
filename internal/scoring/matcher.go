package scoring

import (
	"regexp"
	"strings"
)

// Matches reports whether keyword occurs in haystack, tolerating plural,
// hyphenation and punctuation variants. Tiers, first hit wins:
//
//  1. normalized substring containment
//  2. normalized keyword variants (singular, plural, hyphen/space swaps,
//     separators removed)
//  3. case-insensitive word-boundary match of the raw keyword
//
// A blank keyword never matches.
func Matches(keyword, haystack string) bool {
	if strings.TrimSpace(keyword) == "" || strings.TrimSpace(haystack) == "" {
		return false
	}

	nk := Normalize(keyword)
	nh := Normalize(haystack)
	if nk != "" && nh != "" {
		if strings.Contains(nh, nk) {
			return true
		}
		for _, v := range keywordVariants(nk) {
			if strings.Contains(nh, v) {
				return true
			}
		}
	}

	return boundaryMatch(keyword, haystack)
}

// matchesEither runs Matches in both directions, so "AWS" on the job side
// matches "Amazon Web Services (AWS)" on the résumé side and vice versa.
func matchesEither(a, b string) bool {
	return Matches(a, b) || Matches(b, a)
}

func keywordVariants(nk string) []string {
	candidates := []string{
		nk,
		strings.TrimSuffix(nk, "s"),
		nk + "s",
		strings.ReplaceAll(nk, "-", " "),
		strings.ReplaceAll(nk, " ", "-"),
	}
	if strings.ContainsAny(nk, " -") {
		compact := strings.NewReplacer(" ", "", "-", "").Replace(nk)
		candidates = append(candidates, compact)
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func boundaryMatch(keyword, haystack string) bool {
	pattern := `(?i)\b` + regexp.QuoteMeta(strings.TrimSpace(keyword)) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}
