// Package scoring computes the deterministic résumé-to-job-description fit score.
//
// Everything in this package is a pure function over request-local values:
// no I/O, no shared mutable state, safe for concurrent use.
package scoring

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w-]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases text, replaces anything that is not a word character
// or hyphen with a space, collapses whitespace and trims.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
