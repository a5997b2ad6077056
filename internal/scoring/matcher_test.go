package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"  Hello,   World! ", "hello world"},
		{"CI/CD", "ci cd"},
		{"front-end_dev", "front-end_dev"},
		{"Node.js\tand\nReact", "node js and react"},
		{"Senior Product Manager", "senior product manager"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		name     string
		keyword  string
		haystack string
		want     bool
	}{
		{"exact", "Python", "Python, Go", true},
		{"case insensitive", "python", "PYTHON developer", true},
		{"separators removed", "Node.js", "I build NodeJS apps", true},
		{"substring", "lead", "leadership team", true},
		{"plural in haystack", "Python", "pythons", true},
		{"plural keyword", "APIs", "REST API design", true},
		{"slash vs hyphen", "CI/CD", "CI-CD pipelines", true},
		{"hyphen vs space", "machine-learning", "machine learning models", true},
		// Containment runs before the word-boundary tier, so SQL is found inside MySQL.
		{"embedded acronym", "SQL", "MySQL", true},
		// Known loose matches, kept as is. Punctuation-only suffixes normalize
		// away, so C++ and C# both become "c" and are found in most text.
		{"c++ collapses to c", "C++", "Docker", true},
		{"c# collapses to c", "C#", "Ruby on Rails, Docker", true},
		// The singular variant of AWS is "aw", which "drawing" contains.
		{"singular variant of acronym", "AWS", "technical drawing", true},
		{"no match", "Kubernetes", "Docker Swarm", false},
		{"empty keyword", "", "anything at all", false},
		{"blank keyword", "   ", "anything at all", false},
		{"empty haystack", "Go", "", false},
		{"keyword longer than haystack", "distributed systems", "Go", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.keyword, tc.haystack))
		})
	}
}

func TestMatchesBoundaryTierEscapesMetacharacters(t *testing.T) {
	assert.True(t, boundaryMatch("a.b", "uses a.b daily"))
	assert.False(t, boundaryMatch("a.b", "axb"))
	assert.True(t, boundaryMatch("go", "Built services in Go."))
	assert.False(t, boundaryMatch("go", "MongoDB"))
}

func TestKeywordVariants(t *testing.T) {
	assert.Equal(t, []string{"apis", "api", "apiss"}, keywordVariants("apis"))
	assert.Contains(t, keywordVariants("node js"), "nodejs")
	assert.Contains(t, keywordVariants("ci cd"), "ci-cd")
	assert.Contains(t, keywordVariants("ci-cd"), "ci cd")
	assert.NotContains(t, keywordVariants("s"), "")
}
