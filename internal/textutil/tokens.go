package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fields splits text on any run of Unicode whitespace.
func Fields(text string) []string {
	return strings.Fields(text)
}

// JoinWords joins tokens with single spaces, trimming the result.
func JoinWords(tokens []string) string {
	return strings.TrimSpace(strings.Join(tokens, " "))
}

// CollapseSpaces rewrites text so tokens are separated by exactly one space.
func CollapseSpaces(text string) string {
	return JoinWords(strings.Fields(text))
}

var normalizePattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Normalize prepares text for comparison by lowercasing and removing punctuation.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = normalizePattern.ReplaceAllString(s, "")
	return CollapseSpaces(s)
}

// Upper returns s upper-cased using language-neutral Unicode case mapping.
// A Caser carries state, so one is built per call.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
