package assign

import (
	"regexp"
	"strings"
)

var (
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Normalize standardizes an area name for matching by:
//  1. Trimming whitespace
//  2. Converting to lowercase
//  3. Stripping punctuation
//  4. Collapsing whitespace runs into single spaces
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	s = punctRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
