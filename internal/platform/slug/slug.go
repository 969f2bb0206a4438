package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds slugs embedded in identifiers.
const MaxLen = 32

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases input, strips accents ("Meditación" -> "meditacion") and
// collapses everything else to single dashes.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLen {
		s = strings.TrimRight(s[:MaxLen], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
