package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeDescription produces the key used to join catalog descriptions
// with line items: case-folded, diacritics stripped, whitespace collapsed.
func NormalizeDescription(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// NormalizeCode trims surrounding whitespace from a scanned code
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}
