// Package textnorm canonicalizes message text before pattern matching so that
// "Předplatné" and "predplatne" score identically.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes to NFD, strips combining marks and recomposes, which
// turns accented letters into their base form.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds diacritics, lowercases and collapses every whitespace run to
// a single space. It is total on any input and idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded, _, err := transform.String(foldMarks, text)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw
		// text so normalization stays total.
		folded = text
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
