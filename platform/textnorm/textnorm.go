// Package textnorm folds user text into the accent-free, lower-case form used
// for keyword matching and catalog search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics, lower-cases and trims s. "Lápiz Ñandú" becomes "lapiz nandu".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(strings.ToLower(folded))
}

// Tokens folds s and splits it on anything that is not a letter or digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// SearchWords returns the folded tokens longer than minLen runes.
func SearchWords(s string, minLen int) []string {
	tokens := Tokens(s)
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) > minLen {
			words = append(words, tok)
		}
	}
	return words
}
