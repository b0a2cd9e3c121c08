// Package textnorm folds free text into the canonical forms used for
// fingerprinting and fuzzy category matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents decomposes s and drops combining marks ("Café" -> "Cafe").
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Description lowercases, strips accents and collapses whitespace.
func Description(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(StripAccents(s))), " ")
}

// Search is Description with every non [a-z0-9] rune turned into a space.
func Search(s string) string {
	folded := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, strings.ToLower(StripAccents(s)))
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens splits the Search form of s into words of at least three runes.
func Tokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(Search(s)) {
		if len(tok) >= 3 {
			out = append(out, tok)
		}
	}
	return out
}

// Slug turns a display name into a code: "Saúde & Bem-estar" -> "saude_bem_estar".
func Slug(s string) string {
	return strings.Join(strings.Fields(Search(s)), "_")
}
