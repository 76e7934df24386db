// Package textnorm normalizes chat text for matching.
//
// Exports mix Arabic and Latin script and carry invisible direction marks,
// Eastern Arabic digits and optional diacritics. Matching is done on a
// folded form so that keyword lists only need to spell each word once per
// letter variant.
package textnorm

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = '\u0640'

func isInvisible(r rune) bool {
	switch {
	case r == '\ufeff':
		return true
	case r >= '\u200b' && r <= '\u200f':
		return true
	case r >= '\u202a' && r <= '\u202e':
		return true
	case r >= '\u2066' && r <= '\u2069':
		return true
	}
	return false
}

func foldRune(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩', r >= '۰' && r <= '۹':
		return foldDigit(r)
	case r == '\u00a0' || r == '\u202f' || r == '\u2007':
		return ' '
	case r == 'ى':
		return 'ي'
	case r == 'ة':
		return 'ه'
	}
	return r
}

// StripInvisible removes direction marks, zero-width characters and the BOM,
// and turns non-breaking spaces into plain spaces.
func StripInvisible(s string) string {
	t := transform.Chain(runes.Remove(runes.Predicate(isInvisible)), runes.Map(spaceOnly))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func spaceOnly(r rune) rune {
	if r == '\u00a0' || r == '\u202f' || r == '\u2007' {
		return ' '
	}
	return r
}

func foldDigit(r rune) rune {
	switch {
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	}
	return r
}

// FoldDigits rewrites Arabic-Indic and Persian digits as ASCII digits.
func FoldDigits(s string) string {
	out, _, err := transform.String(runes.Map(foldDigit), s)
	if err != nil {
		return s
	}
	return out
}

// Fold returns the matching form of s: invisible characters removed,
// diacritics and tatweel dropped, hamza carriers reduced to their base
// letter, alef maqsura written as ya and ta marbuta as ha, digits folded to
// ASCII and letters lower-cased.
func Fold(s string) string {
	t := transform.Chain(
		runes.Remove(runes.Predicate(isInvisible)),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel })),
		norm.NFC,
		runes.Map(foldRune),
		cases.Lower(language.Und),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
