// Package normalize canonicalizes OCR-extracted answer text before scoring.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// foldTable maps Latin-extended characters that do not occur in the Turkish
// alphabet to the closest Turkish letter. OCR on Turkish handwriting commonly
// misreads ö/ü/ğ/ç as these neighbours. Both cases are listed so that folding
// followed by lowercasing is idempotent.
var foldTable = map[rune]rune{
	'ä': 'ö', 'à': 'a', 'á': 'a', 'â': 'ö', 'ã': 'ö', 'å': 'a', 'ā': 'ö', 'ă': 'ö', 'ą': 'a',
	'ë': 'e', 'è': 'e', 'é': 'e', 'ê': 'e', 'ē': 'e', 'ĕ': 'e', 'ę': 'ç', 'ė': 'e',
	'ï': 'i', 'ì': 'i', 'í': 'i', 'î': 'i', 'ĩ': 'i', 'ī': 'i', 'ĭ': 'i', 'į': 'i',
	'ò': 'ö', 'ó': 'ö', 'ô': 'ö', 'õ': 'ö', 'ø': 'o', 'ō': 'ö', 'ŏ': 'ö', 'ő': 'ö',
	'ù': 'ü', 'ú': 'ü', 'û': 'ü', 'ũ': 'ü', 'ū': 'ü', 'ŭ': 'ü', 'ů': 'ü', 'ű': 'ü',
	'ÿ': 'y', 'ý': 'y', 'ŷ': 'g',
	'ć': 'c', 'ĉ': 'c', 'ċ': 'c', 'č': 'c',
	'ġ': 'ğ', 'ģ': 'ğ',
	'ś': 's', 'ŝ': 's', 'š': 's',
	'ž': 'z', 'ź': 'z', 'ż': 'z',
	'ñ': 'n', 'ń': 'n', 'ņ': 'n', 'ň': 'n', 'ŉ': 'n',

	'Ä': 'ö', 'À': 'a', 'Á': 'a', 'Â': 'ö', 'Ã': 'ö', 'Å': 'a', 'Ā': 'ö', 'Ă': 'ö', 'Ą': 'a',
	'Ë': 'e', 'È': 'e', 'É': 'e', 'Ê': 'e', 'Ē': 'e', 'Ĕ': 'e', 'Ę': 'ç', 'Ė': 'e',
	'Ï': 'i', 'Ì': 'i', 'Í': 'i', 'Î': 'i', 'Ĩ': 'i', 'Ī': 'i', 'Ĭ': 'i', 'Į': 'i',
	'Ò': 'ö', 'Ó': 'ö', 'Ô': 'ö', 'Õ': 'ö', 'Ø': 'o', 'Ō': 'ö', 'Ŏ': 'ö', 'Ő': 'ö',
	'Ù': 'ü', 'Ú': 'ü', 'Û': 'ü', 'Ũ': 'ü', 'Ū': 'ü', 'Ŭ': 'ü', 'Ů': 'ü', 'Ű': 'ü',
	'Ÿ': 'y', 'Ý': 'y', 'Ŷ': 'g',
	'Ć': 'c', 'Ĉ': 'c', 'Ċ': 'c', 'Č': 'c',
	'Ġ': 'ğ', 'Ģ': 'ğ',
	'Ś': 's', 'Ŝ': 's', 'Š': 's',
	'Ž': 'z', 'Ź': 'z', 'Ż': 'z',
	'Ñ': 'n', 'Ń': 'n', 'Ņ': 'n', 'Ň': 'n',
}

// Text returns the canonical form of s: diacritics folded to Turkish letters,
// Turkish-aware lowercasing (İ→i, I→ı), surrounding whitespace trimmed and
// internal runs collapsed to single spaces. Text(Text(s)) == Text(s).
func Text(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if t, ok := foldTable[r]; ok {
			r = t
		}
		b.WriteRune(r)
	}

	// cases.Caser is stateful, so a fresh one per call.
	lowered := cases.Lower(language.Turkish).String(b.String())

	return strings.Join(strings.Fields(lowered), " ")
}
