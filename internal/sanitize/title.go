package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle returns the comparison key for a title: markup removed,
// diacritics folded, lowercased, punctuation replaced by spaces and
// whitespace collapsed. Two titles that differ only in those respects map
// to the same key.
func NormalizeTitle(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	s = foldDiacritics(s)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return collapse(s)
}

// Name normalizes a person name for case-insensitive comparison.
func Name(s string) string {
	return strings.ToLower(collapse(foldDiacritics(s)))
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Line sanitizes a single-line field such as a title, journal or author
// name: markup removed and all whitespace collapsed to single spaces.
func Line(s string) string {
	return collapse(Text(s))
}

// Lines applies Line to each element and drops the empty results.
func Lines(in []string) []string {
	var out []string
	for _, s := range in {
		if v := Line(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
