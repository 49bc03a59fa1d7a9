package safety

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalize folds case and width so that "ＶＡＰＥ", "Vape" and "vape"
// compare equal. Runs of whitespace collapse to a single space.
func normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Match is a single dictionary hit.
type Match struct {
	Category string
	Term     string
}

// Match returns every (category, term) pair found in text, in category then
// term order.
func (d Dictionary) Match(text string) []Match {
	folded := normalize(text)
	if folded == "" {
		return nil
	}
	var out []Match
	for _, c := range d.Categories() {
		for _, t := range d.terms[c] {
			if containsWord(folded, t) {
				out = append(out, Match{Category: c, Term: t})
			}
		}
	}
	return out
}

// containsWord reports whether term occurs in text on word boundaries.
// Scripts written without spaces (Han, Hiragana, Katakana, Thai) do not
// require a boundary.
func containsWord(text, term string) bool {
	if term == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)

	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)

		leftOK := true
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			leftOK = boundary(prev, first)
		}
		rightOK := true
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			rightOK = boundary(last, next)
		}
		if leftOK && rightOK {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

// boundary reports whether a match edge between runes a and b is a word
// boundary.
func boundary(a, b rune) bool {
	if unspaced(a) || unspaced(b) {
		return true
	}
	return !wordRune(a) || !wordRune(b)
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func unspaced(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai)
}
