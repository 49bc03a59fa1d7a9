// Package safety flags candidate text that matches a banned-term dictionary
// and derives the enforcement action for classification.
package safety

import (
	"sort"
	"strings"
)

// Built-in category names with a fixed severity.
const (
	CategoryProhibited    = "prohibited"
	CategoryMedical       = "medical"
	CategoryHazardous     = "hazardous"
	CategoryAgeRestricted = "age_restricted"
	CategoryCopyright     = "copyright"
)

// Dictionary maps a category to its banned terms. Terms are stored in
// normalized form, sorted and unique. The zero value is an empty dictionary
// that flags nothing.
type Dictionary struct {
	terms map[string][]string
}

// NewDictionary builds a Dictionary from raw category lists. Category names
// and terms are normalized; blank entries are dropped.
func NewDictionary(raw map[string][]string) Dictionary {
	d := Dictionary{terms: make(map[string][]string, len(raw))}
	for cat, list := range raw {
		c := CategoryKey(cat)
		if c == "" {
			continue
		}
		for _, t := range list {
			d.terms[c] = insertTerm(d.terms[c], normalize(t))
		}
		if len(d.terms[c]) == 0 {
			delete(d.terms, c)
		}
	}
	return d
}

// Categories returns the category names in sorted order.
func (d Dictionary) Categories() []string {
	out := make([]string, 0, len(d.terms))
	for c := range d.terms {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Terms returns a copy of the terms of category.
func (d Dictionary) Terms(category string) []string {
	list := d.terms[CategoryKey(category)]
	return append([]string(nil), list...)
}

// Len returns the total number of terms.
func (d Dictionary) Len() int {
	n := 0
	for _, list := range d.terms {
		n += len(list)
	}
	return n
}

// Map returns a deep copy of the dictionary contents.
func (d Dictionary) Map() map[string][]string {
	out := make(map[string][]string, len(d.terms))
	for c, list := range d.terms {
		out[c] = append([]string(nil), list...)
	}
	return out
}

// Contains reports whether term is listed under category.
func (d Dictionary) Contains(category, term string) bool {
	list := d.terms[CategoryKey(category)]
	t := normalize(term)
	i := sort.SearchStrings(list, t)
	return i < len(list) && list[i] == t
}

// with returns a copy of d with term added to category.
func (d Dictionary) with(category, term string) Dictionary {
	m := d.Map()
	c := CategoryKey(category)
	m[c] = insertTerm(m[c], normalize(term))
	return Dictionary{terms: m}
}

// without returns a copy of d with term removed from category. Empty
// categories are dropped.
func (d Dictionary) without(category, term string) Dictionary {
	m := d.Map()
	c := CategoryKey(category)
	t := normalize(term)
	list := m[c]
	if i := sort.SearchStrings(list, t); i < len(list) && list[i] == t {
		list = append(list[:i], list[i+1:]...)
	}
	if len(list) == 0 {
		delete(m, c)
	} else {
		m[c] = list
	}
	return Dictionary{terms: m}
}

func insertTerm(list []string, t string) []string {
	if t == "" {
		return list
	}
	i := sort.SearchStrings(list, t)
	if i < len(list) && list[i] == t {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = t
	return list
}

// CategoryKey canonicalises a category name: lower case with underscores,
// so "Age-Restricted" and "age restricted" are the same category.
func CategoryKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

// DefaultDictionary is the seed written by "safety init".
func DefaultDictionary() Dictionary {
	return NewDictionary(map[string][]string{
		CategoryProhibited: {
			"counterfeit", "replica", "stun gun", "brass knuckles", "lock pick set",
			"偽物", "コピー品",
		},
		CategoryMedical: {
			"prescription", "antibiotic", "insulin", "contact lenses",
			"処方箋", "医薬品",
		},
		CategoryHazardous: {
			"lithium battery pack", "aerosol", "flammable", "pesticide",
			"可燃性", "農薬",
		},
		CategoryAgeRestricted: {
			"alcohol", "tobacco", "e-cigarette", "vape",
			"お酒", "タバコ",
		},
		CategoryCopyright: {
			"bootleg", "unofficial merchandise", "fan-made",
			"海賊版",
		},
	})
}
