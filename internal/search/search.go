// Package search scans chapter text for literal keyword matches and keeps a
// navigable cursor over the results. A Worker variant runs the scan off the
// rendering path and tags its events with a generation counter so stale
// results can be discarded.
package search

import "unicode"

// contextRunes is how many characters of surrounding text a match carries on
// each side.
const contextRunes = 50

// Match is one keyword occurrence. Offset counts runes from the start of the
// searched text; Before and After hold up to 50 characters of context on
// each side.
type Match struct {
	Offset int
	Before string
	After  string
}

// Find returns every non-overlapping occurrence of keyword in text, in
// ascending offset order. The keyword is matched literally. An empty keyword
// yields no matches.
func Find(text, keyword string, caseSensitive bool) []Match {
	ks := []rune(keyword)
	if len(ks) == 0 {
		return nil
	}
	rs := []rune(text)

	fold := func(r rune) rune { return r }
	if !caseSensitive {
		fold = unicode.ToLower
	}

	var matches []Match
	for i := 0; i+len(ks) <= len(rs); {
		if !runesEqual(rs[i:i+len(ks)], ks, fold) {
			i++
			continue
		}
		before := i - contextRunes
		if before < 0 {
			before = 0
		}
		after := i + len(ks) + contextRunes
		if after > len(rs) {
			after = len(rs)
		}
		matches = append(matches, Match{
			Offset: i,
			Before: string(rs[before:i]),
			After:  string(rs[i+len(ks) : after]),
		})
		i += len(ks)
	}
	return matches
}

func runesEqual(a, b []rune, fold func(rune) rune) bool {
	for i := range b {
		if fold(a[i]) != fold(b[i]) {
			return false
		}
	}
	return true
}
