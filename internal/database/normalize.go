package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeSearchTerm normalizes a name or location for comparison
// (lowercase, no diacritics, spaces for dashes). "Jiri" finds "Jiří Novák".
func NormalizeSearchTerm(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// MatchesSearch reports whether a report matches the name and location
// filters after normalization. Empty filters match everything.
func MatchesSearch(p *MissingPerson, name, location string) bool {
	name = NormalizeSearchTerm(name)
	location = NormalizeSearchTerm(location)

	if name != "" && !strings.Contains(NormalizeSearchTerm(p.Name), name) {
		return false
	}
	if location != "" && !strings.Contains(NormalizeSearchTerm(p.LastSeenLocation), location) {
		return false
	}
	return true
}
