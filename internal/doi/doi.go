// Package doi finds and normalizes Digital Object Identifiers.
package doi

import (
	"regexp"
	"strings"
)

// pattern matches a DOI anywhere in free text. Matching ignores case; the
// matched substring keeps its original case.
var pattern = regexp.MustCompile(`(?i)\b10\.\d{4,9}/[-._;()/:A-Z0-9]+\b`)

var prefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// Extract returns the first DOI found in candidates, scanned in order.
// Each candidate is searched on its own, so an identifier split across two
// candidates is never matched. Returns "" when nothing matches.
func Extract(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if m := pattern.FindString(c); m != "" {
			return m
		}
	}
	return ""
}

// Find returns the DOI in a single string, or "".
func Find(s string) string {
	return pattern.FindString(s)
}

// Valid reports whether s is exactly one DOI with no surrounding text.
func Valid(s string) bool {
	m := pattern.FindString(s)
	return m != "" && m == s
}

// Normalize returns the comparison key for a DOI: resolver prefixes removed,
// surrounding space trimmed and lowercased.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// Strip removes a resolver prefix and surrounding space, keeping case.
func Strip(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// Plausible reports whether s, once stripped, has the 10.<prefix>/<suffix>
// shape without necessarily satisfying the extraction pattern. Registry
// answers and previously reconciled records may carry such identifiers.
func Plausible(s string) bool {
	s = Strip(s)
	if !strings.HasPrefix(s, "10.") || strings.ContainsAny(s, " \t\n") {
		return false
	}
	prefix, suffix, ok := strings.Cut(s[3:], "/")
	return ok && prefix != "" && suffix != ""
}

// URL returns the doi.org resolver link for a DOI.
func URL(s string) string {
	if s == "" {
		return ""
	}
	return "https://doi.org/" + Normalize(s)
}
