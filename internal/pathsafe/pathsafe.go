// Package pathsafe turns arbitrary titles into filesystem-safe path
// components. It is a pure string-to-string transform with no I/O, the
// leaf dependency of the whole pipeline.
package pathsafe

import "regexp"

// DefaultMaxLength is used by Sanitize when callers don't need a custom
// bound.
const DefaultMaxLength = 30

// forbidden matches characters that can't appear in filesystem path
// components on at least one of the major platforms, plus ASCII control
// characters.
var forbidden = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f\x7f]`)

// runsOfUnderscore collapses two-or-more consecutive underscores.
var runsOfUnderscore = regexp.MustCompile(`_{2,}`)

// Sanitize implements the PathSanitizer algorithm: replace forbidden
// characters, collapse underscore runs, trim, bound the length preferring
// a word boundary, and fall back to fallback if nothing survives.
//
// Sanitize is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string, maxLength int, fallback string) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	s := forbidden.ReplaceAllString(name, "_")
	s = runsOfUnderscore.ReplaceAllString(s, "_")
	r := trimSpaceAndUnderscore([]rune(s))

	if len(r) > maxLength {
		r = truncateAtBoundary(r, maxLength)
		r = trimSpaceAndUnderscore(r)
	}

	if len(r) == 0 {
		return fallback
	}
	return string(r)
}

// truncateAtBoundary truncates r to at most maxLength runes, preferring to
// cut at a space or underscore boundary between maxLength/2 and maxLength
// when one exists, so words aren't split mid-way when avoidable. Operating
// on runes (not bytes) keeps multi-byte UTF-8 code points intact.
func truncateAtBoundary(r []rune, maxLength int) []rune {
	cut := r[:maxLength]
	minBoundary := maxLength / 2

	best := -1
	for i := len(cut) - 1; i >= minBoundary; i-- {
		if cut[i] == ' ' || cut[i] == '_' {
			best = i
			break
		}
	}
	if best >= 0 {
		return cut[:best]
	}
	return cut
}

func trimSpaceAndUnderscore(r []rune) []rune {
	start := 0
	for start < len(r) && isTrimmable(r[start]) {
		start++
	}
	end := len(r)
	for end > start && isTrimmable(r[end-1]) {
		end--
	}
	return r[start:end]
}

func isTrimmable(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '_':
		return true
	default:
		return false
	}
}
