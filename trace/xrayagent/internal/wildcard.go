package internal

import "strings"

// WildcardMatch reports whether text matches pattern, where '*' matches any
// run of characters and '?' matches exactly one. Matching is
// case-insensitive; sampling rules and naming patterns compare host names
// and URL paths, which are case-insensitive on the wire.
func WildcardMatch(pattern, text string) bool {
	if pattern == "" {
		return text == ""
	}
	if pattern == "*" {
		return true
	}

	pattern = strings.ToLower(pattern)
	text = strings.ToLower(text)

	pi, ti := 0, 0
	star, mark := -1, 0
	for ti < len(text) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == text[ti]):
			pi++
			ti++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = ti
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			ti = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
