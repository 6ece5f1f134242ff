package common

import "strings"

// HasAnyFold reports whether s contains any of the substrings, ignoring case.
func HasAnyFold(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
