package wordlist

import "strings"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLayout keeps phrases whose every rune the layout can produce.
func FilterForLayout(producible func(rune) bool) FilterFunc {
	return func(word string) bool {
		if strings.TrimSpace(word) == "" {
			return false
		}
		for _, r := range word {
			if !producible(r) {
				return false
			}
		}
		return true
	}
}

// Filter returns the words keep accepts.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
