package validators

import (
	"strings"
	"unicode/utf8"
)

// MaxSearchTermLength bounds the free-text search input.
const MaxSearchTermLength = 100

// SearchTerm caps the term at maxLen runes and replaces invalid UTF-8. The
// term is otherwise passed through as typed, whitespace and markup included.
func SearchTerm(input string, maxLen int) string {
	term := input
	if !utf8.ValidString(term) {
		term = strings.ToValidUTF8(term, "\uFFFD")
	}
	if maxLen > 0 && utf8.RuneCountInString(term) > maxLen {
		term = string([]rune(term)[:maxLen])
	}
	return term
}
