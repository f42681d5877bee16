package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsWordRune reports whether r is a word character: a letter, a number or
// an underscore, in any script.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// WordBoundary reports whether byte offset i of text lies between a word
// character and a non-word one. Both ends of text count as non-word.
func WordBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = IsWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = IsWordRune(r)
	}
	return before != after
}

// CountWholeWord counts non-overlapping occurrences of phrase in text that
// start and end on word boundaries.
func CountWholeWord(text, phrase string) int {
	if phrase == "" {
		return 0
	}
	count := 0
	for pos := 0; pos <= len(text)-len(phrase); {
		i := strings.Index(text[pos:], phrase)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(phrase)
		if WordBoundary(text, start) && WordBoundary(text, end) {
			count++
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return count
}
