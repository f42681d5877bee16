package nlp

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextStats implements the Flesch reading ease and the word, sentence and
// syllable counts it is built from.
type TextStats struct{}

// LexiconCount counts whitespace-separated words after punctuation (other
// than apostrophes) is removed.
func (TextStats) LexiconCount(text string) int {
	return len(strings.Fields(removePunctuation(text)))
}

// SentenceCount counts sentence candidates, ignoring those of two words or
// fewer. It never returns less than one.
func (s TextStats) SentenceCount(text string) int {
	sentences := sentenceCandidates(text)
	ignored := 0
	for _, sentence := range sentences {
		if s.LexiconCount(sentence) <= 2 {
			ignored++
		}
	}
	if n := len(sentences) - ignored; n > 1 {
		return n
	}
	return 1
}

// SyllableCount sums the estimated syllables of every word in text.
func (TextStats) SyllableCount(text string) int {
	total := 0
	for _, word := range strings.Fields(strings.ToLower(removePunctuation(text))) {
		total += syllables(word)
	}
	return total
}

// FleschReadingEase returns 206.835 - 1.015*(words/sentences) -
// 84.6*(syllables/words), rounded to two decimals. Text without words
// scores 0.
func (s TextStats) FleschReadingEase(text string) float64 {
	words := s.LexiconCount(text)
	if words == 0 {
		return 0
	}
	wordsPerSentence := float64(words) / float64(s.SentenceCount(text))
	syllablesPerWord := float64(s.SyllableCount(text)) / float64(words)
	score := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	return math.Round(score*100) / 100
}

// sentenceCandidates splits text into runs of non-terminators that start on
// a word boundary, each followed by its trailing terminators.
func sentenceCandidates(text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		start := -1
		for i := pos; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !isTerminator(r) && WordBoundary(text, i) {
				start = i
				break
			}
			i += size
		}
		if start < 0 {
			break
		}

		end := start
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if isTerminator(r) {
				break
			}
			end += size
		}
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if !isTerminator(r) {
				break
			}
			end += size
		}
		out = append(out, text[start:end])
		pos = end
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func removePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' {
			return r
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, text)
}

// syllables estimates syllables by counting vowel groups, discounting a
// silent final "e" (but not "-le") and never going below one.
func syllables(word string) int {
	word = strings.Trim(word, "'")
	if word == "" {
		return 0
	}

	count := 0
	prevVowel := false
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			prevVowel = false
			continue
		}
		letters++
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if letters == 0 {
		return 1
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}
