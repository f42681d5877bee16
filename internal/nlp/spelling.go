package nlp

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

//go:embed words_en.txt
var dictionaryEN []byte

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"

	// Words longer than this are left alone; edit-distance-2 expansion grows
	// quadratically with length.
	maxCorrectableLength = 24
)

var wordRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Corrector is an edit-distance spelling corrector over a frequency ranked
// word list. Correct keeps every non-word byte of its input in place.
type Corrector struct {
	freq map[string]int
}

// NewCorrector builds a corrector from words ordered most frequent first.
// Duplicates keep their first (highest) rank.
func NewCorrector(words []string) *Corrector {
	freq := make(map[string]int, len(words))
	for i, w := range words {
		w = strings.ToLower(w)
		if _, seen := freq[w]; seen || w == "" {
			continue
		}
		freq[w] = len(words) - i
	}
	return &Corrector{freq: freq}
}

func loadCorrector(data []byte) (*Corrector, error) {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, errors.New("embedded dictionary is empty")
	}
	return NewCorrector(words), nil
}

// Known reports whether word is in the dictionary.
func (c *Corrector) Known(word string) bool {
	_, ok := c.freq[strings.ToLower(word)]
	return ok
}

// Correct replaces each run of word characters with its best spelling
// candidate.
func (c *Corrector) Correct(text string) string {
	return wordRun.ReplaceAllStringFunc(text, c.CorrectWord)
}

// CorrectWord returns the most frequent known word within edit distance two
// of word, or word itself. Title case is carried over to the suggestion;
// known words, all-caps words and words with digits or non-ASCII letters
// are returned unchanged.
func (c *Corrector) CorrectWord(word string) string {
	lower := strings.ToLower(word)
	if _, ok := c.freq[lower]; ok {
		return word
	}
	if !correctable(word) {
		return word
	}

	best := c.bestOf(edits1(lower))
	if best == "" {
		best = c.bestEdit2(lower)
	}
	if best == "" {
		return word
	}
	if isTitle(word) {
		return strings.ToUpper(best[:1]) + best[1:]
	}
	return best
}

func (c *Corrector) bestOf(candidates []string) string {
	best, bestFreq := "", 0
	for _, cand := range candidates {
		f, ok := c.freq[cand]
		if !ok {
			continue
		}
		if f > bestFreq || (f == bestFreq && cand > best) {
			best, bestFreq = cand, f
		}
	}
	return best
}

func (c *Corrector) bestEdit2(word string) string {
	best, bestFreq := "", 0
	for _, e1 := range edits1(word) {
		cand := c.bestOf(edits1(e1))
		if cand == "" {
			continue
		}
		if f := c.freq[cand]; f > bestFreq || (f == bestFreq && cand > best) {
			best, bestFreq = cand, f
		}
	}
	return best
}

func edits1(word string) []string {
	n := len(word)
	out := make([]string, 0, 54*n+25)
	for i := 0; i <= n; i++ {
		left, right := word[:i], word[i:]
		if len(right) > 0 {
			out = append(out, left+right[1:])
		}
		if len(right) > 1 {
			out = append(out, left+string(right[1])+string(right[0])+right[2:])
		}
		for j := 0; j < len(alphabet); j++ {
			if len(right) > 0 {
				out = append(out, left+string(alphabet[j])+right[1:])
			}
			out = append(out, left+string(alphabet[j])+right)
		}
	}
	return out
}

func correctable(word string) bool {
	if len(word) > maxCorrectableLength {
		return false
	}
	upper := 0
	for _, r := range word {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return !(len(word) > 1 && upper == len(word))
}

func isTitle(word string) bool {
	for i, r := range word {
		if (i == 0) != unicode.IsUpper(r) {
			return false
		}
	}
	return word != ""
}
