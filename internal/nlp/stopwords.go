package nlp

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
)

//go:embed stopwords_en.txt
var stopwordsEN []byte

// Stopwords is an immutable set of lower-case function words.
type Stopwords struct {
	words map[string]struct{}
}

// NewStopwords builds a set from the given words, lower-casing each.
func NewStopwords(words ...string) *Stopwords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Stopwords{words: set}
}

// Contains reports whether word (compared lower-cased) is a stopword.
func (s *Stopwords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of distinct stopwords.
func (s *Stopwords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

func loadStopwords(data []byte) *Stopwords {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return NewStopwords(words...)
}
