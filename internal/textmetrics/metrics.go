// Package textmetrics computes the writing metrics reported by MetricMuse.
//
// Every metric is a plain function of the text (or its tokens) and the
// capability it needs, so each can be exercised on its own. Analyzer binds
// the capabilities and produces a full Report.
package textmetrics

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/metricmuse/internal/nlp"
)

// Tokenizer splits text into word and punctuation tokens.
type Tokenizer interface {
	Words(text string) ([]string, error)
}

// Corrector rewrites text with spelling corrections applied.
type Corrector interface {
	Correct(text string) string
}

// Stopwords reports whether a word is a function word to ignore.
type Stopwords interface {
	Contains(word string) bool
}

// Readability provides the Flesch reading ease and its word and sentence counts.
type Readability interface {
	FleschReadingEase(text string) float64
	LexiconCount(text string) int
	SentenceCount(text string) int
}

// FillerPhrases are the words and phrases counted as generic content.
var FillerPhrases = []string{
	"basically", "various", "very", "things", "stuff", "it is important",
	"clearly", "obviously", "however", "therefore", "furthermore", "in conclusion",
}

const (
	minRepetitiveWordLength = 4
	shortSentenceThreshold  = 15
)

// GrammaticalErrorPercentage pairs the whitespace-separated words of text
// with those of its corrected form by position and returns the share that
// differ. Positions past the shorter list are not compared, so a correction
// that inserts or removes a word shifts every later pair.
func GrammaticalErrorPercentage(text string, corrector Corrector) float64 {
	original := strings.Fields(text)
	if len(original) == 0 {
		return 0
	}
	corrected := strings.Fields(corrector.Correct(text))

	n := min(len(original), len(corrected))
	mismatches := 0
	for i := 0; i < n; i++ {
		if original[i] != corrected[i] {
			mismatches++
		}
	}
	return round2(ratio(mismatches, len(original)) * 100)
}

// ReadabilityScore returns the Flesch reading ease of text unmodified.
func ReadabilityScore(text string, r Readability) float64 {
	return r.FleschReadingEase(text)
}

// AverageSentenceLength returns words per sentence.
func AverageSentenceLength(text string, r Readability) float64 {
	return ratio(r.LexiconCount(text), r.SentenceCount(text))
}

// FindRepetitiveWords counts the distinct content words that occur more than
// once. Content words are alphabetic tokens longer than three letters that
// are not stopwords, compared lower-cased. The list renders "word: count"
// pairs in first-seen order.
func FindRepetitiveWords(tokens []string, stopwords Stopwords) (int, string) {
	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if !isAlpha(tok) || utf8.RuneCountInString(tok) < minRepetitiveWordLength {
			continue
		}
		w := strings.ToLower(tok)
		if stopwords.Contains(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	pairs := make([]string, 0, len(order))
	for _, w := range order {
		if c := counts[w]; c > 1 {
			pairs = append(pairs, fmt.Sprintf("%s: %d", w, c))
		}
	}
	return len(pairs), strings.Join(pairs, ", ")
}

// AssessGenericContent returns filler-phrase matches per token as a
// percentage. Matching is whole-word against the lower-cased text, with
// word boundaries taken over every script; the denominator is the raw token
// count. Hyphenated tokens can yield more matches than tokens, so the
// result is capped at 100.
func AssessGenericContent(text string, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, phrase := range FillerPhrases {
		matches += nlp.CountWholeWord(lower, phrase)
	}
	return math.Min(round2(ratio(matches, len(tokens))*100), 100)
}

// AISignals are the inputs of the AI-content heuristic.
type AISignals struct {
	GenericContentPercentage float64
	RepetitiveWordsCount     int
	TotalWords               int
	AverageSentenceLength    float64
}

// DetectAIContent averages three signals: text with no filler at all scores
// 1, repetitive words per token scores their density, and an average
// sentence shorter than 15 words scores 1.
func DetectAIContent(s AISignals) float64 {
	genericScore := 0.0
	if s.GenericContentPercentage == 0 {
		genericScore = 1
	}
	repetitiveDensity := ratio(s.RepetitiveWordsCount, s.TotalWords)
	sentenceScore := 0.0
	if s.AverageSentenceLength < shortSentenceThreshold {
		sentenceScore = 1
	}
	return round2((genericScore + repetitiveDensity + sentenceScore) / 3 * 100)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
