package textmetrics

import (
	"fmt"

	"github.com/example/metricmuse/internal/nlp"
)

// Analyzer computes Reports with a fixed set of capabilities. It holds no
// mutable state and can be shared across goroutines.
type Analyzer struct {
	tokenizer   Tokenizer
	stopwords   Stopwords
	corrector   Corrector
	readability Readability
}

// NewAnalyzer wires an analyzer from individual capabilities.
func NewAnalyzer(tokenizer Tokenizer, stopwords Stopwords, corrector Corrector, readability Readability) *Analyzer {
	return &Analyzer{
		tokenizer:   tokenizer,
		stopwords:   stopwords,
		corrector:   corrector,
		readability: readability,
	}
}

// NewAnalyzerFromToolkit wires an analyzer from a loaded nlp toolkit.
func NewAnalyzerFromToolkit(kit *nlp.Toolkit) *Analyzer {
	return NewAnalyzer(kit.Tokenizer, kit.Stopwords, kit.Corrector, kit.Stats)
}

// Tokens tokenizes text with the analyzer's tokenizer.
func (a *Analyzer) Tokens(text string) ([]string, error) {
	tokens, err := a.tokenizer.Words(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return tokens, nil
}

// GrammaticalErrorPercentage is the package function bound to the analyzer's corrector.
func (a *Analyzer) GrammaticalErrorPercentage(text string) float64 {
	return GrammaticalErrorPercentage(text, a.corrector)
}

// ReadabilityScore returns the Flesch reading ease of text.
func (a *Analyzer) ReadabilityScore(text string) float64 {
	return ReadabilityScore(text, a.readability)
}

// AverageSentenceLength returns words per sentence of text.
func (a *Analyzer) AverageSentenceLength(text string) float64 {
	return AverageSentenceLength(text, a.readability)
}

// RepetitiveWords tokenizes text and returns its repeated content words.
func (a *Analyzer) RepetitiveWords(text string) (int, string, error) {
	tokens, err := a.Tokens(text)
	if err != nil {
		return 0, "", err
	}
	count, list := FindRepetitiveWords(tokens, a.stopwords)
	return count, list, nil
}

// GenericContent tokenizes text and returns its filler-phrase percentage.
func (a *Analyzer) GenericContent(text string) (float64, error) {
	tokens, err := a.Tokens(text)
	if err != nil {
		return 0, err
	}
	return AssessGenericContent(text, tokens), nil
}

// AIContent tokenizes text and returns its AI-content score.
func (a *Analyzer) AIContent(text string) (float64, error) {
	tokens, err := a.Tokens(text)
	if err != nil {
		return 0, err
	}
	return a.aiContent(text, tokens), nil
}

func (a *Analyzer) aiContent(text string, tokens []string) float64 {
	repetitive, _ := FindRepetitiveWords(tokens, a.stopwords)
	return DetectAIContent(AISignals{
		GenericContentPercentage: AssessGenericContent(text, tokens),
		RepetitiveWordsCount:     repetitive,
		TotalWords:               len(tokens),
		AverageSentenceLength:    a.AverageSentenceLength(text),
	})
}

// Analyze computes every metric for text, tokenizing it once.
func (a *Analyzer) Analyze(text string) (Report, error) {
	tokens, err := a.Tokens(text)
	if err != nil {
		return Report{}, err
	}

	avgSentence := a.AverageSentenceLength(text)
	generic := AssessGenericContent(text, tokens)
	repetitiveCount, repetitiveList := FindRepetitiveWords(tokens, a.stopwords)

	return Report{
		GrammaticalErrorPercentage: a.GrammaticalErrorPercentage(text),
		ReadabilityScore:           a.ReadabilityScore(text),
		AverageSentenceLength:      avgSentence,
		RepetitiveWordsCount:       repetitiveCount,
		RepetitiveWordsList:        repetitiveList,
		AIContentPercentage: DetectAIContent(AISignals{
			GenericContentPercentage: generic,
			RepetitiveWordsCount:     repetitiveCount,
			TotalWords:               len(tokens),
			AverageSentenceLength:    avgSentence,
		}),
		GenericContentPercentage: generic,
	}, nil
}
