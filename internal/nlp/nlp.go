// Package nlp holds the text-processing capabilities the metrics are built
// on: tokenization, an English stopword set, spelling correction and
// readability statistics. Resources are embedded and parsed once by Load.
package nlp

import "fmt"

// Toolkit bundles the loaded capabilities. It is immutable and safe for
// concurrent use.
type Toolkit struct {
	Tokenizer Tokenizer
	Stopwords *Stopwords
	Corrector *Corrector
	Stats     TextStats
}

// Load parses the embedded stopword list and spelling dictionary.
func Load() (*Toolkit, error) {
	stop := loadStopwords(stopwordsEN)
	if stop.Len() == 0 {
		return nil, fmt.Errorf("load stopwords: embedded list is empty")
	}

	corrector, err := loadCorrector(dictionaryEN)
	if err != nil {
		return nil, fmt.Errorf("load spelling dictionary: %w", err)
	}

	return &Toolkit{
		Stopwords: stop,
		Corrector: corrector,
	}, nil
}
