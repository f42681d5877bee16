package nlp

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// Tokenizer splits text into Treebank-style word and punctuation tokens.
type Tokenizer struct{}

// Words returns the token texts of text in document order.
func (Tokenizer) Words(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tokenize text: %w", err)
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	return words, nil
}
