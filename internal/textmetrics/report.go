package textmetrics

import "errors"

// ErrNoText is the single user-facing failure: the request carried no text.
var ErrNoText = errors.New("no text provided")

// Report is the set of metrics derived from one input text. Field order and
// JSON keys are the wire format of POST /analyze-text.
type Report struct {
	GrammaticalErrorPercentage float64 `json:"Grammatical Error Percentage"`
	ReadabilityScore           float64 `json:"Readability Score"`
	AverageSentenceLength      float64 `json:"Average Sentence Length"`
	RepetitiveWordsCount       int     `json:"Repetitive Words Count"`
	RepetitiveWordsList        string  `json:"Repetitive Words List"`
	AIContentPercentage        float64 `json:"AI Content Percentage"`
	GenericContentPercentage   float64 `json:"Generic Content Percentage"`
}
