package usecase

import (
	"context"
	"math"
)

// MetricsSummary represents aggregated analysis insights.
type MetricsSummary struct {
	TotalAnalyses                     int64   `json:"total_analyses"`
	AverageGrammaticalErrorPercentage float64 `json:"average_grammatical_error_percentage"`
	AverageReadabilityScore           float64 `json:"average_readability_score"`
	AverageAIContentPercentage        float64 `json:"average_ai_content_percentage"`
	AverageGenericContentPercentage   float64 `json:"average_generic_content_percentage"`
	AverageRepetitiveWordsCount       float64 `json:"average_repetitive_words_count"`
}

// GetMetricsSummary aggregates metrics from persisted analysis logs.
func (uc *AnalysisUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	if uc.repo == nil {
		return nil, ErrHistoryDisabled
	}
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	return &MetricsSummary{
		TotalAnalyses:                     aggregation.TotalCount,
		AverageGrammaticalErrorPercentage: round2(aggregation.AverageGrammaticalError),
		AverageReadabilityScore:           round2(aggregation.AverageReadability),
		AverageAIContentPercentage:        round2(aggregation.AverageAIContent),
		AverageGenericContentPercentage:   round2(aggregation.AverageGenericContent),
		AverageRepetitiveWordsCount:       round2(aggregation.AverageRepetitiveWordCount),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
