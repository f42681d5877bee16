package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/metricmuse/internal/logging"
	"github.com/example/metricmuse/internal/repository"
	"github.com/example/metricmuse/internal/textmetrics"
)

type stubAnalyzer struct {
	report textmetrics.Report
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(text string) (textmetrics.Report, error) {
	s.calls++
	if s.err != nil {
		return textmetrics.Report{}, s.err
	}
	return s.report, nil
}

type stubRepository struct {
	savedLogs []*repository.AnalysisLog
	saveErr   error
	findLog   *repository.AnalysisLog
	findErr   error
	findCalls int
	findSubj  string
	agg       *repository.MetricsAggregation
	aggErr    error
}

func (s *stubRepository) SaveLog(ctx context.Context, log *repository.AnalysisLog) error {
	s.savedLogs = append(s.savedLogs, log)
	return s.saveErr
}

func (s *stubRepository) FindByRequestIDAndSubject(ctx context.Context, requestID, subject string) (*repository.AnalysisLog, error) {
	s.findCalls++
	s.findSubj = subject
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findLog != nil {
		return s.findLog, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepository) AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error) {
	if s.aggErr != nil {
		return nil, s.aggErr
	}
	if s.agg != nil {
		return s.agg, nil
	}
	return &repository.MetricsAggregation{}, nil
}

type stubCache struct {
	setErrs   []error
	getErrs   []error
	getValues []string
	setKeys   []string
	setValues []interface{}
	getKeys   []string
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setValues = append(s.setValues, value)
	if len(s.setErrs) == 0 {
		return nil
	}
	err := s.setErrs[0]
	s.setErrs = s.setErrs[1:]
	return err
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	var value string
	if len(s.getValues) > 0 {
		value = s.getValues[0]
		s.getValues = s.getValues[1:]
	}
	var err error
	if len(s.getErrs) > 0 {
		err = s.getErrs[0]
		s.getErrs = s.getErrs[1:]
	}
	return value, err
}

type transientRedisError struct{}

func (transientRedisError) Error() string   { return "redis transient" }
func (transientRedisError) Timeout() bool   { return true }
func (transientRedisError) Temporary() bool { return true }

var sampleReport = textmetrics.Report{
	GrammaticalErrorPercentage: 12.5,
	ReadabilityScore:           71.2,
	AverageSentenceLength:      9,
	RepetitiveWordsCount:       1,
	RepetitiveWordsList:        "words: 2",
	AIContentPercentage:        40,
	GenericContentPercentage:   3.1,
}

func newTestUseCase(analyzer Analyzer, cache Cache, repo AnalysisRepository) *AnalysisUseCase {
	uc := NewAnalysisUseCase(analyzer, cache, repo, time.Minute, zap.NewNop())
	uc.initialBackoff = time.Millisecond
	uc.maxBackoff = 2 * time.Millisecond
	return uc
}

func TestAnalyzeComputesAndCachesOnMiss(t *testing.T) {
	cache := &stubCache{getErrs: []error{redis.Nil}}
	analyzer := &stubAnalyzer{report: sampleReport}
	uc := newTestUseCase(analyzer, cache, nil)

	result, err := uc.Analyze(context.Background(), "", "req-1", "some words here")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Cached {
		t.Fatal("expected fresh computation")
	}
	if result.Report != sampleReport {
		t.Fatalf("unexpected report: %+v", result.Report)
	}
	if analyzer.calls != 1 {
		t.Fatalf("expected analyzer to run once, got %d", analyzer.calls)
	}
	if len(cache.getKeys) != 1 {
		t.Fatalf("expected a single cache read on miss, got %d", len(cache.getKeys))
	}
	if len(cache.setKeys) != 1 || cache.setKeys[0] != cache.getKeys[0] {
		t.Fatalf("expected report cached under lookup key, got %v", cache.setKeys)
	}
	if !strings.HasPrefix(cache.setKeys[0], "analysis:") || len(cache.setKeys[0]) != len("analysis:")+40 {
		t.Fatalf("unexpected cache key %q", cache.setKeys[0])
	}
}

func TestAnalyzeReturnsCachedReport(t *testing.T) {
	payload, err := json.Marshal(sampleReport)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cache := &stubCache{getValues: []string{string(payload)}}
	analyzer := &stubAnalyzer{err: errors.New("must not run")}
	uc := newTestUseCase(analyzer, cache, nil)

	result, err := uc.Analyze(context.Background(), "", "req-2", "cached text")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !result.Cached || result.Report != sampleReport {
		t.Fatalf("expected cached report, got %+v", result)
	}
	if analyzer.calls != 0 {
		t.Fatalf("expected analyzer to be skipped, got %d calls", analyzer.calls)
	}
}

func TestAnalyzeRecomputesOnCorruptCache(t *testing.T) {
	cache := &stubCache{getValues: []string{"{not json"}}
	analyzer := &stubAnalyzer{report: sampleReport}
	uc := newTestUseCase(analyzer, cache, nil)

	result, err := uc.Analyze(context.Background(), "", "req-3", "text")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Cached || analyzer.calls != 1 {
		t.Fatalf("expected recomputation, got cached=%v calls=%d", result.Cached, analyzer.calls)
	}
}

func TestAnalyzeRetriesTransientCacheErrors(t *testing.T) {
	cache := &stubCache{
		getErrs: []error{transientRedisError{}, redis.Nil},
		setErrs: []error{transientRedisError{}},
	}
	uc := newTestUseCase(&stubAnalyzer{report: sampleReport}, cache, nil)

	if _, err := uc.Analyze(context.Background(), "", "req-4", "text"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(cache.getKeys) != 2 {
		t.Fatalf("expected get retry, got %d reads", len(cache.getKeys))
	}
	if len(cache.setKeys) != 2 || cache.setKeys[0] != cache.setKeys[1] {
		t.Fatalf("expected set retry on same key, got %v", cache.setKeys)
	}
}

func TestAnalyzeSurvivesCacheAndHistoryFailures(t *testing.T) {
	cache := &stubCache{getErrs: []error{errors.New("down")}, setErrs: []error{errors.New("down")}}
	repo := &stubRepository{saveErr: errors.New("db down")}
	uc := newTestUseCase(&stubAnalyzer{report: sampleReport}, cache, repo)

	result, err := uc.Analyze(context.Background(), "", "req-5", "text")
	if err != nil {
		t.Fatalf("expected side-store failures to be tolerated, got %v", err)
	}
	if result.Report != sampleReport {
		t.Fatalf("unexpected report: %+v", result.Report)
	}
	if len(repo.savedLogs) != 1 {
		t.Fatalf("expected a save attempt, got %d", len(repo.savedLogs))
	}
}

func TestAnalyzeReturnsOperationErrorOnAnalyzerFailure(t *testing.T) {
	repo := &stubRepository{}
	uc := newTestUseCase(&stubAnalyzer{err: errors.New("tokenizer exploded")}, NopCache{}, repo)

	_, err := uc.Analyze(context.Background(), "", "req-6", "text")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "usecase.compute_metrics" || opErr.RequestID != "req-6" {
		t.Fatalf("unexpected operation error: %+v", opErr)
	}
	if len(repo.savedLogs) != 0 {
		t.Fatal("expected nothing persisted on failure")
	}
}

func TestAnalyzePersistsHistory(t *testing.T) {
	repo := &stubRepository{}
	uc := newTestUseCase(&stubAnalyzer{report: sampleReport}, nil, repo)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	result, err := uc.Analyze(context.Background(), "writer-7", "", "three little words")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.RequestID == "" {
		t.Fatal("expected generated request id")
	}
	if len(repo.savedLogs) != 1 {
		t.Fatalf("expected one saved log, got %d", len(repo.savedLogs))
	}
	log := repo.savedLogs[0]
	if log.RequestID != result.RequestID || log.Subject != "writer-7" || log.WordCount != 3 || !log.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected log: %+v", log)
	}
	if log.AIContentPercentage != sampleReport.AIContentPercentage || log.RepetitiveWordsList != sampleReport.RepetitiveWordsList {
		t.Fatalf("expected report copied into log, got %+v", log)
	}
}

func TestGetAnalysis(t *testing.T) {
	uc := newTestUseCase(&stubAnalyzer{}, nil, nil)
	if _, err := uc.GetAnalysis(context.Background(), "operator", "req"); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled, got %v", err)
	}

	expected := &repository.AnalysisLog{RequestID: "req"}
	repo := &stubRepository{findLog: expected}
	uc = newTestUseCase(&stubAnalyzer{}, nil, repo)
	log, err := uc.GetAnalysis(context.Background(), "operator", "req")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if log != expected || repo.findCalls != 1 || repo.findSubj != "operator" {
		t.Fatalf("expected scoped repository lookup, got %+v after %d calls for %q", log, repo.findCalls, repo.findSubj)
	}
}

func TestGetMetricsSummary(t *testing.T) {
	uc := newTestUseCase(&stubAnalyzer{}, nil, nil)
	if _, err := uc.GetMetricsSummary(context.Background()); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("expected ErrHistoryDisabled, got %v", err)
	}

	repo := &stubRepository{agg: &repository.MetricsAggregation{
		TotalCount:         3,
		AverageReadability: 71.23456,
		AverageAIContent:   66.666666,
	}}
	uc = newTestUseCase(&stubAnalyzer{}, nil, repo)
	summary, err := uc.GetMetricsSummary(context.Background())
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if summary.TotalAnalyses != 3 || summary.AverageReadabilityScore != 71.23 || summary.AverageAIContentPercentage != 66.67 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	repo.aggErr = errors.New("db down")
	if _, err := uc.GetMetricsSummary(context.Background()); err == nil {
		t.Fatal("expected aggregation error")
	}
}
