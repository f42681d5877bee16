package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/metricmuse/internal/logging"
	"github.com/example/metricmuse/internal/repository"
	"github.com/example/metricmuse/internal/textmetrics"
)

// ErrHistoryDisabled is returned by GetAnalysis when no repository is configured.
var ErrHistoryDisabled = errors.New("analysis history is disabled")

// Analyzer computes the metrics report for a text.
type Analyzer interface {
	Analyze(text string) (textmetrics.Report, error)
}

// AnalysisRepository defines the persistence operations needed by the use case.
type AnalysisRepository interface {
	SaveLog(ctx context.Context, log *repository.AnalysisLog) error
	FindByRequestIDAndSubject(ctx context.Context, requestID, subject string) (*repository.AnalysisLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// AnalysisResult is the outcome of one analysis request.
type AnalysisResult struct {
	RequestID string
	Report    textmetrics.Report
	Cached    bool
}

// AnalysisUseCase computes reports, memoizing them in the cache and
// recording them in the optional history repository.
type AnalysisUseCase struct {
	analyzer       Analyzer
	cache          Cache
	repo           AnalysisRepository
	logger         *zap.Logger
	cacheTTL       time.Duration
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	now            func() time.Time
}

// NewAnalysisUseCase constructs a use case. A nil cache means NopCache; a
// nil repo disables history.
func NewAnalysisUseCase(analyzer Analyzer, cache Cache, repo AnalysisRepository, cacheTTL time.Duration, logger *zap.Logger) *AnalysisUseCase {
	if cache == nil {
		cache = NopCache{}
	}
	return &AnalysisUseCase{
		analyzer:       analyzer,
		cache:          cache,
		repo:           repo,
		logger:         logger.Named("analysis_usecase"),
		cacheTTL:       cacheTTL,
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Analyze returns the report for text. Cache and history failures are
// logged and do not fail the request; analyzer failures do. An empty
// requestID is replaced with a fresh uuid. subject, the authenticated
// caller, is recorded on the history log and may be empty.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, subject, requestID, text string) (*AnalysisResult, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID)

	hash := sha1.Sum([]byte(text))
	hashHex := hex.EncodeToString(hash[:])
	cacheKey := "analysis:" + hashHex

	result := &AnalysisResult{RequestID: requestID}
	if report, ok := uc.cachedReport(ctx, requestID, cacheKey); ok {
		result.Report = report
		result.Cached = true
	} else {
		report, err := uc.analyzer.Analyze(text)
		if err != nil {
			wrapped := logging.NewOperationError("usecase.compute_metrics", requestID, err)
			opLogger.Error("metrics computation failed", zap.Error(wrapped))
			return nil, wrapped
		}
		result.Report = report
		uc.storeReport(ctx, requestID, cacheKey, report)
	}

	if uc.repo != nil {
		log := newAnalysisLog(subject, requestID, hashHex, text, result.Report, uc.now())
		if err := uc.repo.SaveLog(ctx, log); err != nil {
			opLogger.Warn("failed to persist analysis log", zap.Error(err))
		}
	}

	opLogger.Debug("analysis complete", zap.Bool("cached", result.Cached), zap.String("sha1", hashHex))
	return result, nil
}

// GetAnalysis loads a previously persisted analysis visible to subject:
// one it recorded, or an anonymous one.
func (uc *AnalysisUseCase) GetAnalysis(ctx context.Context, subject, requestID string) (*repository.AnalysisLog, error) {
	if uc.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return uc.repo.FindByRequestIDAndSubject(ctx, requestID, subject)
}

func (uc *AnalysisUseCase) cachedReport(ctx context.Context, requestID, cacheKey string) (textmetrics.Report, bool) {
	opLogger := logging.WithOperation(uc.logger, "usecase.cached_report", requestID)

	cached, err := uc.withRedisGet(ctx, requestID, "cache.get.report", cacheKey)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			opLogger.Warn("failed to read cache", zap.Error(err))
		}
		return textmetrics.Report{}, false
	}

	var report textmetrics.Report
	if err := json.Unmarshal([]byte(cached), &report); err != nil {
		opLogger.Warn("failed to decode cached report", zap.Error(err))
		return textmetrics.Report{}, false
	}
	return report, true
}

func (uc *AnalysisUseCase) storeReport(ctx context.Context, requestID, cacheKey string, report textmetrics.Report) {
	serialized, err := json.Marshal(report)
	if err != nil {
		logging.WithOperation(uc.logger, "usecase.store_report", requestID).Warn("failed to serialize report", zap.Error(err))
		return
	}
	if err := uc.withRedisRetry(ctx, requestID, "cache.set.report", func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), uc.cacheTTL)
	}); err != nil {
		logging.WithOperation(uc.logger, "usecase.store_report", requestID).Warn("failed to cache report", zap.Error(err))
	}
}

func newAnalysisLog(subject, requestID, hashHex, text string, report textmetrics.Report, createdAt time.Time) *repository.AnalysisLog {
	return &repository.AnalysisLog{
		RequestID:                  requestID,
		Subject:                    subject,
		TextSHA1:                   hashHex,
		WordCount:                  len(strings.Fields(text)),
		GrammaticalErrorPercentage: report.GrammaticalErrorPercentage,
		ReadabilityScore:           report.ReadabilityScore,
		AverageSentenceLength:      report.AverageSentenceLength,
		RepetitiveWordsCount:       report.RepetitiveWordsCount,
		RepetitiveWordsList:        report.RepetitiveWordsList,
		AIContentPercentage:        report.AIContentPercentage,
		GenericContentPercentage:   report.GenericContentPercentage,
		CreatedAt:                  createdAt,
	}
}

func (uc *AnalysisUseCase) withRedisRetry(ctx context.Context, requestID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if errors.Is(err, redis.Nil) {
			return logging.NewOperationError(operation, requestID, err)
		}
		if !repository.IsTransientError(err) || attempt == uc.retryAttempts-1 {
			opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func (uc *AnalysisUseCase) withRedisGet(ctx context.Context, requestID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, requestID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}
