package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/metricmuse/internal/logging"
)

// ErrNotFound is returned when no analysis matches the requested id.
var ErrNotFound = errors.New("analysis not found")

// AnalysisLog is the persisted record of one analysis.
type AnalysisLog struct {
	ID                         uint      `gorm:"primaryKey"`
	RequestID                  string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Subject                    string    `gorm:"column:subject;index;size:255"`
	TextSHA1                   string    `gorm:"column:text_sha1;index;size:40"`
	WordCount                  int       `gorm:"column:word_count"`
	GrammaticalErrorPercentage float64   `gorm:"column:grammatical_error_percentage"`
	ReadabilityScore           float64   `gorm:"column:readability_score"`
	AverageSentenceLength      float64   `gorm:"column:average_sentence_length"`
	RepetitiveWordsCount       int       `gorm:"column:repetitive_words_count"`
	RepetitiveWordsList        string    `gorm:"column:repetitive_words_list;type:text"`
	AIContentPercentage        float64   `gorm:"column:ai_content_percentage"`
	GenericContentPercentage   float64   `gorm:"column:generic_content_percentage"`
	CreatedAt                  time.Time `gorm:"column:created_at"`
}

func (AnalysisLog) TableName() string {
	return "analysis_logs"
}

// MetricsAggregation holds averages over every persisted analysis.
type MetricsAggregation struct {
	TotalCount                 int64   `gorm:"column:total_count"`
	AverageGrammaticalError    float64 `gorm:"column:average_grammatical_error"`
	AverageReadability         float64 `gorm:"column:average_readability"`
	AverageAIContent           float64 `gorm:"column:average_ai_content"`
	AverageGenericContent      float64 `gorm:"column:average_generic_content"`
	AverageRepetitiveWordCount float64 `gorm:"column:average_repetitive_word_count"`
}

// AnalysisRepository persists analysis logs with retry on transient errors.
type AnalysisRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewAnalysisRepository creates a repository over db.
func NewAnalysisRepository(db *gorm.DB, logger *zap.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:             db,
		logger:         logger.Named("analysis_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *AnalysisRepository) AutoMigrate(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.auto_migrate", "", func() error {
		return r.db.WithContext(ctx).AutoMigrate(&AnalysisLog{})
	})
}

// SaveLog inserts a new analysis log.
func (r *AnalysisRepository) SaveLog(ctx context.Context, log *AnalysisLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestIDAndSubject loads the analysis log with the given request
// id that belongs to subject. Anonymous logs (empty subject) match any
// subject.
func (r *AnalysisRepository) FindByRequestIDAndSubject(ctx context.Context, requestID, subject string) (*AnalysisLog, error) {
	var log AnalysisLog
	err := r.executeWithRetry(ctx, "repository.find_by_request_id_and_subject", requestID, func() error {
		err := r.db.WithContext(ctx).
			Where("request_id = ? AND (subject = ? OR subject = '')", requestID, subject).
			First(&log).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// AggregateMetrics computes the count and metric averages of all logs.
func (r *AnalysisRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).Model(&AnalysisLog{}).Select(
			"COUNT(*) AS total_count, " +
				"COALESCE(AVG(grammatical_error_percentage), 0) AS average_grammatical_error, " +
				"COALESCE(AVG(readability_score), 0) AS average_readability, " +
				"COALESCE(AVG(ai_content_percentage), 0) AS average_ai_content, " +
				"COALESCE(AVG(generic_content_percentage), 0) AS average_generic_content, " +
				"COALESCE(AVG(repetitive_words_count), 0) AS average_repetitive_word_count",
		).Scan(&agg).Error
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *AnalysisRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	backoff := r.initialBackoff
	attempts := max(r.retryAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return logging.NewOperationError(operation, requestID, err)
		}
		if !IsTransientError(err) || attempt == attempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}
		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

// IsTransientError reports whether err looks like a timeout or temporary
// network failure worth retrying.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}
	return false
}
