package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/metricmuse/internal/auth"
	"github.com/example/metricmuse/internal/repository"
	"github.com/example/metricmuse/internal/textmetrics"
	"github.com/example/metricmuse/internal/usecase"
)

// DefaultMaxRequestBytes caps the analyze request body when Options leaves it unset.
const DefaultMaxRequestBytes = 1 << 20

const healthMessage = " MetricMuse API is running"

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigin   string
	MaxRequestBytes int64
	// HistoryAuth guards GET /analyses/:id and GET /metrics/summary. Nil
	// leaves both routes unregistered.
	HistoryAuth gin.HandlerFunc
	// AnalyzeAuth, when set, runs before POST /analyze-text to identify the
	// caller; the subject it stores scopes history lookups.
	AnalyzeAuth gin.HandlerFunc
	Logger      *zap.Logger
}

type analyzeRequest struct {
	Text *string `json:"text"`
}

// RegisterRoutes installs middleware and handlers on router.
func RegisterRoutes(router *gin.Engine, uc *usecase.AnalysisUseCase, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := opts.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}

	router.Use(RequestID(), RequestLogger(logger), CORS(opts.AllowedOrigin), gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, healthMessage)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.OPTIONS("/analyze-text", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	analyzeChain := []gin.HandlerFunc{}
	if opts.AnalyzeAuth != nil {
		analyzeChain = append(analyzeChain, opts.AnalyzeAuth)
	}
	analyzeChain = append(analyzeChain, func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		text, err := bindText(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "text too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
			return
		}

		subject, _ := auth.Subject(c.Request.Context())
		result, err := uc.Analyze(c.Request.Context(), subject, c.GetString(requestIDKey), text)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if result.Cached {
			c.Header("X-Cache", "hit")
		} else {
			c.Header("X-Cache", "miss")
		}
		c.JSON(http.StatusOK, result.Report)
	})
	router.POST("/analyze-text", analyzeChain...)

	if opts.HistoryAuth == nil {
		return
	}
	router.GET("/metrics/summary", opts.HistoryAuth, func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			if errors.Is(err, usecase.ErrHistoryDisabled) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis history is disabled"})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	router.GET("/analyses/:id", opts.HistoryAuth, func(c *gin.Context) {
		requestID := c.Param("id")
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		subject, _ := auth.Subject(c.Request.Context())
		log, err := uc.GetAnalysis(c.Request.Context(), subject, requestID)
		if err != nil {
			if errors.Is(err, usecase.ErrHistoryDisabled) || errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id":                   log.RequestID,
			"subject":                      log.Subject,
			"text_sha1":                    log.TextSHA1,
			"word_count":                   log.WordCount,
			"grammatical_error_percentage": log.GrammaticalErrorPercentage,
			"readability_score":            log.ReadabilityScore,
			"average_sentence_length":      log.AverageSentenceLength,
			"repetitive_words_count":       log.RepetitiveWordsCount,
			"repetitive_words_list":        log.RepetitiveWordsList,
			"ai_content_percentage":        log.AIContentPercentage,
			"generic_content_percentage":   log.GenericContentPercentage,
			"created_at":                   log.CreatedAt,
		})
	})
}

// bindText decodes the analyze body. Anything other than an oversized body
// is reported as textmetrics.ErrNoText.
func bindText(c *gin.Context) (string, error) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", textmetrics.ErrNoText, err)
	}
	if req.Text == nil {
		return "", textmetrics.ErrNoText
	}
	return *req.Text, nil
}
