package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/metricmuse/internal/auth"
	"github.com/example/metricmuse/internal/config"
	"github.com/example/metricmuse/internal/handlers"
	"github.com/example/metricmuse/internal/logging"
	"github.com/example/metricmuse/internal/nlp"
	"github.com/example/metricmuse/internal/repository"
	"github.com/example/metricmuse/internal/server"
	"github.com/example/metricmuse/internal/textmetrics"
	"github.com/example/metricmuse/internal/usecase"
)

const startupTimeout = 15 * time.Second

func newServeCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, os.Getenv)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return runServe(cmd.Context(), cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	kit, err := nlp.Load()
	if err != nil {
		return fmt.Errorf("load nlp resources: %w", err)
	}
	analyzer := textmetrics.NewAnalyzerFromToolkit(kit)

	var cache usecase.Cache = usecase.NopCache{}
	if cfg.CacheEnabled() {
		client, err := initRedis(startCtx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = usecase.NewRedisCache(client)
		logger.Info("report cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	var (
		repo        usecase.AnalysisRepository
		historyAuth gin.HandlerFunc
		analyzeAuth gin.HandlerFunc
	)
	if cfg.HistoryEnabled() {
		db, err := initDatabase(startCtx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		analysisRepo := repository.NewAnalysisRepository(db, logger)
		if err := analysisRepo.AutoMigrate(startCtx); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		repo = analysisRepo
		historyAuth = auth.JWTMiddleware(cfg.JWTSecret, cfg.JWTAudience)
		analyzeAuth = auth.OptionalJWTMiddleware(cfg.JWTSecret, cfg.JWTAudience)
		logger.Info("analysis history enabled")
	}

	uc := usecase.NewAnalysisUseCase(analyzer, cache, repo, cfg.CacheTTL, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.RegisterRoutes(router, uc, handlers.Options{
		AllowedOrigin:   cfg.AllowedOrigin,
		MaxRequestBytes: cfg.MaxRequestBytes,
		HistoryAuth:     historyAuth,
		AnalyzeAuth:     analyzeAuth,
		Logger:          logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var opts server.Options
	if addr := cfg.GRPCAddr(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", addr, err)
		}
		opts.GRPCServer, opts.Health = server.NewHealthServer()
		opts.GRPCListener = lis
		logger.Info("gRPC health listening", zap.String("addr", addr))
	}

	logger.Info("MetricMuse API listening", zap.String("addr", cfg.Addr()))
	if err := server.Serve(httpServer, cfg.ShutdownTimeout, logger, opts); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func initDatabase(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func initRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
