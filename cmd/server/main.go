package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"podnplay/internal/config"
	"podnplay/internal/db"
	"podnplay/internal/discovery"
	"podnplay/internal/handlers"
	"podnplay/internal/logging"
	"podnplay/internal/metrics"
	"podnplay/internal/middleware"
	"podnplay/internal/models"
	"podnplay/internal/speech"
	"podnplay/internal/storage"
	"podnplay/internal/workflow"
	"podnplay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// assetRecorder stores audio assets in Postgres.
type assetRecorder struct{}

func (assetRecorder) RecordAudioAsset(ctx context.Context, a models.AudioAsset) error {
	return db.RecordAudioAsset(ctx, a)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Development)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	logger.Info("database connection established")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKey:       cfg.MinioAccessKey,
		SecretKey:       cfg.MinioSecretKey,
		Bucket:          cfg.MinioBucket,
		UseSSL:          cfg.MinioUseSSL,
		UploadURLExpiry: cfg.UploadURLExpiry,
		AudioURLExpiry:  cfg.AudioURLExpiry,
	})
	if err != nil {
		logger.Fatal("could not connect to object storage", zap.Error(err))
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	m := metrics.New()

	drafts := workflow.NewRegistry(workflow.Services{
		Synthesizer: speech.NewOpenAISynthesizer(cfg.OpenAIKey, cfg.SpeechModel),
		Uploader:    storage.NewUploader(store),
		URLs:        store,
		Assets:      assetRecorder{},
		Durations:   tasks.DurationQueue{Client: client},
		Logger:      logger.Named("workflow"),
		Timeout:     cfg.OperationTimeout,
		Observe:     m.ObserveWorkflow,
	}, cfg.DraftTTL)

	disc := discovery.NewService(db.SearchPodcasts, cfg.SearchTimeout, logger.Named("discovery"))
	disc.OnQuery(func(state discovery.State, elapsed time.Duration) {
		m.ObserveSearch(string(state), elapsed)
	})

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	auth := middleware.NewAuthenticator(cfg.TelegramBotToken, cfg.SessionTTL, logger.Named("auth"))
	h, err := handlers.New(handlers.Options{
		Discovery: disc,
		Drafts:    drafts,
		Store:     store,
		Auth:      auth,
		Logger:    logger.Named("http"),
		BaseURL:   baseURL,
	})
	if err != nil {
		logger.Fatal("could not create handlers", zap.Error(err))
	}

	app := &App{
		handlers: h,
		auth:     auth,
		limiter:  middleware.NewRateLimiterMiddleware(rate.Limit(cfg.GenerateRate), cfg.GenerateBurst, logger.Named("ratelimit")),
		metrics:  m,
		logger:   logger,
	}

	if cfg.TelegramBotEnabled {
		go func() {
			if err := h.StartTelegramBot(ctx, cfg.TelegramBotToken); err != nil {
				logger.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("commit", CommitSHA))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
