package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"podnplay/internal/config"
	"podnplay/internal/db"
	"podnplay/internal/logging"
	"podnplay/internal/metrics"
	"podnplay/internal/storage"
	"podnplay/internal/worker"
	"podnplay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

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

	if err := cfg.ValidateWorker(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}
	logger.Info("database connection established")

	store, err := storage.NewMinioStore(context.Background(), storage.MinioConfig{
		Endpoint:       cfg.MinioEndpoint,
		AccessKey:      cfg.MinioAccessKey,
		SecretKey:      cfg.MinioSecretKey,
		Bucket:         cfg.MinioBucket,
		UseSSL:         cfg.MinioUseSSL,
		AudioURLExpiry: cfg.AudioURLExpiry,
	})
	if err != nil {
		logger.Fatal("could not connect to object storage", zap.Error(err))
	}

	m := metrics.New()
	go func() {
		metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
		if err := metricsSrv.ListenAndServe(); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				tasks.QueueHigh: 2,
				"default":       1,
			},
			// Exponential backoff: 30s, 1m, 2m, ... capped at 1h.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := 30 * time.Second
				maxDelay := time.Hour
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}
				logger.Warn("task failed, retrying",
					zap.String("type", task.Type()),
					zap.Int("attempt", n+1),
					zap.Duration("delay", delay),
					zap.Error(err))
				return delay
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(store, cfg.OrphanTTL, logger.Named("worker"), m.ObserveProbe)

	mux.HandleFunc(tasks.TypeProbeAudio, taskHandler.HandleProbeAudioTask)
	mux.HandleFunc(tasks.TypeSweepUploads, taskHandler.HandleSweepUploadsTask)

	logger.Info("worker starting", zap.String("commit", CommitSHA))
	if err := srv.Run(mux); err != nil {
		logger.Fatal("could not run worker", zap.Error(err))
	}
}
