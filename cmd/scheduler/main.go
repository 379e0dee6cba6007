package main

import (
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"podnplay/internal/config"
	"podnplay/internal/logging"
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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{},
	)

	task, err := tasks.NewSweepUploadsTask()
	if err != nil {
		logger.Fatal("could not create task", zap.Error(err))
	}

	entryID, err := scheduler.Register("@every 1h", task)
	if err != nil {
		logger.Fatal("could not register task", zap.Error(err))
	}

	logger.Info("scheduler starting", zap.String("commit", CommitSHA), zap.String("entry_id", entryID))
	if err := scheduler.Run(); err != nil {
		logger.Fatal("could not run scheduler", zap.Error(err))
	}
}
