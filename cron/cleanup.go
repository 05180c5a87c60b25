package cron

import (
	"context"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"
	"github.com/HummdG/taza-ticket-clean/services/storage"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeMediaCleanup = "media:cleanup"

// mediaRetention is how long generated voice replies stay before the sweep
// removes them. Twilio fetches the file within seconds of the send; a week
// covers redelivery and debugging.
const mediaRetention = 7 * 24 * time.Hour

// InitMediaCleanupWorker starts the background worker and the daily
// schedule for sweeping aged voice replies.
func InitMediaCleanupWorker(media storage.MediaService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMediaCleanup, handleMediaCleanup(media))

	go func() {
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			zap.L().Info("starting media cleanup worker", zap.Int("attempt", attempt))
			if err := srv.Run(mux); err != nil {
				zap.L().Error("media cleanup worker failed", zap.Int("attempt", attempt), zap.Error(err))
				if attempt == maxAttempts {
					zap.L().Error("media cleanup worker giving up")
					return
				}
				time.Sleep(time.Duration(attempt*2) * time.Second)
				continue
			}
			return
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 24h", asynq.NewTask(TypeMediaCleanup, nil)); err != nil {
		zap.L().Error("failed to register media cleanup schedule", zap.Error(err))
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			zap.L().Error("media cleanup scheduler failed", zap.Error(err))
		}
	}()
}

func handleMediaCleanup(media storage.MediaService) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		deleted, err := media.CleanupOlderThan(ctx, mediaRetention)
		if err != nil {
			zap.L().Error("media cleanup sweep failed", zap.Error(err))
			return err
		}
		zap.L().Info("media cleanup sweep completed", zap.Int("deleted", deleted))
		return nil
	}
}
