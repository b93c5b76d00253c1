package main

import (
	"context"
	"time"

	"wardrobewiz/config"
	"wardrobewiz/dbhelper"
	"wardrobewiz/logging"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/tasks"
	"wardrobewiz/telegram"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

func runScheduler(redis asynq.RedisClientOpt) {
	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	schedule := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "@hourly",
			task: tasks.NewThumbnailSweepTask(),
			desc: "Re-enqueue stuck thumbnails",
		},
	}

	for _, t := range schedule {
		entryID, err := scheduler.Register(t.cron, t.task, asynq.Queue(tasks.QueueMedia))
		if err != nil {
			log.Fatal().Err(err).Str("task", t.desc).Msg("failed to register scheduled task")
		}
		log.Info().Str("task", t.desc).Str("entry", entryID).Str("cron", t.cron).Msg("registered scheduled task")
	}

	log.Info().Msg("starting scheduler")
	if err := scheduler.Run(); err != nil {
		log.Fatal().Err(err).Msg("scheduler failed")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.LogLevel, cfg.IsLocal())
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     "wardrobewiz-worker@1.0.0",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	awsService := &services.AWSService{
		AccountID:       cfg.Storage.AccountID,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		AccessKeySecret: cfg.Storage.AccessKeySecret,
	}
	if err := awsService.InitPresignClient(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("[Queue] Failed to initialize AWS provider: S3")
	}
	notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram alerts disabled")
		notifier = telegram.NopNotifier{}
	}

	redis := asynq.RedisClientOpt{Addr: cfg.BrokerAddress}
	client := asynq.NewClient(redis)
	defer client.Close()
	feed := services.NewRedisChangeFeed(cfg.BrokerAddress)
	defer feed.Close()

	db := dbhelper.SetupDB(cfg.Database)
	handlers := &tasks.Handlers{
		Store:    store.New(db, feed),
		Storage:  awsService,
		Bucket:   cfg.Storage.BucketName,
		Enqueuer: client,
		Notifier: notifier,
	}
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	srv := asynq.NewServer(redis, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			tasks.QueueMedia: 1,
		},
	})

	go runScheduler(redis)
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
