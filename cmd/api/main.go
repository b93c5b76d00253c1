package main

import (
	"context"
	"time"

	"wardrobewiz/config"
	"wardrobewiz/controllers"
	"wardrobewiz/dbhelper"
	"wardrobewiz/logging"
	"wardrobewiz/services"
	"wardrobewiz/store"
	"wardrobewiz/stylist"
	"wardrobewiz/telegram"
	"wardrobewiz/wardrobe"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// firebaseAuth is optional, firebase sign in answers 403 without it.
func firebaseAuth(ctx context.Context) *auth.Client {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("firebase app unavailable, firebase sign in disabled")
		return nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("firebase auth unavailable, firebase sign in disabled")
		return nil
	}
	return client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.LogLevel, cfg.IsLocal())
	if err := cfg.Validate("JWT_SECRET", "GOOGLE_API_KEY", "GOOGLE_CLIENT_ID"); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "wardrobewiz@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()
	db := dbhelper.SetupDB(cfg.Database)

	identity := &services.IdentityService{
		GoogleClientID: cfg.GoogleClientID,
		Firebase:       firebaseAuth(ctx),
		Apple: services.AppleSignInConfig{
			TeamID:           cfg.Apple.TeamID,
			KeyID:            cfg.Apple.KeyID,
			ClientID:         cfg.Apple.ClientID,
			PrivateKeyBase64: cfg.Apple.PrivateKeyBase64,
		},
	}
	awsService := &services.AWSService{
		AccountID:       cfg.Storage.AccountID,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		AccessKeySecret: cfg.Storage.AccessKeySecret,
	}
	urlCache, err := services.NewURLCacheService(awsService, cfg.Storage.BucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize URL cache service")
	}
	llm, err := services.NewGoogleLLMProcessor(ctx, cfg.Model.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}
	model, ok := services.LookupLLMModelName(cfg.Model.Name)
	if !ok {
		log.Fatal().Str("model", cfg.Model.Name).Msg("GEMINI_MODEL is not a supported model")
	}
	notifier, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("telegram alerts disabled")
		notifier = telegram.NopNotifier{}
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.BrokerAddress})
	defer asynqClient.Close()
	feed := services.NewRedisChangeFeed(cfg.BrokerAddress)
	defer feed.Close()

	service := wardrobe.NewService(
		store.New(db, feed),
		stylist.New(llm, model, cfg.Model.Timeout),
		awsService, cfg.Storage.BucketName, asynqClient, notifier,
		wardrobe.LimitsFromConfig(cfg.Limits),
	)

	e := controllers.SetupServer(db, &cfg, identity, awsService, urlCache, service)
	e.Debug = cfg.IsLocal()
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Limits.RateLimit))))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
