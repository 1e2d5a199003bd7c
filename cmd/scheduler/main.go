package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
	contractpg "github.com/jaxxstorm/landlord/internal/contract/postgres"
	"github.com/jaxxstorm/landlord/internal/database"
	invitationpg "github.com/jaxxstorm/landlord/internal/invitation/postgres"
	"github.com/jaxxstorm/landlord/internal/logger"
	"github.com/jaxxstorm/landlord/internal/matching"
	matchingpg "github.com/jaxxstorm/landlord/internal/matching/postgres"
	"github.com/jaxxstorm/landlord/internal/notification"
	"github.com/jaxxstorm/landlord/internal/notification/channel"
	"github.com/jaxxstorm/landlord/internal/notification/channel/providers/mock"
	"github.com/jaxxstorm/landlord/internal/notification/channel/providers/smtp"
	"github.com/jaxxstorm/landlord/internal/notification/channel/providers/webhook"
	"github.com/jaxxstorm/landlord/internal/notification/fanout"
	notificationpg "github.com/jaxxstorm/landlord/internal/notification/postgres"
	"github.com/jaxxstorm/landlord/internal/objection"
	objectionpg "github.com/jaxxstorm/landlord/internal/objection/postgres"

	contractsvc "github.com/jaxxstorm/landlord/internal/contract"
	invitationsvc "github.com/jaxxstorm/landlord/internal/invitation"
	"github.com/jaxxstorm/landlord/internal/scheduler"
)

func main() {
	v := config.NewViperInstance()
	if err := config.BindEnvironmentVariables(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind environment variables: %v\n", err)
		os.Exit(1)
	}

	configFile, err := config.FindConfigFile("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to find config file: %v\n", err)
		os.Exit(1)
	}
	if configFile != "" {
		if err := config.LoadConfigFile(v, configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadFromViper(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Scheduler.SetDefaults()

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting landlord scheduler")

	ctx := context.Background()

	dbProvider, err := database.NewProvider(ctx, &cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbProvider.Close()

	pool, ok := dbProvider.Pool().(*pgxpool.Pool)
	if !ok {
		log.Fatal("Database provider is not a pgxpool.Pool")
	}

	notificationRepo, err := notificationpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize notification repository", zap.Error(err))
	}
	registry := channel.NewRegistry(log)
	if err := registry.Register(mock.New("in_app")); err != nil {
		log.Fatal("Failed to register in-app channel provider", zap.Error(err))
	}
	if err := registry.Register(smtp.New()); err != nil {
		log.Fatal("Failed to register email channel provider", zap.Error(err))
	}
	if err := registry.Register(webhook.New("sms")); err != nil {
		log.Fatal("Failed to register sms channel provider", zap.Error(err))
	}
	if err := registry.Register(webhook.New("push")); err != nil {
		log.Fatal("Failed to register push channel provider", zap.Error(err))
	}
	channelConfigs := map[notification.Channel]notification.ChannelConfig{
		notification.ChannelInApp: {Config: json.RawMessage(`{}`), Priority: 0, RetryAttempts: 1, DelaySeconds: 0},
		notification.ChannelEmail: {Config: json.RawMessage(`{}`), Priority: 1, RetryAttempts: 3, DelaySeconds: 30},
		notification.ChannelSMS:   {Config: json.RawMessage(`{}`), Priority: 2, RetryAttempts: 3, DelaySeconds: 30},
		notification.ChannelPush:  {Config: json.RawMessage(`{}`), Priority: 2, RetryAttempts: 3, DelaySeconds: 30},
	}
	notifications := notification.NewService(notificationRepo, registry, nil, channelConfigs, log)
	dispatcher := fanout.New(notifications, log)

	contractRepo, err := contractpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize contract repository", zap.Error(err))
	}
	contracts := contractsvc.NewService(contractRepo, nil, dispatcher, log)

	invitationRepo, err := invitationpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize invitation repository", zap.Error(err))
	}
	invitations := invitationsvc.NewService(invitationRepo, contracts, nil, dispatcher, log)

	objectionRepo, err := objectionpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize objection repository", zap.Error(err))
	}
	objections := objection.NewService(objectionRepo, contracts, nil, dispatcher, log)

	matchingRepo, err := matchingpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize matching repository", zap.Error(err))
	}
	matches := matching.NewService(matchingRepo, nil, dispatcher, log)

	jobs := scheduler.BuildJobs(scheduler.Deps{
		Invitations:   invitations,
		Objections:    objections,
		Matching:      matches,
		Notifications: notifications,
	})

	sched := scheduler.New(jobs, cfg.Scheduler, log)
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	stopCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-stopCtx.Done()

	log.Info("shutting down scheduler")
	if err := sched.Stop(); err != nil {
		log.Error("scheduler shutdown error", zap.Error(err))
	}
	log.Info("scheduler stopped")
}
