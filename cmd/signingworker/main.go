package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
	contractpg "github.com/jaxxstorm/landlord/internal/contract/postgres"
	"github.com/jaxxstorm/landlord/internal/database"
	"github.com/jaxxstorm/landlord/internal/logger"
	"github.com/jaxxstorm/landlord/internal/notification/fanout"
	notificationpg "github.com/jaxxstorm/landlord/internal/notification/postgres"
	"github.com/jaxxstorm/landlord/internal/notification"
	"github.com/jaxxstorm/landlord/internal/notification/channel"
	"github.com/jaxxstorm/landlord/internal/notification/channel/providers/mock"
	"github.com/jaxxstorm/landlord/internal/signing"
	"github.com/jaxxstorm/landlord/internal/workflow"
	"github.com/jaxxstorm/landlord/internal/workflow/providers/restate"

	contractsvc "github.com/jaxxstorm/landlord/internal/contract"
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

	log, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting landlord signing saga worker")

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
	notifications := notification.NewService(notificationRepo, registry, nil, map[notification.Channel]notification.ChannelConfig{
		notification.ChannelInApp: {Priority: 0, RetryAttempts: 1, DelaySeconds: 0},
	}, log)
	dispatcher := fanout.New(notifications, log)

	contractRepo, err := contractpg.New(pool, log)
	if err != nil {
		log.Fatal("Failed to initialize contract repository", zap.Error(err))
	}
	contracts := contractsvc.NewService(contractRepo, nil, dispatcher, log)
	signingSvc := signing.NewService(contracts, nil, dispatcher, log)

	restateWorker, err := restate.NewWorkerEngine(cfg.Workflow.Restate, signingSvc, log)
	if err != nil {
		log.Fatal("Failed to initialize restate worker engine", zap.Error(err))
	}

	workerRegistry := workflow.NewWorkerRegistry(log)
	if err := workerRegistry.Register(restateWorker); err != nil {
		log.Fatal("Failed to register restate worker engine", zap.Error(err))
	}

	workerName := cfg.Workflow.DefaultProvider
	if workerName == "" {
		workerName = restateWorker.Name()
	}

	selectedWorker, err := workerRegistry.Get(workerName)
	if err != nil {
		log.Fatal("No worker engine registered for configured workflow provider",
			zap.String("configured_provider", workerName),
			zap.Error(err),
		)
	}

	workerCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	workerAddr := getWorkerAddress()
	log.Info("starting signing saga worker server",
		zap.String("address", workerAddr),
		zap.String("worker_engine", selectedWorker.Name()),
	)

	startErr := make(chan error, 1)
	go func() {
		startErr <- selectedWorker.Start(workerCtx, workerAddr)
	}()

	// Give the worker server a moment to start before registering with Restate.
	time.Sleep(500 * time.Millisecond)

	if err := selectedWorker.Register(ctx); err != nil {
		log.Fatal("Failed to register worker engine", zap.Error(err))
	}

	log.Info("signing saga worker started, waiting for steps",
		zap.String("address", workerAddr),
		zap.String("worker_engine", selectedWorker.Name()),
	)

	if err := <-startErr; err != nil {
		log.Fatal("Worker failed", zap.Error(err))
	}

	log.Info("signing saga worker stopped")
}

func getWorkerAddress() string {
	if addr := os.Getenv("LANDLORD_RESTATE_WORKER_ADDRESS"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":9080"
}
