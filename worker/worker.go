package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"domain-storefront/activities"
	"domain-storefront/codec"
	"domain-storefront/config"
	"domain-storefront/logging"
	"domain-storefront/search"
	"domain-storefront/storage"
	"domain-storefront/workflows"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

// Version information - update this when deploying new versions
const (
	WorkerVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("worker", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	keyBytes, err := codec.LoadKey(cfg.EncryptionKey, logger)
	if err != nil {
		return err
	}

	// Create data converter with encryption
	dataConverter, err := codec.NewEncryptionDataConverter(keyBytes)
	if err != nil {
		return fmt.Errorf("failed to create encryption data converter: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:      cfg.TemporalAddress,
		Namespace:     cfg.Namespace,
		DataConverter: dataConverter,
		Logger:        logging.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	searchService := search.NewService(
		search.NewSimulatedRegistry(cfg.SearchLatency, cfg.DomainPrice),
		search.NewGenerativeSuggester(search.GenerativeOptions{
			BaseURL: cfg.SuggestionsURL,
			APIKey:  cfg.SuggestionsKey,
			Model:   cfg.SuggestionsModel,
		}),
	)

	// Setting BuildID enables worker versioning
	// Note: Worker versioning requires server-side setup of the task queue
	w := worker.New(c, cfg.TaskQueue, worker.Options{
		BuildID:                                cfg.BuildID,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})

	w.RegisterWorkflow(workflows.StorefrontWorkflow)
	w.RegisterWorkflow(workflows.PurchaseWorkflow)

	w.RegisterActivity(activities.NewActivities(storage.NewBridge(store), searchService))
	w.RegisterActivity(activities.NewPaymentActivities(activities.DefaultPaymentDelays))

	logger.Info("Starting Temporal worker",
		zap.String("worker_version", WorkerVersion),
		zap.String("build_id", cfg.BuildID),
		zap.String("temporal_address", cfg.TemporalAddress),
		zap.String("task_queue", cfg.TaskQueue),
		zap.String("store", cfg.Store),
		zap.Strings("workflows", []string{workflows.StorefrontWorkflowName, workflows.PurchaseWorkflowName}),
	)

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("unable to start worker: %w", err)
	}
	return nil
}

// openStore connects the configured key-value backend
func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, carts will not survive a worker restart")
		return storage.NewMemoryStore(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.StoreTTL))
	return storage.NewRedisStore(rdb, cfg.StoreTTL), func() { _ = rdb.Close() }, nil
}
