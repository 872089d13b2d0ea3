// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"meal-waste-workers/internal/api"
	awsclient "meal-waste-workers/internal/common/aws"
	"meal-waste-workers/internal/common/camunda"
	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/database"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/common/observability"
	"meal-waste-workers/internal/forecast"
	"meal-waste-workers/internal/forecast/audit"
	"meal-waste-workers/internal/forecast/dataset"
	"meal-waste-workers/internal/wastelog"
	"meal-waste-workers/pkg/registry"

	swa "meal-waste-workers/internal/workers/communication/send-waste-alerts"
	pfw "meal-waste-workers/internal/workers/forecast/predict-food-waste"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting meal waste service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name, cfg.Tracing.Enabled, cfg.Tracing.SampleRatio)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]api.Check{}

	// --- Init PostgreSQL with retry (dataset source and waste log) ---
	var pg *database.SQLClient
	if cfg.Database.Postgres.Configured() {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Build the forecast artifact ---
	artifact, err := buildArtifact(ctx, cfg, pg, obs, log)
	if err != nil {
		zapLog.Fatal("forecast artifact build failed", zap.Error(err))
	}

	var serviceOpts []forecast.Option

	// --- Init Redis with retry (prediction cache) ---
	if cfg.Cache.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		ttl := time.Duration(cfg.Cache.TTL) * time.Second
		serviceOpts = append(serviceOpts, forecast.WithCache(forecast.NewCache(redis.Client, cfg.Cache.Prefix, ttl, log)))
		checks["redis"] = redis.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch with retry (prediction audit) ---
	if cfg.Audit.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := esClient.EnsureIndex(ctx, cfg.Audit.Index, audit.IndexMapping); err != nil {
			zapLog.Fatal("audit index setup failed", zap.String("index", cfg.Audit.Index), zap.Error(err))
		}

		serviceOpts = append(serviceOpts, forecast.WithAuditor(audit.NewElasticsearchAuditor(esClient.Client, cfg.Audit.Index)))
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	service, err := forecast.NewService(artifact, log, serviceOpts...)
	if err != nil {
		zapLog.Fatal("forecast service init failed", zap.Error(err))
	}

	// --- Zeebe workers, optional ---
	var (
		zeebe   *camunda.Client
		workers *camunda.Registry
	)
	if cfg.Camunda.Enabled() {
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		if dir := cfg.Camunda.DeployDir; dir != "" {
			deployed, err := zeebe.DeployDir(ctx, dir)
			if err != nil {
				zapLog.Fatal("process deployment failed", zap.String("dir", dir), zap.Error(err))
			}
			zapLog.Info("Process models deployed", zap.Strings("files", deployed))
		}

		workers = camunda.NewRegistry(zeebe.GetClient(), zapLog)
		if err := startWorkers(ctx, cfg, workers, service, pg, log); err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
		zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

		catalog, err := registry.LoadRegistry(registry.DefaultPath)
		if err != nil {
			zapLog.Warn("activity registry not loaded", zap.String("path", registry.DefaultPath), zap.Error(err))
		} else if missing := catalog.Unregistered(workers.TaskTypes()); len(missing) > 0 {
			zapLog.Warn("workers missing from activity registry", zap.Strings("taskTypes", missing))
		}
	} else {
		zapLog.Info("camunda.broker_address not set, running HTTP only")
	}

	// --- HTTP API, health and metrics ---
	apiOpts := api.Options{
		Forecaster:     service,
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	}
	if pg != nil {
		repo := wastelog.NewRepository(pg.DB)
		apiOpts.WasteLog = repo
		apiOpts.Students = repo
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(apiOpts),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}

	if workers != nil {
		workers.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Meal waste service stopped gracefully")
}

// buildArtifact loads the configured dataset and trains the model once.
func buildArtifact(ctx context.Context, cfg *config.Config, pg *database.SQLClient, obs *observability.Observability, log logger.Logger) (*forecast.Artifact, error) {
	source, closeSource, err := datasetSource(cfg, pg)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	records, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", map[string]interface{}{
		"source":  source.Name(),
		"records": len(records),
	})

	opts := forecast.DefaultTrainingOptions()
	opts.Forest.Trees = cfg.Model.Trees
	opts.Forest.Seed = cfg.Model.Seed
	opts.Forest.MaxDepth = cfg.Model.MaxDepth
	opts.Forest.MinSamplesLeaf = cfg.Model.MinSamplesLeaf
	opts.TestRatio = cfg.Model.TestRatio

	started := time.Now()
	artifact, err := forecast.BuildArtifact(ctx, records, opts, log)
	if err != nil {
		return nil, err
	}

	info := artifact.Info()
	obs.RecordModel(ctx, observability.ModelStats{
		Source:   cfg.Dataset.Source,
		Records:  info.Records,
		R2:       info.Evaluation.R2,
		MAE:      info.Evaluation.MAE,
		Duration: time.Since(started),
	})
	return artifact, nil
}

func datasetSource(cfg *config.Config, pg *database.SQLClient) (dataset.Source, func(), error) {
	noop := func() {}

	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		if pg == nil {
			return nil, nil, fmt.Errorf("postgres dataset source needs database.postgres")
		}
		src, err := dataset.NewSQLSource(pg.DB, pg.Driver, cfg.Dataset.Table)
		return src, noop, err

	case config.SourceSQLite:
		client, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, nil, err
		}
		src, err := dataset.NewSQLSource(client.DB, client.Driver, cfg.Dataset.Table)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return src, func() { client.Close() }, nil

	default:
		return dataset.NewCSVSource(cfg.Dataset.Path), noop, nil
	}
}

// startWorkers registers both job workers. The alerts worker reads student
// totals from Postgres and is skipped without it.
func startWorkers(ctx context.Context, cfg *config.Config, workers *camunda.Registry, service *forecast.Service, pg *database.SQLClient, log logger.Logger) error {
	predictHandler, err := pfw.NewHandler(pfw.HandlerOptions{
		AppConfig: cfg,
		Predictor: service,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s handler: %w", pfw.TaskType, err)
	}
	workers.Start(pfw.TaskType, config.GetWorkerConfig(cfg, pfw.TaskType), predictHandler.Handle)

	if !config.IsWorkerEnabled(cfg, swa.TaskType) {
		return nil
	}
	if pg == nil {
		log.Warn("waste alerts need postgres, worker not started", map[string]interface{}{"taskType": swa.TaskType})
		return nil
	}

	opts := swa.HandlerOptions{
		AppConfig: cfg,
		Students:  wastelog.NewRepository(pg.DB),
		Logger:    log,
	}

	awsCfg := cfg.Integrations.AWS
	clients, err := awsclient.NewClients(ctx, awsCfg.Region, awsCfg.SES.Enabled, awsCfg.SNS.Enabled && cfg.Alerts.SMSEnabled)
	if err != nil {
		return fmt.Errorf("failed to create AWS clients: %w", err)
	}
	if clients.SES != nil {
		opts.SES = clients.SES
	}
	if clients.SNS != nil {
		opts.SNS = clients.SNS
	}

	alertsHandler, err := swa.NewHandler(opts)
	if err != nil {
		return fmt.Errorf("failed to create %s handler: %w", swa.TaskType, err)
	}
	workers.Start(swa.TaskType, config.GetWorkerConfig(cfg, swa.TaskType), alertsHandler.Handle)
	return nil
}
