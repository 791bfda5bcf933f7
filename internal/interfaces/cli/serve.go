package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/application/dashboard"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	redisc "github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/cache/redis"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/messaging/kafka"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	filestore "github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage/file"
	miniostore "github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage/minio"
	apihttp "github.com/Lossfunk/indiaml-tracker-sub001/internal/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return RunServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// RunServe wires the full service from cfg and serves until a shutdown
// signal or ctx cancellation.  It is shared by `trackerctl serve` and the
// standalone apiserver binary.
func RunServe(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	metrics := prometheus.NewMetrics(prometheus.Options{
		Namespace:            cfg.Metrics.Namespace,
		EnableRuntimeMetrics: cfg.Metrics.EnableRuntimeMetrics,
	})

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var cache redisc.Cache = redisc.NopCache{}
	if cfg.Redis.Enabled {
		client, err := redisc.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = redisc.NewViewCache(client, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL, logger, metrics)
	}

	var publisher dashboard.RefreshPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		publisher = producer
	}

	svc := dashboard.NewService(store, cache, publisher, logger, metrics, dashboard.Options{
		FocusCountry: cfg.Dashboard.FocusCountry,
		DefaultTopN:  cfg.Dashboard.DefaultTopN,
	})

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, svc.HandleRefreshEvent, logger)
		consumer.Start(ctx)
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.Warn("kafka consumer stop failed", logging.Err(err))
			}
		}()
	}

	router := apihttp.NewRouter(cfg.Server, svc, store, logger, metrics)
	server := apihttp.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			Prefix:    cfg.Storage.MinIO.Prefix,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		}, logger)
	default:
		return filestore.New(cfg.Storage.File.Dir, logger)
	}
}
