package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/pds-gateway/adapter"
	_ "github.com/omni/pds-gateway/adapter/mock"
	_ "github.com/omni/pds-gateway/adapter/standardprice"
	_ "github.com/omni/pds-gateway/adapter/verifiableai"
	_ "github.com/omni/pds-gateway/adapter/vrf"
	"github.com/omni/pds-gateway/cache"
	"github.com/omni/pds-gateway/config"
	"github.com/omni/pds-gateway/db"
	"github.com/omni/pds-gateway/gateway"
	"github.com/omni/pds-gateway/logging"
	"github.com/omni/pds-gateway/presenter"
	"github.com/omni/pds-gateway/reporter"
	"github.com/omni/pds-gateway/repository"
	"github.com/omni/pds-gateway/verifier"
)

func main() {
	logger := logging.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.ReadConfigFromFile(configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)
	logger.WithField("mode", cfg.Mode).Info("starting pds gateway")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			srv := &http.Server{Addr: cfg.Metrics.Host, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			if err2 := srv.ListenAndServe(); err2 != nil && !errors.Is(err2, http.ErrServerClosed) {
				logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	store, err := newCacheStore(ctx, cfg.Cache)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize cache")
	}
	sigCache := cache.NewSignatureCache(logger.WithField("service", "cache"), store, cfg.Cache.PendingTimeout, cfg.Cache.PollInterval)

	httpClient := &http.Client{}
	handler, err := adapter.New(cfg.Adapter.Type, cfg.Adapter.Name, cfg.Adapter.Options, httpClient)
	if err != nil {
		logger.WithError(err).WithField("available", adapter.Names()).Fatal("can't initialize adapter")
	}

	verifierClient := verifier.NewClient(logger.WithField("service", "verifier"), cfg.Verifier, httpClient)

	var (
		hooks   []gateway.Hook
		reports presenter.ReportSource
		rec     *reporter.Recorder
	)
	if cfg.ReportsEnabled() {
		dbConn, err2 := db.ConnectToDBAndMigrate(ctx, cfg.DBConfig)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't connect to database and apply migrations")
		}
		defer dbConn.Close()

		repo := repository.NewRepo(dbConn)
		rec = reporter.NewRecorder(logger.WithField("service", "reporter"), repo.Reports, cfg.Reports.BufferSize)
		rec.Start()
		hooks = append(hooks, rec)
		reports = rec

		if cfg.Reports.Expiration > 0 {
			job := reporter.NewPurgeJob(logger.WithField("service", "purge"), repo.Reports, cfg.Reports.Expiration, cfg.Reports.PurgeInterval)
			go job.Start(ctx)
		}
	} else {
		logger.Warn("postgres is not configured, reports are disabled")
	}

	pipeline := gateway.NewPipeline(logger.WithField("service", "pipeline"), cfg, verifierClient, sigCache, handler, hooks...)
	pr := presenter.NewPresenter(logger.WithField("service", "presenter"), cfg, pipeline, reports)
	if err = pr.Serve(ctx, cfg.Presenter.Host); err != nil {
		logger.WithError(err).Error("presenter stopped")
	}

	if rec != nil {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer drainCancel()
		if err = rec.Close(drainCtx); err != nil {
			logger.WithError(err).Warn("some reports were not saved")
		}
	}
	logger.Info("gracefully terminated")
}

func newCacheStore(ctx context.Context, cfg *config.CacheConfig) (cache.Store, error) {
	if cfg.Type == config.CacheTypeRedis {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisStore(client, "pds:", cfg.TTL), nil
	}
	return cache.NewLocalStore(cfg.Size, cfg.TTL), nil
}
