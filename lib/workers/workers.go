package workers

import (
	"context"
	"net/http"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/re-pronin/reddalert/lib"
	"github.com/re-pronin/reddalert/lib/chefnodes"
	"github.com/re-pronin/reddalert/lib/db"
	"github.com/re-pronin/reddalert/lib/ec2inventory"
	"github.com/sirupsen/logrus"
)

func runWorkers(ctx context.Context, cfg *internalConfig, log *logrus.Logger) error {
	rm, err := NewMiddlewareRaven(cfg.SentryDSN)
	if err != nil {
		log.WithFields(logrus.Fields{
			"sentry_dsn": cfg.SentryDSN,
			"err":        err,
		}).Error("failed to build sentry middleware")
		return err
	}

	pool, err := db.BuildRedisPool(cfg.RedisURL)
	if err != nil {
		log.WithField("err", err).Error("failed to build redis pool")
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()

	job, err := buildReconcileJob(ctx, cfg, pool, reg, log)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, reg, log)
	}

	mw := newMiniWorkers(cfg.MiniWorkerInterval, log, rm)
	mw.Register("non-chef", job.Run)

	log.WithField("interval", cfg.MiniWorkerInterval).Info("starting mini workers")
	mw.Run(ctx)
	return nil
}

func buildReconcileJob(ctx context.Context, cfg *internalConfig, pool *redis.Pool, reg prometheus.Registerer, log *logrus.Logger) (*reconcileJob, error) {
	cursors := db.NewCursors(pool, log)
	cursor, err := cursors.Fetch(lib.PluginName)
	if err != nil {
		log.WithField("err", err).Error("failed to fetch cursor")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"since":      cursor.Since,
		"first_seen": len(cursor.FirstSeen),
	}).Info("loaded cursor")

	inv, err := ec2inventory.NewFromCredentials(ctx, cfg.AWSKey, cfg.AWSSecret, cfg.AWSRegion, cursor.Since, log)
	if err != nil {
		log.WithField("err", err).Error("failed to build ec2 inventory")
		return nil, err
	}

	nodes, err := chefnodes.NewFromConfig(cfg.Chef, log)
	if err != nil {
		log.WithField("err", err).Error("failed to build chef node source")
		return nil, err
	}

	rec, err := lib.NewReconciler(inv, nodes, lib.ReconcilerConfig{
		ExcludedInstances: cfg.Chef.ExcludedInstances,
		NodeQuery:         cfg.Chef.NodeQuery,
		FirstSeen:         cursor.FirstSeen,
	}, log)
	if err != nil {
		return nil, err
	}

	job := &reconcileJob{
		rec:      rec,
		inv:      inv,
		cursors:  cursors,
		reports:  db.NewReports(pool, lib.PluginName, log),
		metrics:  lib.NewMetrics(reg),
		channel:  cfg.SlackChannel,
		executor: newPassExecutor(cfg.FetchRetries),
		log:      log.WithField("job", "non-chef"),
	}

	if cfg.SlackHookURL != "" {
		job.notifier = lib.NewSlackNotifier(cfg.SlackHookURL, cfg.SlackUsername, cfg.SlackIcon)
	} else {
		log.Warn("no slack hook url configured, reports will not be announced")
	}

	return job, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving worker metrics")
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.WithField("err", err).Error("metrics listener failed")
	}
}
