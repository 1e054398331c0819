// Command scheduler runs the Scheduler Engine alongside the ambient
// surfaces an operator needs to drive it: the HTTP submission and
// management API, the Prometheus /metrics endpoint, and the Recurring
// Job Registrar. It holds the Distributed Lock for its entire lifetime,
// enforcing single-engine-instance operation. This binary and cmd/worker
// form the two-process deployment: Scheduler Engine here, Worker Pool
// there.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobengine/internal/config"
	"jobengine/internal/cron"
	"jobengine/internal/engine"
	"jobengine/internal/handler"
	"jobengine/internal/httpapi"
	"jobengine/internal/lock"
	"jobengine/internal/metrics"
	"jobengine/internal/store/postgres"
	transportredis "jobengine/internal/transport/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("scheduler: config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.StoreURL)
	if err != nil {
		log.Fatalf("scheduler: open store: %v", err)
	}
	defer db.Close()

	migrationLocker := lock.NewPostgresManager(db)
	if err := postgres.Init(db, migrationLocker); err != nil {
		log.Fatalf("scheduler: migrate: %v", err)
	}

	registry := handler.NewRegistry()
	handler.RegisterDefaults(registry)

	st := postgres.New(db,
		postgres.WithJobTypeValidator(registry.Known),
		postgres.WithDefaultMaxRetries(cfg.DefaultMaxRetries),
	)
	defer st.Close()

	redisClient, err := transportredis.Connect(ctx, cfg.TransportURL, "", 0)
	if err != nil {
		log.Fatalf("scheduler: connect transport: %v", err)
	}
	tr := transportredis.New(redisClient)
	defer tr.Close()

	engineLocker := lock.NewPostgresManager(db)
	log.Printf("scheduler: acquiring engine lock, blocking until held")
	if err := engineLocker.Acquire(lock.EngineLockName); err != nil {
		log.Fatalf("scheduler: acquire engine lock: %v", err)
	}
	defer engineLocker.Release(lock.EngineLockName)
	log.Printf("scheduler: engine lock held, this process owns dispatch ordering")

	if n, err := st.RecoverStuck(ctx, 2*cfg.WorkerPopTimeout); err != nil {
		log.Printf("scheduler: recover at startup: %v", err)
	} else if n > 0 {
		log.Printf("scheduler: recovered %d stuck jobs at startup", n)
	}

	eng := engine.New(st, tr, engine.Config{
		TickInterval:  cfg.EngineTick,
		DefaultPolicy: cfg.DefaultPolicy,
	})

	registrar := cron.New(st)
	registrar.Start()
	defer func() { <-registrar.Stop().Done() }()

	apiSrv := httpapi.NewServer(st, tr, cfg.WorkerPoolSize)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: apiSrv}
	go func() {
		log.Printf("scheduler: http api listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("scheduler: http api: %v", err)
		}
	}()

	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Printf("scheduler: metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("scheduler: metrics: %v", err)
		}
	}()

	go func() {
		recoverTicker := time.NewTicker(2 * cfg.WorkerPopTimeout)
		defer recoverTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-recoverTicker.C:
				if n, err := st.RecoverStuck(ctx, 2*cfg.WorkerPopTimeout); err != nil {
					log.Printf("scheduler: recover: %v", err)
				} else if n > 0 {
					log.Printf("scheduler: recovered %d stuck jobs", n)
				}
			}
		}
	}()

	go func() {
		sampleTicker := time.NewTicker(5 * time.Second)
		defer sampleTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sampleTicker.C:
				if depth, err := tr.Depth(ctx); err == nil {
					metrics.QueueDepth.Set(float64(depth))
				}
				if dlq, err := tr.ListDLQ(ctx, 0, 0); err == nil {
					metrics.DLQSize.Set(float64(len(dlq)))
				}
			}
		}
	}()

	log.Printf("scheduler: engine ticking every %s with policy %q", cfg.EngineTick, cfg.DefaultPolicy)
	eng.Run(ctx)

	log.Printf("scheduler: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)
}
