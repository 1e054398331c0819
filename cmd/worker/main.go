// Command worker runs the Worker Pool: one loop block-popping from the
// Ready Transport and up to cfg.WorkerPoolSize concurrent executions
// dispatching into the Handler Registry. Unlike the Scheduler Engine, any number of worker
// processes may run concurrently against the same Store and Transport —
// the single-owner constraint applies only to dispatch ordering, not
// execution.
package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"jobengine/internal/config"
	"jobengine/internal/handler"
	"jobengine/internal/job"
	"jobengine/internal/notify"
	"jobengine/internal/store/postgres"
	transportredis "jobengine/internal/transport/redis"
	"jobengine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("worker: config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.StoreURL)
	if err != nil {
		log.Fatalf("worker: open store: %v", err)
	}
	defer db.Close()

	registry := handler.NewRegistry()
	handler.RegisterDefaults(registry)

	st := postgres.New(db,
		postgres.WithJobTypeValidator(registry.Known),
		postgres.WithDefaultMaxRetries(cfg.DefaultMaxRetries),
	)
	defer st.Close()

	redisClient, err := transportredis.Connect(ctx, cfg.TransportURL, "", 0)
	if err != nil {
		log.Fatalf("worker: connect transport: %v", err)
	}
	tr := transportredis.New(redisClient)
	defer tr.Close()

	notifier, err := notify.Connect(cfg.NotifyAMQPURL)
	if err != nil {
		log.Printf("worker: notifier unavailable, continuing without it: %v", err)
	}
	defer notifier.Close()

	pool := worker.New(st, tr, registry, worker.Config{
		PoolSize:    cfg.WorkerPoolSize,
		PopTimeout:  cfg.WorkerPopTimeout,
		InstanceTag: "worker",
	})
	pool.OnTransition = func(id string, from, to job.Status) {
		if to.IsTerminal() || to == job.StatusRetried {
			notifier.Publish(notify.Event{JobID: id, Status: to, At: time.Now()})
		}
	}

	log.Printf("worker: running %d executors, pop timeout %s", cfg.WorkerPoolSize, cfg.WorkerPopTimeout)
	pool.Run(ctx)
	log.Printf("worker: drained, shutting down")
}
