// Package config loads the process configuration from environment
// variables, with sane defaults so a bare `go run` on a laptop with
// local Postgres/Redis just works. It is a plain struct-of-settings
// loaded from os.Getenv rather than constructed via method-chaining.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full set of configuration surface values, including the
// ambient additions for the Notifier, the Registrar, and the metrics
// address.
type Config struct {
	StoreURL     string // STORE_URL — Postgres DSN
	TransportURL string // TRANSPORT_URL — Redis address

	WorkerPoolSize     int           // WORKER_POOL_SIZE
	EngineTick         time.Duration // ENGINE_TICK_MS
	WorkerPopTimeout   time.Duration // WORKER_POP_TIMEOUT_S
	DefaultMaxRetries  int           // DEFAULT_MAX_RETRIES
	DefaultPolicy      string        // DEFAULT_POLICY

	NotifyAMQPURL      string        // NOTIFY_AMQP_URL, empty disables the Notifier
	CronCheckInterval  time.Duration // CRON_CHECK_INTERVAL_MS
	MetricsAddr        string        // METRICS_ADDR
	HTTPAddr           string        // HTTP_ADDR, the submission/management surface

	StartupGracePeriod time.Duration // not read by either command; both try Store/Transport once at boot and exit on failure
}

// Load reads every variable from the environment, falling back to
// documented defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		StoreURL:           getEnv("STORE_URL", "host=localhost port=5432 user=postgres password=postgres dbname=jobengine sslmode=disable"),
		TransportURL:       getEnv("TRANSPORT_URL", "localhost:6379"),
		WorkerPoolSize:     4,
		EngineTick:         100 * time.Millisecond,
		WorkerPopTimeout:   5 * time.Second,
		DefaultMaxRetries:  3,
		DefaultPolicy:      "fcfs",
		NotifyAMQPURL:      getEnv("NOTIFY_AMQP_URL", ""),
		CronCheckInterval:  time.Second,
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StartupGracePeriod: 10 * time.Second,
	}

	var err error
	if cfg.WorkerPoolSize, err = getEnvInt("WORKER_POOL_SIZE", cfg.WorkerPoolSize); err != nil {
		return cfg, err
	}
	tickMS, err := getEnvInt("ENGINE_TICK_MS", int(cfg.EngineTick.Milliseconds()))
	if err != nil {
		return cfg, err
	}
	cfg.EngineTick = time.Duration(tickMS) * time.Millisecond

	popTimeoutS, err := getEnvInt("WORKER_POP_TIMEOUT_S", int(cfg.WorkerPopTimeout.Seconds()))
	if err != nil {
		return cfg, err
	}
	cfg.WorkerPopTimeout = time.Duration(popTimeoutS) * time.Second

	if cfg.DefaultMaxRetries, err = getEnvInt("DEFAULT_MAX_RETRIES", cfg.DefaultMaxRetries); err != nil {
		return cfg, err
	}
	cfg.DefaultPolicy = getEnv("DEFAULT_POLICY", cfg.DefaultPolicy)

	cronMS, err := getEnvInt("CRON_CHECK_INTERVAL_MS", int(cfg.CronCheckInterval.Milliseconds()))
	if err != nil {
		return cfg, err
	}
	cfg.CronCheckInterval = time.Duration(cronMS) * time.Millisecond

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}
