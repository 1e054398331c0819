// Package redis implements the Ready Transport on top of Redis lists,
// using github.com/redis/go-redis/v9 for both the ready queue and the
// active-policy-name cell.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"time"

	"github.com/redis/go-redis/v9"

	"jobengine/internal/job"
)

const (
	defaultQueueKey   = "jobengine:ready"
	defaultPolicyKey  = "jobengine:policy"
	defaultDLQKey     = "jobengine:dlq"
	defaultDLQSeenKey = "jobengine:dlq:seen"
)

// Transport implements transport.Transport with RPUSH/BLPOP for the ready
// queue, a plain string key for the active policy name, and an
// RPUSH-appended list of JSON-encoded entries for the dead-letter log.
type Transport struct {
	client     *redis.Client
	queueKey   string
	policyKey  string
	dlqKey     string
	dlqSeenKey string
}

type Option func(*Transport)

func WithQueueKey(key string) Option  { return func(t *Transport) { t.queueKey = key } }
func WithPolicyKey(key string) Option { return func(t *Transport) { t.policyKey = key } }
func WithDLQKey(key string) Option {
	return func(t *Transport) { t.dlqKey = key; t.dlqSeenKey = key + ":seen" }
}

func New(client *redis.Client, opts ...Option) *Transport {
	t := &Transport{
		client:     client,
		queueKey:   defaultQueueKey,
		policyKey:  defaultPolicyKey,
		dlqKey:     defaultDLQKey,
		dlqSeenKey: defaultDLQSeenKey,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Connect dials Redis, pinging once to fail fast on a bad address.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func (t *Transport) Push(ctx context.Context, jobID string) error {
	if err := t.client.RPush(ctx, t.queueKey, jobID).Err(); err != nil {
		return fmt.Errorf("push job %s: %w", jobID, err)
	}
	return nil
}

func (t *Transport) BlockPop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := t.client.BLPop(ctx, timeout, t.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("block pop: %w", err)
	}
	// BLPOP returns [key, value].
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

func (t *Transport) Depth(ctx context.Context) (int64, error) {
	n, err := t.client.LLen(ctx, t.queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}

func (t *Transport) GetPolicy(ctx context.Context) (string, error) {
	name, err := t.client.Get(ctx, t.policyKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get policy: %w", err)
	}
	return name, nil
}

func (t *Transport) SetPolicy(ctx context.Context, name string) error {
	if err := t.client.Set(ctx, t.policyKey, name, 0).Err(); err != nil {
		return fmt.Errorf("set policy: %w", err)
	}
	return nil
}

// AppendDLQ RPUSHes a JSON-encoded entry onto the dead-letter list.
// dlqSeenKey is a companion set used to dedupe by job id: SADD reports
// how many elements were actually added, so a second append of the same
// job id is a no-op rather than a duplicate list entry.
func (t *Transport) AppendDLQ(ctx context.Context, entry job.DLQEntry) error {
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now()
	}

	added, err := t.client.SAdd(ctx, t.dlqSeenKey, entry.JobID).Result()
	if err != nil {
		return fmt.Errorf("dlq dedup: %w", err)
	}
	if added == 0 {
		return nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}
	if err := t.client.RPush(ctx, t.dlqKey, payload).Err(); err != nil {
		return fmt.Errorf("append dlq: %w", err)
	}
	return nil
}

// ListDLQ reads the whole dead-letter list with LRANGE and pages it in
// reverse (most-recently-appended first), matching the Job Store's
// newest-first convention for every other listing endpoint.
func (t *Transport) ListDLQ(ctx context.Context, limit, offset int) ([]job.DLQEntry, error) {
	raw, err := t.client.LRange(ctx, t.dlqKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list dlq: %w", err)
	}

	out := make([]job.DLQEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var e job.DLQEntry
		if err := json.Unmarshal([]byte(raw[i]), &e); err != nil {
			return nil, fmt.Errorf("unmarshal dlq entry: %w", err)
		}
		out = append(out, e)
	}

	if offset >= len(out) {
		return nil, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func (t *Transport) Close() error {
	return t.client.Close()
}
