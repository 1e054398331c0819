package handler

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Sleep is a reference handler: it sleeps for duration_seconds and then
// either succeeds or fails according to fail_probability, for exercising
// the retry/DLQ path deterministically in tests.
func Sleep(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	duration := floatField(payload, "duration_seconds", 0)
	failProb := floatField(payload, "fail_probability", 0)

	select {
	case <-time.After(time.Duration(duration * float64(time.Second))):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if failProb > 0 && rand.Float64() < failProb {
		return nil, fmt.Errorf("sleep handler: simulated failure (fail_probability=%.2f)", failProb)
	}
	return map[string]interface{}{"slept_seconds": duration}, nil
}

func floatField(payload map[string]interface{}, key string, def float64) float64 {
	v, ok := payload[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}
