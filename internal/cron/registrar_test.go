package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
	"jobengine/internal/store/memory"
)

func TestRegistrar_Register_RejectsBadExpression(t *testing.T) {
	s := memory.New()
	r := New(s)

	_, err := r.Register("bad", "not a cron expression", Template{JobType: "sleep"})
	assert.Error(t, err)
}

func TestRegistrar_TriggerSubmitsThroughStore(t *testing.T) {
	s := memory.New()
	r := New(s)

	_, err := r.Register("every-second", "* * * * * *", Template{
		Name:    "heartbeat",
		JobType: "sleep",
		Payload: map[string]interface{}{"duration_seconds": 0.0},
	})
	require.NoError(t, err)

	r.Start()
	defer func() { <-r.Stop().Done() }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err := s.List(context.Background(), job.StatusPending, "", 10, 0)
		require.NoError(t, err)
		if len(jobs) > 0 {
			assert.Equal(t, "heartbeat", jobs[0].Name)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("cron trigger never submitted a job within the deadline")
}
