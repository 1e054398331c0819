package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
)

func TestTransport_PushAndBlockPop(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Push(context.Background(), "job-1"))

	id, err := tr.BlockPop(context.Background(), time.Second)
	require.NoError(t, err)
	require.Equal(t, "job-1", id)
}

func TestTransport_BlockPop_Timeout(t *testing.T) {
	tr := New()
	id, err := tr.BlockPop(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "", id)
}

func TestTransport_FIFO(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Push(context.Background(), "a"))
	require.NoError(t, tr.Push(context.Background(), "b"))

	first, _ := tr.BlockPop(context.Background(), time.Second)
	second, _ := tr.BlockPop(context.Background(), time.Second)
	require.Equal(t, "a", first)
	require.Equal(t, "b", second)
}

func TestTransport_PolicyRoundTrip(t *testing.T) {
	tr := New()
	require.NoError(t, tr.SetPolicy(context.Background(), "sjf"))
	name, err := tr.GetPolicy(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sjf", name)
}

func TestTransport_Depth(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Push(context.Background(), "a"))
	require.NoError(t, tr.Push(context.Background(), "b"))
	n, err := tr.Depth(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestTransport_AppendDLQ_IsIdempotentByJobID(t *testing.T) {
	tr := New()
	entry := job.DLQEntry{JobID: "job-1", FinalError: "boom", RetryCount: 3}

	require.NoError(t, tr.AppendDLQ(context.Background(), entry))
	require.NoError(t, tr.AppendDLQ(context.Background(), entry))

	got, err := tr.ListDLQ(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "job-1", got[0].JobID)
}

func TestTransport_ListDLQ_PagesWithOffsetAndLimit(t *testing.T) {
	tr := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.AppendDLQ(context.Background(), job.DLQEntry{
			JobID:      string(rune('a' + i)),
			FinalError: "boom",
		}))
	}

	page, err := tr.ListDLQ(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := tr.ListDLQ(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}
