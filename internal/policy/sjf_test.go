package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
)

func TestSJFPolicy_OrdersByEstimatedDuration(t *testing.T) {
	p := NewSJF()
	p.Offer(job.Summary{ID: "long", EstimatedDuration: 10})
	p.Offer(job.Summary{ID: "short", EstimatedDuration: 1})
	p.Offer(job.Summary{ID: "medium", EstimatedDuration: 5})

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "short", first.ID)

	second, _ := p.Next()
	assert.Equal(t, "medium", second.ID)

	third, _ := p.Next()
	assert.Equal(t, "long", third.ID)
}

func TestSJFPolicy_TiesBreakByArrivalOrder(t *testing.T) {
	p := NewSJF()
	p.Offer(job.Summary{ID: "first", EstimatedDuration: 3})
	p.Offer(job.Summary{ID: "second", EstimatedDuration: 3})

	a, _ := p.Next()
	b, _ := p.Next()
	assert.Equal(t, "first", a.ID)
	assert.Equal(t, "second", b.ID)
}

func TestSJFPolicy_OfferIsIdempotentByID(t *testing.T) {
	p := NewSJF()
	p.Offer(job.Summary{ID: "a", EstimatedDuration: 5})
	p.Offer(job.Summary{ID: "a", EstimatedDuration: 1})

	assert.Equal(t, 1, p.Size())
	got, _ := p.Peek()
	assert.Equal(t, float64(5), got.EstimatedDuration, "a duplicate offer must not replace the held entry")
}

func TestSJFPolicy_DrainReturnsHeapOrder(t *testing.T) {
	p := NewSJF()
	p.Offer(job.Summary{ID: "b", EstimatedDuration: 2})
	p.Offer(job.Summary{ID: "a", EstimatedDuration: 1})

	drained := p.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].ID)
	assert.Equal(t, "b", drained[1].ID)
	assert.Equal(t, 0, p.Size())
}
