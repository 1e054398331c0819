package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
)

func TestRoundRobinPolicy_ArrivalOrderLikeFCFS(t *testing.T) {
	p := NewRoundRobin()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "b"})

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)
}

func TestRoundRobinPolicy_RequeueSendsToTail(t *testing.T) {
	p := NewRoundRobin()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "b"})

	a, _ := p.Next()
	p.Offer(a) // re-offered after a retry, as the Engine does once it is PENDING again

	second, _ := p.Next()
	assert.Equal(t, "b", second.ID)

	third, _ := p.Next()
	assert.Equal(t, "a", third.ID)
}

func TestRoundRobinPolicy_OfferIsIdempotentByID(t *testing.T) {
	p := NewRoundRobin()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "a"})

	assert.Equal(t, 1, p.Size())
}
