package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
)

func TestFCFSPolicy_OrdersByArrival(t *testing.T) {
	p := NewFCFS()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "b"})
	p.Offer(job.Summary{ID: "c"})

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)

	second, _ := p.Next()
	assert.Equal(t, "b", second.ID)

	assert.Equal(t, 1, p.Size())
}

func TestFCFSPolicy_NextOnEmptyReturnsFalse(t *testing.T) {
	p := NewFCFS()
	_, ok := p.Next()
	assert.False(t, ok)
}

func TestFCFSPolicy_PeekDoesNotRemove(t *testing.T) {
	p := NewFCFS()
	p.Offer(job.Summary{ID: "a"})

	peeked, ok := p.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", peeked.ID)
	assert.Equal(t, 1, p.Size())
}

func TestFCFSPolicy_OfferIsIdempotentByID(t *testing.T) {
	p := NewFCFS()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "b"})

	assert.Equal(t, 2, p.Size())

	first, _ := p.Next()
	assert.Equal(t, "a", first.ID)
	second, _ := p.Next()
	assert.Equal(t, "b", second.ID)
}

func TestFCFSPolicy_DrainEmptiesAndPreservesOrder(t *testing.T) {
	p := NewFCFS()
	p.Offer(job.Summary{ID: "a"})
	p.Offer(job.Summary{ID: "b"})

	drained := p.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].ID)
	assert.Equal(t, "b", drained[1].ID)
	assert.Equal(t, 0, p.Size())
}
