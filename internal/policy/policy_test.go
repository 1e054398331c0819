package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_UnknownNameFallsBackToFCFS(t *testing.T) {
	p := New("does-not-exist")
	assert.Equal(t, FCFS, p.Name())
}

func TestNew_EmptyNameFallsBackToFCFS(t *testing.T) {
	p := New("")
	assert.Equal(t, FCFS, p.Name())
}

func TestNew_DispatchesEachKnownName(t *testing.T) {
	cases := map[string]string{
		FCFS:       FCFS,
		SJF:        SJF,
		Priority:   Priority,
		RoundRobin: RoundRobin,
	}
	for name, want := range cases {
		assert.Equal(t, want, New(name).Name())
	}
}
