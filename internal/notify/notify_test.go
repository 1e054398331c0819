package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_EmptyURLDisablesNotifier(t *testing.T) {
	n, err := Connect("")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNilNotifier_PublishIsNoop(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Publish(Event{JobID: "x", Status: "COMPLETED"})
	})
}

func TestNilNotifier_CloseIsNoop(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.Close())
}
