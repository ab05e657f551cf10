package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransmissionQueue_FIFO(t *testing.T) {
	q := NewTransmissionQueue(0)
	for i := int64(1); i <= 3; i++ {
		q.Enqueue(Frame{ID: i, Size: 100, Arrival: i * 10})
	}
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, "[1 2 3]", q.String())

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(1), head.ID)
	assert.Equal(t, 3, q.Len(), "Peek must not remove")

	for want := int64(1); want <= 3; want++ {
		f, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, f.ID)
	}
	_, ok = q.Dequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
}

func TestTransmissionQueue_Bounded(t *testing.T) {
	// GIVEN a queue of capacity 2
	q := NewTransmissionQueue(2)
	q.Enqueue(Frame{ID: 1})
	assert.False(t, q.Full())
	q.Enqueue(Frame{ID: 2})

	// THEN it reports full and rejects a third frame
	assert.True(t, q.Full())
	assert.Panics(t, func() { q.Enqueue(Frame{ID: 3}) })

	// WHEN a frame leaves THEN there is room again
	q.Dequeue()
	assert.False(t, q.Full())
}

func TestTransmissionQueue_UnboundedNeverFull(t *testing.T) {
	q := NewTransmissionQueue(0)
	for i := 0; i < 1000; i++ {
		q.Enqueue(Frame{ID: int64(i)})
	}
	assert.False(t, q.Full())
}

func TestNewTransmissionQueue_NegativeCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { NewTransmissionQueue(-1) })
}
