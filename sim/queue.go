// Implements the TransmissionQueue, which holds admitted frames waiting for the link.
// Frames are enqueued on arrival and removed when their transmission completes.

package sim

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// TransmissionQueue is a bounded FIFO of frames waiting to be transmitted.
// A capacity of 0 means unbounded.
type TransmissionQueue struct {
	frames   *linkedlistqueue.Queue
	capacity int
}

// NewTransmissionQueue creates an empty queue holding at most capacity frames.
func NewTransmissionQueue(capacity int) *TransmissionQueue {
	if capacity < 0 {
		panic(fmt.Sprintf("NewTransmissionQueue: capacity must be non-negative, got %d", capacity))
	}
	return &TransmissionQueue{frames: linkedlistqueue.New(), capacity: capacity}
}

// Full reports whether another frame would exceed the capacity.
func (q *TransmissionQueue) Full() bool {
	return q.capacity > 0 && q.frames.Size() >= q.capacity
}

// Enqueue adds a frame to the back of the queue. The caller checks Full first.
func (q *TransmissionQueue) Enqueue(f Frame) {
	if q.Full() {
		panic(fmt.Sprintf("Enqueue: frame %d exceeds queue capacity %d", f.ID, q.capacity))
	}
	q.frames.Enqueue(f)
}

// Len returns the number of queued frames.
func (q *TransmissionQueue) Len() int {
	return q.frames.Size()
}

// Peek returns the head of the queue without removing it.
func (q *TransmissionQueue) Peek() (Frame, bool) {
	v, ok := q.frames.Peek()
	if !ok {
		return Frame{}, false
	}
	return v.(Frame), true
}

// Dequeue removes and returns the head of the queue.
func (q *TransmissionQueue) Dequeue() (Frame, bool) {
	v, ok := q.frames.Dequeue()
	if !ok {
		return Frame{}, false
	}
	return v.(Frame), true
}

func (q *TransmissionQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	it := q.frames.Iterator()
	first := true
	for it.Next() {
		if !first {
			sb.WriteString(" ")
		}
		first = false
		sb.WriteString(fmt.Sprint(it.Value().(Frame).ID))
	}
	sb.WriteString("]")
	return sb.String()
}
