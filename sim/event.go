package sim

// EventKind discriminates the four event types.
type EventKind int

const (
	KindFrameArrival EventKind = iota
	KindFrameDrop
	KindFrameTransmission
	KindStateTransition
)

func (k EventKind) String() string {
	switch k {
	case KindFrameArrival:
		return "FrameArrivalEvent"
	case KindFrameDrop:
		return "FrameDropEvent"
	case KindFrameTransmission:
		return "FrameTransmissionEvent"
	case KindStateTransition:
		return "StateTransitionEvent"
	default:
		return "UnknownEvent"
	}
}

// Event is a scheduled occurrence. The set of implementations is closed:
// FrameArrivalEvent, FrameDropEvent, FrameTransmissionEvent and StateTransitionEvent.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	// key identifies the event for duplicate detection.
	key() eventKey
}

// eventKey is (kind, time, frame id or target state).
type eventKey struct {
	kind  EventKind
	time  int64
	discr int64
}

// Frame is a unit of traffic. IDs are unique and increase with arrival order.
type Frame struct {
	ID      int64
	Size    int   // bytes
	Arrival int64 // ticks
}

// FrameArrivalEvent represents a frame reaching the transmission queue.
type FrameArrivalEvent struct {
	Time  int64
	Frame Frame
}

func (e FrameArrivalEvent) Timestamp() int64 { return e.Time }
func (e FrameArrivalEvent) Kind() EventKind  { return KindFrameArrival }
func (e FrameArrivalEvent) key() eventKey {
	return eventKey{kind: KindFrameArrival, time: e.Time, discr: e.Frame.ID}
}

// FrameDropEvent represents an arriving frame discarded by a full queue.
type FrameDropEvent struct {
	Time    int64
	FrameID int64
}

func (e FrameDropEvent) Timestamp() int64 { return e.Time }
func (e FrameDropEvent) Kind() EventKind  { return KindFrameDrop }
func (e FrameDropEvent) key() eventKey {
	return eventKey{kind: KindFrameDrop, time: e.Time, discr: e.FrameID}
}

// FrameTransmissionEvent represents the end of the transmission of a frame.
type FrameTransmissionEvent struct {
	Time    int64
	FrameID int64
}

func (e FrameTransmissionEvent) Timestamp() int64 { return e.Time }
func (e FrameTransmissionEvent) Kind() EventKind  { return KindFrameTransmission }
func (e FrameTransmissionEvent) key() eventKey {
	return eventKey{kind: KindFrameTransmission, time: e.Time, discr: e.FrameID}
}

// StateTransitionEvent moves the link into Target.
type StateTransitionEvent struct {
	Time   int64
	Target LinkState
}

func (e StateTransitionEvent) Timestamp() int64 { return e.Time }
func (e StateTransitionEvent) Kind() EventKind  { return KindStateTransition }
func (e StateTransitionEvent) key() eventKey {
	return eventKey{kind: KindStateTransition, time: e.Time, discr: int64(e.Target)}
}

// Handler consumes dispatched events. LinkModel is the only production implementation.
type Handler interface {
	HandleFrameArrival(FrameArrivalEvent)
	HandleFrameDrop(FrameDropEvent)
	HandleFrameTransmission(FrameTransmissionEvent)
	HandleStateTransition(StateTransitionEvent)
}
