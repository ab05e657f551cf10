package sim

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"
)

// LinkModel is the dual-mode EEE link: the power state machine, the transmission
// queue and the adaptive coalescing logic. It implements Handler.
//
// LinkState changes only inside HandleStateTransition. Every other handler reacts
// to the current state by scheduling further events.
type LinkModel struct {
	cfg   *Config
	sched *EventScheduler
	queue *TransmissionQueue
	stats *Statistics
	out   io.Writer // nil when verbose output is off

	state          LinkState
	lastTransition int64
	nextFrameID    int64
	arrivalsDone   bool

	// Thresholds and delay bound currently in force. Adaptive modes rewrite
	// them at every drain.
	fastQth    int
	deepQth    int
	delayBound int64

	cross         crossover
	useDeep       bool // dual_dyn sleep direction
	lastWakeQueue int  // frames queued when ACTIVE was last entered

	// Counters since the previous drain.
	cycleStart    int64
	cycleArrivals int64
	cycleBusy     int64
}

// NewLinkModel creates the link in its initial state. Start must be called
// before the scheduler runs.
func NewLinkModel(cfg *Config, sched *EventScheduler) *LinkModel {
	co := cfg.Coalescing
	l := &LinkModel{
		cfg:     cfg,
		sched:   sched,
		queue:   NewTransmissionQueue(cfg.Link.MaxQueueSize),
		stats:   newStatistics(co.Mode, sched.Horizon(), cfg.Power),
		fastQth: co.FastToActiveQth,
		deepQth: co.DeepToActiveQth,
	}
	if cfg.Verbose {
		l.out = cfg.EventLog
		if l.out == nil {
			l.out = os.Stdout
		}
	}
	switch {
	case co.Mode.AdaptsDelayBound() && co.MaxDelay > 0:
		l.delayBound = co.MaxDelay
	case co.Mode.AdaptsDelayBound():
		l.delayBound = 2 * co.TargetDelay
	default:
		l.delayBound = co.MaxDelay
	}
	if co.Mode == ModeDualDyn {
		l.cross = newCrossover(cfg.Transitions, cfg.Power)
		l.useDeep = dualDynChoosesDeep(co, cfg.Transitions, l.cross, 0)
	}
	l.state = l.sleepTarget()
	return l
}

// Start schedules the initial sleep transition and the first frame arrival at time 0.
func (l *LinkModel) Start() {
	l.sched.Insert(StateTransitionEvent{Time: 0, Target: l.state})
	l.scheduleNextArrival()
}

// State returns the current link state.
func (l *LinkModel) State() LinkState { return l.state }

// QueueLen returns the number of frames waiting for transmission.
func (l *LinkModel) QueueLen() int { return l.queue.Len() }

// Thresholds returns the fast and deep wake queue thresholds in force.
func (l *LinkModel) Thresholds() (fast, deep int) { return l.fastQth, l.deepQth }

// DelayBound returns the backstop delay bound in force (0 = disabled).
func (l *LinkModel) DelayBound() int64 { return l.delayBound }

// Statistics returns the live counters. Call Close first for a final snapshot.
func (l *LinkModel) Statistics() *Statistics { return l.stats }

// Close credits the interval between the last transition and the horizon.
func (l *LinkModel) Close() {
	l.credit(l.sched.Horizon())
	l.stats.QueueAtEnd = l.queue.Len()
}

// === Handlers ===

func (l *LinkModel) HandleFrameArrival(e FrameArrivalEvent) {
	l.stats.FramesReceived++
	l.stats.BytesReceived += int64(e.Frame.Size)
	l.cycleArrivals++

	admitted := !l.queue.Full()
	if admitted {
		l.queue.Enqueue(e.Frame)
		l.logEvent(e.Time, KindFrameArrival, fmt.Sprint(e.Frame.ID))
	} else {
		l.sched.Insert(FrameDropEvent{Time: e.Time, FrameID: e.Frame.ID})
	}
	l.scheduleNextArrival()

	qlen := l.queue.Len()
	mode := l.cfg.Coalescing.Mode
	switch l.state {
	case FastWake:
		if qlen >= l.fastQth {
			l.sched.Insert(StateTransitionEvent{Time: e.Time, Target: TransitionToActiveFromFast})
			if mode == ModeDual {
				l.sched.Cancel(TransitionToDeep)
			}
		} else if mode == ModeMostowfi && admitted && qlen == 1 {
			l.armFastWakeTimer(e.Time)
		}
	case DeepSleep:
		if qlen >= l.deepQth {
			l.sched.Insert(StateTransitionEvent{Time: e.Time, Target: TransitionToActiveFromDeep})
		}
	}

	if admitted && qlen == 1 && l.delayBound > 0 && l.state != Active && !l.state.IsWaking() {
		l.scheduleBackstop(e.Frame.Arrival)
	}
}

func (l *LinkModel) HandleFrameDrop(e FrameDropEvent) {
	l.stats.FramesDropped++
	l.logEvent(e.Time, KindFrameDrop, fmt.Sprint(e.FrameID))
}

func (l *LinkModel) HandleFrameTransmission(e FrameTransmissionEvent) {
	head, ok := l.queue.Peek()
	if !ok || head.ID != e.FrameID {
		panic(fmt.Sprintf("HandleFrameTransmission: frame %d completed at %d ps is not the queue head %s", e.FrameID, e.Time, l.queue))
	}
	l.queue.Dequeue()
	tx := l.transmissionTime(head.Size)
	delay := e.Time - head.Arrival - tx
	if delay < 0 {
		panic(fmt.Sprintf("HandleFrameTransmission: frame %d has negative delay %d ps", head.ID, delay))
	}
	l.stats.recordDelivery(head.Size, delay)
	l.cycleBusy += tx
	l.logEvent(e.Time, KindFrameTransmission, fmt.Sprint(e.FrameID))

	if l.queue.Len() > 0 {
		l.scheduleTransmission(e.Time)
		return
	}
	l.drain(e.Time)
}

func (l *LinkModel) HandleStateTransition(e StateTransitionEvent) {
	now := e.Time
	target := e.Target
	t := l.cfg.Transitions

	if target.IsWaking() {
		if l.state == Active || l.state.IsWaking() {
			logrus.Debugf("[%d ps] ignoring stale %s request in state %s", now, target, l.state)
			l.logEvent(now, KindStateTransition, target.String()+" ignored")
			return
		}
		if l.state.onFastPath() {
			target = TransitionToActiveFromFast
		} else {
			target = TransitionToActiveFromDeep
		}
		l.cancelSpeculative()
	}

	prev := l.state
	l.credit(now)
	l.state = target
	l.lastTransition = now

	qlen := l.queue.Len()
	switch target {
	case Active:
		if qlen == 0 {
			panic(fmt.Sprintf("HandleStateTransition: ACTIVE entered at %d ps with an empty queue", now))
		}
		l.scheduleTransmission(now)
		l.stats.CoalescingCycles++
		l.lastWakeQueue = qlen
	case FastWake:
		switch {
		case qlen >= l.fastQth:
			l.sched.Insert(StateTransitionEvent{Time: now, Target: TransitionToActiveFromFast})
		case l.cfg.Coalescing.Mode == ModeDual:
			l.sched.Insert(StateTransitionEvent{Time: now + l.cfg.Coalescing.MaxFastWakeTime, Target: TransitionToDeep})
		case l.cfg.Coalescing.Mode == ModeMostowfi && qlen > 0:
			l.armFastWakeTimer(now)
		}
	case DeepSleep:
		if qlen >= l.deepQth {
			l.sched.Insert(StateTransitionEvent{Time: now, Target: TransitionToActiveFromDeep})
		}
	case TransitionToFast:
		l.sched.Insert(StateTransitionEvent{Time: now + t.ActiveToFast, Target: FastWake})
	case TransitionToDeep:
		d := t.ActiveToFast + t.FastToDeep
		if prev == FastWake {
			d = t.FastToDeep
		}
		l.sched.Insert(StateTransitionEvent{Time: now + d, Target: DeepSleep})
	case TransitionToActiveFromFast, TransitionToActiveFromDeep:
		l.sched.Insert(StateTransitionEvent{Time: now + t.toActive(target), Target: Active})
	}

	if l.out != nil {
		l.logEvent(now, KindStateTransition, target.String()+" "+l.thresholdField(target))
	}
}

// === Internals ===

// cancelSpeculative retracts every pending event a wake-up supersedes: other wake
// requests (backstop, timers), the dual mode fast wake timeout and pending sleep
// entry completions.
func (l *LinkModel) cancelSpeculative() {
	for l.sched.Cancel(TransitionToActiveFromFast) {
	}
	for l.sched.Cancel(TransitionToActiveFromDeep) {
	}
	l.sched.Cancel(TransitionToDeep)
	l.sched.Cancel(FastWake)
	l.sched.Cancel(DeepSleep)
}

// drain runs when the last queued frame has been sent: adapt, then go to sleep.
// The ACTIVE period is credited with the values it ran under before adapt
// replaces them.
func (l *LinkModel) drain(now int64) {
	l.credit(now)
	l.adapt(now)
	l.sched.Insert(StateTransitionEvent{Time: now, Target: l.sleepTarget()})
	l.cycleStart = now
	l.cycleArrivals = 0
	l.cycleBusy = 0
}

// adapt recomputes the derived thresholds or delay bound from the cycle that just ended.
func (l *LinkModel) adapt(now int64) {
	co := l.cfg.Coalescing
	t := l.cfg.Transitions
	s := cycleSample{elapsed: now - l.cycleStart, arrivals: l.cycleArrivals, busy: l.cycleBusy}
	if s.elapsed <= 0 || !co.Mode.IsAdaptive() {
		return
	}
	lambda, rho := s.arrivalRate(), s.utilization()
	switch co.Mode {
	case ModeFastDyn:
		l.fastQth = dynThreshold(co.TargetDelay, t.FastToActive, lambda)
	case ModeDeepDyn:
		l.deepQth = dynThreshold(co.TargetDelay, t.DeepToActive, lambda)
	case ModeFastMul:
		l.fastQth = mulThreshold(co.TargetDelay, t.FastToActive, lambda, rho)
	case ModeDeepMul:
		l.deepQth = mulThreshold(co.TargetDelay, t.DeepToActive, lambda, rho)
	case ModeFastTimeDyn:
		l.delayBound = timeDynBound(co.TargetDelay, t.FastToActive, rho)
	case ModeDeepTimeDyn:
		l.delayBound = timeDynBound(co.TargetDelay, t.DeepToActive, rho)
	case ModeDualDyn:
		l.fastQth = dynThreshold(co.TargetDelay, t.FastToActive, lambda)
		l.deepQth = dynThreshold(co.TargetDelay, t.DeepToActive, lambda)
		l.useDeep = dualDynChoosesDeep(co, t, l.cross, rho)
	}
	logrus.Debugf("[%d ps] %s adapted: lambda=%.3g/us rho=%.3f fast_qth=%d deep_qth=%d bound=%d ps deep=%v",
		now, co.Mode, lambda*1e6, rho, l.fastQth, l.deepQth, l.delayBound, l.useDeep)
}

// sleepTarget selects the sleep direction taken when the queue drains.
func (l *LinkModel) sleepTarget() LinkState {
	mode := l.cfg.Coalescing.Mode
	switch {
	case mode.TargetsDeep():
		return TransitionToDeep
	case mode == ModeDualDyn && l.useDeep:
		return TransitionToDeep
	case mode == ModeMostowfi && l.stats.CoalescingCycles > 0 && l.lastWakeQueue <= 1:
		return TransitionToDeep
	}
	return TransitionToFast
}

// scheduleBackstop arms the wake that bounds the delay of the frame that arrived
// at arrival, the first one queued on a sleeping link.
func (l *LinkModel) scheduleBackstop(arrival int64) {
	target := TransitionToActiveFromDeep
	if l.state.onFastPath() && l.cfg.Coalescing.Mode != ModeDual {
		target = TransitionToActiveFromFast
	}
	at := arrival + l.delayBound - l.cfg.Transitions.toActive(target)
	if arrival > math.MaxInt64-l.delayBound {
		at = math.MaxInt64
	}
	at = max(at, l.sched.Now())
	l.sched.Insert(StateTransitionEvent{Time: at, Target: target})
}

// armFastWakeTimer schedules the mostowfi coalescing timeout.
func (l *LinkModel) armFastWakeTimer(now int64) {
	l.sched.Insert(StateTransitionEvent{Time: now + l.cfg.Coalescing.MaxFastWakeTime, Target: TransitionToActiveFromFast})
}

func (l *LinkModel) scheduleTransmission(now int64) {
	head, _ := l.queue.Peek()
	tx := l.transmissionTime(head.Size)
	at := now + tx
	if tx > math.MaxInt64-now {
		at = math.MaxInt64
	}
	l.sched.Insert(FrameTransmissionEvent{Time: at, FrameID: head.ID})
}

// scheduleNextArrival draws the next frame from the generators. Exhausted
// generators end the arrival process.
func (l *LinkModel) scheduleNextArrival() {
	if l.arrivalsDone {
		return
	}
	at := l.cfg.Traffic.NextArrival()
	if at == BeyondHorizon || at > l.sched.Horizon() {
		l.arrivalsDone = true
		return
	}
	size := l.cfg.FrameSizes.NextFrameSize()
	if size == SizeExhausted {
		l.arrivalsDone = true
		return
	}
	f := Frame{ID: l.nextFrameID, Size: size, Arrival: at}
	l.nextFrameID++
	l.sched.Insert(FrameArrivalEvent{Time: at, Frame: f})
}

// transmissionTime returns the time needed to put size bytes on the wire,
// saturating at math.MaxInt64 on very slow links.
func (l *LinkModel) transmissionTime(size int) int64 {
	v := 8 * float64(size) * PicosPerSecond / l.cfg.Link.Capacity
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// credit charges the time since the last transition to the current state.
func (l *LinkModel) credit(now int64) {
	dt := now - l.lastTransition
	if dt <= 0 {
		return
	}
	l.stats.TimeInState[l.state] += dt
	if l.cfg.Coalescing.Mode.IsAdaptive() {
		l.stats.AdaptiveIntegral += l.adaptiveValue() * float64(dt)
	}
	l.lastTransition = now
}

// adaptiveValue is the derived quantity tracked by the statistics for the mode.
func (l *LinkModel) adaptiveValue() float64 {
	mode := l.cfg.Coalescing.Mode
	switch {
	case mode.AdaptsDelayBound():
		return float64(l.delayBound)
	case mode == ModeMostowfi:
		return float64(l.lastWakeQueue)
	case mode.TargetsDeep():
		return float64(l.deepQth)
	case mode == ModeDualDyn && l.useDeep:
		return float64(l.deepQth)
	}
	return float64(l.fastQth)
}

func (l *LinkModel) thresholdField(s LinkState) string {
	switch s {
	case FastWake:
		return fmt.Sprint(l.fastQth)
	case DeepSleep:
		return fmt.Sprint(l.deepQth)
	}
	return "-"
}

// logEvent writes one verbose line: time (ps/1e6), kind, fields, queue length.
func (l *LinkModel) logEvent(at int64, kind EventKind, fields string) {
	if l.out == nil {
		return
	}
	fmt.Fprintf(l.out, "%.3f %s %s %d\n", float64(at)/1e6, kind, fields, l.queue.Len())
}
