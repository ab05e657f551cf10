// Package sim provides the discrete-event simulation engine for a dual-mode
// Energy-Efficient Ethernet link.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - event.go: the four event types (arrival, drop, transmission, state transition)
//   - scheduler.go: the time-ordered pending-event list, dispatch and cancellation
//   - link.go: the link state machine, transmission queue and statistics accounting
//   - adaptive.go: threshold and delay-bound adaptation for the *_dyn, *_mul,
//     *_time_dyn, dual_dyn and mostowfi coalescing modes
//
// # Time
//
// Simulated time is an int64 tick count in picoseconds. Configuration values expressed
// in seconds are converted with Seconds.
//
// # Architecture
//
// The sim package defines the generator interfaces; implementations live in
// sim/workload (deterministic, Poisson, Pareto and trace arrivals; deterministic,
// uniform, bimodal and trace frame sizes).
//
// The run is single-threaded: EventScheduler.Run is the only driver, and every
// handler runs to completion before the next dispatch.
package sim
