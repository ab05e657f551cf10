// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds the event scheduler, the link and the event loop.
type Simulator struct {
	cfg       Config
	scheduler *EventScheduler
	link      *LinkModel
	processed int
	done      bool
}

// NewSimulator validates cfg and builds a ready-to-run simulation.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Simulator{cfg: cfg}
	s.scheduler = NewEventScheduler(cfg.Horizon)
	s.link = NewLinkModel(&s.cfg, s.scheduler)
	s.link.Start()
	return s, nil
}

// Run dispatches events until none remain within the horizon, then closes the
// statistics. It may only be called once.
func (s *Simulator) Run() *Statistics {
	if s.done {
		panic("Simulator.Run: simulation already completed")
	}
	logrus.Infof("Starting %s simulation: horizon %d ps, seed %d", s.cfg.Coalescing.Mode, s.cfg.Horizon, s.cfg.Seed)
	s.processed = s.scheduler.Run(s.link)
	s.link.Close()
	s.done = true
	st := s.link.Statistics()
	logrus.Infof("Simulation ended after %d events: %d frames sent, %d dropped", s.processed, st.FramesSent, st.FramesDropped)
	return st
}

// Link exposes the link model, mainly for inspection in tests.
func (s *Simulator) Link() *LinkModel { return s.link }

// Scheduler exposes the event scheduler.
func (s *Simulator) Scheduler() *EventScheduler { return s.scheduler }

// EventsProcessed returns the number of dispatched events.
func (s *Simulator) EventsProcessed() int { return s.processed }
