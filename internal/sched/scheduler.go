// Package sched drives the cooperative per-refresh emulation loop.
package sched

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady is returned by ToggleRun while the core has not been initialised.
var ErrNotReady = errors.New("sched: core not initialised")

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Stats is the scheduler's per-frame bookkeeping.
type Stats struct {
	FrameCount uint64
	Emulation  time.Duration
	Render     time.Duration
	FrameEnd   time.Time
}

// Hooks wires the scheduler to the rest of the pipeline.
type Hooks struct {
	// Step advances the core by n frames. Always called with n = 1.
	Step func(n int) error
	// Render decodes and presents the current memory.
	Render func() error
	// Ready reports whether the core may be stepped.
	Ready func() bool
	// OnFrame runs after the stats for a frame are recorded.
	OnFrame func(Stats)
	// OnError runs once when a frame fails and the loop halts.
	OnError func(error)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler alternates Step and Render once per refresh while running.
type Scheduler struct {
	r     Refresher
	hooks Hooks
	state State
	armed bool
	stats Stats
	err   error
}

func New(r Refresher, hooks Hooks) *Scheduler {
	if hooks.Now == nil {
		hooks.Now = time.Now
	}
	return &Scheduler{r: r, hooks: hooks}
}

func (s *Scheduler) State() State  { return s.state }
func (s *Scheduler) Running() bool { return s.state == Running }
func (s *Scheduler) Stats() Stats  { return s.stats }

// Err returns the failure that halted the loop, if any.
func (s *Scheduler) Err() error { return s.err }

// ToggleRun flips between Stopped and Running. Entering Running arms one
// frame on the refresher; the core is never stepped from this call.
func (s *Scheduler) ToggleRun() error {
	if s.state == Running {
		s.state = Stopped
		return nil
	}
	if s.hooks.Ready != nil && !s.hooks.Ready() {
		return ErrNotReady
	}
	s.state = Running
	s.err = nil
	s.arm()
	return nil
}

// Stop requests the loop to halt at the next callback boundary.
func (s *Scheduler) Stop() { s.state = Stopped }

func (s *Scheduler) arm() {
	if s.armed {
		return
	}
	s.armed = true
	s.r.RequestFrame(s.frame)
}

func (s *Scheduler) frame() {
	s.armed = false
	if s.state != Running {
		return
	}

	start := s.hooks.Now()
	if err := s.hooks.Step(1); err != nil {
		s.fail(fmt.Errorf("step frames: %w", err))
		return
	}
	s.stats.Emulation = s.hooks.Now().Sub(start)

	renderStart := s.hooks.Now()
	if s.hooks.Render != nil {
		if err := s.hooks.Render(); err != nil {
			s.fail(fmt.Errorf("render: %w", err))
			return
		}
	}
	s.stats.FrameEnd = s.hooks.Now()
	s.stats.Render = s.stats.FrameEnd.Sub(renderStart)
	s.stats.FrameCount++

	if s.hooks.OnFrame != nil {
		s.hooks.OnFrame(s.stats)
	}
	if s.state == Running {
		s.arm()
	}
}

func (s *Scheduler) fail(err error) {
	s.state = Stopped
	s.err = err
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
