package sched

import "time"

// Refresher is the host's "run before the next display refresh" primitive.
// Implementations must never invoke fn on the caller's stack.
type Refresher interface {
	RequestFrame(fn func())
}

// FrameQueue is a Refresher pumped by the host once per refresh. Callbacks
// requested while a turn is running are deferred to the following turn.
type FrameQueue struct {
	pending []func()
	turn    uint64
}

func (q *FrameQueue) RequestFrame(fn func()) { q.pending = append(q.pending, fn) }

// Tick runs the callbacks queued before this turn and returns how many ran.
func (q *FrameQueue) Tick() int {
	fns := q.pending
	q.pending = nil
	q.turn++
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Pending reports how many callbacks wait for the next turn.
func (q *FrameQueue) Pending() int { return len(q.pending) }

// Turn returns the number of Tick calls so far.
func (q *FrameQueue) Turn() uint64 { return q.turn }

// Pacer spaces headless refresh turns at a fixed display rate.
type Pacer struct {
	t *time.Ticker
}

// NewPacer returns a pacer for hz refreshes per second; hz <= 0 means 60.
func NewPacer(hz int) *Pacer {
	if hz <= 0 {
		hz = 60
	}
	return &Pacer{t: time.NewTicker(time.Second / time.Duration(hz))}
}

// Wait blocks until the next refresh boundary.
func (p *Pacer) Wait() { <-p.t.C }

func (p *Pacer) Stop() { p.t.Stop() }
