// Package controller is the composition root of the display pipeline: it
// binds core memory, owns the canvas surface and the frame scheduler, maps
// meta-control actions and republishes diagnostics to overlays.
package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/lavender-emu/lavender/internal/display"
	"github.com/lavender-emu/lavender/internal/emu"
	"github.com/lavender-emu/lavender/internal/memory"
	"github.com/lavender-emu/lavender/internal/overlay"
	"github.com/lavender-emu/lavender/internal/sched"
)

var ErrNoSurface = errors.New("controller: drawing surface unavailable")

// Action is a meta-control the operator can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionToggleRun
	ActionToggleOverlay
)

func (a Action) String() string {
	switch a {
	case ActionToggleRun:
		return "toggle-run"
	case ActionToggleOverlay:
		return "toggle-overlay"
	default:
		return "none"
	}
}

// Surface is a display.Surface whose device size can be changed.
type Surface interface {
	display.Surface
	Resize(w, h int, scaleX, scaleY float64)
}

type Options struct {
	Geometry       display.Geometry
	OverlayVisible bool
	Publishers     []overlay.Publisher
	Trace          bool // log run-state changes
}

// Defaults fills missing fields with reasonable defaults.
func (o *Options) Defaults() {
	if o.Geometry.BoxW <= 0 || o.Geometry.BoxH <= 0 {
		o.Geometry.BoxW, o.Geometry.BoxH = display.Width, display.Height
	}
	if o.Geometry.DPR <= 0 {
		o.Geometry.DPR = 1
	}
}

type Controller struct {
	ctx     context.Context
	m       *emu.Machine
	mem     *memory.Binding
	surface Surface
	r       sched.Refresher
	sched   *sched.Scheduler

	opts           Options
	overlayVisible bool
	publishers     []overlay.Publisher

	canvasW, canvasH int
	err              error
}

// New binds the machine's memory and prepares the canvas. The machine must
// already have a ROM initialised; binding failures are returned as-is and are
// not recoverable.
func New(ctx context.Context, m *emu.Machine, surface Surface, r sched.Refresher, opts Options) (*Controller, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	opts.Defaults()
	mem, err := m.Bind(ctx)
	if err != nil {
		return nil, fmt.Errorf("bind shared memory: %w", err)
	}
	c := &Controller{
		ctx:            ctx,
		m:              m,
		mem:            mem,
		surface:        surface,
		r:              r,
		opts:           opts,
		overlayVisible: opts.OverlayVisible,
		publishers:     append([]overlay.Publisher(nil), opts.Publishers...),
	}
	c.sched = sched.New(r, sched.Hooks{
		Step:    c.step,
		Render:  c.render,
		Ready:   m.Loaded,
		OnFrame: func(sched.Stats) { c.publish() },
		OnError: c.halted,
	})
	c.Resize(opts.Geometry)
	return c, nil
}

// Resize recomputes the canvas size from the element box and device pixel
// ratio and clears it to black. It is called at init, never per frame.
func (c *Controller) Resize(g display.Geometry) {
	c.opts.Geometry = g
	w, h, sx, sy := g.Canvas()
	c.canvasW, c.canvasH = w, h
	c.surface.Resize(w, h, sx, sy)
	c.surface.SetFillColor(color.RGBA{A: 0xFF})
	c.surface.FillRect(0, 0, display.Width, display.Height)
}

// CanvasSize returns the canvas size in device pixels.
func (c *Controller) CanvasSize() (int, int) { return c.canvasW, c.canvasH }

// Start renders the current memory once on the next refresh and then waits
// for the operator to resume emulation.
func (c *Controller) Start() {
	c.r.RequestFrame(func() {
		if err := c.render(); err != nil {
			c.halted(err)
			return
		}
		c.publish()
	})
}

// Handle dispatches a meta-control action.
func (c *Controller) Handle(a Action) error {
	switch a {
	case ActionToggleRun:
		return c.ToggleRun()
	case ActionToggleOverlay:
		c.ToggleOverlay()
	}
	return nil
}

// ToggleRun starts or stops emulation. Starting never steps the core on the
// caller's stack; the first frame runs on the next refresh.
func (c *Controller) ToggleRun() error {
	if err := c.sched.ToggleRun(); err != nil {
		return err
	}
	c.err = nil
	if c.opts.Trace {
		log.Printf("emulation %s", c.sched.State())
	}
	return nil
}

// ToggleOverlay flips overlay visibility and republishes immediately.
func (c *Controller) ToggleOverlay() {
	c.overlayVisible = !c.overlayVisible
	c.publish()
}

func (c *Controller) step(n int) error {
	if err := c.m.StepFrames(c.ctx, n); err != nil {
		return err
	}
	return c.mem.Sync()
}

func (c *Controller) render() error {
	display.Decode(c.mem.DisplayControl(), c.mem.VRAM(), c.surface)
	return nil
}

func (c *Controller) halted(err error) {
	c.err = err
	if c.opts.Trace {
		log.Printf("emulation halted: %v", err)
	}
	c.publish()
}

// Snapshot returns the diagnostics currently shown by overlays.
func (c *Controller) Snapshot() overlay.Snapshot {
	st := c.sched.Stats()
	dispcnt := c.mem.DisplayControl()
	return overlay.Snapshot{
		FrameCount:     st.FrameCount,
		EmulationMs:    overlay.Millis(st.Emulation),
		RenderMs:       overlay.Millis(st.Render),
		Visible:        c.overlayVisible,
		Running:        c.sched.Running(),
		DisplayControl: dispcnt,
		Mode:           display.Mode(dispcnt),
		Memory:         c.mem,
	}
}

func (c *Controller) publish() {
	s := c.Snapshot()
	for _, p := range c.publishers {
		p.Publish(s)
	}
}

// AddPublisher registers another overlay sink.
func (c *Controller) AddPublisher(p overlay.Publisher) { c.publishers = append(c.publishers, p) }

func (c *Controller) Stats() sched.Stats      { return c.sched.Stats() }
func (c *Controller) Running() bool           { return c.sched.Running() }
func (c *Controller) OverlayVisible() bool    { return c.overlayVisible }
func (c *Controller) Memory() *memory.Binding { return c.mem }

// Err returns the error that halted emulation, if any.
func (c *Controller) Err() error { return c.err }

// Frame decodes the current memory into a fresh 240x160 image. When the
// display mode is not decoded the image is black.
func (c *Controller) Frame() *image.RGBA {
	s := display.NewImageSurface(display.Width, display.Height)
	s.SetFillColor(color.RGBA{A: 0xFF})
	s.FillRect(0, 0, display.Width, display.Height)
	display.Decode(c.mem.DisplayControl(), c.mem.VRAM(), s)
	return s.Image()
}
