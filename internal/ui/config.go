package ui

import "github.com/hajimehoshi/ebiten/v2"

// Config contains window/input related settings.
type Config struct {
	Title string // window title
	Scale int    // window size as a multiple of 240x160

	// Meta-control key bindings
	RunKey     ebiten.Key // start/stop emulation
	OverlayKey ebiten.Key // show/hide diagnostics

	ScreenshotDir string // where F12 screenshots are written
	// Later: fullscreen, vsync toggle, etc.
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "lavender"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	// the zero Key is KeyA, which is never a meta-control
	if c.RunKey == ebiten.KeyA {
		c.RunKey = ebiten.KeySpace
	}
	if c.OverlayKey == ebiten.KeyA {
		c.OverlayKey = ebiten.KeyBackquote
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "."
	}
}
