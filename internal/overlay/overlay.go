// Package overlay carries the diagnostics published to overlay widgets.
package overlay

import (
	"fmt"
	"time"

	"github.com/lavender-emu/lavender/internal/memory"
)

// Snapshot is the read-only state handed to overlays after every render.
type Snapshot struct {
	FrameCount     uint64  `json:"frame"`
	EmulationMs    float64 `json:"emulationMs"`
	RenderMs       float64 `json:"renderMs"`
	Visible        bool    `json:"visible"`
	Running        bool    `json:"running"`
	DisplayControl uint16  `json:"dispcnt"`
	Mode           uint8   `json:"mode"`

	// Memory lets an overlay inspect live registers on demand.
	Memory *memory.Binding `json:"-"`
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Publisher receives snapshots. A snapshot with Visible unset means the
// overlay must clear whatever it currently shows.
type Publisher interface {
	Publish(s Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Lines formats a snapshot for text overlays. It returns nil when hidden.
func Lines(s Snapshot) []string {
	if !s.Visible {
		return nil
	}
	state := "paused"
	if s.Running {
		state = "running"
	}
	lines := []string{
		fmt.Sprintf("frame      %d (%s)", s.FrameCount, state),
		fmt.Sprintf("emulation  %.2f ms", s.EmulationMs),
		fmt.Sprintf("render     %.2f ms", s.RenderMs),
		fmt.Sprintf("dispcnt    0x%04x mode %d", s.DisplayControl, s.Mode),
	}
	if s.Memory != nil {
		a := s.Memory.Addresses()
		lines = append(lines, fmt.Sprintf("io 0x%05x vram 0x%05x oam 0x%05x",
			a[memory.IO], a[memory.VRAM], a[memory.Object]))
	}
	if s.Mode != 3 {
		lines = append(lines, "mode not decoded")
	}
	return lines
}
