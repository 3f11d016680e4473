package display

import (
	"encoding/binary"
	"image/color"
)

const (
	Width  = 240
	Height = 160

	// Mode3 is the direct 16-bit linear bitmap mode; the only one decoded.
	Mode3 = 3

	frameBytes = Width * Height * 2

	// seam widens every run slightly so fractional surface scaling leaves no gaps.
	seam       = 0.2
	lineHeight = 1 + seam
)

// Surface is a 2D fill target with a current fill color, in logical 240x160 units.
type Surface interface {
	SetFillColor(c color.RGBA)
	FillRect(x, y, w, h float64)
}

// Mode extracts bits 0-2 of the display control register.
func Mode(control uint16) uint8 { return uint8(control & 7) }

// RGB15 expands a packed 5-5-5 color. Channels scale by 8, so the maximum is 248.
func RGB15(c uint16) color.RGBA {
	return color.RGBA{
		R: uint8(c&0x1F) * 8,
		G: uint8((c>>5)&0x1F) * 8,
		B: uint8((c>>10)&0x1F) * 8,
		A: 0xFF,
	}
}

// Decode paints one frame onto s. Only mode 3 is supported; any other mode
// leaves the surface untouched and Decode returns false.
//
// Each scanline is merged into runs of identical color so a row costs one
// fill per color change instead of one per pixel.
func Decode(control uint16, vram []byte, s Surface) bool {
	if Mode(control) != Mode3 || len(vram) < frameBytes {
		return false
	}
	for y := 0; y < Height; y++ {
		var prev uint16
		havePrev := false
		beginX := 0
		row := vram[y*Width*2 : (y+1)*Width*2]
		for x := 0; x < Width; x++ {
			rgb15 := binary.LittleEndian.Uint16(row[x*2:])
			if havePrev && rgb15 == prev {
				continue
			}
			if havePrev {
				s.FillRect(float64(beginX), float64(y), float64(x-beginX)+seam, lineHeight)
			}
			s.SetFillColor(RGB15(rgb15))
			prev, havePrev = rgb15, true
			beginX = x
		}
		s.FillRect(float64(beginX), float64(y), Width+seam-float64(beginX), lineHeight)
	}
	return true
}
