package display

import "math"

// Geometry describes the on-screen box the canvas occupies and the device
// pixel ratio of the display it is shown on.
type Geometry struct {
	BoxW, BoxH float64
	DPR        float64
}

// Canvas returns the device-pixel size of the canvas and the scale that maps
// the logical 240x160 space onto it.
func (g Geometry) Canvas() (w, h int, scaleX, scaleY float64) {
	dpr := g.DPR
	if dpr <= 0 {
		dpr = 1
	}
	fw := g.BoxW * dpr
	fh := g.BoxH * dpr
	if fw <= 0 || fh <= 0 {
		fw, fh = Width, Height
	}
	w = int(math.Floor(fw))
	h = int(math.Floor(fh))
	return w, h, fw / Width, fh / Height
}
