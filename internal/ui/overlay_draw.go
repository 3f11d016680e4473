package ui

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/lavender-emu/lavender/internal/overlay"
)

var overlayFace = text.NewGoXFace(basicfont.Face7x13)

const (
	overlayLineH = 14
	overlayPad   = 4
)

// panel is the on-screen diagnostics overlay. It keeps the text of the last
// published snapshot; a hidden snapshot clears it.
type panel struct {
	text string
}

func (p *panel) Publish(s overlay.Snapshot) { p.text = strings.Join(overlay.Lines(s), "\n") }

func (p *panel) Draw(screen *ebiten.Image, scale float64) {
	if p.text == "" {
		return
	}
	w, h := text.Measure(p.text, overlayFace, overlayLineH)
	vector.DrawFilledRect(screen, 0, 0,
		float32((w+2*overlayPad)*scale), float32((h+2*overlayPad)*scale),
		color.RGBA{0, 0, 0, 160}, false)

	op := &text.DrawOptions{}
	op.LineSpacing = overlayLineH
	op.GeoM.Translate(overlayPad, overlayPad)
	op.GeoM.Scale(scale, scale)
	op.ColorScale.ScaleWithColor(color.RGBA{190, 230, 190, 255})
	text.Draw(screen, p.text, overlayFace, op)
}
