package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// canvas is the ebiten-backed drawing surface the decoder fills.
type canvas struct {
	img    *ebiten.Image
	scaleX float64
	scaleY float64
	fill   color.RGBA
}

func (c *canvas) Resize(w, h int, scaleX, scaleY float64) {
	if c.img != nil {
		c.img.Deallocate()
	}
	c.img = ebiten.NewImage(w, h)
	c.scaleX, c.scaleY = scaleX, scaleY
}

func (c *canvas) SetFillColor(col color.RGBA) { c.fill = col }

func (c *canvas) FillRect(x, y, w, h float64) {
	vector.DrawFilledRect(c.img,
		float32(x*c.scaleX), float32(y*c.scaleY),
		float32(w*c.scaleX), float32(h*c.scaleY),
		c.fill, false)
}
