package display

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// ImageSurface rasterizes fills into an RGBA image. A device pixel is filled
// when its center lies inside the scaled rectangle.
type ImageSurface struct {
	img    *image.RGBA
	scaleX float64
	scaleY float64
	fill   *image.Uniform
}

// NewImageSurface returns a w x h device-pixel surface mapping the logical
// 240x160 space onto it.
func NewImageSurface(w, h int) *ImageSurface {
	s := &ImageSurface{fill: image.NewUniform(color.RGBA{A: 0xFF})}
	s.Resize(w, h, float64(w)/Width, float64(h)/Height)
	return s
}

// Resize reallocates the backing image and sets the logical-to-device scale.
func (s *ImageSurface) Resize(w, h int, scaleX, scaleY float64) {
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.scaleX, s.scaleY = scaleX, scaleY
}

func (s *ImageSurface) SetFillColor(c color.RGBA) { s.fill.C = c }

func (s *ImageSurface) FillRect(x, y, w, h float64) {
	r := image.Rect(
		centerIndex(x*s.scaleX), centerIndex(y*s.scaleY),
		centerIndex((x+w)*s.scaleX), centerIndex((y+h)*s.scaleY),
	).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.img, r, s.fill, image.Point{}, draw.Src)
}

// centerIndex returns the first pixel index whose center (i+0.5) is >= v.
func centerIndex(v float64) int {
	return int(math.Ceil(v - 0.5))
}

func (s *ImageSurface) Image() *image.RGBA { return s.img }

// Scale returns a nearest-neighbour copy of src enlarged by factor.
func Scale(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
