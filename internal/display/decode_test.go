package display

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"testing"
)

type fill struct {
	x, y, w, h float64
	c          color.RGBA
}

// recorder captures fills in order with the color active at the time.
type recorder struct {
	cur   color.RGBA
	fills []fill
}

func (r *recorder) SetFillColor(c color.RGBA) { r.cur = c }
func (r *recorder) FillRect(x, y, w, h float64) {
	r.fills = append(r.fills, fill{x, y, w, h, r.cur})
}

func (r *recorder) row(y int) []fill {
	var out []fill
	for _, f := range r.fills {
		if int(f.y) == y {
			out = append(out, f)
		}
	}
	return out
}

func newVRAM() []byte { return make([]byte, 96*1024) }

func setPixel(vram []byte, x, y int, c uint16) {
	i := y*Width + x
	binary.LittleEndian.PutUint16(vram[i*2:], c)
}

func TestRGB15_ScaleByEight(t *testing.T) {
	for c := uint16(0); c < 32; c++ {
		got := RGB15(c | c<<5 | c<<10)
		want := uint8(c) * 8
		if got.R != want || got.G != want || got.B != want {
			t.Fatalf("channel %d got %v want %d", c, got, want)
		}
		if got.A != 0xFF {
			t.Fatalf("alpha got %d want 255", got.A)
		}
	}
	got := RGB15(0x03FF)
	if got != (color.RGBA{248, 248, 0, 255}) {
		t.Fatalf("0x03FF got %v want {248 248 0 255}", got)
	}
	// bit 15 is unused
	if RGB15(0xFFFF) != RGB15(0x7FFF) {
		t.Fatalf("bit 15 changed the decoded color")
	}
}

func TestDecode_UniformRowOneFlush(t *testing.T) {
	vram := newVRAM()
	for x := 0; x < Width; x++ {
		setPixel(vram, x, 0, 0x7C16)
	}
	var r recorder
	if !Decode(Mode3, vram, &r) {
		t.Fatalf("Decode returned false for mode 3")
	}
	row := r.row(0)
	if len(row) != 1 {
		t.Fatalf("uniform row got %d fills want 1", len(row))
	}
	f := row[0]
	if f.x != 0 || f.w != Width+seam || f.h != lineHeight {
		t.Fatalf("uniform row fill got %+v", f)
	}
	if f.c != RGB15(0x7C16) {
		t.Fatalf("uniform row color got %v want %v", f.c, RGB15(0x7C16))
	}
}

func TestDecode_AlternatingRow(t *testing.T) {
	vram := newVRAM()
	for x := 0; x < Width; x++ {
		c := uint16(0x001F)
		if x%2 == 1 {
			c = 0x03E0
		}
		setPixel(vram, x, 5, c)
	}
	var r recorder
	Decode(Mode3, vram, &r)
	row := r.row(5)
	if len(row) != Width {
		t.Fatalf("alternating row got %d fills want %d", len(row), Width)
	}
	for i, f := range row {
		if int(f.x) != i {
			t.Fatalf("fill %d begins at %v", i, f.x)
		}
	}
}

func TestDecode_BlackIsNotNoRun(t *testing.T) {
	// a row starting with black must not be merged with "no previous color"
	vram := newVRAM()
	setPixel(vram, 0, 0, 0x0000)
	setPixel(vram, 1, 0, 0x001F)
	var r recorder
	Decode(Mode3, vram, &r)
	row := r.row(0)
	if len(row) != 3 {
		t.Fatalf("row 0 got %d fills want 3", len(row))
	}
	if row[0].c != RGB15(0) || row[0].x != 0 {
		t.Fatalf("first run got %+v want black at 0", row[0])
	}
	if row[1].c != RGB15(0x001F) || row[1].x != 1 {
		t.Fatalf("second run got %+v want red at 1", row[1])
	}
}

func TestDecode_FullRowCoverage(t *testing.T) {
	vram := newVRAM()
	seed := uint32(12345)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			seed = seed*1103515245 + 12345
			// few distinct colors so runs vary in length
			setPixel(vram, x, y, []uint16{0x03FF, 0x7C16, 0x4FE3}[(seed>>16)%3])
		}
	}
	var r recorder
	Decode(Mode3, vram, &r)
	for y := 0; y < Height; y++ {
		row := r.row(y)
		next := 0
		total := 0
		for _, f := range row {
			if int(f.x) != next {
				t.Fatalf("row %d: run begins at %v, want %d", y, f.x, next)
			}
			width := int(f.w - seam + 0.5)
			next += width
			total += width
		}
		if total != Width {
			t.Fatalf("row %d: widths sum to %d want %d", y, total, Width)
		}
	}
}

func TestDecode_Deterministic(t *testing.T) {
	vram := newVRAM()
	for i := 0; i < Width*Height; i++ {
		binary.LittleEndian.PutUint16(vram[i*2:], uint16(i/7))
	}
	var a, b recorder
	Decode(0x0403, vram, &a)
	Decode(0x0403, vram, &b)
	if len(a.fills) != len(b.fills) {
		t.Fatalf("fill counts differ: %d vs %d", len(a.fills), len(b.fills))
	}
	for i := range a.fills {
		if a.fills[i] != b.fills[i] {
			t.Fatalf("fill %d differs: %+v vs %+v", i, a.fills[i], b.fills[i])
		}
	}
}

func TestDecode_UnsupportedModeNoOp(t *testing.T) {
	vram := newVRAM()
	for i := range vram {
		vram[i] = byte(i)
	}
	s := NewImageSurface(Width, Height)
	s.SetFillColor(color.RGBA{1, 2, 3, 255})
	s.FillRect(0, 0, Width, Height)
	before := append([]byte(nil), s.Image().Pix...)
	for _, mode := range []uint16{0, 1, 2, 4, 5, 6, 7} {
		if Decode(0x0400|mode, vram, s) {
			t.Fatalf("mode %d: Decode returned true", mode)
		}
		if !bytes.Equal(before, s.Image().Pix) {
			t.Fatalf("mode %d: surface changed", mode)
		}
	}
}

func TestDecode_ShortVRAMIsNoOp(t *testing.T) {
	var r recorder
	if Decode(Mode3, make([]byte, frameBytes-1), &r) {
		t.Fatalf("Decode returned true for short vram")
	}
	if len(r.fills) != 0 {
		t.Fatalf("short vram produced %d fills", len(r.fills))
	}
}

func TestMode_LowThreeBits(t *testing.T) {
	if got := Mode(0xFFFB); got != 3 {
		t.Fatalf("Mode(0xFFFB) got %d want 3", got)
	}
	if got := Mode(0x0404); got != 4 {
		t.Fatalf("Mode(0x0404) got %d want 4", got)
	}
}
