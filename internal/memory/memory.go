package memory

import (
	"encoding/binary"
	"fmt"
)

// Region names one of the fixed windows the core exposes into its linear memory.
type Region int

const (
	IO Region = iota
	Palette
	VRAM
	Object

	numRegions = 4
)

// Regions lists every region in binding order.
var Regions = [numRegions]Region{IO, Palette, VRAM, Object}

var regionSizes = [numRegions]uint32{
	IO:      1024,
	Palette: 1024,
	VRAM:    96 * 1024,
	Object:  1024,
}

func (r Region) String() string {
	switch r {
	case IO:
		return "io"
	case Palette:
		return "palette"
	case VRAM:
		return "vram"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

// Size returns the fixed byte length of the region.
func (r Region) Size() uint32 {
	if r < 0 || r >= numRegions {
		return 0
	}
	return regionSizes[r]
}

// Linear is the shape of a sandboxed core's linear memory. Read returns a view
// that aliases the backing buffer, not a copy.
type Linear interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
}

// Bytes adapts a plain byte slice to Linear.
type Bytes []byte

func (b Bytes) Size() uint32 { return uint32(len(b)) }

func (b Bytes) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(b)) {
		return nil, false
	}
	return b[offset:end:end], true
}

// Addresses holds the base offset of every region inside linear memory.
type Addresses [numRegions]uint32

// BindingError reports a region that does not fit inside the core's memory.
type BindingError struct {
	Region  Region
	Addr    uint32
	Length  uint32
	MemSize uint32
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("memory: %s region [%#x, %#x) outside linear memory of %d bytes",
		e.Region, e.Addr, uint64(e.Addr)+uint64(e.Length), e.MemSize)
}

// Binding is a set of non-owning views onto the core's shared regions.
// Writes made by the core between frames are visible through the views.
type Binding struct {
	mem   Linear
	addrs Addresses
	size  uint32
	views [numRegions][]byte
}

// Bind establishes views for all four regions.
func Bind(mem Linear, addrs Addresses) (*Binding, error) {
	b := &Binding{mem: mem, addrs: addrs}
	if err := b.bind(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Binding) bind() error {
	size := b.mem.Size()
	var views [numRegions][]byte
	for _, r := range Regions {
		v, ok := b.mem.Read(b.addrs[r], r.Size())
		if !ok || uint32(len(v)) != r.Size() {
			return &BindingError{Region: r, Addr: b.addrs[r], Length: r.Size(), MemSize: size}
		}
		views[r] = v
	}
	b.views = views
	b.size = size
	return nil
}

// Sync re-slices the views if the core's memory has been reallocated since
// the last bind. It is a no-op while the size is unchanged.
func (b *Binding) Sync() error {
	if b.mem.Size() == b.size {
		return nil
	}
	return b.bind()
}

func (b *Binding) Addresses() Addresses { return b.addrs }

func (b *Binding) View(r Region) []byte {
	if r < 0 || r >= numRegions {
		return nil
	}
	return b.views[r]
}

func (b *Binding) IO() []byte      { return b.views[IO] }
func (b *Binding) Palette() []byte { return b.views[Palette] }
func (b *Binding) VRAM() []byte    { return b.views[VRAM] }
func (b *Binding) Object() []byte  { return b.views[Object] }

// DisplayControl returns the 16-bit display control register at io+0.
func (b *Binding) DisplayControl() uint16 {
	return binary.LittleEndian.Uint16(b.views[IO][0:2])
}

// Read8 returns the byte at off within the region, or 0xFF when out of range.
func (b *Binding) Read8(r Region, off uint32) byte {
	v := b.View(r)
	if off >= uint32(len(v)) {
		return 0xFF
	}
	return v[off]
}

// Read16 returns the little-endian halfword at off, or 0xFFFF when out of range.
func (b *Binding) Read16(r Region, off uint32) uint16 {
	v := b.View(r)
	if uint64(off)+2 > uint64(len(v)) {
		return 0xFFFF
	}
	return binary.LittleEndian.Uint16(v[off : off+2])
}
