// Package luacore is an emulator core scripted in Lua. It owns a small linear
// memory laid out like the real core's shared regions and lets a script paint
// into it, which is enough to exercise the display pipeline without a ROM.
package luacore

import (
	"context"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/lavender-emu/lavender/internal/memory"
)

//go:embed testpattern.lua
var TestPattern string

// MemorySize is the size of the core's linear memory.
const MemorySize = 0x19000

var layout = memory.Addresses{
	memory.IO:      0x00000,
	memory.Palette: 0x00400,
	memory.VRAM:    0x00800,
	memory.Object:  0x18800,
}

var regionNames = map[string]memory.Region{
	"io":      memory.IO,
	"palette": memory.Palette,
	"vram":    memory.VRAM,
	"object":  memory.Object,
}

// Core runs a script defining init() and step(frame).
type Core struct {
	L     *lua.LState
	mem   memory.Bytes
	rom   []byte
	frame int
	ready bool
}

// New compiles the script. An empty script selects the built-in test pattern.
func New(script string) (*Core, error) {
	if script == "" {
		script = TestPattern
	}
	c := &Core{
		L:   lua.NewState(),
		mem: make(memory.Bytes, MemorySize),
	}
	c.register()
	if err := c.L.DoString(script); err != nil {
		c.L.Close()
		return nil, fmt.Errorf("luacore: load script: %w", err)
	}
	if c.L.GetGlobal("step").Type() != lua.LTFunction {
		c.L.Close()
		return nil, errors.New("luacore: script does not define step(frame)")
	}
	return c, nil
}

func (c *Core) Close() { c.L.Close() }

func (c *Core) register() {
	L := c.L
	L.SetGlobal("poke8", L.NewFunction(func(L *lua.LState) int {
		v := c.window(L, 1)
		v[0] = byte(L.CheckInt(3))
		return 0
	}))
	L.SetGlobal("poke16", L.NewFunction(func(L *lua.LState) int {
		v := c.window(L, 2)
		binary.LittleEndian.PutUint16(v, uint16(L.CheckInt(3)))
		return 0
	}))
	L.SetGlobal("peek16", L.NewFunction(func(L *lua.LState) int {
		v := c.window(L, 2)
		L.Push(lua.LNumber(binary.LittleEndian.Uint16(v)))
		return 1
	}))
	L.SetGlobal("fill16", L.NewFunction(func(L *lua.LState) int {
		v := c.window(L, 0)
		count := L.CheckInt(3)
		if count < 0 || count*2 > len(v) {
			L.ArgError(3, "fill out of range")
		}
		val := uint16(L.CheckInt(4))
		for i := 0; i < count; i++ {
			binary.LittleEndian.PutUint16(v[i*2:], val)
		}
		return 0
	}))
	L.SetGlobal("rom_byte", L.NewFunction(func(L *lua.LState) int {
		i := L.CheckInt(1)
		if i < 0 || i >= len(c.rom) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(c.rom[i]))
		return 1
	}))
}

// window resolves (region, offset) arguments to the bytes from offset to the
// end of the region, raising a Lua error unless at least n are addressable.
func (c *Core) window(L *lua.LState, n int) []byte {
	r, ok := regionNames[L.CheckString(1)]
	if !ok {
		L.ArgError(1, "unknown region")
	}
	off := L.CheckInt(2)
	base := int(layout[r])
	v := c.mem[base : base+int(r.Size())]
	if off < 0 || off+n > len(v) {
		L.ArgError(2, "offset out of range")
	}
	return v[off:]
}

func (c *Core) call(ctx context.Context, name string, args ...lua.LValue) error {
	fn := c.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}
	c.L.SetContext(ctx)
	defer c.L.RemoveContext()
	if err := c.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return fmt.Errorf("luacore: %s: %w", name, err)
	}
	return nil
}

func (c *Core) InitEmulation(ctx context.Context, rom []byte) error {
	c.rom = append([]byte(nil), rom...)
	c.L.SetGlobal("rom_size", lua.LNumber(len(c.rom)))
	if err := c.call(ctx, "init"); err != nil {
		return err
	}
	c.ready = true
	return nil
}

func (c *Core) StepFrames(ctx context.Context, n int) error {
	if !c.ready {
		return errors.New("luacore: step before init")
	}
	for i := 0; i < n; i++ {
		if err := c.call(ctx, "step", lua.LNumber(c.frame)); err != nil {
			return err
		}
		c.frame++
	}
	return nil
}

func (c *Core) RegionAddress(ctx context.Context, r memory.Region) (uint32, error) {
	if !c.ready {
		return 0, errors.New("luacore: addresses requested before init")
	}
	if r < 0 || int(r) >= len(layout) {
		return 0, fmt.Errorf("luacore: unknown region %s", r)
	}
	return layout[r], nil
}

func (c *Core) Memory() memory.Linear { return c.mem }
