// Package wasmcore hosts an emulator core compiled to WebAssembly. The
// module runs in a wazero sandbox; its linear memory is exposed directly so
// shared regions can be bound without copying.
package wasmcore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/lavender-emu/lavender/internal/memory"
)

var addressExports = [...]string{
	memory.IO:      "get_io_address",
	memory.Palette: "get_palette_address",
	memory.VRAM:    "get_vram_address",
	memory.Object:  "get_object_address",
}

// allocator exports in preference order
var allocExports = []string{"__wbindgen_malloc", "alloc"}

type Core struct {
	rt  wazero.Runtime
	mod api.Module

	initFn  api.Function
	stepFn  api.Function
	allocFn api.Function
	addrFns [len(addressExports)]api.Function
}

// Load compiles and instantiates a core module.
func Load(ctx context.Context, wasm []byte) (*Core, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wasmcore: wasi: %w", err)
	}
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wasmcore: compile: %w", err)
	}
	cfg := wazero.NewModuleConfig().WithName("core").WithStartFunctions("_initialize")
	mod, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("wasmcore: instantiate: %w", err)
	}
	c := &Core{rt: rt, mod: mod}
	if err := c.resolve(); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return c, nil
}

// LoadFile reads and loads a core module from disk.
func LoadFile(ctx context.Context, path string) (*Core, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(ctx, wasm)
}

func (c *Core) resolve() error {
	if c.mod.Memory() == nil {
		return errors.New("wasmcore: module does not export memory")
	}
	required := func(name string) (api.Function, error) {
		fn := c.mod.ExportedFunction(name)
		if fn == nil {
			return nil, fmt.Errorf("wasmcore: missing export %q", name)
		}
		return fn, nil
	}
	var err error
	if c.initFn, err = required("init_emulation"); err != nil {
		return err
	}
	if c.stepFn, err = required("step_frames"); err != nil {
		return err
	}
	for r, name := range addressExports {
		if c.addrFns[r], err = required(name); err != nil {
			return err
		}
	}
	for _, name := range allocExports {
		if fn := c.mod.ExportedFunction(name); fn != nil {
			c.allocFn = fn
			break
		}
	}
	if c.allocFn == nil {
		return errors.New("wasmcore: module exports no allocator")
	}
	return nil
}

func (c *Core) Close(ctx context.Context) error { return c.rt.Close(ctx) }

// alloc reserves n bytes of guest memory through the module's allocator.
func (c *Core) alloc(ctx context.Context, n uint32) (uint32, error) {
	params := []uint64{api.EncodeU32(n)}
	if len(c.allocFn.Definition().ParamTypes()) == 2 {
		params = append(params, api.EncodeU32(1)) // byte alignment
	}
	res, err := c.allocFn.Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, errors.New("allocator returned no pointer")
	}
	return api.DecodeU32(res[0]), nil
}

// InitEmulation copies the ROM into guest memory and calls init_emulation(ptr, len).
func (c *Core) InitEmulation(ctx context.Context, rom []byte) error {
	ptr, err := c.alloc(ctx, uint32(len(rom)))
	if err != nil {
		return fmt.Errorf("wasmcore: alloc %d bytes: %w", len(rom), err)
	}
	if !c.mod.Memory().Write(ptr, rom) {
		return fmt.Errorf("wasmcore: ROM of %d bytes does not fit at %#x", len(rom), ptr)
	}
	if _, err := c.initFn.Call(ctx, api.EncodeU32(ptr), api.EncodeU32(uint32(len(rom)))); err != nil {
		return fmt.Errorf("wasmcore: init_emulation: %w", err)
	}
	return nil
}

func (c *Core) StepFrames(ctx context.Context, n int) error {
	if _, err := c.stepFn.Call(ctx, api.EncodeU32(uint32(n))); err != nil {
		return fmt.Errorf("wasmcore: step_frames: %w", err)
	}
	return nil
}

func (c *Core) RegionAddress(ctx context.Context, r memory.Region) (uint32, error) {
	if r < 0 || int(r) >= len(c.addrFns) {
		return 0, fmt.Errorf("wasmcore: unknown region %s", r)
	}
	res, err := c.addrFns[r].Call(ctx)
	if err != nil {
		return 0, fmt.Errorf("wasmcore: %s: %w", addressExports[r], err)
	}
	if len(res) != 1 {
		return 0, fmt.Errorf("wasmcore: %s returned %d values", addressExports[r], len(res))
	}
	return api.DecodeU32(res[0]), nil
}

// Memory returns the module's linear memory. Views read from it alias guest
// memory until the module grows it.
func (c *Core) Memory() memory.Linear { return c.mod.Memory() }
