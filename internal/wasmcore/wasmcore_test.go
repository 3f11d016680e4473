package wasmcore

import (
	"context"
	"os"
	"testing"

	"github.com/lavender-emu/lavender/internal/display"
	"github.com/lavender-emu/lavender/internal/emu"
	"github.com/lavender-emu/lavender/internal/memory"
)

// testdata/core.wasm is a hand-assembled module: regions at io=0x1000,
// palette=0x1400, vram=0x1800, object=0x19800; init_emulation sets the display
// control to 0x0403 and copies rom[0] into the first pixel; step_frames(n) adds
// n to the second pixel and traps when n is 0.
func loadTestCore(t *testing.T) *Core {
	t.Helper()
	wasm, err := os.ReadFile("testdata/core.wasm")
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}
	c, err := Load(context.Background(), wasm)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestCore_Addresses(t *testing.T) {
	c := loadTestCore(t)
	want := memory.Addresses{0x1000, 0x1400, 0x1800, 0x19800}
	for _, r := range memory.Regions {
		got, err := c.RegionAddress(context.Background(), r)
		if err != nil {
			t.Fatalf("%s address: %v", r, err)
		}
		if got != want[r] {
			t.Fatalf("%s address got %#x want %#x", r, got, want[r])
		}
	}
}

func TestCore_MachineRoundTrip(t *testing.T) {
	c := loadTestCore(t)
	ctx := context.Background()
	m := emu.New(emu.Config{}, c)
	if err := m.LoadROM(ctx, []byte{0x2A, 0x01, 0x02}); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	b, err := m.Bind(ctx)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := b.DisplayControl(); got != 0x0403 {
		t.Fatalf("DisplayControl got %#04x want 0x0403", got)
	}
	if display.Mode(b.DisplayControl()) != display.Mode3 {
		t.Fatalf("mode is not 3")
	}
	if got := b.Read16(memory.VRAM, 0); got != 0x2A {
		t.Fatalf("first pixel got %#x want 0x2a", got)
	}
	for i := 0; i < 3; i++ {
		if err := m.StepFrames(ctx, 1); err != nil {
			t.Fatalf("StepFrames: %v", err)
		}
	}
	// views alias guest memory, so the core's writes show up without rebinding
	if got := b.Read16(memory.VRAM, 2); got != 3 {
		t.Fatalf("second pixel got %d want 3", got)
	}
}

func TestCore_TrapIsError(t *testing.T) {
	c := loadTestCore(t)
	ctx := context.Background()
	if err := c.InitEmulation(ctx, []byte{0}); err != nil {
		t.Fatalf("InitEmulation: %v", err)
	}
	if err := c.StepFrames(ctx, 0); err == nil {
		t.Fatalf("expected trap from step_frames(0)")
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(context.Background(), []byte("not wasm")); err == nil {
		t.Fatalf("expected compile error")
	}
}
