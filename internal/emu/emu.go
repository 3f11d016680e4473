package emu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lavender-emu/lavender/internal/cart"
	"github.com/lavender-emu/lavender/internal/memory"
)

var (
	ErrNotLoaded     = errors.New("emu: no ROM initialised")
	ErrAlreadyLoaded = errors.New("emu: ROM already initialised")
	// ErrBusy is returned when a core entry point is invoked while another
	// one is still running on the same machine.
	ErrBusy = errors.New("emu: core entry point re-entered")
)

// Machine guards a Core behind its interior lock and tracks whether
// init_emulation has run.
type Machine struct {
	cfg  Config
	core Core

	mu      sync.Mutex
	loaded  atomic.Bool
	romPath string
	header  *cart.Header
	frames  uint64
}

func New(cfg Config, core Core) *Machine {
	return &Machine{cfg: cfg, core: core}
}

func (m *Machine) lock() error {
	if !m.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// LoadROM hands the image to the core. It may succeed at most once.
func (m *Machine) LoadROM(ctx context.Context, rom []byte) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if m.loaded.Load() {
		return ErrAlreadyLoaded
	}
	if h, err := cart.ParseHeader(rom); err == nil {
		m.header = h
	}
	start := time.Now()
	if err := m.core.InitEmulation(ctx, rom); err != nil {
		return fmt.Errorf("init emulation: %w", err)
	}
	m.loaded.Store(true)
	if m.cfg.Trace {
		log.Printf("emu: init_emulation %d bytes in %s", len(rom), time.Since(start))
	}
	return nil
}

// LoadROMFromFile reads a ROM image from disk and loads it.
func (m *Machine) LoadROMFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadROM(ctx, data); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the file the ROM was loaded from, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Header returns the parsed cartridge header, or nil when the image has none.
func (m *Machine) Header() *cart.Header { return m.header }

// Loaded reports whether init_emulation has succeeded.
func (m *Machine) Loaded() bool { return m.loaded.Load() }

// Frames returns the number of frames stepped so far.
func (m *Machine) Frames() uint64 { return m.frames }

// StepFrames advances the core by n frames.
func (m *Machine) StepFrames(ctx context.Context, n int) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if !m.loaded.Load() {
		return ErrNotLoaded
	}
	start := time.Now()
	if err := m.core.StepFrames(ctx, n); err != nil {
		return err
	}
	m.frames += uint64(n)
	if m.cfg.Trace {
		log.Printf("emu: step_frames(%d) in %s", n, time.Since(start))
	}
	return nil
}

// Bind queries the region addresses and binds views onto core memory.
func (m *Machine) Bind(ctx context.Context) (*memory.Binding, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	if !m.loaded.Load() {
		return nil, ErrNotLoaded
	}
	var addrs memory.Addresses
	for _, r := range memory.Regions {
		a, err := m.core.RegionAddress(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("get %s address: %w", r, err)
		}
		addrs[r] = a
	}
	b, err := memory.Bind(m.core.Memory(), addrs)
	if err != nil {
		return nil, err
	}
	if m.cfg.Trace {
		log.Printf("emu: bound io=%#x palette=%#x vram=%#x object=%#x",
			addrs[memory.IO], addrs[memory.Palette], addrs[memory.VRAM], addrs[memory.Object])
	}
	return b, nil
}
