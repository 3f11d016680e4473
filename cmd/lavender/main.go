package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/lavender-emu/lavender/internal/controller"
	"github.com/lavender-emu/lavender/internal/display"
	"github.com/lavender-emu/lavender/internal/emu"
	"github.com/lavender-emu/lavender/internal/luacore"
	"github.com/lavender-emu/lavender/internal/overlay"
	"github.com/lavender-emu/lavender/internal/perf"
	"github.com/lavender-emu/lavender/internal/sched"
	"github.com/lavender-emu/lavender/internal/statsview"
	"github.com/lavender-emu/lavender/internal/ui"
	"github.com/lavender-emu/lavender/internal/wasmcore"
)

type CLIFlags struct {
	CorePath   string // compiled emulator core (.wasm)
	ScriptPath string // Lua core, used when no wasm core is given
	ROMPath    string
	Scale      int
	Title      string
	Trace      bool

	// headless
	Headless bool
	Frames   int
	Limit    bool // pace headless frames at 60 Hz
	PNGOut   string
	Expect   string // expected frame CRC32 hex (e.g., "1a2b3c4d")

	// diagnostics
	OverlayAddr   string
	Overlay       bool
	Histogram     bool
	StatsView     bool
	StatsViewAddr string
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.CorePath, "core", "", "path to emulator core (.wasm)")
	flag.StringVar(&f.ScriptPath, "script", "", "path to Lua core (default: built-in test pattern)")
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gba)")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "lavender", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "trace core calls and run-state changes")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.BoolVar(&f.Limit, "limit", false, "limit headless mode to 60 frames per second")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert frame CRC32 (hex)")

	flag.StringVar(&f.OverlayAddr, "overlay-addr", "", "serve overlay snapshots over websocket at host:port")
	flag.BoolVar(&f.Overlay, "overlay", controller.DefaultOverlayVisible, "show diagnostics overlay at start")
	flag.BoolVar(&f.Histogram, "histogram", false, "print frame timing histogram on exit")
	flag.BoolVar(&f.StatsView, "statsview", false, "launch runtime stats server")
	flag.StringVar(&f.StatsViewAddr, "statsview-addr", "localhost:12600", "runtime stats server address")
	flag.Parse()
	return f
}

// loadCore picks the wasm core when one is given, otherwise the Lua core.
func loadCore(ctx context.Context, f CLIFlags) (emu.Core, func(), error) {
	if f.CorePath != "" {
		c, err := wasmcore.LoadFile(ctx, f.CorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("load core: %w", err)
		}
		return c, func() { _ = c.Close(ctx) }, nil
	}
	var script string
	if f.ScriptPath != "" {
		b, err := os.ReadFile(f.ScriptPath)
		if err != nil {
			return nil, nil, err
		}
		script = string(b)
	}
	c, err := luacore.New(script)
	if err != nil {
		return nil, nil, fmt.Errorf("load script: %w", err)
	}
	return c, c.Close, nil
}

func runHeadless(ctx context.Context, m *emu.Machine, f CLIFlags, opts controller.Options) error {
	frames := f.Frames
	if frames <= 0 {
		frames = 1
	}

	q := &sched.FrameQueue{}
	surface := display.NewImageSurface(display.Width, display.Height)
	ctrl, err := controller.New(ctx, m, surface, q, opts)
	if err != nil {
		return err
	}
	ctrl.Start()
	q.Tick()
	if err := ctrl.ToggleRun(); err != nil {
		return err
	}

	var pacer *sched.Pacer
	if f.Limit {
		pacer = sched.NewPacer(60)
		defer pacer.Stop()
	}

	start := time.Now()
	for ctrl.Stats().FrameCount < uint64(frames) {
		if pacer != nil {
			pacer.Wait()
		}
		if q.Tick() == 0 {
			return errors.New("frame loop stalled")
		}
		if err := ctrl.Err(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	img := ctrl.Frame()
	crc := crc32.ChecksumIEEE(img.Pix)
	fps := float64(frames) / dur.Seconds()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f frame_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if f.PNGOut != "" {
		if err := writePNG(f.PNGOut, display.Scale(img, f.Scale)); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", f.PNGOut)
	}

	if f.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// printTimings writes the frame timing summary, sized to the terminal when
// stdout is one.
func printTimings(rec *perf.Recorder) {
	width := 60
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 40 {
			width = w - 30
		}
	}
	if err := rec.Fprint(os.Stdout, 20, width); err != nil {
		log.Printf("histogram: %v", err)
	}
}

func main() {
	f := parseFlags()
	ctx := context.Background()

	if f.CorePath != "" && f.ROMPath == "" {
		log.Fatal("-core requires -rom")
	}

	if f.StatsView && !statsview.Launch(f.StatsViewAddr, os.Stdout) {
		log.Printf("statsview: not built in (rebuild with -tags statsview)")
	}

	core, closeCore, err := loadCore(ctx, f)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCore()

	m := emu.New(emu.Config{Trace: f.Trace}, core)
	if f.ROMPath != "" {
		// prefer absolute path so logs name the file unambiguously
		path := f.ROMPath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		err = m.LoadROMFromFile(ctx, path)
	} else {
		err = m.LoadROM(ctx, nil)
	}
	if err != nil {
		log.Fatalf("load ROM: %v", err)
	}
	if h := m.Header(); h != nil {
		log.Printf("ROM: %s %q code=%s maker=%s region=%s v%d complement_ok=%v",
			filepath.Base(m.ROMPath()), h.Title, h.GameCode, h.MakerName, h.Region, h.Version, h.ComplementValid)
	}

	opts := controller.Options{OverlayVisible: f.Overlay, Trace: f.Trace}
	var rec *perf.Recorder
	if f.Histogram {
		rec = perf.NewRecorder(0)
		opts.Publishers = append(opts.Publishers, rec)
	}
	if f.OverlayAddr != "" {
		feed := overlay.NewFeed(f.OverlayAddr)
		opts.Publishers = append(opts.Publishers, feed)
		go func() {
			if err := feed.Serve(); err != nil {
				log.Printf("overlay feed: %v", err)
			}
		}()
		log.Printf("overlay feed at ws://%s/ws/", f.OverlayAddr)
	}

	if f.Headless {
		err = runHeadless(ctx, m, f, opts)
	} else {
		var app *ui.App
		app, err = ui.NewApp(ctx, ui.Config{Title: f.Title, Scale: f.Scale}, m, opts)
		if err == nil {
			err = app.Run()
		}
	}
	if rec != nil {
		printTimings(rec)
	}
	if err != nil {
		closeCore()
		log.Fatal(err)
	}
}
