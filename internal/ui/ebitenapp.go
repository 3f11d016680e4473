package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/lavender-emu/lavender/internal/controller"
	"github.com/lavender-emu/lavender/internal/display"
	"github.com/lavender-emu/lavender/internal/emu"
	"github.com/lavender-emu/lavender/internal/sched"
)

// App hosts the controller in an ebiten window. Every Update is one display
// refresh: frames requested during the previous refresh run first, then the
// meta-control keys are handled, so a toggle never steps the core itself.
type App struct {
	cfg    Config
	ctrl   *controller.Controller
	queue  *sched.FrameQueue
	canvas *canvas
	panel  *panel
	keys   map[ebiten.Key]controller.Action

	geometrySet bool

	toast      string
	toastUntil time.Time

	clipboardOnce sync.Once
	clipboardErr  error
}

func NewApp(ctx context.Context, cfg Config, m *emu.Machine, opts controller.Options) (*App, error) {
	cfg.Defaults()
	a := &App{
		cfg:    cfg,
		queue:  &sched.FrameQueue{},
		canvas: &canvas{},
		panel:  &panel{},
	}
	opts.Geometry = a.geometry(1)
	ctrl, err := controller.New(ctx, m, a.canvas, a.queue, opts)
	if err != nil {
		return nil, err
	}
	ctrl.AddPublisher(a.panel)
	a.ctrl = ctrl
	a.keys = map[ebiten.Key]controller.Action{
		cfg.RunKey:     controller.ActionToggleRun,
		cfg.OverlayKey: controller.ActionToggleOverlay,
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	ctrl.Start()
	return a, nil
}

func (a *App) Controller() *controller.Controller { return a.ctrl }

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) geometry(dpr float64) display.Geometry {
	return display.Geometry{
		BoxW: float64(display.Width * a.cfg.Scale),
		BoxH: float64(display.Height * a.cfg.Scale),
		DPR:  dpr,
	}
}

func (a *App) Update() error {
	// The device scale factor is only known once the window exists.
	if !a.geometrySet {
		a.geometrySet = true
		if dpr := ebiten.Monitor().DeviceScaleFactor(); dpr != 1 {
			a.ctrl.Resize(a.geometry(dpr))
		}
	}

	a.queue.Tick()
	if err := a.ctrl.Err(); err != nil {
		return err
	}

	for key, action := range a.keys {
		if !inpututil.IsKeyJustPressed(key) {
			continue
		}
		if err := a.ctrl.Handle(action); err != nil {
			log.Printf("%s: %v", action, err)
		}
	}

	// Screenshot (F12), to clipboard with Shift
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		img := display.Scale(a.ctrl.Frame(), a.cfg.Scale)
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			if err := a.copyScreenshot(img); err != nil {
				a.notify(err.Error())
			} else {
				a.notify("screenshot copied")
			}
		} else if name, err := a.saveScreenshot(img); err != nil {
			a.notify(err.Error())
		} else {
			a.notify("wrote " + name)
		}
	}
	return nil
}

func (a *App) notify(msg string) {
	log.Print(msg)
	a.toast = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.DrawImage(a.canvas.img, nil)
	w, h := a.ctrl.CanvasSize()
	a.panel.Draw(screen, float64(w)/float64(display.Width*a.cfg.Scale))
	if a.toast != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toast, 4, h-20)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return a.ctrl.CanvasSize() }
