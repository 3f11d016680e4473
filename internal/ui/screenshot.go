package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.design/x/clipboard"
)

func (a *App) saveScreenshot(img image.Image) (string, error) {
	ts := time.Now().Format("20060102_150405")
	name := filepath.Join(a.cfg.ScreenshotDir, fmt.Sprintf("screenshot_%s.png", ts))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}

func (a *App) copyScreenshot(img image.Image) error {
	a.clipboardOnce.Do(func() {
		a.clipboardErr = clipboard.Init()
	})
	if a.clipboardErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", a.clipboardErr)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
