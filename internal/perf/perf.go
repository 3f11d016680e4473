// Package perf keeps a rolling window of frame timings and prints them as
// terminal histograms.
package perf

import (
	"fmt"
	"io"
	"sort"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/lavender-emu/lavender/internal/overlay"
)

const defaultWindow = 3600 // one minute at 60 Hz

// Recorder collects emulation and render times. It is an overlay.Publisher so
// it can be registered next to the on-screen overlay.
type Recorder struct {
	window    int
	emulation []float64
	render    []float64
	next      int
	lastFrame uint64
}

func NewRecorder(window int) *Recorder {
	if window <= 0 {
		window = defaultWindow
	}
	return &Recorder{window: window}
}

// Publish records one sample per new frame; repeated snapshots of the same
// frame (overlay toggles) are ignored.
func (r *Recorder) Publish(s overlay.Snapshot) {
	if s.FrameCount == 0 || s.FrameCount == r.lastFrame {
		return
	}
	r.lastFrame = s.FrameCount
	if len(r.emulation) < r.window {
		r.emulation = append(r.emulation, s.EmulationMs)
		r.render = append(r.render, s.RenderMs)
		return
	}
	r.emulation[r.next] = s.EmulationMs
	r.render[r.next] = s.RenderMs
	r.next = (r.next + 1) % r.window
}

// Samples returns the number of frames currently held.
func (r *Recorder) Samples() int { return len(r.emulation) }

// Summary describes one timing series in milliseconds.
type Summary struct {
	Count          int
	Min, Max, Mean float64
	P50, P99       float64
}

func summarize(v []float64) Summary {
	if len(v) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	var sum float64
	for _, x := range sorted {
		sum += x
	}
	return Summary{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  sum / float64(len(sorted)),
		P50:   sorted[len(sorted)/2],
		P99:   sorted[(len(sorted)*99)/100],
	}
}

func (r *Recorder) Emulation() Summary { return summarize(r.emulation) }
func (r *Recorder) Render() Summary    { return summarize(r.render) }

// Fprint writes a summary line and histogram for both series. width is the
// maximum bar length in columns.
func (r *Recorder) Fprint(w io.Writer, bins, width int) error {
	if bins <= 0 {
		bins = 10
	}
	if width <= 0 {
		width = 40
	}
	for _, series := range []struct {
		name string
		data []float64
	}{
		{"emulation", r.emulation},
		{"render", r.render},
	} {
		s := summarize(series.data)
		if _, err := fmt.Fprintf(w, "%s: n=%d min=%.2fms mean=%.2fms p50=%.2fms p99=%.2fms max=%.2fms\n",
			series.name, s.Count, s.Min, s.Mean, s.P50, s.P99, s.Max); err != nil {
			return err
		}
		if s.Count == 0 || s.Min == s.Max {
			continue
		}
		if err := histogram.Fprint(w, histogram.Hist(bins, series.data), histogram.Linear(width)); err != nil {
			return err
		}
	}
	return nil
}
