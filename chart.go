package main

import (
	"fmt"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"reservoir/sim"
)

// History accumulates one census sample per simulated second for the
// time-series export. It is only touched from the run loop goroutine.
type History struct {
	seconds   []float64
	healthy   []float64
	active    []float64
	latent    []float64
	dead      []float64
	particles []float64
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Record appends one sample.
func (h *History) Record(elapsed time.Duration, c sim.Counts) {
	h.seconds = append(h.seconds, elapsed.Seconds())
	h.healthy = append(h.healthy, float64(c.Healthy))
	h.active = append(h.active, float64(c.Active))
	h.latent = append(h.latent, float64(c.Latent))
	h.dead = append(h.dead, float64(c.Dead))
	h.particles = append(h.particles, float64(c.Particles()))
}

// Clear drops all samples, used on simulation reset.
func (h *History) Clear() {
	h.seconds = h.seconds[:0]
	h.healthy = h.healthy[:0]
	h.active = h.active[:0]
	h.latent = h.latent[:0]
	h.dead = h.dead[:0]
	h.particles = h.particles[:0]
}

// ExportPNG renders the recorded census curves to a PNG file.
func (h *History) ExportPNG(path string) error {
	if len(h.seconds) < 2 {
		return fmt.Errorf("not enough samples to chart, have %d", len(h.seconds))
	}

	series := func(name, hexColor string, ys []float64) chart.Series {
		return chart.ContinuousSeries{
			Name:    name,
			XValues: h.seconds,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(hexColor),
				StrokeWidth: 2,
			},
		}
	}

	graph := chart.Chart{
		Title: "Cell states and free virus over time",
		XAxis: chart.XAxis{Name: "simulated seconds"},
		YAxis: chart.YAxis{Name: "count"},
		Series: []chart.Series{
			series("healthy", "2e7d32", h.healthy),
			series("active", "c62828", h.active),
			series("latent", "1565c0", h.latent),
			series("dead", "616161", h.dead),
			series("free virus", "ef6c00", h.particles),
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
