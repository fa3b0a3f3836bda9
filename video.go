package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"reservoir/sim"
)

// Frame palette.
var (
	bgColor       = color.RGBA{16, 16, 24, 255}
	healthyColor  = color.RGBA{56, 142, 60, 255}
	activeColor   = color.RGBA{198, 40, 40, 255}
	latentColor   = color.RGBA{21, 101, 192, 255}
	deadColor     = color.RGBA{97, 97, 97, 255}
	virionColor   = color.RGBA{230, 230, 230, 255}
	pathogenColor = color.RGBA{239, 108, 0, 255}
	labelColor    = color.RGBA{255, 255, 255, 255}
)

// Recorder renders world snapshots into an MJPEG AVI, one frame per tick.
type Recorder struct {
	aw     mjpeg.AviWriter
	width  int
	height int
	frame  *image.RGBA
	buf    bytes.Buffer
}

// NewRecorder opens the AVI file for writing.
func NewRecorder(path string, width, height int, fps int32) (*Recorder, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), fps)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	return &Recorder{
		aw:     aw,
		width:  width,
		height: height,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// AddFrame rasterizes the snapshot and appends it to the video.
func (r *Recorder) AddFrame(s sim.Snapshot) error {
	r.render(s)

	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, r.frame, &jpeg.Options{Quality: 80}); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := r.aw.AddFrame(r.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append frame: %w", err)
	}
	return nil
}

// Close finalizes the AVI file.
func (r *Recorder) Close() error {
	return r.aw.Close()
}

func (r *Recorder) render(s sim.Snapshot) {
	draw.Draw(r.frame, r.frame.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	for _, a := range s.Agents {
		r.fillCircle(a.X, a.Y, a.R, agentColor(a.State))
	}
	for _, p := range s.Particles {
		c := virionColor
		if p.Kind == "pathogen" {
			c = pathogenColor
		}
		r.fillRect(int(p.X)-1, int(p.Y)-1, 2, 2, c)
	}

	label := fmt.Sprintf(
		"t=%.0fs  therapy=%s  healthy=%d active=%d latent=%d dead=%d virus=%d",
		s.Elapsed, onOff(s.Therapy),
		s.Counts.Healthy, s.Counts.Active, s.Counts.Latent, s.Counts.Dead,
		s.Counts.Particles(),
	)
	d := &font.Drawer{
		Dst:  r.frame,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(8), Y: fixed.I(16)},
	}
	d.DrawString(label)
}

func agentColor(state string) color.RGBA {
	switch state {
	case "active":
		return activeColor
	case "latent":
		return latentColor
	case "dead":
		return deadColor
	}
	return healthyColor
}

func (r *Recorder) fillCircle(cx, cy, radius float64, c color.RGBA) {
	x0, x1 := int(cx-radius), int(cx+radius)
	y0, y1 := int(cy-radius), int(cy+radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= radius*radius {
				r.set(x, y, c)
			}
		}
	}
}

func (r *Recorder) fillRect(x, y, w, h int, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			r.set(xx, yy, c)
		}
	}
}

func (r *Recorder) set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return
	}
	r.frame.SetRGBA(x, y, c)
}
