package render

import (
	"math"

	"github.com/gogpu/gg"
)

// drawFlourish draws a small spiral of short strokes centered on (x, y).
func drawFlourish(dc *gg.Context, x, y, size float64) error {
	dc.SetLineWidth(1)
	for i := 0; i < 360; i += 10 {
		angle := float64(i) * math.Pi / 180
		radius := size * (1 - float64(i)/360) * 0.5
		x1 := x + radius*math.Cos(angle)
		y1 := y + radius*math.Sin(angle)
		x2 := x + (radius+2)*math.Cos(angle+0.1)
		y2 := y + (radius+2)*math.Sin(angle+0.1)
		dc.DrawLine(x1, y1, x2, y2)
	}
	return dc.Stroke()
}

// drawBorder strokes a rectangle inset by margin whose stroke grows inward.
func drawBorder(dc *gg.Context, margin, width float64) error {
	half := width / 2
	x0 := margin + half
	x1 := CardWidth - margin + 1 - half
	y1 := CardHeight - margin + 1 - half
	dc.SetLineWidth(width)
	dc.DrawRectangle(x0, x0, x1-x0, y1-x0)
	return dc.Stroke()
}

func drawDiamond(dc *gg.Context, p Point, size float64) error {
	dc.MoveTo(p.X, p.Y-size)
	dc.LineTo(p.X+size, p.Y)
	dc.LineTo(p.X, p.Y+size)
	dc.LineTo(p.X-size, p.Y)
	dc.ClosePath()
	return dc.Fill()
}

func drawEllipse(dc *gg.Context, r Rect) error {
	dc.DrawEllipse(r.X+r.W/2, r.Y+r.H/2, r.W/2, r.H/2)
	return dc.Fill()
}

// corner describes one quarter-arc flourish: its center and sweep in degrees.
type corner struct {
	cx, cy     float64
	start, end float64
}

func cardCorners() []corner {
	const margin = 40
	return []corner{
		{margin, margin, 180, 270},
		{CardWidth - margin, margin, 270, 360},
		{margin, CardHeight - margin, 90, 180},
		{CardWidth - margin, CardHeight - margin, 0, 90},
	}
}

// drawCorners draws three concentric quarter arcs in every corner.
func drawCorners(dc *gg.Context) error {
	const size = 20
	dc.SetLineWidth(1)
	for _, c := range cardCorners() {
		for i := 0; i < 3; i++ {
			r := float64(size - i*7)
			dc.DrawArc(c.cx, c.cy, r, c.start*math.Pi/180, c.end*math.Pi/180)
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
	}
	return nil
}
