// Package plotter renders training metric curves to PNG images
package plotter

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/lgandara/dprl/utils/floatutils"
)

const (
	width  = 800
	height = 500
	margin = 50.0
)

// Line renders the series as a line plot with the given title and
// writes it to path as a PNG. The x axis is the epoch index and the y
// axis spans the range of the series.
func Line(path, title string, series []float64) error {
	if len(series) < 2 {
		return fmt.Errorf("line: need at least 2 points\n\thave(%v)",
			len(series))
	}

	min := floatutils.Min(series...)
	max := floatutils.Max(series...)
	if max == min {
		// Flat series still gets a visible midline
		max = min + 1
		min = min - 1
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin

	toX := func(i int) float64 {
		return margin + plotW*float64(i)/float64(len(series)-1)
	}
	toY := func(v float64) float64 {
		return float64(height) - margin - plotH*(v-min)/(max-min)
	}

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, margin, margin, float64(height)-margin)
	dc.DrawLine(margin, float64(height)-margin, float64(width)-margin,
		float64(height)-margin)
	dc.Stroke()

	// Labels
	dc.DrawStringAnchored(title, float64(width)/2, margin/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", max), margin-5, margin, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", min), margin-5,
		float64(height)-margin, 1, 0.5)
	dc.DrawStringAnchored("epoch", float64(width)/2,
		float64(height)-margin/2, 0.5, 0.5)

	// Series
	dc.SetRGB(0.12, 0.47, 0.71)
	dc.SetLineWidth(2)
	dc.MoveTo(toX(0), toY(series[0]))
	for i := 1; i < len(series); i++ {
		dc.LineTo(toX(i), toY(series[i]))
	}
	dc.Stroke()

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("line: could not save plot: %v", err)
	}
	return nil
}
