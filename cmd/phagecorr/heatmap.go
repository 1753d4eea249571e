package main

import (
	"math"

	"github.com/carbocation/pfx"
	"github.com/fogleman/gg"

	"phagecorr/correlation"
)

const (
	cellPx       = 24
	leftMarginPx = 160
	topMarginPx  = 120
)

// renderHeatmap draws one correlation grid as a PNG with a diverging
// blue-white-red scale over [-1,1]. Missing cells are gray. Callers are
// responsible for skipping grids with fewer than 2 defined cells.
func renderHeatmap(path string, g correlation.Grid) error {
	width := leftMarginPx + cellPx*len(g.ColLabels)
	height := topMarginPx + cellPx*len(g.RowLabels)

	ctx := gg.NewContext(width, height)
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()

	for i := range g.RowLabels {
		for j := range g.ColLabels {
			setCellColor(ctx, g.Cells[i][j])
			ctx.DrawRectangle(float64(leftMarginPx+j*cellPx), float64(topMarginPx+i*cellPx), cellPx, cellPx)
			ctx.Fill()
		}
	}

	ctx.SetRGB(0, 0, 0)
	for i, label := range g.RowLabels {
		y := float64(topMarginPx + i*cellPx + cellPx/2)
		ctx.DrawStringAnchored(label, leftMarginPx-4, y, 1, 0.35)
	}
	for j, label := range g.ColLabels {
		x := float64(leftMarginPx + j*cellPx + cellPx/2)
		ctx.Push()
		ctx.RotateAbout(-math.Pi/2, x, topMarginPx-4)
		ctx.DrawStringAnchored(label, x, topMarginPx-4, 0, 0.35)
		ctx.Pop()
	}

	if err := ctx.SavePNG(path); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func setCellColor(ctx *gg.Context, v float64) {
	switch {
	case math.IsNaN(v):
		ctx.SetRGB(0.85, 0.85, 0.85)
	case v >= 0:
		// White at 0 fading to red at +1.
		ctx.SetRGB(1, 1-v, 1-v)
	default:
		// White at 0 fading to blue at -1.
		ctx.SetRGB(1+v, 1+v, 1)
	}
}
