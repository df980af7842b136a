package soiling

import (
	"fmt"
	"image"
	"math"
	"sync"
)

// Default overlay blend weights.
const (
	DefaultOverlayAlpha = 0.6 // original image
	DefaultOverlayBeta  = 0.4 // colorized heatmap
)

// Heatmap accumulates tile scores per pixel. Each pixel's value is the
// average of the scores of all tiles covering it.
type Heatmap struct {
	Width  int
	Height int
	Sum    []float64
	Count  []int32
}

// NewHeatmap allocates empty accumulators.
func NewHeatmap(width, height int) *Heatmap {
	return &Heatmap{
		Width:  width,
		Height: height,
		Sum:    make([]float64, width*height),
		Count:  make([]int32, width*height),
	}
}

// Accumulate adds score to every pixel of rect that falls inside the heatmap.
func (h *Heatmap) Accumulate(rect image.Rectangle, score float64) {
	rect = rect.Intersect(image.Rect(0, 0, h.Width, h.Height))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := y * h.Width
		for x := rect.Min.X; x < rect.Max.X; x++ {
			h.Sum[row+x] += score
			h.Count[row+x]++
		}
	}
}

// Value returns the averaged score at (x, y). Uncovered pixels read as 0.
func (h *Heatmap) Value(x, y int) float64 {
	i := y*h.Width + x
	n := h.Count[i]
	if n == 0 {
		n = 1
	}
	return h.Sum[i] / float64(n)
}

// Values returns the averaged score of every pixel, row-major.
func (h *Heatmap) Values() []float64 {
	out := make([]float64, len(h.Sum))
	for i, s := range h.Sum {
		n := h.Count[i]
		if n == 0 {
			n = 1
		}
		out[i] = s / float64(n)
	}
	return out
}

// Clamped returns Values bounded to [0, 100].
func (h *Heatmap) Clamped() []float64 {
	vals := h.Values()
	for i, v := range vals {
		vals[i] = math.Max(0, math.Min(100, v))
	}
	return vals
}

// Gray8 maps the clamped heatmap onto 0-255, truncating.
func (h *Heatmap) Gray8() []uint8 {
	vals := h.Clamped()
	out := make([]uint8, len(vals))
	for i, v := range vals {
		out[i] = uint8(v / 100.0 * 255.0)
	}
	return out
}

// Colorize renders the heatmap with the JET color map.
func (h *Heatmap) Colorize() Raster {
	return colorizeJet(h.Gray8(), h.Width, h.Height)
}

// Overlay blends src and the colorized heatmap: alpha*src + beta*heatmap.
func (h *Heatmap) Overlay(src Raster, alpha, beta float64) (Raster, error) {
	if src.Width != h.Width || src.Height != h.Height {
		return Raster{}, fmt.Errorf("overlay source is %dx%d, heatmap is %dx%d", src.Width, src.Height, h.Width, h.Height)
	}
	if err := checkRaster(src); err != nil {
		return Raster{}, err
	}
	return blendRasters(src, h.Colorize(), alpha, beta), nil
}

// BuildHeatmap accumulates every tile of sm into a width x height heatmap.
// The image is split into horizontal bands, each owned by one goroutine,
// and each band sees the tiles in ScoreMap order, so the result does not
// depend on scheduling.
func BuildHeatmap(width, height int, sm ScoreMap, workers int) *Heatmap {
	h := NewHeatmap(width, height)
	if workers < 1 {
		workers = 1
	}
	bandHeight := (height + workers - 1) / workers
	if bandHeight < sm.TileSize {
		bandHeight = sm.TileSize
	}

	var wg sync.WaitGroup
	for top := 0; top < height; top += bandHeight {
		band := image.Rect(0, top, width, min(top+bandHeight, height))
		wg.Add(1)
		go func(band image.Rectangle) {
			defer wg.Done()
			for _, t := range sm.Tiles {
				r := image.Rect(t.Position.X, t.Position.Y, t.Position.X+sm.TileSize, t.Position.Y+sm.TileSize)
				h.Accumulate(r.Intersect(band), t.Score)
			}
		}(band)
	}
	wg.Wait()
	return h
}
