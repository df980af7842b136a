package soiling

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ReportInfo is the text drawn under a heatmap overlay.
type ReportInfo struct {
	Score float64
	Tiles ScoreMap
	Zones *ZoneSummary
}

// RenderReportFile renders the overlay with a legend band and writes it as JPEG.
func RenderReportFile(overlay Raster, info ReportInfo, outputPath string) error {
	img := renderReportImage(overlay, info)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// RenderReportBytes renders the overlay with a legend band as JPEG bytes.
func RenderReportBytes(overlay Raster, info ReportInfo) ([]byte, error) {
	img := renderReportImage(overlay, info)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderReportImage(overlay Raster, info ReportInfo) *image.RGBA {
	const (
		legendH  = 64
		minWidth = 420
		barH     = 10
	)
	imgW := max(overlay.Width, minWidth)
	totalH := overlay.Height + legendH

	img := image.NewRGBA(image.Rect(0, 0, imgW, totalH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	draw.Draw(img, overlay.Bounds(), overlay.ToImage(), image.Point{}, draw.Src)

	// Zone grid (white, 1px)
	if info.Zones != nil {
		gridColor := color.RGBA{255, 255, 255, 160}
		for i := 1; i < 3; i++ {
			x := overlay.Width * i / 3
			y := overlay.Height * i / 3
			drawLine(img, x, 0, x, overlay.Height-1, gridColor)
			drawLine(img, 0, y, overlay.Width-1, y, gridColor)
		}
	}

	// JET color bar, 0 on the left, 100 on the right
	barY := overlay.Height + 6
	barW := imgW - 20
	for x := 0; x < barW; x++ {
		r, g, b := jetColor(uint8(x * 255 / max(barW-1, 1)))
		for y := barY; y < barY+barH; y++ {
			img.Set(10+x, y, color.RGBA{r, g, b, 255})
		}
	}

	face := basicfont.Face7x13
	textColor := color.RGBA{220, 220, 220, 255}
	line1 := fmt.Sprintf("Score: %.1f  (%s)  coverage %.1f%%", info.Score, Classify(info.Score), Coverage(info.Score))
	line2 := fmt.Sprintf("Tiles: %d  mean %.1f  max %.1f", len(info.Tiles.Tiles), info.Tiles.Mean(), info.Tiles.Max())
	if info.Zones != nil {
		dirtiest := info.Zones.Zones[info.Zones.Dirtiest]
		line2 += fmt.Sprintf("  dirtiest: %s (%.1f)", dirtiest.Label, dirtiest.MeanScore)
	}
	drawText(img, face, line1, 10, barY+barH+16, textColor)
	drawText(img, face, line2, 10, barY+barH+34, textColor)

	return img
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
