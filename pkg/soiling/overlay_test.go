package soiling

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	sm := ScoreMap{TileSize: 10}
	for i := range 9 {
		sm.Tiles = append(sm.Tiles, TileScore{Position: image.Pt((i%3)*10, (i/3)*10), Score: float64(i) * 12})
	}
	h := BuildHeatmap(30, 30, sm, 2)
	overlay, err := h.Overlay(uniformRaster(30, 30, 90), DefaultOverlayAlpha, DefaultOverlayBeta)
	require.NoError(t, err)
	info := ReportInfo{Score: 47.5, Tiles: sm, Zones: SummarizeZones(sm, 30, 30)}

	data, err := RenderReportBytes(overlay, info)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 420, 30+64), img.Bounds())

	path := filepath.Join(t.TempDir(), "report.jpg")
	require.NoError(t, RenderReportFile(overlay, info, path))
	_, err = LoadRaster(path)
	assert.NoError(t, err)
}

func TestDrawLine(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	drawLine(img, 0, 0, 4, 4, color.RGBA{255, 255, 255, 255})
	for i := range 5 {
		_, _, _, a := img.At(i, i).RGBA()
		assert.NotZero(t, a, "pixel %d,%d", i, i)
	}
	_, _, _, a := img.At(4, 0).RGBA()
	assert.Zero(t, a)
}
