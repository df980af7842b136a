package soiling

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaster_PNGRoundTrip(t *testing.T) {
	src := NewRaster(5, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, uint8(40*x), uint8(80*y), 200)
		}
	}

	path := filepath.Join(t.TempDir(), "panel.png")
	require.NoError(t, SaveRaster(path, src))
	got, err := LoadRaster(path)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	data, err := EncodeRaster(src, ".png")
	require.NoError(t, err)
	decoded, err := DecodeRaster(data)
	require.NoError(t, err)
	assert.Equal(t, src, decoded)
}

func TestLoadRaster_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o644))

	for name, path := range map[string]string{
		"missing": filepath.Join(dir, "missing.jpg"),
		"corrupt": corrupt,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRaster(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrImageRead)

			var readErr *ImageReadError
			require.True(t, errors.As(err, &readErr))
			assert.Equal(t, path, readErr.Path)
		})
	}

	_, err := DecodeRaster([]byte{0xff, 0x00})
	assert.ErrorIs(t, err, ErrImageRead)
}

func TestPreprocess(t *testing.T) {
	tensor, err := Preprocess(PixelBuffer{Raster: uniformRaster(40, 30, 255)}, image.Pt(8, 6))
	require.NoError(t, err)
	assert.Equal(t, 8, tensor.Width)
	assert.Equal(t, 6, tensor.Height)
	require.Len(t, tensor.Data, 8*6*3)
	for _, v := range tensor.Data {
		assert.InDelta(t, 1.0, v, 1e-6)
	}

	path := filepath.Join(t.TempDir(), "gray.png")
	require.NoError(t, SaveRaster(path, uniformRaster(4, 4, 51)))
	fromFile, err := Preprocess(FilePath(path), image.Pt(4, 4))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, fromFile.Data[0], 1e-6)

	_, err = Preprocess(FilePath(filepath.Join(t.TempDir(), "nope.png")), image.Pt(4, 4))
	assert.ErrorIs(t, err, ErrImageRead)
}

func TestPreprocess_MalformedBuffer(t *testing.T) {
	tests := map[string]Raster{
		"empty":          {},
		"short buffer":   {Pix: make([]uint8, 12), Width: 32, Height: 32},
		"long buffer":    {Pix: make([]uint8, 4*4*3+1), Width: 4, Height: 4},
		"negative width": {Pix: make([]uint8, 12), Width: -2, Height: 2},
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Preprocess(PixelBuffer{Raster: r}, image.Pt(8, 8))
			assert.ErrorIs(t, err, ErrImageRead)

			_, err = Score(context.Background(), newMeanEncoder(), PixelBuffer{Raster: r}, unitProfile())
			assert.ErrorIs(t, err, ErrImageRead)

			_, err = EncodeRaster(r, ".png")
			assert.ErrorIs(t, err, ErrImageRead)
		})
	}
}

func TestRaster_Valid(t *testing.T) {
	assert.True(t, NewRaster(3, 2).Valid())
	assert.False(t, Raster{Pix: make([]uint8, 5), Width: 1, Height: 2}.Valid())
	assert.False(t, Raster{}.Valid())
}

func TestRaster_Region(t *testing.T) {
	src := NewRaster(4, 4)
	src.Set(2, 3, 1, 2, 3)
	sub := src.Region(image.Rect(1, 2, 4, 4))
	assert.Equal(t, 3, sub.Width)
	assert.Equal(t, 2, sub.Height)
	r, g, b := sub.At(1, 1)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})

	// Region copies.
	sub.Set(0, 0, 9, 9, 9)
	r, _, _ = src.At(1, 2)
	assert.Equal(t, uint8(0), r)
}
