package soiling

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileLayout(t *testing.T) {
	tests := map[string]struct {
		w, h, tile, stride int
		want               []image.Point
	}{
		"exact fit": {
			w: 8, h: 8, tile: 4, stride: 4,
			want: []image.Point{{0, 0}, {4, 0}, {0, 4}, {4, 4}},
		},
		"tile equals image": {
			w: 5, h: 5, tile: 5, stride: 2,
			want: []image.Point{{0, 0}},
		},
		"edge and corner correction": {
			w: 10, h: 10, tile: 4, stride: 4,
			want: []image.Point{
				{0, 0}, {4, 0}, {0, 4}, {4, 4},
				{6, 0}, {6, 4},
				{0, 6}, {4, 6},
				{6, 6},
			},
		},
		"right column only": {
			w: 20, h: 4, tile: 4, stride: 3,
			want: []image.Point{{0, 0}, {3, 0}, {6, 0}, {9, 0}, {12, 0}, {15, 0}, {16, 0}},
		},
		"zero stride means no overlap": {
			w: 6, h: 3, tile: 3, stride: 0,
			want: []image.Point{{0, 0}, {3, 0}},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := TileLayout(tc.w, tc.h, tc.tile, tc.stride)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTileLayout_Invalid(t *testing.T) {
	tests := map[string]struct{ w, h, tile, stride int }{
		"tile wider than image":  {w: 10, h: 40, tile: 20, stride: 10},
		"tile taller than image": {w: 40, h: 10, tile: 20, stride: 10},
		"zero tile":              {w: 10, h: 10, tile: 0, stride: 0},
		"stride leaves gaps":     {w: 40, h: 40, tile: 8, stride: 12},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := TileLayout(tc.w, tc.h, tc.tile, tc.stride)
			assert.ErrorIs(t, err, ErrInvalidTileSize)
		})
	}
}

func TestTileLayout_CoversEveryPixel(t *testing.T) {
	for _, c := range []struct{ w, h, tile, stride int }{
		{37, 23, 8, 5},
		{100, 64, 32, 16},
		{99, 101, 10, 10},
		{50, 50, 7, 1},
		{640, 480, 224, 112},
	} {
		positions, err := TileLayout(c.w, c.h, c.tile, c.stride)
		require.NoError(t, err)

		seen := make(map[image.Point]bool, len(positions))
		counts := make([]int, c.w*c.h)
		for _, p := range positions {
			assert.False(t, seen[p], "duplicate position %v", p)
			seen[p] = true
			assert.True(t, p.X >= 0 && p.Y >= 0 && p.X+c.tile <= c.w && p.Y+c.tile <= c.h, "tile %v out of bounds", p)
			for y := p.Y; y < p.Y+c.tile; y++ {
				for x := p.X; x < p.X+c.tile; x++ {
					counts[y*c.w+x]++
				}
			}
		}
		for i, n := range counts {
			if n == 0 {
				t.Fatalf("%dx%d tile %d stride %d: pixel (%d,%d) uncovered", c.w, c.h, c.tile, c.stride, i%c.w, i/c.w)
			}
		}
	}
}

func TestTiles_Patches(t *testing.T) {
	src := NewRaster(6, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			src.Set(x, y, uint8(x), uint8(y), 9)
		}
	}
	tiles, err := Tiles(src, 4, 2)
	require.NoError(t, err)
	require.Len(t, tiles, 2)

	second := tiles[1]
	assert.Equal(t, image.Pt(2, 0), second.Position)
	assert.Equal(t, 4, second.Patch.Width)
	r, g, b := second.Patch.At(1, 3)
	assert.Equal(t, [3]uint8{3, 3, 9}, [3]uint8{r, g, b})
}

func TestTileAndScore_Uniform(t *testing.T) {
	src := uniformRaster(32, 32, 128)
	res, err := TileAndScore(context.Background(), newMeanEncoder(), src, unitProfile(), TileOptions{
		TileSize: 16, Stride: 8, Heatmap: true, Workers: 3, BatchSize: 2,
	})
	require.NoError(t, err)

	want, err := TileLayout(32, 32, 16, 8)
	require.NoError(t, err)
	assert.Equal(t, want, res.ScoreMap.Positions())
	assert.Equal(t, 16, res.ScoreMap.TileSize)
	for _, s := range res.ScoreMap.Scores() {
		assert.InDelta(t, 128.0/255*100, s, 0.5)
	}

	require.NotNil(t, res.Heatmap)
	assert.Equal(t, 32, res.Heatmap.Width)
	assert.Equal(t, 32, res.Heatmap.Height)
	assert.InDelta(t, 128.0/255*100, res.Heatmap.Value(31, 31), 0.5)
}

func TestTileAndScore_LocalizesDirt(t *testing.T) {
	src := NewRaster(32, 32)
	for y := 0; y < 32; y++ {
		for x := 16; x < 32; x++ {
			src.Set(x, y, 255, 255, 255)
		}
	}
	res, err := TileAndScore(context.Background(), newMeanEncoder(), src, unitProfile(), TileOptions{TileSize: 16})
	require.NoError(t, err)
	assert.Nil(t, res.Heatmap)

	scores := map[image.Point]float64{}
	for _, ts := range res.ScoreMap.Tiles {
		scores[ts.Position] = ts.Score
	}
	assert.InDelta(t, 0, scores[image.Pt(0, 0)], 1e-6)
	assert.InDelta(t, 0, scores[image.Pt(0, 16)], 1e-6)
	assert.InDelta(t, 100, scores[image.Pt(16, 0)], 0.01)
	assert.InDelta(t, 100, scores[image.Pt(16, 16)], 0.01)
	assert.InDelta(t, 100, res.ScoreMap.Max(), 0.01)
	assert.InDelta(t, 50, res.ScoreMap.Mean(), 0.01)
}

func TestTileAndScore_WorkerCountInvariant(t *testing.T) {
	src := NewRaster(48, 40)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7 % 251)
	}
	run := func(workers, batch int) *TileResult {
		res, err := TileAndScore(context.Background(), newMeanEncoder(), src, unitProfile(), TileOptions{
			TileSize: 16, Stride: 6, Heatmap: true, Workers: workers, BatchSize: batch,
		})
		require.NoError(t, err)
		return res
	}
	a, b := run(1, 1), run(8, 5)
	assert.Equal(t, a.ScoreMap, b.ScoreMap)
	assert.Equal(t, a.Heatmap.Sum, b.Heatmap.Sum)
	assert.Equal(t, a.Heatmap.Count, b.Heatmap.Count)
}

func TestTileAndScore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := TileAndScore(ctx, newMeanEncoder(), uniformRaster(10, 10, 0), unitProfile(), TileOptions{TileSize: 20})
	assert.ErrorIs(t, err, ErrInvalidTileSize)

	res, err := TileAndScore(ctx, failingEncoder{}, uniformRaster(32, 32, 0), unitProfile(), TileOptions{TileSize: 8, Workers: 4})
	assert.ErrorIs(t, err, errEncoderDown)
	assert.Nil(t, res)

	_, err = TileAndScore(ctx, newMeanEncoder(), Raster{}, unitProfile(), TileOptions{TileSize: 8})
	assert.ErrorIs(t, err, ErrImageRead)

	mismatched := &ReferenceProfile{Reference: Embedding{0, 0}, MaxDist: 1}
	_, err = TileAndScore(ctx, newMeanEncoder(), uniformRaster(16, 16, 0), mismatched, TileOptions{TileSize: 8})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTileAndScore_MalformedRaster(t *testing.T) {
	tests := map[string]Raster{
		"empty":        {},
		"short buffer": {Pix: make([]uint8, 12), Width: 32, Height: 32},
		"ragged rows":  {Pix: make([]uint8, 32*32*3-1), Width: 32, Height: 32},
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := TileAndScore(context.Background(), newMeanEncoder(), r, unitProfile(), TileOptions{TileSize: 8, Workers: 4})
			assert.ErrorIs(t, err, ErrImageRead)
			assert.Nil(t, res)

			_, err = Tiles(r, 8, 4)
			assert.ErrorIs(t, err, ErrImageRead)
		})
	}
}

func TestTileAndScore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TileAndScore(ctx, newMeanEncoder(), uniformRaster(32, 32, 0), unitProfile(), TileOptions{TileSize: 8})
	assert.ErrorIs(t, err, context.Canceled)
}
