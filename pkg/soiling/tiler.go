package soiling

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileOptions controls image decomposition and tile scoring.
type TileOptions struct {
	TileSize int
	// Stride between tile origins. Zero means TileSize (no overlap).
	Stride int
	// Heatmap requests a pixel-resolution heatmap in the result.
	Heatmap bool
	// Workers bounds concurrent encoder calls. Zero means GOMAXPROCS.
	Workers int
	// BatchSize is the number of tiles per encoder call. Zero means 1.
	BatchSize int
}

func (o TileOptions) stride() int {
	if o.Stride <= 0 {
		return o.TileSize
	}
	return o.Stride
}

// TileLayout returns the top-left corners of a tile decomposition that
// covers every pixel of a width x height image: the regular stride grid,
// then a right-edge column at x = width-tileSize, a bottom-edge row at
// y = height-tileSize, and one bottom-right corner tile when both edges
// needed correction. Positions are unique.
func TileLayout(width, height, tileSize, stride int) ([]image.Point, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: tile size %d must be positive", ErrInvalidTileSize, tileSize)
	}
	if tileSize > width || tileSize > height {
		return nil, fmt.Errorf("%w: tile size %d exceeds image %dx%d", ErrInvalidTileSize, tileSize, width, height)
	}
	if stride <= 0 {
		stride = tileSize
	}
	if stride > tileSize {
		return nil, fmt.Errorf("%w: stride %d exceeds tile size %d and would leave gaps", ErrInvalidTileSize, stride, tileSize)
	}

	var xs, ys []int
	for x := 0; x+tileSize <= width; x += stride {
		xs = append(xs, x)
	}
	for y := 0; y+tileSize <= height; y += stride {
		ys = append(ys, y)
	}

	positions := make([]image.Point, 0, (len(xs)+1)*(len(ys)+1))
	for _, y := range ys {
		for _, x := range xs {
			positions = append(positions, image.Pt(x, y))
		}
	}

	rightGap := (width-tileSize)%stride != 0
	bottomGap := (height-tileSize)%stride != 0
	if rightGap {
		for _, y := range ys {
			positions = append(positions, image.Pt(width-tileSize, y))
		}
	}
	if bottomGap {
		for _, x := range xs {
			positions = append(positions, image.Pt(x, height-tileSize))
		}
	}
	if rightGap && bottomGap {
		positions = append(positions, image.Pt(width-tileSize, height-tileSize))
	}
	return positions, nil
}

// Tiles decomposes src into tiles following TileLayout.
func Tiles(src Raster, tileSize, stride int) ([]Tile, error) {
	if err := checkRaster(src); err != nil {
		return nil, err
	}
	positions, err := TileLayout(src.Width, src.Height, tileSize, stride)
	if err != nil {
		return nil, err
	}
	tiles := make([]Tile, len(positions))
	for i, pos := range positions {
		tiles[i] = Tile{Position: pos, Size: tileSize}
		tiles[i].Patch = src.Region(tiles[i].Bounds())
	}
	return tiles, nil
}

// TileAndScore decomposes src into tiles, scores each tile against the
// profile, and optionally aggregates the scores into a heatmap. Tiles are
// scored concurrently; the first failure cancels the rest and no partial
// result is returned.
func TileAndScore(ctx context.Context, enc Encoder, src Raster, p *ReferenceProfile, opts TileOptions) (*TileResult, error) {
	if err := checkRaster(src); err != nil {
		return nil, err
	}
	stride := opts.stride()
	positions, err := TileLayout(src.Width, src.Height, opts.TileSize, stride)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	inputSize := enc.InputSize()

	scores := make([]float64, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(positions); start += batchSize {
		end := min(start+batchSize, len(positions))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch := make([]Tensor, 0, end-start)
			for _, pos := range positions[start:end] {
				tile := Tile{Position: pos, Size: opts.TileSize}
				patch := src.Region(tile.Bounds())
				batch = append(batch, toTensor(resizeRaster(patch, inputSize.X, inputSize.Y)))
			}
			embs, err := enc.Embed(gctx, batch)
			if err != nil {
				return fmt.Errorf("embedding tiles %d-%d: %w", start, end, err)
			}
			if len(embs) != len(batch) {
				return fmt.Errorf("encoder returned %d embeddings for %d tiles", len(embs), len(batch))
			}
			for i, e := range embs {
				s, err := ScoreEmbedding(e, p)
				if err != nil {
					return fmt.Errorf("tile at %v: %w", positions[start+i], err)
				}
				scores[start+i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring tiles: %w", err)
	}

	sm := ScoreMap{TileSize: opts.TileSize, Tiles: make([]TileScore, len(positions))}
	for i, pos := range positions {
		sm.Tiles[i] = TileScore{Position: pos, Score: scores[i]}
	}

	result := &TileResult{Width: src.Width, Height: src.Height, ScoreMap: sm}
	if opts.Heatmap {
		result.Heatmap = BuildHeatmap(src.Width, src.Height, sm, workers)
	}
	return result, nil
}
