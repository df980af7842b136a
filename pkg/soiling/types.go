package soiling

import (
	"fmt"
	"image"
)

// Embedding is a fixed-length, L2-normalized feature vector for one image or tile.
type Embedding []float64

// Dim returns the embedding dimension.
func (e Embedding) Dim() int { return len(e) }

// ReferenceProfile is the calibration state used to turn distances into scores.
// It is built once by Calibrate and never mutated afterwards.
type ReferenceProfile struct {
	Reference Embedding
	MinDist   float64
	MaxDist   float64 // 95th percentile of dirty-sample distances
	MeanDist  float64
}

// Span is MaxDist - MinDist. A non-positive span selects the degenerate
// normalization path.
func (p *ReferenceProfile) Span() float64 { return p.MaxDist - p.MinDist }

// Degenerate reports whether the distance scale collapsed during calibration.
func (p *ReferenceProfile) Degenerate() bool { return p.Span() <= 0 }

// Validate checks the ordering invariants between the calibration statistics.
// A violation points at a calibration data problem; callers log it and keep going.
func (p *ReferenceProfile) Validate() error {
	if len(p.Reference) == 0 {
		return fmt.Errorf("%w: empty reference vector", ErrConfiguration)
	}
	if p.MinDist > p.MeanDist {
		return fmt.Errorf("min_dist %.6f exceeds mean_dist %.6f", p.MinDist, p.MeanDist)
	}
	if p.MinDist > p.MaxDist {
		return fmt.Errorf("min_dist %.6f exceeds max_dist %.6f", p.MinDist, p.MaxDist)
	}
	return nil
}

func (p *ReferenceProfile) String() string {
	return fmt.Sprintf("{Dim=%d, MinDist=%f, MaxDist=%f, MeanDist=%f}",
		len(p.Reference), p.MinDist, p.MaxDist, p.MeanDist)
}

// Tile is a square sub-region of a source image.
type Tile struct {
	Position image.Point // top-left pixel offset
	Size     int
	Patch    Raster
}

// Bounds returns the pixel rectangle covered by the tile.
func (t Tile) Bounds() image.Rectangle {
	return image.Rect(t.Position.X, t.Position.Y, t.Position.X+t.Size, t.Position.Y+t.Size)
}

// TileScore is one entry of a ScoreMap.
type TileScore struct {
	Position image.Point
	Score    float64
}

// ScoreMap holds per-tile scores in decomposition order.
type ScoreMap struct {
	TileSize int
	Tiles    []TileScore
}

// Positions returns the tile positions in order.
func (s ScoreMap) Positions() []image.Point {
	out := make([]image.Point, len(s.Tiles))
	for i, t := range s.Tiles {
		out[i] = t.Position
	}
	return out
}

// Scores returns the tile scores in order.
func (s ScoreMap) Scores() []float64 {
	out := make([]float64, len(s.Tiles))
	for i, t := range s.Tiles {
		out[i] = t.Score
	}
	return out
}

// Max returns the highest tile score, or 0 for an empty map.
func (s ScoreMap) Max() float64 {
	best := 0.0
	for _, t := range s.Tiles {
		if t.Score > best {
			best = t.Score
		}
	}
	return best
}

// Mean returns the average tile score, or 0 for an empty map.
func (s ScoreMap) Mean() float64 {
	if len(s.Tiles) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range s.Tiles {
		sum += t.Score
	}
	return sum / float64(len(s.Tiles))
}

// TileResult is the output of TileAndScore.
type TileResult struct {
	Width    int
	Height   int
	ScoreMap ScoreMap
	Heatmap  *Heatmap // nil unless requested
}

// DirtCategory is a discrete severity label derived from a score.
type DirtCategory int

const (
	Clean DirtCategory = iota
	Light
	Moderate
	Heavy
)

func (c DirtCategory) String() string {
	switch c {
	case Clean:
		return "CLEAN"
	case Light:
		return "LIGHT"
	case Moderate:
		return "MODERATE"
	case Heavy:
		return "HEAVY"
	default:
		return "UNKNOWN"
	}
}
