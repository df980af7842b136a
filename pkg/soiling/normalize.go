package soiling

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// degenerateEpsilon keeps the degenerate-path divisor away from zero.
const degenerateEpsilon = 1e-6

// Normalize maps a raw embedding distance to a severity score.
// MinDist maps to 0 and MaxDist to 100; distances past MaxDist score above
// 100. When calibration collapsed (MaxDist <= MinDist) the score is the
// distance relative to MaxDist instead.
func Normalize(distance float64, p *ReferenceProfile) float64 {
	if distance <= p.MinDist {
		return 0.0
	}
	span := p.MaxDist - p.MinDist
	if span <= 0 {
		return distance / (p.MaxDist + degenerateEpsilon) * 100.0
	}
	return (distance - p.MinDist) / span * 100.0
}

// Distance is the Euclidean distance from e to the profile's reference vector.
func Distance(e Embedding, p *ReferenceProfile) float64 {
	return floats.Distance(e, p.Reference, 2)
}

// ScoreEmbedding computes the normalized score of an embedding.
func ScoreEmbedding(e Embedding, p *ReferenceProfile) (float64, error) {
	if len(e) != len(p.Reference) {
		return 0, fmt.Errorf("%w: embedding has %d dims, reference has %d", ErrDimensionMismatch, len(e), len(p.Reference))
	}
	return Normalize(Distance(e, p), p), nil
}

// Score embeds a single image and returns its normalized score.
func Score(ctx context.Context, enc Encoder, in ImageInput, p *ReferenceProfile) (float64, error) {
	t, err := Preprocess(in, enc.InputSize())
	if err != nil {
		return 0, err
	}
	embs, err := enc.Embed(ctx, []Tensor{t})
	if err != nil {
		return 0, fmt.Errorf("embedding image: %w", err)
	}
	if len(embs) != 1 {
		return 0, fmt.Errorf("encoder returned %d embeddings for 1 image", len(embs))
	}
	return ScoreEmbedding(embs[0], p)
}
