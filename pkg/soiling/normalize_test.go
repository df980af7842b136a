package soiling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := &ReferenceProfile{Reference: Embedding{0}, MinDist: 1, MaxDist: 4.8, MeanDist: 3}

	tests := map[string]struct {
		distance float64
		want     float64
	}{
		"below min":      {distance: 0.5, want: 0},
		"at min":         {distance: 1, want: 0},
		"at max":         {distance: 4.8, want: 100},
		"mid scale":      {distance: 3, want: 52.631578947},
		"beyond max":     {distance: 8.6, want: 200},
		"zero distance":  {distance: 0, want: 0},
		"just above min": {distance: 1.038, want: 1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Normalize(tc.distance, p), 1e-6)
		})
	}
}

func TestNormalize_Monotonic(t *testing.T) {
	p := &ReferenceProfile{Reference: Embedding{0}, MinDist: 0.2, MaxDist: 0.9, MeanDist: 0.5}
	prev := Normalize(0, p)
	for d := 0.0; d < 3; d += 0.01 {
		s := Normalize(d, p)
		assert.GreaterOrEqual(t, s, prev, "distance %.2f", d)
		assert.GreaterOrEqual(t, s, 0.0)
		prev = s
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	p := &ReferenceProfile{Reference: Embedding{0}, MinDist: 2, MaxDist: 2, MeanDist: 2}
	require.True(t, p.Degenerate())

	assert.Equal(t, 0.0, Normalize(1.5, p))
	assert.Equal(t, 0.0, Normalize(2, p))
	assert.InDelta(t, 3/(2+1e-6)*100, Normalize(3, p), 1e-9)

	inverted := &ReferenceProfile{Reference: Embedding{0}, MinDist: 2, MaxDist: 1, MeanDist: 2}
	assert.InDelta(t, 3/(1+1e-6)*100, Normalize(3, inverted), 1e-9)
}

func TestScoreEmbedding(t *testing.T) {
	p := &ReferenceProfile{Reference: Embedding{0, 0}, MinDist: 0, MaxDist: 5, MeanDist: 2}

	s, err := ScoreEmbedding(Embedding{3, 4}, p)
	require.NoError(t, err)
	assert.InDelta(t, 100, s, 1e-9)

	_, err = ScoreEmbedding(Embedding{1, 2, 3}, p)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestScore_PixelBuffer(t *testing.T) {
	enc := newMeanEncoder()
	s, err := Score(context.Background(), enc, PixelBuffer{Raster: uniformRaster(20, 10, 51)}, unitProfile())
	require.NoError(t, err)
	assert.InDelta(t, 20, s, 0.5)

	_, err = Score(context.Background(), enc, PixelBuffer{}, unitProfile())
	assert.ErrorIs(t, err, ErrImageRead)
}
