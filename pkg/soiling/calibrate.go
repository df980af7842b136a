package soiling

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CalibrationPercentile is the percentile of dirty-sample distances used as
// the upper anchor (score 100) of the distance scale.
const CalibrationPercentile = 95.0

// Calibrate builds a ReferenceProfile from clean and dirty sample embeddings.
// The reference vector is the componentwise mean of the clean embeddings;
// the distance statistics come from the dirty embeddings' distances to it.
// The result does not depend on the order of either input.
func Calibrate(clean, dirty []Embedding) (*ReferenceProfile, error) {
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no clean samples", ErrInsufficientData)
	}
	if len(dirty) == 0 {
		return nil, fmt.Errorf("%w: no dirty samples", ErrInsufficientData)
	}

	dim := len(clean[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length clean embedding", ErrDimensionMismatch)
	}
	reference := make(Embedding, dim)
	for i, e := range clean {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: clean sample %d has %d dims, want %d", ErrDimensionMismatch, i, len(e), dim)
		}
		floats.Add(reference, e)
	}
	floats.Scale(1/float64(len(clean)), reference)

	distances := make([]float64, len(dirty))
	for i, e := range dirty {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: dirty sample %d has %d dims, want %d", ErrDimensionMismatch, i, len(e), dim)
		}
		distances[i] = floats.Distance(e, reference, 2)
	}

	return &ReferenceProfile{
		Reference: reference,
		MinDist:   floats.Min(distances),
		MaxDist:   Percentile(distances, CalibrationPercentile),
		MeanDist:  stat.Mean(distances, nil),
	}, nil
}

// CalibrateImages embeds the clean and dirty image sets in batches of
// batchSize and calibrates on the result.
func CalibrateImages(ctx context.Context, enc Encoder, clean, dirty []ImageInput, batchSize int) (*ReferenceProfile, error) {
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no clean images", ErrInsufficientData)
	}
	if len(dirty) == 0 {
		return nil, fmt.Errorf("%w: no dirty images", ErrInsufficientData)
	}
	cleanEmbs, err := embedInputs(ctx, enc, clean, batchSize)
	if err != nil {
		return nil, fmt.Errorf("embedding clean samples: %w", err)
	}
	dirtyEmbs, err := embedInputs(ctx, enc, dirty, batchSize)
	if err != nil {
		return nil, fmt.Errorf("embedding dirty samples: %w", err)
	}
	return Calibrate(cleanEmbs, dirtyEmbs)
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between the closest order statistics, rank h = (n-1)*p/100.
// values is not modified. An empty input yields NaN.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(100, p))
	h := float64(n-1) * p / 100.0
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
