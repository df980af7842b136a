package soiling

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
)

// meanEncoder embeds a tensor as its mean intensity, so against a zero
// reference with MaxDist 1 the score is mean*100.
type meanEncoder struct {
	size  image.Point
	calls atomic.Int32
}

func newMeanEncoder() *meanEncoder { return &meanEncoder{size: image.Pt(8, 8)} }

func (m *meanEncoder) InputSize() image.Point { return m.size }

func (m *meanEncoder) Embed(ctx context.Context, batch []Tensor) ([]Embedding, error) {
	m.calls.Add(1)
	out := make([]Embedding, len(batch))
	for i, t := range batch {
		sum := 0.0
		for _, v := range t.Data {
			sum += float64(v)
		}
		out[i] = Embedding{sum / float64(len(t.Data))}
	}
	return out, nil
}

var errEncoderDown = errors.New("encoder down")

type failingEncoder struct{}

func (failingEncoder) InputSize() image.Point { return image.Pt(8, 8) }

func (failingEncoder) Embed(context.Context, []Tensor) ([]Embedding, error) {
	return nil, errEncoderDown
}

// unitProfile scores a meanEncoder embedding as mean*100.
func unitProfile() *ReferenceProfile {
	return &ReferenceProfile{Reference: Embedding{0}, MinDist: 0, MaxDist: 1, MeanDist: 0.5}
}

func uniformRaster(w, h int, v uint8) Raster {
	r := NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = v
	}
	return r
}
