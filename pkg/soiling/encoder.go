package soiling

import (
	"context"
	"fmt"
	"image"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Encoder maps fixed-size image tensors to unit-normalized embeddings.
// Implementations must be deterministic for a fixed model state and safe
// for concurrent use.
type Encoder interface {
	Embed(ctx context.Context, batch []Tensor) ([]Embedding, error)
	InputSize() image.Point
}

func l2Normalize(v []float64) Embedding {
	n := floats.Norm(v, 2)
	out := make(Embedding, len(v))
	copy(out, v)
	if n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}

// embedInputs preprocesses and embeds inputs in batches of batchSize.
func embedInputs(ctx context.Context, enc Encoder, inputs []ImageInput, batchSize int) ([]Embedding, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	size := enc.InputSize()
	out := make([]Embedding, 0, len(inputs))
	for start := 0; start < len(inputs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(inputs))
		batch := make([]Tensor, 0, end-start)
		for _, in := range inputs[start:end] {
			t, err := Preprocess(in, size)
			if err != nil {
				return nil, err
			}
			batch = append(batch, t)
		}
		embs, err := enc.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(embs) != len(batch) {
			return nil, fmt.Errorf("encoder returned %d embeddings for %d images", len(embs), len(batch))
		}
		out = append(out, embs...)
	}
	return out, nil
}

const (
	histBins = 8
	gridN    = 4
)

// HistogramEncoder is a model-free encoder built from color histograms and
// a coarse grid of luminance and gradient energy. It needs no trained
// weights, so it runs in every build, including WASM.
type HistogramEncoder struct {
	Size image.Point
}

// NewHistogramEncoder returns a HistogramEncoder expecting size x size inputs.
func NewHistogramEncoder(size int) *HistogramEncoder {
	return &HistogramEncoder{Size: image.Pt(size, size)}
}

// InputSize is the tensor size Embed expects.
func (h *HistogramEncoder) InputSize() image.Point { return h.Size }

// Dim is the embedding length produced by Embed.
func (h *HistogramEncoder) Dim() int { return 3*histBins + 2*gridN*gridN }

// Embed returns one unit-length descriptor per tensor.
func (h *HistogramEncoder) Embed(ctx context.Context, batch []Tensor) ([]Embedding, error) {
	out := make([]Embedding, len(batch))
	for i, t := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.Width <= 0 || t.Height <= 0 || len(t.Data) != t.Width*t.Height*3 {
			return nil, fmt.Errorf("malformed tensor %d: %dx%d with %d values", i, t.Width, t.Height, len(t.Data))
		}
		if j := slices.IndexFunc(t.Data, notFinite); j >= 0 {
			return nil, fmt.Errorf("tensor %d: non-finite value at %d", i, j)
		}
		out[i] = l2Normalize(h.features(t))
	}
	return out, nil
}

func notFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func (h *HistogramEncoder) features(t Tensor) []float64 {
	feat := make([]float64, h.Dim())
	hist := feat[:3*histBins]
	lum := feat[3*histBins : 3*histBins+gridN*gridN]
	grad := feat[3*histBins+gridN*gridN:]

	w, ht := t.Width, t.Height
	luminance := make([]float64, w*ht)
	for i := 0; i < w*ht; i++ {
		r, g, b := float64(t.Data[i*3]), float64(t.Data[i*3+1]), float64(t.Data[i*3+2])
		for c, v := range [3]float64{r, g, b} {
			bin := max(0, min(int(v*histBins), histBins-1))
			hist[c*histBins+bin]++
		}
		luminance[i] = 0.299*r + 0.587*g + 0.114*b
	}
	floats.Scale(1/float64(w*ht), hist)

	cellCount := make([]float64, gridN*gridN)
	for y := 0; y < ht; y++ {
		cy := y * gridN / ht
		for x := 0; x < w; x++ {
			cell := cy*gridN + x*gridN/w
			l := luminance[y*w+x]
			lum[cell] += l
			cellCount[cell]++
			if x+1 < w && y+1 < ht {
				gx := luminance[y*w+x+1] - l
				gy := luminance[(y+1)*w+x] - l
				grad[cell] += math.Sqrt(gx*gx + gy*gy)
			}
		}
	}
	for i, n := range cellCount {
		if n > 0 {
			lum[i] /= n
			grad[i] /= n
		}
	}
	return feat
}
