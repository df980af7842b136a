//go:build !purego && !js

package soiling

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// DNNEncoder runs an exported encoder network (ONNX, TensorFlow, Caffe or
// any format OpenCV's dnn module reads). The network takes NCHW float32 input
// in [0, 1] and returns one D-dimensional row per image.
type DNNEncoder struct {
	mu   sync.Mutex
	net  gocv.Net
	size image.Point
}

// NewDNNEncoder loads the network at modelPath.
func NewDNNEncoder(modelPath string, inputSize image.Point) (*DNNEncoder, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("%w: could not load encoder model %s", ErrConfiguration, modelPath)
	}
	return &DNNEncoder{net: net, size: inputSize}, nil
}

// InputSize is the network input size.
func (d *DNNEncoder) InputSize() image.Point { return d.size }

// Embed runs one forward pass over the batch and L2-normalizes each output row.
func (d *DNNEncoder) Embed(ctx context.Context, batch []Tensor) ([]Embedding, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mats := make([]gocv.Mat, 0, len(batch))
	defer func() {
		for i := range mats {
			mats[i].Close()
		}
	}()
	for i, t := range batch {
		if t.Width != d.size.X || t.Height != d.size.Y {
			return nil, fmt.Errorf("tensor %d is %dx%d, encoder expects %dx%d", i, t.Width, t.Height, d.size.X, d.size.Y)
		}
		m := gocv.NewMatWithSize(t.Height, t.Width, gocv.MatTypeCV32FC3)
		data, err := m.DataPtrFloat32()
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("tensor %d: %w", i, err)
		}
		copy(data, t.Data)
		mats = append(mats, m)
	}

	blob := gocv.NewMat()
	defer blob.Close()
	gocv.BlobFromImages(mats, &blob, 1.0, d.size, gocv.NewScalar(0, 0, 0, 0), false, false, gocv.MatTypeCV32F)

	// gocv.Net is not safe for concurrent use.
	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading encoder output: %w", err)
	}
	if len(values)%len(batch) != 0 {
		return nil, fmt.Errorf("encoder output of %d values does not split into %d rows", len(values), len(batch))
	}
	dim := len(values) / len(batch)
	embs := make([]Embedding, len(batch))
	for i := range batch {
		row := make([]float64, dim)
		for j := 0; j < dim; j++ {
			row[j] = float64(values[i*dim+j])
		}
		embs[i] = l2Normalize(row)
	}
	return embs, nil
}

// Close releases the network.
func (d *DNNEncoder) Close() error {
	return d.net.Close()
}
