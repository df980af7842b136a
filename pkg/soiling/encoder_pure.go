//go:build purego || js

package soiling

import (
	"context"
	"fmt"
	"image"
)

// DNNEncoder needs OpenCV's dnn module and is unavailable in pure Go builds.
type DNNEncoder struct{}

func NewDNNEncoder(modelPath string, _ image.Point) (*DNNEncoder, error) {
	return nil, fmt.Errorf("loading encoder model %s: %w", modelPath, ErrBackendUnavailable)
}

func (d *DNNEncoder) InputSize() image.Point { return image.Point{} }

func (d *DNNEncoder) Embed(context.Context, []Tensor) ([]Embedding, error) {
	return nil, ErrBackendUnavailable
}

func (d *DNNEncoder) Close() error { return nil }
