package soiling

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"solarsoil/pkg/logger"
)

// Inspector is the inference entry point: it owns the encoder and a loaded
// reference profile and scores images against them.
type Inspector struct {
	cfg     Config
	enc     Encoder
	profile *ReferenceProfile
	log     logger.Logger
}

// NewInspector wires an inspector from already-built parts.
func NewInspector(cfg Config, enc Encoder, profile *ReferenceProfile, log logger.Logger) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if profile == nil || len(profile.Reference) == 0 {
		return nil, fmt.Errorf("%w: inspector needs a calibrated profile", ErrConfiguration)
	}
	if log == nil {
		log = logger.NewNop()
	}
	if err := profile.Validate(); err != nil {
		log.Warnf("calibration looks inconsistent: %v", err)
	}
	if profile.Degenerate() {
		log.Warnf("degenerate calibration (max_dist %.6f <= min_dist %.6f), scores use the fallback scale", profile.MaxDist, profile.MinDist)
	}
	return &Inspector{cfg: cfg, enc: enc, profile: profile, log: log}, nil
}

// OpenInspector loads the calibration artifacts named by cfg and builds the
// configured encoder. Artifact problems surface here, before any scoring.
func OpenInspector(cfg Config, log logger.Logger) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return OpenInspectorWithEncoder(cfg, enc, log)
}

// OpenInspectorWithEncoder is OpenInspector with a caller-built encoder.
// The reference vector must match the encoder's embedding length. On
// failure enc is closed.
func OpenInspectorWithEncoder(cfg Config, enc Encoder, log logger.Logger) (*Inspector, error) {
	insp, err := openWithEncoder(cfg, enc, log)
	if err != nil {
		closeEncoder(enc)
		return nil, err
	}
	return insp, nil
}

func openWithEncoder(cfg Config, enc Encoder, log logger.Logger) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := LoadProfile(cfg.ProfilePaths())
	if err != nil {
		return nil, err
	}
	dim, err := encoderDim(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder self-check: %v", ErrConfiguration, err)
	}
	if dim != len(profile.Reference) {
		return nil, fmt.Errorf("%w: reference has %d dims, encoder produces %d", ErrConfiguration, len(profile.Reference), dim)
	}
	return NewInspector(cfg, enc, profile, log)
}

// encoderDim returns the embedding length of enc, running one forward pass
// on a blank tensor when the encoder does not report it.
func encoderDim(enc Encoder) (int, error) {
	if hd, ok := enc.(interface{ Dim() int }); ok {
		return hd.Dim(), nil
	}
	size := enc.InputSize()
	blank := Tensor{Data: make([]float32, size.X*size.Y*3), Width: size.X, Height: size.Y}
	embs, err := enc.Embed(context.Background(), []Tensor{blank})
	if err != nil {
		return 0, err
	}
	if len(embs) != 1 {
		return 0, fmt.Errorf("encoder returned %d embeddings for 1 tensor", len(embs))
	}
	return len(embs[0]), nil
}

func closeEncoder(enc Encoder) {
	if c, ok := enc.(io.Closer); ok {
		c.Close()
	}
}

// NewEncoder builds the encoder selected by cfg: the DNN model at ModelPath,
// or the built-in histogram encoder when no model is configured.
func NewEncoder(cfg Config) (Encoder, error) {
	if cfg.ModelPath == "" {
		return NewHistogramEncoder(cfg.ImageSize), nil
	}
	enc, err := NewDNNEncoder(cfg.ModelPath, cfg.InputSize())
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// Profile returns the loaded reference profile.
func (in *Inspector) Profile() *ReferenceProfile { return in.profile }

// Encoder returns the encoder in use.
func (in *Inspector) Encoder() Encoder { return in.enc }

// ScoreImage scores a whole image file. The result is >= 0 and may exceed 100.
func (in *Inspector) ScoreImage(ctx context.Context, path string) (float64, error) {
	return in.Score(ctx, FilePath(path))
}

// Score scores any image input.
func (in *Inspector) Score(ctx context.Context, input ImageInput) (float64, error) {
	start := time.Now()
	score, err := Score(ctx, in.enc, input, in.profile)
	if err != nil {
		return 0, err
	}
	in.log.Debugf("scored %s: %.3f (%s) in %s", describeInput(input), score, Classify(score), time.Since(start))
	return score, nil
}

// TileReport is the result of TileScores.
type TileReport struct {
	Positions []image.Point
	Scores    []float64
	Result    *TileResult
	Source    Raster
	Overlay   *Raster // nil unless a heatmap was requested
}

// TileScores decomposes the image at path into tileSize tiles spaced by
// stride (0 = tileSize), scores every tile, and when wantHeatmap is set
// returns an overlay of the heatmap on the source image.
func (in *Inspector) TileScores(ctx context.Context, path string, tileSize, stride int, wantHeatmap bool) (*TileReport, error) {
	src, err := LoadRaster(path)
	if err != nil {
		return nil, err
	}
	return in.TileScoresRaster(ctx, src, tileSize, stride, wantHeatmap)
}

// TileScoresRaster is TileScores for an in-memory raster.
func (in *Inspector) TileScoresRaster(ctx context.Context, src Raster, tileSize, stride int, wantHeatmap bool) (*TileReport, error) {
	opts := in.cfg.TileOptions(wantHeatmap)
	opts.TileSize = tileSize
	opts.Stride = stride

	start := time.Now()
	res, err := TileAndScore(ctx, in.enc, src, in.profile, opts)
	if err != nil {
		return nil, err
	}
	in.log.Debugf("scored %d tiles of %dx%d image in %s", len(res.ScoreMap.Tiles), src.Width, src.Height, time.Since(start))

	report := &TileReport{
		Positions: res.ScoreMap.Positions(),
		Scores:    res.ScoreMap.Scores(),
		Result:    res,
		Source:    src,
	}
	if res.Heatmap != nil {
		overlay, err := res.Heatmap.Overlay(src, in.cfg.OverlayAlpha, in.cfg.OverlayBeta)
		if err != nil {
			return nil, err
		}
		report.Overlay = &overlay
	}
	return report, nil
}

// Close releases the encoder if it holds resources.
func (in *Inspector) Close() error {
	if c, ok := in.enc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func describeInput(input ImageInput) string {
	switch v := input.(type) {
	case FilePath:
		return string(v)
	case PixelBuffer:
		return fmt.Sprintf("<%dx%d pixel buffer>", v.Raster.Width, v.Raster.Height)
	default:
		return fmt.Sprintf("%T", input)
	}
}
