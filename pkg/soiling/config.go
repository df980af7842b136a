package soiling

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"runtime"

	"go.yaml.in/yaml/v3"
)

// Config holds the settings components are constructed with.
type Config struct {
	TileSize  int `yaml:"tile_size"`
	Stride    int `yaml:"stride"`
	ImageSize int `yaml:"image_size"` // square encoder input edge

	ReferenceArtifactPath   string `yaml:"reference_artifact_path"`
	CalibrationArtifactPath string `yaml:"calibration_artifact_path"`
	ModelPath               string `yaml:"model_path"` // empty selects the histogram encoder

	Workers      int     `yaml:"workers"`
	BatchSize    int     `yaml:"batch_size"`
	OverlayAlpha float64 `yaml:"overlay_alpha"`
	OverlayBeta  float64 `yaml:"overlay_beta"`

	HistoryDBPath string `yaml:"history_db_path"` // empty disables history
	LogLevel      string `yaml:"log_level"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		TileSize:                224,
		Stride:                  112,
		ImageSize:               224,
		ReferenceArtifactPath:   "models/clean_reference.f32",
		CalibrationArtifactPath: "models/calibration.json",
		Workers:                 optimalWorkers(),
		BatchSize:               16,
		OverlayAlpha:            DefaultOverlayAlpha,
		OverlayBeta:             DefaultOverlayBeta,
		LogLevel:                "info",
	}
}

// optimalWorkers leaves a quarter of the CPUs free for cgo image work.
func optimalWorkers() int {
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}

// LoadConfig reads a YAML file over DefaultConfig. A missing file is an
// error; absent keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: opening config: %v", ErrConfiguration, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: parsing config %s: %v", ErrConfiguration, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile_size must be positive, got %d", ErrConfiguration, c.TileSize)
	case c.Stride < 0 || c.Stride > c.TileSize:
		return fmt.Errorf("%w: stride must be in [0, tile_size], got %d", ErrConfiguration, c.Stride)
	case c.ImageSize <= 0:
		return fmt.Errorf("%w: image_size must be positive, got %d", ErrConfiguration, c.ImageSize)
	case c.ReferenceArtifactPath == "" || c.CalibrationArtifactPath == "":
		return fmt.Errorf("%w: artifact paths must be set", ErrConfiguration)
	case c.OverlayAlpha < 0 || c.OverlayBeta < 0:
		return fmt.Errorf("%w: overlay weights must be non-negative", ErrConfiguration)
	}
	return nil
}

// InputSize is the encoder input size.
func (c Config) InputSize() image.Point { return image.Pt(c.ImageSize, c.ImageSize) }

// ProfilePaths returns the calibration artifact locations.
func (c Config) ProfilePaths() ProfilePaths {
	return ProfilePaths{Reference: c.ReferenceArtifactPath, Calibration: c.CalibrationArtifactPath}
}

// TileOptions returns tiling options derived from the config.
func (c Config) TileOptions(heatmap bool) TileOptions {
	return TileOptions{
		TileSize:  c.TileSize,
		Stride:    c.Stride,
		Heatmap:   heatmap,
		Workers:   c.Workers,
		BatchSize: c.BatchSize,
	}
}
