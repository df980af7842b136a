package soiling

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when calibration gets an empty clean or dirty set.
	ErrInsufficientData = errors.New("insufficient calibration data")
	// ErrInvalidTileSize is returned when a tile does not fit the image or the stride would leave gaps.
	ErrInvalidTileSize = errors.New("invalid tile size")
	// ErrConfiguration is returned for unreadable or incomplete configuration and calibration artifacts.
	ErrConfiguration = errors.New("configuration error")
	// ErrImageRead matches every *ImageReadError via errors.Is.
	ErrImageRead = errors.New("image read error")
	// ErrDimensionMismatch is returned when embeddings of different lengths are mixed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrBackendUnavailable is returned by features that need the native OpenCV backend.
	ErrBackendUnavailable = errors.New("not supported by this build")
)

// ImageReadError reports an unreadable or corrupt source image.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not read image: %s", e.Path)
	}
	return fmt.Sprintf("could not read image %s: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrImageRead) match any ImageReadError.
func (e *ImageReadError) Is(target error) bool { return target == ErrImageRead }

func newImageReadError(path string, err error) error {
	return &ImageReadError{Path: path, Err: err}
}
