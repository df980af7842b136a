package soiling

import (
	"fmt"
	"image"
)

// ImageInput is either a FilePath or a PixelBuffer.
type ImageInput interface {
	imageInput()
}

// FilePath names an image file on disk.
type FilePath string

// PixelBuffer is an already-decoded raster.
type PixelBuffer struct {
	Raster Raster
}

func (FilePath) imageInput()    {}
func (PixelBuffer) imageInput() {}

// LoadRaster decodes an image file into an RGB raster.
// Failures are returned as *ImageReadError.
func LoadRaster(path string) (Raster, error) {
	return decodeRasterFile(path)
}

// DecodeRaster decodes an in-memory JPEG, PNG or other supported image.
func DecodeRaster(data []byte) (Raster, error) {
	return decodeRasterBytes(data)
}

// SaveRaster writes the raster to path; the extension selects the format.
func SaveRaster(path string, r Raster) error {
	if err := checkRaster(r); err != nil {
		return err
	}
	return writeRasterFile(path, r)
}

// EncodeRaster encodes the raster as ".jpg" or ".png" bytes.
func EncodeRaster(r Raster, ext string) ([]byte, error) {
	if err := checkRaster(r); err != nil {
		return nil, err
	}
	return encodeRaster(r, ext)
}

// ResizeRaster resizes with bilinear interpolation.
func ResizeRaster(r Raster, width, height int) Raster {
	return resizeRaster(r, width, height)
}

// Preprocess turns an input into an encoder tensor of the given size.
func Preprocess(in ImageInput, size image.Point) (Tensor, error) {
	var src Raster
	switch v := in.(type) {
	case FilePath:
		r, err := decodeRasterFile(string(v))
		if err != nil {
			return Tensor{}, err
		}
		src = r
	case PixelBuffer:
		if err := checkRaster(v.Raster); err != nil {
			return Tensor{}, err
		}
		src = v.Raster
	default:
		return Tensor{}, fmt.Errorf("unsupported image input %T", in)
	}
	return toTensor(resizeRaster(src, size.X, size.Y)), nil
}
