//go:build purego || js

package soiling

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Pure Go backend for raster I/O and pixel operations.

func decodeRasterFile(path string) (Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return Raster{}, newImageReadError(path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Raster{}, newImageReadError(path, err)
	}
	return RasterFromImage(img), nil
}

func decodeRasterBytes(data []byte) (Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Raster{}, newImageReadError("<memory>", err)
	}
	return RasterFromImage(img), nil
}

func resizeRaster(src Raster, width, height int) Raster {
	return resizeRasterBilinear(src, width, height)
}

func colorizeJet(gray []uint8, width, height int) Raster {
	return colorizeJetTable(gray, width, height)
}

func blendRasters(base, overlay Raster, alpha, beta float64) Raster {
	return blendRastersLinear(base, overlay, alpha, beta)
}

func encodeRaster(r Raster, ext string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if strings.EqualFold(ext, ".png") {
		err = png.Encode(&buf, r.ToImage())
	} else {
		err = jpeg.Encode(&buf, r.ToImage(), &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ext, err)
	}
	return buf.Bytes(), nil
}

func writeRasterFile(path string, r Raster) error {
	data, err := encodeRaster(r, filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write image: %w", err)
	}
	return nil
}
