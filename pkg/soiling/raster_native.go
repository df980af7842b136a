//go:build !purego && !js

package soiling

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// Native OpenCV backend for raster I/O and pixel operations.
// Rasters are RGB; OpenCV file I/O and color maps are BGR, so conversions
// happen only at those boundaries.

func rasterToMat(r Raster) (gocv.Mat, error) {
	return gocv.NewMatFromBytes(r.Height, r.Width, gocv.MatTypeCV8UC3, r.Pix)
}

func matToRaster(m gocv.Mat) Raster {
	return Raster{Pix: m.ToBytes(), Width: m.Cols(), Height: m.Rows()}
}

func decodeRasterFile(path string) (Raster, error) {
	if _, err := os.Stat(path); err != nil {
		return Raster{}, newImageReadError(path, err)
	}
	src := gocv.IMRead(path, gocv.IMReadColor)
	defer src.Close()
	if src.Empty() {
		return Raster{}, newImageReadError(path, nil)
	}
	return bgrMatToRaster(src), nil
}

func decodeRasterBytes(data []byte) (Raster, error) {
	src, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return Raster{}, newImageReadError("<memory>", err)
	}
	defer src.Close()
	if src.Empty() {
		return Raster{}, newImageReadError("<memory>", nil)
	}
	return bgrMatToRaster(src), nil
}

func bgrMatToRaster(src gocv.Mat) Raster {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)
	return matToRaster(rgb)
}

func resizeRaster(src Raster, width, height int) Raster {
	if src.Width == width && src.Height == height {
		return src
	}
	m, err := rasterToMat(src)
	if err != nil {
		return resizeRasterBilinear(src, width, height)
	}
	defer m.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(m, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return matToRaster(dst)
}

func colorizeJet(gray []uint8, width, height int) Raster {
	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, gray)
	if err != nil {
		return colorizeJetTable(gray, width, height)
	}
	defer src.Close()
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.ApplyColorMap(src, &bgr, gocv.ColormapJet)
	return bgrMatToRaster(bgr)
}

func blendRasters(base, overlay Raster, alpha, beta float64) Raster {
	a, err := rasterToMat(base)
	if err != nil {
		return blendRastersLinear(base, overlay, alpha, beta)
	}
	defer a.Close()
	b, err := rasterToMat(overlay)
	if err != nil {
		return blendRastersLinear(base, overlay, alpha, beta)
	}
	defer b.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.AddWeighted(a, alpha, b, beta, 0, &dst)
	return matToRaster(dst)
}

func encodeRaster(r Raster, ext string) ([]byte, error) {
	m, err := rasterToBGRMat(r)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	fileExt := gocv.JPEGFileExt
	if strings.EqualFold(ext, ".png") {
		fileExt = gocv.PNGFileExt
	}
	buf, err := gocv.IMEncode(fileExt, m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ext, err)
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func writeRasterFile(path string, r Raster) error {
	m, err := rasterToBGRMat(r)
	if err != nil {
		return err
	}
	defer m.Close()
	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("could not write image: %s (%s)", path, filepath.Ext(path))
	}
	return nil
}

func rasterToBGRMat(r Raster) (gocv.Mat, error) {
	rgb, err := rasterToMat(r)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrapping raster: %w", err)
	}
	defer rgb.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}
