package soiling

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Portable pixel operations. The pure-Go backend uses them directly; the
// native backend falls back to them when a buffer cannot be wrapped.

func resizeRasterBilinear(src Raster, width, height int) Raster {
	if src.Width == width && src.Height == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src.ToImage(), src.Bounds(), draw.Src, nil)
	return RasterFromImage(dst)
}

// jetColor returns the RGB JET color for an 8-bit intensity: blue at 0,
// through cyan, yellow, to red at 255.
func jetColor(v uint8) (uint8, uint8, uint8) {
	x := float64(v) / 255.0
	channel := func(center float64) uint8 {
		c := 1.5 - math.Abs(4*x-center)
		c = math.Max(0, math.Min(1, c))
		return uint8(math.Round(c * 255))
	}
	return channel(3), channel(2), channel(1)
}

func colorizeJetTable(gray []uint8, width, height int) Raster {
	var lut [256][3]uint8
	for i := range lut {
		r, g, b := jetColor(uint8(i))
		lut[i] = [3]uint8{r, g, b}
	}
	out := NewRaster(width, height)
	for i, v := range gray[:width*height] {
		c := lut[v]
		out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = c[0], c[1], c[2]
	}
	return out
}

func blendRastersLinear(base, overlay Raster, alpha, beta float64) Raster {
	out := NewRaster(base.Width, base.Height)
	for i := range out.Pix {
		v := float64(base.Pix[i])*alpha + float64(overlay.Pix[i])*beta
		out.Pix[i] = saturateUint8(v)
	}
	return out
}

func saturateUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
