package soiling

import (
	"fmt"
	"image"
	"image/color"
)

// Raster is an 8-bit RGB pixel buffer, row-major, 3 bytes per pixel.
type Raster struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) Raster {
	return Raster{Pix: make([]uint8, width*height*3), Width: width, Height: height}
}

// Empty reports whether the raster holds no pixels.
func (r Raster) Empty() bool { return r.Width <= 0 || r.Height <= 0 || len(r.Pix) == 0 }

// Valid reports whether Pix holds exactly Width*Height RGB pixels.
func (r Raster) Valid() bool {
	return r.Width > 0 && r.Height > 0 && len(r.Pix) == r.Width*r.Height*3
}

// checkRaster rejects a raster whose buffer does not match its dimensions.
func checkRaster(r Raster) error {
	if r.Empty() {
		return newImageReadError("<pixel buffer>", fmt.Errorf("empty raster"))
	}
	if !r.Valid() {
		return newImageReadError("<pixel buffer>", fmt.Errorf("%dx%d raster has %d bytes, want %d", r.Width, r.Height, len(r.Pix), r.Width*r.Height*3))
	}
	return nil
}

// Bounds returns the raster rectangle anchored at the origin.
func (r Raster) Bounds() image.Rectangle { return image.Rect(0, 0, r.Width, r.Height) }

// At returns the RGB triple at (x, y).
func (r Raster) At(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set writes the RGB triple at (x, y).
func (r Raster) Set(x, y int, red, green, blue uint8) {
	i := (y*r.Width + x) * 3
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// Region copies the pixels inside rect into a new raster.
// rect must lie within the raster bounds.
func (r Raster) Region(rect image.Rectangle) Raster {
	out := NewRaster(rect.Dx(), rect.Dy())
	rowBytes := rect.Dx() * 3
	for y := 0; y < rect.Dy(); y++ {
		srcOff := ((rect.Min.Y+y)*r.Width + rect.Min.X) * 3
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], r.Pix[srcOff:srcOff+rowBytes])
	}
	return out
}

// RasterFromImage converts any image.Image to an RGB raster. Alpha is dropped.
func RasterFromImage(img image.Image) Raster {
	b := img.Bounds()
	out := NewRaster(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				si := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				out.Set(x, y, rgba.Pix[si], rgba.Pix[si+1], rgba.Pix[si+2])
			}
		}
		return out
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			out.Set(x, y, c.R, c.G, c.B)
		}
	}
	return out
}

// ToImage converts the raster to an opaque *image.RGBA.
func (r Raster) ToImage() *image.RGBA {
	img := image.NewRGBA(r.Bounds())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			red, green, blue := r.At(x, y)
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = red, green, blue, 255
		}
	}
	return img
}

// Tensor is an encoder input: H x W x 3 float32 values in [0, 1], RGB order.
type Tensor struct {
	Data   []float32
	Width  int
	Height int
}

// toTensor scales 8-bit intensities to [0, 1].
func toTensor(r Raster) Tensor {
	data := make([]float32, len(r.Pix))
	for i, v := range r.Pix {
		data[i] = float32(v) / 255.0
	}
	return Tensor{Data: data, Width: r.Width, Height: r.Height}
}
