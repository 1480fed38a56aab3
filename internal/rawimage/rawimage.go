// Package rawimage decodes the native raw-image clipboard payloads
// (Windows DIBs, macOS pasteboard TIFFs) into tightly packed 8-bit RGB
// rows.
package rawimage

import (
	"image"
)

// Image is a decoded clipboard image. Pix holds Width*Height*3 bytes of
// row-major RGB data with no padding.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// fromImage flattens any decoded image into packed RGB rows.
func fromImage(m image.Image) *Image {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Image{Pix: make([]byte, w*h*3), Width: w, Height: h}

	switch src := m.(type) {
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			o := y * w * 3
			for x := 0; x < w; x++ {
				out.Pix[o+x*3+0] = row[x*4+0]
				out.Pix[o+x*3+1] = row[x*4+1]
				out.Pix[o+x*3+2] = row[x*4+2]
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			o := y * w * 3
			for x := 0; x < w; x++ {
				out.Pix[o+x*3+0] = row[x*4+0]
				out.Pix[o+x*3+1] = row[x*4+1]
				out.Pix[o+x*3+2] = row[x*4+2]
			}
		}
	default:
		for y := 0; y < h; y++ {
			o := y * w * 3
			for x := 0; x < w; x++ {
				r, g, bl, _ := m.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Pix[o+x*3+0] = byte(r >> 8)
				out.Pix[o+x*3+1] = byte(g >> 8)
				out.Pix[o+x*3+2] = byte(bl >> 8)
			}
		}
	}
	return out
}
