package terrain

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG heightmaps
	_ "image/png"  // PNG heightmaps

	_ "golang.org/x/image/bmp" // BMP heightmaps
)

// DecodeHeightmap decodes a PNG, JPEG or BMP image into a heightmap using
// the luminance of each pixel.
func DecodeHeightmap(data []byte) (*Heightmap, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heightmap: %w", err)
	}

	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("decode heightmap: empty %s image", format)
	}

	hm := &Heightmap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Values: make([]float32, b.Dx()*b.Dy()),
	}
	for y := 0; y < hm.Height; y++ {
		for x := 0; x < hm.Width; x++ {
			gray := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			hm.Values[y*hm.Width+x] = float32(gray.Y) / 0xffff
		}
	}
	return hm, nil
}

// Sample returns the bilinearly interpolated height at normalized
// coordinates (u, v), clamped to the image edges.
func (h *Heightmap) Sample(u, v float32) float32 {
	if h == nil || len(h.Values) == 0 {
		return 0
	}

	fx := clampf(u, 0, 1) * float32(h.Width-1)
	fy := clampf(v, 0, 1) * float32(h.Height-1)

	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, h.Width-1), min(y0+1, h.Height-1)
	tx, ty := fx-float32(x0), fy-float32(y0)

	top := h.at(x0, y0)*(1-tx) + h.at(x1, y0)*tx
	bottom := h.at(x0, y1)*(1-tx) + h.at(x1, y1)*tx
	return top*(1-ty) + bottom*ty
}

func (h *Heightmap) at(x, y int) float32 {
	return h.Values[y*h.Width+x]
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
