// Package fallback shows a static scene when the animated one cannot run.
package fallback

import (
	"image"
	"image/color"
	"math"
)

var (
	skyTop    = color.RGBA{0x1e, 0x3a, 0x5f, 0xff}
	skyBottom = color.RGBA{0xf4, 0xc0, 0x95, 0xff}
	ridgeFar  = color.RGBA{0x4b, 0x5d, 0x6b, 0xff}
	ridgeNear = color.RGBA{0x22, 0x30, 0x2c, 0xff}
)

// Render draws a sky gradient with two mountain ridges. It is a pure function
// of the size; non-positive sizes yield a 1x1 image.
func Render(width, height int) *image.RGBA {
	width = max(width, 1)
	height = max(height, 1)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		sky := lerp(skyTop, skyBottom, t)
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, sky)
		}
	}

	for x := 0; x < width; x++ {
		u := float64(x) / float64(width)
		far := ridge(u, 0.55, 0.12, 2.3, 7.1)
		near := ridge(u, 0.72, 0.09, 3.7, 11.3)
		fill(img, x, int(far*float64(height)), ridgeFar)
		fill(img, x, int(near*float64(height)), ridgeNear)
	}
	return img
}

// ridge returns the ridge line at u in [0,1] as a fraction of the height,
// measured from the top.
func ridge(u, base, amp, f1, f2 float64) float64 {
	h := math.Sin(u*f1*math.Pi)*0.6 + math.Sin(u*f2*math.Pi+1.3)*0.4
	return base - h*amp
}

func fill(img *image.RGBA, x, from int, c color.RGBA) {
	b := img.Bounds()
	for y := max(from, b.Min.Y); y < b.Max.Y; y++ {
		img.SetRGBA(x, y, c)
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}
