package renderer

import "math"

// octahedron returns a unit diamond as a flat triangle list (xyz per vertex).
func octahedron() []float32 {
	top := [3]float32{0, 1, 0}
	bottom := [3]float32{0, -1, 0}
	ring := [4][3]float32{{1, 0, 0}, {0, 0, -1}, {-1, 0, 0}, {0, 0, 1}}

	out := make([]float32, 0, 8*3*3)
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		out = append(out, top[:]...)
		out = append(out, a[:]...)
		out = append(out, b[:]...)
		out = append(out, bottom[:]...)
		out = append(out, b[:]...)
		out = append(out, a[:]...)
	}
	return out
}

// circle returns segments points of a unit circle in the XZ plane, for
// drawing as a line loop.
func circle(segments int) []float32 {
	out := make([]float32, 0, segments*3)
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		out = append(out, float32(math.Cos(a)), 0, float32(math.Sin(a)))
	}
	return out
}
