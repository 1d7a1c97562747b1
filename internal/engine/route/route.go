// Package route animates the progressive reveal of the trek polyline.
package route

import (
	"github.com/Faultbox/trekscape/pkg/math"
)

// DefaultStep is the number of points revealed per frame.
const DefaultStep = 3

// Config controls route appearance and reveal speed.
type Config struct {
	Step      int        `yaml:"step"`
	Elevation float32    `yaml:"elevation"` // clearance above the terrain surface
	Color     [3]float32 `yaml:"color"`
}

// DefaultConfig returns the default route configuration.
func DefaultConfig() Config {
	return Config{
		Step:      DefaultStep,
		Elevation: 8,
		Color:     [3]float32{0.23, 0.51, 0.96},
	}
}

// Path holds the projected route and how much of it is currently shown.
// The revealed count only grows; once it reaches the total it holds there.
type Path struct {
	points   []float32 // x,y,z per point
	total    int
	revealed int
	step     int
}

// New creates a path over points. It returns nil when points is empty.
// A step below 1 falls back to DefaultStep.
func New(points []math.Vec3, step int) *Path {
	if len(points) == 0 {
		return nil
	}
	if step < 1 {
		step = DefaultStep
	}

	p := &Path{
		points: make([]float32, 0, len(points)*3),
		total:  len(points),
		step:   step,
	}
	for _, pt := range points {
		p.points = append(p.points, pt.X, pt.Y, pt.Z)
	}
	return p
}

// Step reveals the next batch of points.
func (p *Path) Step() {
	if p.revealed >= p.total {
		return
	}
	p.revealed = min(p.revealed+p.step, p.total)
}

// SetGround rests every point clearance above ground(x, z). It may be called
// again when the ground changes.
func (p *Path) SetGround(ground func(x, z float32) float32, clearance float32) {
	for i := 0; i < len(p.points); i += 3 {
		p.points[i+1] = ground(p.points[i], p.points[i+2]) + clearance
	}
}

// Revealed returns the number of points currently shown.
func (p *Path) Revealed() int {
	return p.revealed
}

// Total returns the number of points on the route.
func (p *Path) Total() int {
	return p.total
}

// Visible returns the revealed prefix as a flat xyz slice. Callers must not
// modify it.
func (p *Path) Visible() []float32 {
	return p.points[:p.revealed*3]
}

// Points returns the whole route as a flat xyz slice.
func (p *Path) Points() []float32 {
	return p.points
}

// Done reports whether the whole route is shown.
func (p *Path) Done() bool {
	return p.revealed == p.total
}

// Progress returns the revealed fraction in [0, 1].
func (p *Path) Progress() float32 {
	return float32(p.revealed) / float32(p.total)
}
