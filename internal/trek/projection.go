package trek

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/Faultbox/trekscape/pkg/math"
)

// DefaultFill is the share of the terrain extent the payload's longest side spans.
const DefaultFill = 0.8

// Projector maps WGS84 coordinates into scene space. It is derived once from a
// payload so that the route and every marker share one frame of reference:
// longitude grows along +X, latitude grows along -Z, Y is zero.
type Projector struct {
	toMercator func(a, b, c float64) (float64, float64, float64)
	centerX    float64
	centerY    float64
	scale      float64
}

// NewProjector fits the payload's bounding box (in Web Mercator) into a square
// of side extent*fill centred on the origin. A payload with zero or one distinct
// position projects everything onto the origin.
func NewProjector(t *Trek, extent, fill float64) *Projector {
	if fill <= 0 {
		fill = DefaultFill
	}
	p := &Projector{
		toMercator: wgs84.EPSG().Transform(4326, 3857),
	}

	seq := p.sequence(t.Coordinates())
	if seq.Length() == 0 {
		return p
	}

	first := seq.GetXY(0)
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for i := 1; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		minX = min(minX, xy.X)
		maxX = max(maxX, xy.X)
		minY = min(minY, xy.Y)
		maxY = max(maxY, xy.Y)
	}
	p.centerX = (minX + maxX) / 2
	p.centerY = (minY + maxY) / 2

	span := max(maxX-minX, maxY-minY)
	if span > 0 {
		p.scale = extent * fill / span
	}
	return p
}

// Mercator returns the EPSG:3857 easting/northing of c in metres.
func (p *Projector) Mercator(c Coordinate) (x, y float64) {
	x, y, _ = p.toMercator(c.Lng, c.Lat, 0)
	return x, y
}

// Project returns the scene-space position of c.
func (p *Projector) Project(c Coordinate) math.Vec3 {
	x, y := p.Mercator(c)
	return math.Vec3{
		X: float32((x - p.centerX) * p.scale),
		Y: 0,
		Z: float32(-(y - p.centerY) * p.scale),
	}
}

// ProjectAll projects coordinates in order.
func (p *Projector) ProjectAll(coords []Coordinate) []math.Vec3 {
	out := make([]math.Vec3, len(coords))
	for i, c := range coords {
		out[i] = p.Project(c)
	}
	return out
}

// RouteLength returns the route length in Web Mercator metres. Mercator
// stretches distances away from the equator, so this is only used for logging.
// A route with fewer than two distinct positions has zero length.
func (p *Projector) RouteLength(coords []Coordinate) (float64, error) {
	seq := p.sequence(coords)
	if !distinctXY(seq) {
		return 0, nil
	}
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return 0, fmt.Errorf("building route line: %w", err)
	}
	return ls.Length(), nil
}

func (p *Projector) sequence(coords []Coordinate) geom.Sequence {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		x, y := p.Mercator(c)
		flat = append(flat, x, y)
	}
	return geom.NewSequence(flat, geom.DimXY)
}

// distinctXY reports whether seq holds at least two different positions.
func distinctXY(seq geom.Sequence) bool {
	if seq.Length() < 2 {
		return false
	}
	first := seq.GetXY(0)
	for i := 1; i < seq.Length(); i++ {
		if seq.GetXY(i) != first {
			return true
		}
	}
	return false
}
