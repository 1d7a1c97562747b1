package terrain

import (
	"math"
)

// Generator owns the terrain grid buffers. Positions and normals are flat
// xyz arrays of (Rows+1)*(Cols+1) vertices; indices describe two triangles per
// grid cell and never change after NewGenerator returns.
type Generator struct {
	rows, cols   int
	width, depth float32
	stepX, stepZ float32
	disp         Displacement
	heightmap    *Heightmap
	baseScale    float32

	base      []float32 // static per-vertex height from the heightmap
	positions []float32
	normals   []float32
	indices   []uint32
}

// NewGenerator builds the vertex grid. hm may be nil for a flat base.
func NewGenerator(cfg Config, hm *Heightmap) *Generator {
	if cfg.Rows < 1 {
		cfg.Rows = 1
	}
	if cfg.Cols < 1 {
		cfg.Cols = 1
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultDepth
	}

	g := &Generator{
		rows:      cfg.Rows,
		cols:      cfg.Cols,
		width:     cfg.Width,
		depth:     cfg.Depth,
		stepX:     cfg.Width / float32(cfg.Cols),
		stepZ:     cfg.Depth / float32(cfg.Rows),
		disp:      cfg.Displacement,
		heightmap: hm,
		baseScale: cfg.BaseScale,
	}

	n := (g.rows + 1) * (g.cols + 1)
	g.base = make([]float32, n)
	g.positions = make([]float32, n*3)
	g.normals = make([]float32, n*3)

	for i := 0; i <= g.rows; i++ {
		z := -g.depth/2 + float32(i)*g.stepZ
		for j := 0; j <= g.cols; j++ {
			x := -g.width/2 + float32(j)*g.stepX
			v := i*(g.cols+1) + j
			g.base[v] = g.baseHeight(x, z)
			g.positions[v*3] = x
			g.positions[v*3+1] = g.base[v]
			g.positions[v*3+2] = z
			g.normals[v*3+1] = 1
		}
	}

	g.indices = make([]uint32, 0, g.rows*g.cols*6)
	stride := uint32(g.cols + 1)
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + 1
			c := a + stride
			d := c + 1
			// Counter-clockwise seen from +Y.
			g.indices = append(g.indices, a, c, b, b, c, d)
		}
	}

	return g
}

func (g *Generator) baseHeight(x, z float32) float32 {
	if g.heightmap == nil {
		return 0
	}
	u := (x + g.width/2) / g.width
	v := (z + g.depth/2) / g.depth
	return g.heightmap.Sample(u, v) * g.baseScale
}

// Height returns the surface height at (x, z) for elapsed time t.
// It is a pure function of its arguments.
func (g *Generator) Height(x, z float32, t float64) float32 {
	return g.baseHeight(x, z) + float32(g.disp.Height(float64(x), float64(z), t))
}

// Ceiling returns the highest the surface at (x, z) ever rises: the base
// height plus the displacement peak. Anything resting on the ceiling stays
// clear of the animated surface.
func (g *Generator) Ceiling(x, z float32) float32 {
	return g.baseHeight(x, z) + float32(g.disp.Peak())
}

// Update rewrites every vertex height for elapsed time t and recomputes normals.
func (g *Generator) Update(t float64) {
	for v := range g.base {
		x := float64(g.positions[v*3])
		z := float64(g.positions[v*3+2])
		g.positions[v*3+1] = g.base[v] + float32(g.disp.Height(x, z, t))
	}
	g.updateNormals()
}

// updateNormals uses central differences over grid neighbours, falling back
// to one-sided differences on the border.
func (g *Generator) updateNormals() {
	stride := g.cols + 1
	for i := 0; i <= g.rows; i++ {
		i0, i1 := max(i-1, 0), min(i+1, g.rows)
		for j := 0; j <= g.cols; j++ {
			j0, j1 := max(j-1, 0), min(j+1, g.cols)

			hl := g.positions[(i*stride+j0)*3+1]
			hr := g.positions[(i*stride+j1)*3+1]
			hd := g.positions[(i0*stride+j)*3+1]
			hu := g.positions[(i1*stride+j)*3+1]

			dx := (hr - hl) / (float32(j1-j0) * g.stepX)
			dz := (hu - hd) / (float32(i1-i0) * g.stepZ)

			nx, ny, nz := -dx, float32(1), -dz
			l := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))

			v := (i*stride + j) * 3
			g.normals[v] = nx / l
			g.normals[v+1] = ny / l
			g.normals[v+2] = nz / l
		}
	}
}

// Rows returns the number of grid cells along Z.
func (g *Generator) Rows() int { return g.rows }

// Cols returns the number of grid cells along X.
func (g *Generator) Cols() int { return g.cols }

// VertexCount returns the number of grid vertices.
func (g *Generator) VertexCount() int { return len(g.base) }

// Positions returns the xyz vertex buffer. The slice is owned by the
// generator and rewritten by Update; callers must not modify or retain it.
func (g *Generator) Positions() []float32 { return g.positions }

// Normals returns the xyz normal buffer, with the same ownership rules as Positions.
func (g *Generator) Normals() []float32 { return g.normals }

// Indices returns the triangle index buffer.
func (g *Generator) Indices() []uint32 { return g.indices }
