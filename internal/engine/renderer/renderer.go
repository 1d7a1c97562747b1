// Package renderer draws scene frames with OpenGL.
package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/engine/scene"
	"github.com/Faultbox/trekscape/internal/engine/shader"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/internal/engine/window"
	"github.com/Faultbox/trekscape/pkg/math"
)

var (
	//go:embed shaders/terrain.vert
	terrainVert string
	//go:embed shaders/terrain.frag
	terrainFrag string
	//go:embed shaders/points.vert
	pointsVert string
	//go:embed shaders/points.frag
	pointsFrag string
	//go:embed shaders/flat.vert
	flatVert string
	//go:embed shaders/flat.frag
	flatFrag string
)

const ringSegments = 48

// Config holds renderer configuration.
type Config struct {
	ClearColor [3]float32
	FogFar     float32
}

// DefaultConfig returns a dusk sky clear colour.
func DefaultConfig() Config {
	return Config{
		ClearColor: [3]float32{0.55, 0.68, 0.82},
		FogFar:     320,
	}
}

// mesh is a VAO with a position buffer and optional normal/index buffers.
type mesh struct {
	vao, vbo, nbo, ebo uint32
	capacity           int // bytes allocated in vbo
	count              int32
}

// Renderer is the OpenGL scene backend. It owns its window.
type Renderer struct {
	config Config
	win    *window.Window
	log    *zap.Logger

	width, height int // drawable size in pixels

	terrainProg *shader.Program
	pointsProg  *shader.Program
	flatProg    *shader.Program

	terrain     mesh
	terrainSrc  *terrain.Generator // generator whose topology is uploaded
	particles   mesh
	route       mesh
	marker      mesh
	ring        mesh
	destroyed   bool
	firstSubmit bool
}

var _ scene.Backend = (*Renderer)(nil)

// New initializes OpenGL on the window's current context and builds the GPU
// resources. The renderer takes ownership of win.
func New(win *window.Window, cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{
		config:      cfg,
		win:         win,
		log:         log,
		firstSubmit: true,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], 1)

	var err error
	if r.terrainProg, err = shader.New("terrain", terrainVert, terrainFrag); err != nil {
		r.release()
		return nil, err
	}
	if r.pointsProg, err = shader.New("points", pointsVert, pointsFrag); err != nil {
		r.release()
		return nil, err
	}
	if r.flatProg, err = shader.New("flat", flatVert, flatFrag); err != nil {
		r.release()
		return nil, err
	}

	r.terrain = newMesh(true, true)
	r.particles = newMesh(false, false)
	r.route = newMesh(false, false)
	r.marker = newMesh(false, false)
	r.ring = newMesh(false, false)
	r.upload(&r.marker, octahedron(), gl.STATIC_DRAW)
	r.upload(&r.ring, circle(ringSegments), gl.STATIC_DRAW)

	w, h := win.DrawableSize()
	r.setViewport(w, h)

	if err := checkError("setup"); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

func newMesh(normals, indexed bool) mesh {
	var m mesh
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	if normals {
		gl.GenBuffers(1, &m.nbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.nbo)
		gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, nil)
		gl.EnableVertexAttribArray(1)
	}
	if indexed {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

func (m *mesh) delete() {
	for _, b := range []*uint32{&m.vbo, &m.nbo, &m.ebo} {
		if *b != 0 {
			gl.DeleteBuffers(1, b)
			*b = 0
		}
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
}

// upload writes data into the position buffer, growing it when needed and
// updating in place otherwise.
func (r *Renderer) upload(m *mesh, data []float32, usage uint32) {
	m.count = int32(len(data) / 3)
	if len(data) == 0 {
		return
	}
	size := len(data) * 4
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if size > m.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&data[0]), usage)
		m.capacity = size
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&data[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (r *Renderer) uploadTerrain(g *terrain.Generator) {
	pos := g.Positions()
	nrm := g.Normals()
	size := len(pos) * 4

	if g != r.terrainSrc {
		idx := g.Indices()
		gl.BindVertexArray(r.terrain.vao)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.terrain.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx)*4, unsafe.Pointer(&idx[0]), gl.STATIC_DRAW)
		gl.BindVertexArray(0)

		gl.BindBuffer(gl.ARRAY_BUFFER, r.terrain.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&pos[0]), gl.DYNAMIC_DRAW)
		gl.BindBuffer(gl.ARRAY_BUFFER, r.terrain.nbo)
		gl.BufferData(gl.ARRAY_BUFFER, size, unsafe.Pointer(&nrm[0]), gl.DYNAMIC_DRAW)
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)

		r.terrain.count = int32(len(idx))
		r.terrain.capacity = size
		r.terrainSrc = g
		r.log.Debug("terrain uploaded", zap.Int("vertices", g.VertexCount()), zap.Int("indices", len(idx)))
		return
	}

	// Topology is fixed; only heights and normals change.
	gl.BindBuffer(gl.ARRAY_BUFFER, r.terrain.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&pos[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, r.terrain.nbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, unsafe.Pointer(&nrm[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Submit draws f and presents it.
func (r *Renderer) Submit(f *scene.Frame) error {
	if r.destroyed {
		return errors.New("renderer destroyed")
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if f.Terrain != nil && len(f.Terrain.Indices()) > 0 {
		r.uploadTerrain(f.Terrain)
		r.drawTerrain(f)
	}
	if len(f.Route) > 0 {
		r.upload(&r.route, f.Route, gl.DYNAMIC_DRAW)
		r.drawFlat(&r.route, gl.LINE_STRIP, f, math.Identity(), f.RouteColor, 1)
	}
	r.drawMarkers(f)
	if len(f.Particles) > 0 {
		r.upload(&r.particles, f.Particles, gl.STREAM_DRAW)
		r.drawParticles(f)
	}

	if err := checkError("submit"); err != nil {
		return err
	}
	r.win.SwapBuffers()

	if r.firstSubmit {
		r.firstSubmit = false
		r.log.Debug("first frame presented")
	}
	return nil
}

func (r *Renderer) drawTerrain(f *scene.Frame) {
	p := r.terrainProg
	p.Use()
	p.SetMat4("uView", f.View)
	p.SetMat4("uProj", f.Projection)
	p.SetVec3("uAmbient", f.Light.Ambient)
	p.SetVec3("uSunColor", f.Light.SunColor)
	p.SetVec3("uSunDir", f.Light.SunDirection)
	p.SetVec3("uFogColor", r.config.ClearColor)
	p.SetFloat("uFogFar", r.config.FogFar)

	gl.BindVertexArray(r.terrain.vao)
	gl.DrawElements(gl.TRIANGLES, r.terrain.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawFlat(m *mesh, mode uint32, f *scene.Frame, model math.Mat4, color [3]float32, alpha float32) {
	p := r.flatProg
	p.Use()
	p.SetMat4("uView", f.View)
	p.SetMat4("uProj", f.Projection)
	p.SetMat4("uModel", model)
	p.SetVec3("uColor", color)
	p.SetFloat("uAlpha", alpha)

	gl.BindVertexArray(m.vao)
	gl.DrawArrays(mode, 0, m.count)
	gl.BindVertexArray(0)
}

func (r *Renderer) drawMarkers(f *scene.Frame) {
	for _, inst := range f.Markers {
		size := f.MarkerSize
		if inst.Selected {
			size *= 1.4
		}
		// Slow spin so the diamond reads as 3D.
		body := math.TRS(inst.Position, float32(f.Elapsed), size)
		r.drawFlat(&r.marker, gl.TRIANGLES, f, body, inst.Color, 1)

		ring := math.TRS(inst.Position, 0, f.MarkerSize*2*inst.PulseScale)
		r.drawFlat(&r.ring, gl.LINE_LOOP, f, ring, inst.Color, 0.6)
	}
}

func (r *Renderer) drawParticles(f *scene.Frame) {
	p := r.pointsProg
	p.Use()
	p.SetMat4("uView", f.View)
	p.SetMat4("uProj", f.Projection)
	p.SetFloat("uSize", f.ParticleSize)
	p.SetFloat("uViewportHeight", float32(r.height))
	p.SetVec3("uColor", f.ParticleColor)
	p.SetFloat("uAlpha", 0.8)

	gl.DepthMask(false)
	gl.BindVertexArray(r.particles.vao)
	gl.DrawArrays(gl.POINTS, 0, r.particles.count)
	gl.BindVertexArray(0)
	gl.DepthMask(true)
}

// Resize updates the viewport to the window's drawable size.
func (r *Renderer) Resize(width, height int) {
	if r.destroyed {
		return
	}
	w, h := r.win.DrawableSize()
	if w <= 0 || h <= 0 {
		w, h = width, height
	}
	r.setViewport(w, h)
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("drawable_width", w),
		zap.Int("drawable_height", h),
	)
}

func (r *Renderer) setViewport(w, h int) {
	r.width, r.height = w, h
	gl.Viewport(0, 0, int32(w), int32(h))
}

// Destroy releases GPU resources and closes the window. It is safe to call
// more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.release()
	r.log.Info("renderer destroyed")
}

func (r *Renderer) release() {
	for _, m := range []*mesh{&r.terrain, &r.particles, &r.route, &r.marker, &r.ring} {
		m.delete()
	}
	for _, p := range []*shader.Program{r.terrainProg, r.pointsProg, r.flatProg} {
		if p != nil {
			p.Delete()
		}
	}
	r.terrainSrc = nil
	if r.win != nil {
		r.win.Close()
		r.win = nil
	}
}

// checkError drains the GL error queue and reports the first error.
func checkError(stage string) error {
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: %s", stage, glErrorString(first))
	}
	return nil
}

func glErrorString(code uint32) string {
	switch code {
	case 0x0500:
		return "GL_INVALID_ENUM"
	case 0x0501:
		return "GL_INVALID_VALUE"
	case 0x0502:
		return "GL_INVALID_OPERATION"
	case 0x0505:
		return "GL_OUT_OF_MEMORY"
	case 0x0506:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	}
	return fmt.Sprintf("0x%04X", code)
}
