// Package scene runs the trek scene: it gates construction on the capability
// probe, owns camera, lighting and every simulated component, loads terrain in
// the background and drives one frame per tick into a rendering backend.
//
// A Manager is not safe for concurrent use. Every method must be called from
// the render thread; the terrain loader goroutine only hands its result back
// over a channel that Tick drains.
package scene

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/engine/camera"
	"github.com/Faultbox/trekscape/internal/engine/lighting"
	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/engine/particles"
	"github.com/Faultbox/trekscape/internal/engine/picking"
	"github.com/Faultbox/trekscape/internal/engine/route"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/internal/trek"
)

// Config groups the settings of every scene component.
type Config struct {
	Camera    camera.Config
	Lighting  lighting.Config
	Terrain   terrain.Config
	Particles particles.Config
	Route     route.Config
	Markers   marker.Config

	// ProjectionFill is the share of the terrain extent the trek spans.
	ProjectionFill float64
}

// DefaultConfig returns defaults for every component.
func DefaultConfig() Config {
	return Config{
		Camera:         camera.DefaultConfig(),
		Lighting:       lighting.DefaultConfig(),
		Terrain:        terrain.DefaultConfig(),
		Particles:      particles.DefaultConfig(),
		Route:          route.DefaultConfig(),
		Markers:        marker.DefaultConfig(),
		ProjectionFill: trek.DefaultFill,
	}
}

// Options are the collaborators of a Manager.
type Options struct {
	Config Config
	Trek   *trek.Trek

	Width, Height int

	// Probe reports whether the rendering backend can run. Nil means supported.
	Probe func() bool
	// NewBackend creates the rendering backend once the probe has passed.
	NewBackend func(width, height int) (Backend, error)
	// TerrainLoader builds the terrain. Nil uses a procedural loader.
	TerrainLoader terrain.Loader
	// Fallback is shown when the scene cannot render. May be nil.
	Fallback Presenter
	// OnMarkerActivate receives marker activations. May be nil.
	OnMarkerActivate func(marker.Activation)

	Logger *zap.Logger
	// Clock drives the marker pulse. Nil uses time.Now.
	Clock func() time.Time
}

type loadResult struct {
	gen *terrain.Generator
	err error
}

// Manager owns the scene lifecycle.
type Manager struct {
	cfg        Config
	trek       *trek.Trek
	probe      func() bool
	newBackend func(width, height int) (Backend, error)
	loader     terrain.Loader
	fallback   Presenter
	onActivate func(marker.Activation)
	log        *zap.Logger
	clock      func() time.Time

	state         State
	width, height int

	camera    *camera.OrbitCamera
	light     lighting.Rig
	backend   Backend
	terrain   *terrain.Generator
	particles *particles.Field
	route     *route.Path
	markers   *marker.System

	terrainErr  error
	loading     bool
	loadResults chan loadResult
	cancelLoad  context.CancelFunc
	live        atomic.Bool

	elapsed       float64
	terrainUpdate time.Duration
	frame         Frame
}

// New creates a manager in the Probing state. Nothing is built until Start.
func New(opts Options) *Manager {
	m := &Manager{
		cfg:        opts.Config,
		trek:       opts.Trek,
		probe:      opts.Probe,
		newBackend: opts.NewBackend,
		loader:     opts.TerrainLoader,
		fallback:   opts.Fallback,
		onActivate: opts.OnMarkerActivate,
		log:        opts.Logger,
		clock:      opts.Clock,
		state:      Probing,
		width:      opts.Width,
		height:     opts.Height,
		// One slot: at most one load is outstanding, so the loader never blocks.
		loadResults: make(chan loadResult, 1),
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.loader == nil {
		m.loader = terrain.ProceduralLoader{Config: m.cfg.Terrain}
	}
	if m.width <= 0 || m.height <= 0 {
		m.width, m.height = 1, 1
	}
	m.live.Store(true)
	return m
}

// Start probes the backend and builds the scene. It only has an effect in
// the Probing state.
func (m *Manager) Start() {
	if m.state != Probing {
		return
	}

	if !m.runProbe() {
		m.setState(Unsupported)
		m.showFallback("rendering backend unavailable")
		return
	}
	m.setState(Supported)

	m.setState(Initializing)
	m.camera = camera.New(m.cfg.Camera)
	m.camera.SetAspect(m.width, m.height)
	m.light = lighting.NewRig(m.cfg.Lighting)

	backend, err := m.createBackend()
	if err != nil {
		m.log.Error("creating render backend", zap.Error(err))
		m.showFallback("rendering backend failed to start")
		return
	}
	m.backend = backend

	m.setState(TerrainLoading)
	if err := m.RequestTerrain(); err != nil {
		m.log.Error("requesting terrain", zap.Error(err))
	}

	m.guard("particles", m.buildParticles)
	m.guard("route", m.buildRoute)
	m.guard("markers", m.buildMarkers)
}

func (m *Manager) runProbe() (ok bool) {
	if m.probe == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("capability probe panicked", zap.Any("panic", r))
			ok = false
		}
	}()
	return m.probe()
}

func (m *Manager) createBackend() (b Backend, err error) {
	if m.newBackend == nil {
		return nil, errors.New("no backend factory")
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("backend factory panicked: %v", r)
		}
	}()
	return m.newBackend(m.width, m.height)
}

// guard runs one construction step so that a failure in it does not abort
// the others.
func (m *Manager) guard(what string, build func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("building scene component panicked", zap.String("component", what), zap.Any("panic", r))
		}
	}()
	if err := build(); err != nil {
		m.log.Error("building scene component", zap.String("component", what), zap.Error(err))
	}
}

func (m *Manager) buildParticles() error {
	m.particles = particles.NewField(m.cfg.Particles)
	m.log.Debug("particles ready", zap.Int("count", m.particles.Count()))
	return nil
}

func (m *Manager) projector() *trek.Projector {
	extent := float64(max(m.cfg.Terrain.Width, m.cfg.Terrain.Depth))
	if extent <= 0 {
		extent = terrain.DefaultWidth
	}
	return trek.NewProjector(m.trek, extent, m.cfg.ProjectionFill)
}

func (m *Manager) buildRoute() error {
	if m.trek == nil {
		return nil
	}
	coords, dropped := m.trek.RouteCoordinates()
	if dropped > 0 {
		m.log.Warn("dropped malformed route points", zap.Int("dropped", dropped))
	}

	p := m.projector()
	points := p.ProjectAll(coords)
	for i := range points {
		points[i].Y += m.cfg.Route.Elevation
	}

	m.route = route.New(points, m.cfg.Route.Step)
	if m.route == nil {
		m.log.Info("trek has no route")
		return nil
	}
	length, err := p.RouteLength(coords)
	if err != nil {
		m.log.Warn("measuring route", zap.Error(err))
	}
	m.log.Info("route ready",
		zap.Int("points", m.route.Total()),
		zap.Float64("length_m", length))
	return nil
}

func (m *Manager) buildMarkers() error {
	m.markers = marker.NewSystem(m.cfg.Markers, m.onActivate, m.log.Named("markers"))
	if m.trek == nil {
		return nil
	}
	n := m.markers.PlaceTrek(m.trek, m.projector())
	m.log.Info("markers ready", zap.Int("count", n))
	return nil
}

// RequestTerrain starts a background terrain load. Only one load may be
// outstanding; the result is applied by a later Tick.
func (m *Manager) RequestTerrain() error {
	if !m.state.Running() {
		return ErrNotRunning
	}
	if m.loading {
		return ErrLoadPending
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelLoad = cancel
	m.loading = true

	loader := m.loader
	results := m.loadResults
	go func() {
		var res loadResult
		defer func() {
			if r := recover(); r != nil {
				res = loadResult{err: fmt.Errorf("terrain loader panicked: %v", r)}
			}
			if m.live.Load() {
				results <- res
			}
		}()
		res.gen, res.err = loader.Load(ctx)
	}()
	return nil
}

func (m *Manager) drainTerrain() {
	select {
	case res := <-m.loadResults:
		m.applyTerrain(res)
	default:
	}
}

func (m *Manager) applyTerrain(res loadResult) {
	m.cancelPending()
	if !m.state.Running() {
		return
	}

	if res.err != nil || res.gen == nil {
		err := res.err
		if err == nil {
			err = errors.New("terrain loader returned no terrain")
		}
		m.terrainErr = err
		m.log.Warn("terrain unavailable, continuing without it", zap.Error(err))
		m.setState(Degraded)
		return
	}

	m.terrain = res.gen
	m.terrainErr = nil
	m.terrain.Update(m.elapsed)
	if m.route != nil {
		m.route.SetGround(m.terrain.Ceiling, m.cfg.Route.Elevation)
	}
	if m.markers != nil {
		m.markers.SetGround(m.terrain.Ceiling)
	}
	m.log.Info("terrain ready", zap.Int("vertices", m.terrain.VertexCount()))
	m.setState(Ready)
}

// Tick advances the simulation by dt seconds and submits one frame.
// It does nothing unless the scene is running.
func (m *Manager) Tick(dt float32) {
	if !m.state.Running() {
		return
	}
	m.drainTerrain()
	if !m.state.Running() {
		return
	}
	if dt < 0 {
		dt = 0
	}

	if err := m.step(dt); err != nil {
		m.fail(err)
	}
}

func (m *Manager) step(dt float32) (err error) {
	stage := "simulate"
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	m.elapsed += float64(dt)
	m.camera.Update(dt)

	if m.terrain != nil {
		stage = "terrain"
		start := time.Now()
		m.terrain.Update(m.elapsed)
		m.terrainUpdate = time.Since(start)
	}
	if m.particles != nil {
		stage = "particles"
		m.particles.Step(dt)
	}
	if m.route != nil {
		stage = "route"
		m.route.Step()
	}

	stage = "frame"
	m.buildFrame()

	stage = "submit"
	if err := m.backend.Submit(&m.frame); err != nil {
		return &RenderError{Stage: stage, Err: err}
	}
	return nil
}

func (m *Manager) buildFrame() {
	f := &m.frame
	f.View = m.camera.ViewMatrix()
	f.Projection = m.camera.ProjectionMatrix()
	f.CameraPos = m.camera.Position()
	f.Light = m.light
	f.Elapsed = m.elapsed
	f.Terrain = m.terrain

	f.Particles = nil
	if m.particles != nil {
		f.Particles = m.particles.Positions()
		f.ParticleSize = m.cfg.Particles.Size
		f.ParticleColor = m.cfg.Particles.Color
	}

	f.Route = nil
	if m.route != nil {
		f.Route = m.route.Visible()
		f.RouteColor = m.cfg.Route.Color
	}

	f.Markers = f.Markers[:0]
	if m.markers != nil {
		f.Markers = m.markers.Instances(m.clock(), f.Markers)
		f.MarkerSize = m.markers.Size()
	}
}

// fail handles a render failure: the backend goes away and the fallback
// takes over.
func (m *Manager) fail(err error) {
	var re *RenderError
	if errors.As(err, &re) {
		m.log.Error("render failed", zap.String("stage", re.Stage), zap.Error(re.Err))
	} else {
		m.log.Error("render failed", zap.Error(err))
	}
	m.cancelPending()
	m.destroyBackend()
	m.showFallback("rendering failed")
}

func (m *Manager) cancelPending() {
	if m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}
	m.loading = false
}

func (m *Manager) showFallback(reason string) {
	if m.fallback != nil {
		if err := m.fallback.Show(reason); err != nil {
			m.log.Error("showing fallback", zap.Error(err))
		}
	}
	m.setState(FallbackShown)
}

func (m *Manager) destroyBackend() {
	if m.backend == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("destroying render backend panicked", zap.Any("panic", r))
		}
	}()
	b := m.backend
	m.backend = nil
	b.Destroy()
}

// Resize sets the camera aspect to exactly width/height and resizes the
// backend. Non-positive sizes are ignored.
func (m *Manager) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width, m.height = width, height
	if m.camera != nil {
		m.camera.SetAspect(width, height)
	}
	if m.backend != nil {
		m.backend.Resize(width, height)
	}
}

// ResetView restores the default camera pose.
func (m *Manager) ResetView() {
	if m.camera != nil {
		m.camera.Reset()
	}
}

// Drag orbits the camera by a pointer drag in pixels.
func (m *Manager) Drag(dx, dy float32) {
	if m.camera != nil {
		m.camera.HandleDrag(dx, dy)
	}
}

// Zoom moves the camera towards or away from the orbit centre.
func (m *Manager) Zoom(delta float32) {
	if m.camera != nil {
		m.camera.HandleZoom(delta)
	}
}

// Pick activates the marker under the pixel (x, y), if any, and returns it.
func (m *Manager) Pick(x, y float32) *marker.Marker {
	if !m.state.Running() || m.camera == nil || m.markers == nil {
		return nil
	}
	inv := m.camera.ViewProjection().Inverse()
	ray := picking.ScreenToRay(x, y, float32(m.width), float32(m.height), inv)
	hit := m.markers.Pick(ray)
	if hit != nil {
		m.markers.Activate(hit)
	}
	return hit
}

// ClearSelection deselects the current marker.
func (m *Manager) ClearSelection() {
	if m.markers != nil {
		m.markers.ClearSelection()
	}
}

// Dispose releases everything the scene owns. A pending terrain load is
// cancelled and its result discarded. Safe to call from any state, more than
// once.
func (m *Manager) Dispose() {
	if m.state == Disposed {
		return
	}
	m.live.Store(false)
	m.cancelPending()
	m.destroyBackend()
	m.terrain = nil
	m.particles = nil
	m.route = nil
	m.markers = nil
	m.frame = Frame{}
	m.setState(Disposed)
}

func (m *Manager) setState(s State) {
	if s == m.state {
		return
	}
	m.log.Debug("scene state", zap.Stringer("from", m.state), zap.Stringer("to", s))
	m.state = s
}

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// Loading reports whether a terrain load is outstanding.
func (m *Manager) Loading() bool { return m.loading }

// TerrainErr returns the error of the last failed terrain load.
func (m *Manager) TerrainErr() error { return m.terrainErr }

// Camera returns the camera rig, or nil before initialization.
func (m *Manager) Camera() *camera.OrbitCamera { return m.camera }

// Selected returns the selected marker, or nil.
func (m *Manager) Selected() *marker.Marker {
	if m.markers == nil {
		return nil
	}
	return m.markers.Selected()
}

// Markers returns the placed markers.
func (m *Manager) Markers() []*marker.Marker {
	if m.markers == nil {
		return nil
	}
	return m.markers.Markers()
}

// Terrain returns the terrain, or nil while absent.
func (m *Manager) Terrain() *terrain.Generator { return m.terrain }

// Particles returns the particle field, or nil before construction.
func (m *Manager) Particles() *particles.Field { return m.particles }

// Route returns the route animator, or nil when the trek has no route.
func (m *Manager) Route() *route.Path { return m.route }

// Elapsed returns the simulated time in seconds.
func (m *Manager) Elapsed() float64 { return m.elapsed }

// TerrainUpdateTime returns how long the last terrain update took.
func (m *Manager) TerrainUpdateTime() time.Duration { return m.terrainUpdate }
