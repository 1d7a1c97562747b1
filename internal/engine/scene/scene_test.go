package scene

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/internal/trek"
)

type fakeBackend struct {
	submits   int
	destroyed int
	width     int
	height    int
	err       error
	panicMsg  string
	last      Frame
}

func (b *fakeBackend) Submit(f *Frame) error {
	if b.panicMsg != "" {
		panic(b.panicMsg)
	}
	b.submits++
	b.last = *f
	return b.err
}

func (b *fakeBackend) Resize(w, h int) { b.width, b.height = w, h }
func (b *fakeBackend) Destroy()        { b.destroyed++ }

type fakePresenter struct {
	reasons []string
}

func (p *fakePresenter) Show(reason string) error {
	p.reasons = append(p.reasons, reason)
	return nil
}

// gateLoader blocks until release is closed, then returns gen/err.
type gateLoader struct {
	started   chan struct{}
	release   chan struct{}
	cancelled chan struct{}
	gen       *terrain.Generator
	err       error
}

func newGateLoader(gen *terrain.Generator, err error) *gateLoader {
	return &gateLoader{
		started:   make(chan struct{}),
		release:   make(chan struct{}),
		cancelled: make(chan struct{}),
		gen:       gen,
		err:       err,
	}
}

func (l *gateLoader) Load(ctx context.Context) (*terrain.Generator, error) {
	close(l.started)
	select {
	case <-l.release:
	case <-ctx.Done():
		close(l.cancelled)
		<-l.release
	}
	return l.gen, l.err
}

type errLoader struct{ err error }

func (l errLoader) Load(context.Context) (*terrain.Generator, error) { return nil, l.err }

func ptr(v float64) *float64 { return &v }

func sampleTrek() *trek.Trek {
	e := func(name string, lat, lng float64) trek.Entry {
		return trek.Entry{Name: name, Lat: ptr(lat), Lng: ptr(lng), Description: "near " + name}
	}
	return &trek.Trek{
		Name:        "Test",
		Route:       [][]float64{{27.70, 85.30}, {27.75, 85.35}, {27.80, 85.40}, {27.85, 85.45}, {27.90, 85.50}},
		Checkpoints: []trek.Entry{e("a", 27.70, 85.30), e("b", 27.80, 85.40), e("c", 27.90, 85.50)},
		Camping:     []trek.Entry{e("d", 27.75, 85.35), e("e", 27.85, 85.45)},
		Risks:       []trek.Entry{e("f", 27.82, 85.42)},
	}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Terrain.Rows = 8
	cfg.Terrain.Cols = 8
	cfg.Particles.Count = 50
	cfg.Camera.Damping = 0
	return cfg
}

type harness struct {
	m        *Manager
	backend  *fakeBackend
	fallback *fakePresenter
	built    int
	acts     []marker.Activation
}

func newHarness(t *testing.T, probe bool, loader terrain.Loader) *harness {
	t.Helper()
	h := &harness{backend: &fakeBackend{}, fallback: &fakePresenter{}}
	h.m = New(Options{
		Config: smallConfig(),
		Trek:   sampleTrek(),
		Width:  800,
		Height: 600,
		Probe:  func() bool { return probe },
		NewBackend: func(w, hgt int) (Backend, error) {
			h.built++
			return h.backend, nil
		},
		TerrainLoader:    loader,
		Fallback:         h.fallback,
		OnMarkerActivate: func(a marker.Activation) { h.acts = append(h.acts, a) },
		Logger:           zap.NewNop(),
		Clock:            func() time.Time { return time.Unix(1000, 0) },
	})
	t.Cleanup(h.m.Dispose)
	return h
}

// tickUntil ticks until the scene reaches want or two seconds pass.
func tickUntil(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", m.State(), want)
		}
		m.Tick(1.0 / 60)
		time.Sleep(time.Millisecond)
	}
}

func TestProbeFailureShowsFallbackOnly(t *testing.T) {
	loader := newGateLoader(nil, nil)
	h := newHarness(t, false, loader)

	h.m.Start()

	if h.m.State() != FallbackShown {
		t.Fatalf("State() = %v, want %v", h.m.State(), FallbackShown)
	}
	if len(h.fallback.reasons) != 1 {
		t.Errorf("fallback shown %d times, want 1", len(h.fallback.reasons))
	}
	if h.built != 0 {
		t.Errorf("backend built %d times, want 0", h.built)
	}
	if h.m.Camera() != nil || h.m.Particles() != nil || h.m.Route() != nil || h.m.Markers() != nil {
		t.Error("scene components were constructed without capability")
	}
	select {
	case <-loader.started:
		t.Error("terrain load attempted without capability")
	default:
	}

	h.m.Tick(1)
	if h.backend.submits != 0 {
		t.Errorf("submitted %d frames in fallback", h.backend.submits)
	}
}

func TestProbePanicCountsAsUnsupported(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.probe = func() bool { panic("no driver") }

	h.m.Start()

	if h.m.State() != FallbackShown {
		t.Errorf("State() = %v, want %v", h.m.State(), FallbackShown)
	}
}

func TestBackendFailureShowsFallback(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.newBackend = func(int, int) (Backend, error) { return nil, errors.New("no context") }

	h.m.Start()

	if h.m.State() != FallbackShown {
		t.Errorf("State() = %v, want %v", h.m.State(), FallbackShown)
	}
	if h.m.Particles() != nil {
		t.Error("particles built after backend failure")
	}
}

func TestTerrainLoadSuccess(t *testing.T) {
	h := newHarness(t, true, terrain.ProceduralLoader{Config: smallConfig().Terrain})

	h.m.Start()
	if h.m.State() != TerrainLoading || !h.m.Loading() {
		t.Fatalf("after Start: state %v, loading %v", h.m.State(), h.m.Loading())
	}

	tickUntil(t, h.m, Ready)

	if h.m.Terrain() == nil {
		t.Fatal("Terrain() = nil in Ready")
	}
	if h.m.Loading() {
		t.Error("Loading() still true after load applied")
	}
	if h.backend.last.Terrain == nil {
		h.m.Tick(1.0 / 60)
	}
	if h.backend.last.Terrain != h.m.Terrain() {
		t.Error("frame does not carry the loaded terrain")
	}
	if len(h.m.Markers()) != 6 {
		t.Errorf("len(Markers()) = %d, want 6", len(h.m.Markers()))
	}

	// Markers and route rest on the terrain ceiling, clear of every wave.
	cfg := smallConfig()
	g := h.m.Terrain()
	for _, m := range h.m.Markers() {
		want := g.Ceiling(m.Position.X, m.Position.Z) + cfg.Markers.Elevation
		if m.Position.Y != want {
			t.Errorf("marker %s: Y = %v, want %v", m.Entry.Name, m.Position.Y, want)
		}
	}
	pts := h.m.Route().Points()
	for i := 0; i < len(pts); i += 3 {
		want := g.Ceiling(pts[i], pts[i+2]) + cfg.Route.Elevation
		if pts[i+1] != want {
			t.Errorf("route point %d: Y = %v, want %v", i/3, pts[i+1], want)
		}
	}
}

func TestTerrainLoadFailureDegradesAndKeepsAnimating(t *testing.T) {
	loadErr := errors.New("404 terrain.png")
	h := newHarness(t, true, errLoader{err: loadErr})

	h.m.Start()
	tickUntil(t, h.m, Degraded)

	if !errors.Is(h.m.TerrainErr(), loadErr) {
		t.Errorf("TerrainErr() = %v, want %v", h.m.TerrainErr(), loadErr)
	}
	if h.m.Terrain() != nil {
		t.Error("Terrain() should be nil when degraded")
	}

	before := append([]float32(nil), h.m.Particles().Positions()...)
	revealed := h.m.Route().Revealed()
	submits := h.backend.submits

	h.m.Tick(0.5)

	moved := false
	for i, v := range h.m.Particles().Positions() {
		if v != before[i] {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("particles did not animate in Degraded")
	}
	if h.m.Route().Revealed() <= revealed && !h.m.Route().Done() {
		t.Error("route did not advance in Degraded")
	}
	if h.backend.submits != submits+1 {
		t.Errorf("submits = %d, want %d", h.backend.submits, submits+1)
	}
	if len(h.backend.last.Markers) != 6 {
		t.Errorf("frame markers = %d, want 6", len(h.backend.last.Markers))
	}
	if h.m.State() != Degraded {
		t.Errorf("State() = %v after tick, want %v", h.m.State(), Degraded)
	}
}

func TestSecondLoadRejectedWhilePending(t *testing.T) {
	loader := newGateLoader(terrain.NewGenerator(smallConfig().Terrain, nil), nil)
	h := newHarness(t, true, loader)

	h.m.Start()
	<-loader.started

	if err := h.m.RequestTerrain(); !errors.Is(err, ErrLoadPending) {
		t.Errorf("RequestTerrain() = %v, want %v", err, ErrLoadPending)
	}

	close(loader.release)
	tickUntil(t, h.m, Ready)
}

func TestDisposeDuringPendingLoad(t *testing.T) {
	loader := newGateLoader(terrain.NewGenerator(smallConfig().Terrain, nil), nil)
	h := newHarness(t, true, loader)

	h.m.Start()
	<-loader.started

	h.m.Dispose()

	select {
	case <-loader.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("pending load was not cancelled")
	}
	close(loader.release)
	time.Sleep(10 * time.Millisecond)

	h.m.Tick(1.0 / 60)

	if h.m.State() != Disposed {
		t.Errorf("State() = %v, want %v", h.m.State(), Disposed)
	}
	if h.m.Terrain() != nil {
		t.Error("late load result was applied after Dispose")
	}
	if h.backend.destroyed != 1 {
		t.Errorf("backend destroyed %d times, want 1", h.backend.destroyed)
	}
	if h.backend.submits != 0 {
		t.Errorf("submitted %d frames after Dispose", h.backend.submits)
	}

	h.m.Dispose()
	if h.backend.destroyed != 1 {
		t.Error("second Dispose destroyed the backend again")
	}
}

func TestDisposeFromAnyState(t *testing.T) {
	states := []func(h *harness){
		func(h *harness) {},
		func(h *harness) {
			h.m.probe = func() bool { return false }
			h.m.Start()
		},
		func(h *harness) { h.m.Start() },
	}
	for i, setup := range states {
		h := newHarness(t, true, nil)
		setup(h)
		h.m.Dispose()
		if h.m.State() != Disposed {
			t.Errorf("case %d: State() = %v, want %v", i, h.m.State(), Disposed)
		}
	}
}

func TestResizeSetsExactAspect(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.Start()

	h.m.Resize(1280, 720)
	want := float32(1280) / float32(720)
	if got := h.m.Camera().Aspect(); got != want {
		t.Errorf("Aspect() = %v, want %v", got, want)
	}
	if h.backend.width != 1280 || h.backend.height != 720 {
		t.Errorf("backend size = %dx%d", h.backend.width, h.backend.height)
	}

	h.m.Resize(1280, 720)
	h.m.Resize(0, 500)
	if got := h.m.Camera().Aspect(); got != want {
		t.Errorf("Aspect() after repeat/invalid resize = %v, want %v", got, want)
	}
}

func TestSubmitErrorShowsFallback(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newHarness(t, true, nil)
	h.m.log = zap.New(core)
	h.backend.err = errors.New("GL_OUT_OF_MEMORY")

	h.m.Start()
	h.m.Tick(1.0 / 60)

	if h.m.State() != FallbackShown {
		t.Fatalf("State() = %v, want %v", h.m.State(), FallbackShown)
	}
	if h.backend.destroyed != 1 {
		t.Errorf("backend destroyed %d times, want 1", h.backend.destroyed)
	}
	if len(h.fallback.reasons) != 1 {
		t.Errorf("fallback shown %d times, want 1", len(h.fallback.reasons))
	}

	entries := logs.FilterMessage("render failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d render failures, want 1", len(entries))
	}
	if stage := entries[0].ContextMap()["stage"]; stage != "submit" {
		t.Errorf("logged stage = %v, want submit", stage)
	}

	submits := h.backend.submits
	h.m.Tick(1.0 / 60)
	if h.backend.submits != submits {
		t.Error("frames submitted after fallback")
	}
}

func TestSubmitPanicShowsFallback(t *testing.T) {
	h := newHarness(t, true, nil)
	h.backend.panicMsg = "driver crash"

	h.m.Start()
	h.m.Tick(1.0 / 60)

	if h.m.State() != FallbackShown {
		t.Errorf("State() = %v, want %v", h.m.State(), FallbackShown)
	}
}

func TestPickActivatesMarker(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.Start()

	// The risk marker sits near the middle of the view.
	target := h.m.Markers()[5]
	cam := h.m.Camera()
	ndc := cam.ViewProjection().TransformPoint(target.Position.Arr())
	x := (ndc[0] + 1) / 2 * 800
	y := (1 - ndc[1]) / 2 * 600

	got := h.m.Pick(x, y)
	if got != target {
		t.Fatalf("Pick() = %v, want the marker under the cursor", got)
	}
	if h.m.Selected() != got {
		t.Error("picked marker is not selected")
	}
	if len(h.acts) != 1 {
		t.Fatalf("callback invoked %d times, want 1", len(h.acts))
	}
	if h.acts[0].Name != got.Entry.Name {
		t.Errorf("activation name = %q, want %q", h.acts[0].Name, got.Entry.Name)
	}
	if h.acts[0].Description != got.Entry.Description {
		t.Errorf("activation description = %q, want %q", h.acts[0].Description, got.Entry.Description)
	}

	h.m.ClearSelection()
	if h.m.Selected() != nil {
		t.Error("ClearSelection() left a selection")
	}
}

func TestResetView(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.Start()

	cam := h.m.Camera()
	yaw, dist := cam.Yaw(), cam.Distance()
	h.m.Drag(200, 50)
	h.m.Zoom(1)
	h.m.Tick(1.0 / 60)
	if cam.Yaw() == yaw {
		t.Fatal("drag had no effect")
	}

	h.m.ResetView()
	if cam.Yaw() != yaw || cam.Distance() != dist {
		t.Errorf("after ResetView yaw=%v dist=%v, want %v %v", cam.Yaw(), cam.Distance(), yaw, dist)
	}
}

func TestEmptyRouteHasNoAnimator(t *testing.T) {
	h := newHarness(t, true, nil)
	h.m.trek = &trek.Trek{Name: "empty"}

	h.m.Start()
	h.m.Tick(1.0 / 60)

	if h.m.Route() != nil {
		t.Error("Route() should be nil for an empty route")
	}
	if h.backend.last.Route != nil {
		t.Error("frame carries a route for an empty trek")
	}
}

func TestStateString(t *testing.T) {
	if Degraded.String() != "degraded" || State(99).String() != "unknown" {
		t.Errorf("unexpected names %q %q", Degraded.String(), State(99).String())
	}
}
