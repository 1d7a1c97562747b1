package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/trekscape/internal/engine/lighting"
	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/pkg/math"
)

// Frame is everything a backend needs to draw one frame. Slices alias
// simulation buffers and are only valid for the duration of Submit.
type Frame struct {
	View       math.Mat4
	Projection math.Mat4
	CameraPos  math.Vec3
	Light      lighting.Rig
	Elapsed    float64

	// Terrain is nil while the terrain is absent.
	Terrain *terrain.Generator

	Particles     []float32
	ParticleSize  float32
	ParticleColor [3]float32

	Route      []float32
	RouteColor [3]float32

	Markers    []marker.Instance
	MarkerSize float32
}

// Backend draws frames. Implementations own the rendering surface.
type Backend interface {
	Submit(f *Frame) error
	Resize(width, height int)
	Destroy()
}

// Presenter shows the static fallback view.
type Presenter interface {
	Show(reason string) error
}

// ErrLoadPending is returned when a terrain load is requested while another
// one is still outstanding.
var ErrLoadPending = errors.New("terrain load already pending")

// ErrNotRunning is returned for operations that need a running scene.
var ErrNotRunning = errors.New("scene is not running")

// RenderError is a failure raised while producing or submitting a frame.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
