// Package camera provides the orbit camera rig for the scene.
package camera

import (
	gomath "math"

	"github.com/Faultbox/trekscape/pkg/math"
)

// Config describes the camera lens, default pose and orbit controls.
type Config struct {
	FOV  float32 `yaml:"fov"` // vertical, degrees
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`

	Center   [3]float32 `yaml:"center"`
	Distance float32    `yaml:"distance"`
	Pitch    float32    `yaml:"pitch"` // radians above the horizon
	Yaw      float32    `yaml:"yaw"`   // radians

	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
	MinPitch    float32 `yaml:"min_pitch"`
	MaxPitch    float32 `yaml:"max_pitch"`

	DragSensitivity float32 `yaml:"drag_sensitivity"`
	ZoomSensitivity float32 `yaml:"zoom_sensitivity"`
	ZoomEnabled     bool    `yaml:"zoom_enabled"`

	// Damping is the fraction of pending orbit motion applied per 60 Hz frame.
	// 0 or 1 applies input immediately.
	Damping float32 `yaml:"damping"`
}

// DefaultConfig returns the default camera configuration.
func DefaultConfig() Config {
	return Config{
		FOV:             60,
		Near:            0.1,
		Far:             1000,
		Center:          [3]float32{0, 0, 0},
		Distance:        80,
		Pitch:           0.6,
		Yaw:             0,
		MinDistance:     20,
		MaxDistance:     250,
		MinPitch:        0.1,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		ZoomEnabled:     true,
		Damping:         0.05,
	}
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	cfg Config

	center    math.Vec3
	distance  float32
	pitch     float32
	yaw       float32
	aspect    float32
	pendPitch float32 // orbit input not yet applied
	pendYaw   float32
	pendZoom  float32 // multiplicative distance change not yet applied, log scale
}

// New creates a camera in its default pose with a square aspect.
func New(cfg Config) *OrbitCamera {
	if cfg.MaxDistance < cfg.MinDistance {
		cfg.MaxDistance = cfg.MinDistance
	}
	if cfg.MaxPitch < cfg.MinPitch {
		cfg.MaxPitch = cfg.MinPitch
	}
	c := &OrbitCamera{cfg: cfg, aspect: 1}
	c.Reset()
	return c
}

// Reset restores the default pose and drops pending input. Lens and aspect
// are left alone.
func (c *OrbitCamera) Reset() {
	c.center = math.V3(c.cfg.Center)
	c.distance = c.clampDistance(c.cfg.Distance)
	c.pitch = c.clampPitch(c.cfg.Pitch)
	c.yaw = c.cfg.Yaw
	c.pendPitch, c.pendYaw, c.pendZoom = 0, 0, 0
}

// SetAspect sets the projection aspect to w/h. Non-positive sizes are ignored.
func (c *OrbitCamera) SetAspect(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.aspect = float32(w) / float32(h)
}

// Aspect returns the current width/height ratio.
func (c *OrbitCamera) Aspect() float32 {
	return c.aspect
}

// HandleDrag queues an orbit from a pointer drag in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.pendYaw -= deltaX * c.cfg.DragSensitivity
	c.pendPitch += deltaY * c.cfg.DragSensitivity
}

// HandleZoom queues a zoom from a scroll wheel delta. Positive zooms in.
// It does nothing when zoom is disabled.
func (c *OrbitCamera) HandleZoom(delta float32) {
	if !c.cfg.ZoomEnabled {
		return
	}
	c.pendZoom -= delta * c.cfg.ZoomSensitivity
}

// Update applies queued input, eased by the damping factor.
func (c *OrbitCamera) Update(dt float32) {
	k := float32(1)
	if d := c.cfg.Damping; d > 0 && d < 1 && dt > 0 {
		k = 1 - float32(gomath.Pow(float64(1-d), float64(dt*60)))
	}

	c.yaw += c.pendYaw * k
	c.pitch = c.clampPitch(c.pitch + c.pendPitch*k)
	c.distance = c.clampDistance(c.distance * float32(gomath.Exp(float64(c.pendZoom*k))))

	c.pendYaw *= 1 - k
	c.pendPitch *= 1 - k
	c.pendZoom *= 1 - k
}

// Settled reports whether no queued input remains.
func (c *OrbitCamera) Settled() bool {
	const eps = 1e-5
	return abs(c.pendYaw) < eps && abs(c.pendPitch) < eps && abs(c.pendZoom) < eps
}

func (c *OrbitCamera) clampPitch(p float32) float32 {
	return math.Clamp(p, c.cfg.MinPitch, c.cfg.MaxPitch)
}

func (c *OrbitCamera) clampDistance(d float32) float32 {
	return math.Clamp(d, c.cfg.MinDistance, c.cfg.MaxDistance)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.pitch))
	return c.center.Add(math.Vec3{
		X: c.distance * float32(cp*gomath.Sin(float64(c.yaw))),
		Y: c.distance * float32(gomath.Sin(float64(c.pitch))),
		Z: c.distance * float32(cp*gomath.Cos(float64(c.yaw))),
	})
}

// Center returns the orbit target.
func (c *OrbitCamera) Center() math.Vec3 {
	return c.center
}

// Distance returns the current distance to the orbit target.
func (c *OrbitCamera) Distance() float32 {
	return c.distance
}

// Pitch returns the current elevation angle in radians.
func (c *OrbitCamera) Pitch() float32 {
	return c.pitch
}

// Yaw returns the current heading in radians.
func (c *OrbitCamera) Yaw() float32 {
	return c.yaw
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for the current aspect.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	fov := c.cfg.FOV * gomath.Pi / 180
	return math.Perspective(fov, c.aspect, c.cfg.Near, c.cfg.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
