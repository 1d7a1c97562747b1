// Package particles simulates the ambient falling point cloud.
package particles

import (
	"math"
	"math/rand/v2"
)

// Field defaults. Hand-tuned; keep unless the look should change.
const (
	DefaultCount    = 1500
	DefaultSpread   = 100.0
	DefaultBottom   = -5.0
	DefaultTop      = 50.0
	DefaultMinSpeed = 2.0
	DefaultMaxSpeed = 6.0
	DefaultJitter   = 0.02
	DefaultSize     = 0.15
)

// Config describes the particle volume.
type Config struct {
	Count    int     `yaml:"count"`
	Spread   float32 `yaml:"spread"` // horizontal extent, centred on the origin
	Bottom   float32 `yaml:"bottom"`
	Top      float32 `yaml:"top"`
	MinSpeed float32 `yaml:"min_speed"`
	MaxSpeed float32 `yaml:"max_speed"`
	Jitter   float32 `yaml:"jitter"` // x wave amplitude per step, 0 disables
	Size     float32 `yaml:"size"`
	Seed     uint64  `yaml:"seed"`

	Color [3]float32 `yaml:"color"`
}

// DefaultConfig returns the default particle configuration.
func DefaultConfig() Config {
	return Config{
		Count:    DefaultCount,
		Spread:   DefaultSpread,
		Bottom:   DefaultBottom,
		Top:      DefaultTop,
		MinSpeed: DefaultMinSpeed,
		MaxSpeed: DefaultMaxSpeed,
		Jitter:   DefaultJitter,
		Size:     DefaultSize,
		Color:    [3]float32{0.85, 0.9, 1},
	}
}

// Field owns a fixed-size particle buffer. It is not safe for concurrent use;
// the render loop is its only writer.
type Field struct {
	positions []float32 // x,y,z per particle
	speeds    []float32
	half      float32
	bottom    float32
	top       float32
	jitter    float32
	elapsed   float64
	rng       *rand.Rand
}

// NewField allocates cfg.Count particles uniformly inside the configured volume.
func NewField(cfg Config) *Field {
	if cfg.Count < 0 {
		cfg.Count = 0
	}
	if cfg.Spread <= 0 {
		cfg.Spread = DefaultSpread
	}
	if cfg.Top < cfg.Bottom {
		cfg.Top, cfg.Bottom = cfg.Bottom, cfg.Top
	}
	if cfg.MinSpeed < 0 {
		cfg.MinSpeed = 0
	}
	if cfg.MaxSpeed < cfg.MinSpeed {
		cfg.MaxSpeed = cfg.MinSpeed
	}

	f := &Field{
		positions: make([]float32, cfg.Count*3),
		speeds:    make([]float32, cfg.Count),
		half:      cfg.Spread / 2,
		bottom:    cfg.Bottom,
		top:       cfg.Top,
		jitter:    cfg.Jitter,
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}

	for i := 0; i < cfg.Count; i++ {
		f.positions[i*3] = f.randomHorizontal()
		f.positions[i*3+1] = f.bottom + f.rng.Float32()*(f.top-f.bottom)
		f.positions[i*3+2] = f.randomHorizontal()
		f.speeds[i] = cfg.MinSpeed + f.rng.Float32()*(cfg.MaxSpeed-cfg.MinSpeed)
	}
	return f
}

func (f *Field) randomHorizontal() float32 {
	return (f.rng.Float32()*2 - 1) * f.half
}

// Step advances every particle by dt seconds. Negative dt is treated as 0.
func (f *Field) Step(dt float32) {
	if dt < 0 {
		dt = 0
	}
	f.elapsed += float64(dt)

	for i := range f.speeds {
		p := f.positions[i*3 : i*3+3 : i*3+3]

		p[1] -= dt * f.speeds[i]
		if p[1] < f.bottom {
			p[1] = f.top
			p[0] = f.randomHorizontal()
			p[2] = f.randomHorizontal()
		}

		if f.jitter != 0 {
			x := p[0] + float32(math.Sin(f.elapsed+float64(i)))*f.jitter
			p[0] = min(max(x, -f.half), f.half)
		}
	}
}

// Positions returns the flat xyz buffer. Callers must not modify it.
func (f *Field) Positions() []float32 {
	return f.positions
}

// Count returns the number of particles.
func (f *Field) Count() int {
	return len(f.speeds)
}

// Bounds returns the vertical range particles are kept within.
func (f *Field) Bounds() (bottom, top float32) {
	return f.bottom, f.top
}
