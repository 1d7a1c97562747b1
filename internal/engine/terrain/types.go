// Package terrain builds the animated height-field the scene floats over.
//
// The mesh is a regular grid whose topology is fixed at construction. Each
// frame only vertex heights and normals are rewritten, in place, from a
// deterministic function of position and elapsed time.
package terrain

import (
	"math"
	"time"
)

// Displacement constants. These were tuned by eye; keep them as they are
// unless the look of the scene is meant to change.
const (
	DefaultFreq1  = 0.1
	DefaultSpeed1 = 0.5
	DefaultAmp1   = 2.0
	DefaultFreq2  = 0.05
	DefaultSpeed2 = 0.3
	DefaultAmp2   = 3.0
)

// Grid defaults.
const (
	DefaultRows        = 100
	DefaultCols        = 100
	DefaultWidth       = 100.0
	DefaultDepth       = 100.0
	DefaultBaseScale   = 8.0
	DefaultLoadTimeout = 10 * time.Second
)

// Displacement is the time-varying surface function
//
//	f(x,z,t) = sin(x*Freq1 + t*Speed1)*cos(z*Freq1)*Amp1 + sin(x*Freq2 + t*Speed2)*cos(z*Freq2)*Amp2
type Displacement struct {
	Freq1  float64 `yaml:"freq1"`
	Speed1 float64 `yaml:"speed1"`
	Amp1   float64 `yaml:"amp1"`
	Freq2  float64 `yaml:"freq2"`
	Speed2 float64 `yaml:"speed2"`
	Amp2   float64 `yaml:"amp2"`
}

// DefaultDisplacement returns the tuned displacement constants.
func DefaultDisplacement() Displacement {
	return Displacement{
		Freq1:  DefaultFreq1,
		Speed1: DefaultSpeed1,
		Amp1:   DefaultAmp1,
		Freq2:  DefaultFreq2,
		Speed2: DefaultSpeed2,
		Amp2:   DefaultAmp2,
	}
}

// Peak returns the largest height the displacement can ever add.
func (d Displacement) Peak() float64 {
	return math.Abs(d.Amp1) + math.Abs(d.Amp2)
}

// Height evaluates the displacement at (x, z) for elapsed time t in seconds.
func (d Displacement) Height(x, z, t float64) float64 {
	return math.Sin(x*d.Freq1+t*d.Speed1)*math.Cos(z*d.Freq1)*d.Amp1 +
		math.Sin(x*d.Freq2+t*d.Speed2)*math.Cos(z*d.Freq2)*d.Amp2
}

// Config describes the terrain grid and its optional heightmap asset.
type Config struct {
	Rows         int           `yaml:"rows"`
	Cols         int           `yaml:"cols"`
	Width        float32       `yaml:"width"`
	Depth        float32       `yaml:"depth"`
	Displacement Displacement  `yaml:"displacement"`
	Asset        string        `yaml:"asset"`      // file path or http(s) URL of a heightmap image
	BaseScale    float32       `yaml:"base_scale"` // world height of a white heightmap pixel
	LoadTimeout  time.Duration `yaml:"load_timeout"`
}

// DefaultConfig returns the default terrain configuration.
func DefaultConfig() Config {
	return Config{
		Rows:         DefaultRows,
		Cols:         DefaultCols,
		Width:        DefaultWidth,
		Depth:        DefaultDepth,
		Displacement: DefaultDisplacement(),
		BaseScale:    DefaultBaseScale,
		LoadTimeout:  DefaultLoadTimeout,
	}
}

// Heightmap is a grayscale height grid with values in [0, 1], row-major.
type Heightmap struct {
	Width  int
	Height int
	Values []float32
}
