// Package lighting describes the scene's ambient and directional light.
package lighting

import (
	"math"

	gmath "github.com/Faultbox/trekscape/pkg/math"
)

// Config holds the light colours and sun angles.
type Config struct {
	AmbientColor     [3]float32 `yaml:"ambient_color"`
	AmbientIntensity float32    `yaml:"ambient_intensity"`
	SunColor         [3]float32 `yaml:"sun_color"`
	SunIntensity     float32    `yaml:"sun_intensity"`
	SunAzimuth       float32    `yaml:"sun_azimuth"`   // degrees around Y
	SunElevation     float32    `yaml:"sun_elevation"` // degrees above the horizon
}

// DefaultConfig returns a soft white ambient with a warm late-afternoon sun.
func DefaultConfig() Config {
	return Config{
		AmbientColor:     [3]float32{1, 1, 1},
		AmbientIntensity: 0.4,
		SunColor:         [3]float32{1, 0.96, 0.88},
		SunIntensity:     0.8,
		SunAzimuth:       45,
		SunElevation:     40,
	}
}

// Rig is the resolved lighting for a frame: premultiplied colours and a
// normalized direction pointing towards the sun.
type Rig struct {
	Ambient      [3]float32
	SunColor     [3]float32
	SunDirection [3]float32
}

// NewRig resolves cfg into shader-ready values.
func NewRig(cfg Config) Rig {
	return Rig{
		Ambient:      scale(cfg.AmbientColor, cfg.AmbientIntensity),
		SunColor:     scale(cfg.SunColor, cfg.SunIntensity),
		SunDirection: gmath.V3(SunDirection(cfg.SunAzimuth, cfg.SunElevation)).Normalize().Arr(),
	}
}

func scale(c [3]float32, k float32) [3]float32 {
	return [3]float32{c[0] * k, c[1] * k, c[2] * k}
}

// SunDirection converts azimuth/elevation angles in degrees to a direction
// vector pointing towards the sun. Azimuth rotates around Y starting at +Z,
// elevation is measured from the horizon.
func SunDirection(azimuth, elevation float32) [3]float32 {
	az := float64(azimuth) * math.Pi / 180
	el := float64(elevation) * math.Pi / 180

	x := float32(math.Cos(el) * math.Sin(az))
	y := float32(math.Sin(el))
	z := float32(math.Cos(el) * math.Cos(az))

	return [3]float32{x, y, z}
}
