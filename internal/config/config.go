// Package config handles scene configuration loading and management.
package config

import (
	"github.com/Faultbox/trekscape/internal/engine/camera"
	"github.com/Faultbox/trekscape/internal/engine/lighting"
	"github.com/Faultbox/trekscape/internal/engine/marker"
	"github.com/Faultbox/trekscape/internal/engine/particles"
	"github.com/Faultbox/trekscape/internal/engine/route"
	"github.com/Faultbox/trekscape/internal/engine/scene"
	"github.com/Faultbox/trekscape/internal/engine/terrain"
	"github.com/Faultbox/trekscape/internal/trek"
)

// Config holds all settings.
type Config struct {
	Graphics  GraphicsConfig   `yaml:"graphics"`
	Camera    camera.Config    `yaml:"camera"`
	Lighting  lighting.Config  `yaml:"lighting"`
	Terrain   terrain.Config   `yaml:"terrain"`
	Particles particles.Config `yaml:"particles"`
	Route     route.Config     `yaml:"route"`
	Markers   marker.Config    `yaml:"markers"`
	Trek      TrekConfig       `yaml:"trek"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	ShowFPS    bool       `yaml:"show_fps"`
	ClearColor [3]float32 `yaml:"clear_color"`
	FogFar     float32    `yaml:"fog_far"`
}

// TrekConfig selects the trek payload and how it is fitted to the terrain.
type TrekConfig struct {
	Path string  `yaml:"path"` // YAML or JSON payload
	Fill float64 `yaml:"fill"` // share of the terrain extent the trek spans
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			ShowFPS:    false,
			ClearColor: [3]float32{0.55, 0.68, 0.82},
			FogFar:     320,
		},
		Camera:    camera.DefaultConfig(),
		Lighting:  lighting.DefaultConfig(),
		Terrain:   terrain.DefaultConfig(),
		Particles: particles.DefaultConfig(),
		Route:     route.DefaultConfig(),
		Markers:   marker.DefaultConfig(),
		Trek: TrekConfig{
			Path: "examples/annapurna.yaml",
			Fill: trek.DefaultFill,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Scene returns the settings of the scene components.
func (c *Config) Scene() scene.Config {
	return scene.Config{
		Camera:         c.Camera,
		Lighting:       c.Lighting,
		Terrain:        c.Terrain,
		Particles:      c.Particles,
		Route:          c.Route,
		Markers:        c.Markers,
		ProjectionFill: c.Trek.Fill,
	}
}
