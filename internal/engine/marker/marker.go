// Package marker places the typed, pulsing trek markers and handles their
// selection.
package marker

import (
	"maps"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/trekscape/internal/engine/picking"
	"github.com/Faultbox/trekscape/internal/trek"
	gmath "github.com/Faultbox/trekscape/pkg/math"
)

// Type tags a marker with the kind of payload entry it came from.
type Type string

// Marker types.
const (
	Checkpoint Type = "checkpoint"
	Camping    Type = "camping"
	Risk       Type = "risk"
	Default    Type = "default"
)

// Marker colours, RGB in [0, 1].
var (
	ColorCheckpoint = [3]float32{0x22 / 255.0, 0xc5 / 255.0, 0x5e / 255.0} // #22c55e
	ColorCamping    = [3]float32{0xf9 / 255.0, 0x73 / 255.0, 0x16 / 255.0} // #f97316
	ColorRisk       = [3]float32{0xef / 255.0, 0x44 / 255.0, 0x44 / 255.0} // #ef4444
	ColorDefault    = [3]float32{0x3b / 255.0, 0x82 / 255.0, 0xf6 / 255.0} // #3b82f6
)

// ColorFor returns the display colour of a marker type.
func ColorFor(t Type) [3]float32 {
	switch t {
	case Checkpoint:
		return ColorCheckpoint
	case Camping:
		return ColorCamping
	case Risk:
		return ColorRisk
	default:
		return ColorDefault
	}
}

// Pulse defaults.
const (
	DefaultPulseSpeed     = 3.0
	DefaultPulseAmplitude = 0.2
)

// Config controls marker geometry and the pulse effect.
type Config struct {
	Size           float32 `yaml:"size"`      // marker half-extent in world units
	Elevation      float32 `yaml:"elevation"` // clearance above the terrain surface
	PulseSpeed     float64 `yaml:"pulse_speed"`
	PulseAmplitude float64 `yaml:"pulse_amplitude"`
	PickPadding    float32 `yaml:"pick_padding"` // extra pick box slack
}

// DefaultConfig returns the default marker configuration.
func DefaultConfig() Config {
	return Config{
		Size:           0.8,
		Elevation:      10,
		PulseSpeed:     DefaultPulseSpeed,
		PulseAmplitude: DefaultPulseAmplitude,
		PickPadding:    0.4,
	}
}

// Pulse is the cosmetic ring around a marker. Its scale follows wall-clock
// time so the effect speed does not depend on frame rate.
type Pulse struct {
	Speed     float64
	Amplitude float64
}

// Scale returns 1 + sin(now*Speed)*Amplitude, with now in seconds since the
// Unix epoch.
func (p Pulse) Scale(now time.Time) float32 {
	return p.ScaleAt(float64(now.UnixNano()) / float64(time.Second))
}

// ScaleAt is Scale for a time already expressed in seconds.
func (p Pulse) ScaleAt(seconds float64) float32 {
	return float32(1 + math.Sin(seconds*p.Speed)*p.Amplitude)
}

// Marker is one placed payload entry. It is never repositioned.
type Marker struct {
	Type     Type
	Position gmath.Vec3
	Entry    trek.Entry
	Pulse    Pulse
}

// Activation is what the outside world learns about an activated marker.
type Activation struct {
	Type        Type
	Name        string
	Description string
	Extra       map[string]any
}

// Instance is the per-frame render state of one marker.
type Instance struct {
	Position   gmath.Vec3
	Color      [3]float32
	PulseScale float32
	Selected   bool
}

// Projector maps a coordinate into scene space.
type Projector interface {
	Project(c trek.Coordinate) gmath.Vec3
}

// System owns the markers of one scene.
type System struct {
	cfg        Config
	log        *zap.Logger
	onActivate func(Activation)

	markers  []*Marker
	selected *Marker
}

// NewSystem creates an empty marker system. onActivate may be nil.
func NewSystem(cfg Config, onActivate func(Activation), log *zap.Logger) *System {
	if log == nil {
		log = zap.NewNop()
	}
	return &System{
		cfg:        cfg,
		log:        log,
		onActivate: onActivate,
	}
}

// Place creates one marker per valid entry and returns how many were placed.
// Entries with missing or malformed coordinates are logged and skipped.
func (s *System) Place(entries []trek.Entry, t Type, p Projector) int {
	placed := 0
	for i, e := range entries {
		c, err := e.Coordinate()
		if err != nil {
			s.log.Warn("skipping marker entry",
				zap.String("type", string(t)),
				zap.Int("index", i),
				zap.String("name", e.Name),
				zap.Error(err))
			continue
		}

		pos := p.Project(c)
		pos.Y += s.cfg.Elevation
		s.markers = append(s.markers, &Marker{
			Type:     t,
			Position: pos,
			Entry:    e,
			Pulse:    Pulse{Speed: s.cfg.PulseSpeed, Amplitude: s.cfg.PulseAmplitude},
		})
		placed++
	}
	return placed
}

// SetGround rests every marker the configured elevation above ground(x, z).
func (s *System) SetGround(ground func(x, z float32) float32) {
	for _, m := range s.markers {
		m.Position.Y = ground(m.Position.X, m.Position.Z) + s.cfg.Elevation
	}
}

// PlaceTrek places checkpoints, camping zones and risk areas of tr.
func (s *System) PlaceTrek(tr *trek.Trek, p Projector) int {
	if tr == nil {
		return 0
	}
	return s.Place(tr.Checkpoints, Checkpoint, p) +
		s.Place(tr.Camping, Camping, p) +
		s.Place(tr.Risks, Risk, p)
}

// Activate selects m and reports it to the activation callback once.
func (s *System) Activate(m *Marker) {
	if m == nil {
		return
	}
	s.selected = m
	s.log.Debug("marker activated", zap.String("type", string(m.Type)), zap.String("name", m.Entry.Name))
	if s.onActivate != nil {
		s.onActivate(Activation{
			Type:        m.Type,
			Name:        m.Entry.Name,
			Description: m.Entry.Description,
			Extra:       maps.Clone(m.Entry.Extra),
		})
	}
}

// Pick returns the nearest marker hit by ray, or nil.
func (s *System) Pick(ray picking.Ray) *Marker {
	var (
		best  *Marker
		bestT = float32(math.MaxFloat32)
	)
	half := s.cfg.Size + s.cfg.PickPadding
	for _, m := range s.markers {
		t, hit := ray.IntersectAABB(picking.Around(m.Position, half))
		if hit && t < bestT {
			best, bestT = m, t
		}
	}
	return best
}

// ClearSelection drops the current selection without notifying anyone.
func (s *System) ClearSelection() {
	s.selected = nil
}

// Selected returns the selected marker, or nil.
func (s *System) Selected() *Marker {
	return s.selected
}

// Markers returns all placed markers in placement order.
func (s *System) Markers() []*Marker {
	return s.markers
}

// Size returns the marker half-extent.
func (s *System) Size() float32 {
	return s.cfg.Size
}

// Instances appends the render state of every marker at time now to buf.
func (s *System) Instances(now time.Time, buf []Instance) []Instance {
	for _, m := range s.markers {
		buf = append(buf, Instance{
			Position:   m.Position,
			Color:      ColorFor(m.Type),
			PulseScale: m.Pulse.Scale(now),
			Selected:   m == s.selected,
		})
	}
	return buf
}
