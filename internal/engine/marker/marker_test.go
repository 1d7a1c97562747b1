package marker

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/trekscape/internal/engine/picking"
	"github.com/Faultbox/trekscape/internal/trek"
	gmath "github.com/Faultbox/trekscape/pkg/math"
)

// flat maps lng to x and lat to -z, one unit per degree.
type flat struct{}

func (flat) Project(c trek.Coordinate) gmath.Vec3 {
	return gmath.Vec3{X: float32(c.Lng), Z: -float32(c.Lat)}
}

func ptr(v float64) *float64 { return &v }

func entry(name string, lat, lng float64) trek.Entry {
	return trek.Entry{Name: name, Lat: ptr(lat), Lng: ptr(lng), Description: name + " desc"}
}

func sampleTrek() *trek.Trek {
	return &trek.Trek{
		Name: "Annapurna",
		Checkpoints: []trek.Entry{
			entry("Besisahar", 0, 0),
			entry("Manang", 0, 10),
			entry("Thorong La", 0, 20),
		},
		Camping: []trek.Entry{
			entry("High Camp", 10, 0),
			{Name: "Yak Kharka", Lat: ptr(10), Lng: ptr(10), Extra: map[string]any{"water_source": true}},
		},
		Risks: []trek.Entry{
			{Name: "Landslide", Lat: ptr(20), Lng: ptr(0), Description: "Loose scree after rain", Extra: map[string]any{"risk_level": "high"}},
		},
	}
}

func TestPlaceTrekCountsAndColors(t *testing.T) {
	s := NewSystem(DefaultConfig(), nil, zap.NewNop())

	if n := s.PlaceTrek(sampleTrek(), flat{}); n != 6 {
		t.Fatalf("PlaceTrek() = %d, want 6", n)
	}

	counts := map[Type]int{}
	for _, m := range s.Markers() {
		counts[m.Type]++
		if m.Position.Y != DefaultConfig().Elevation {
			t.Errorf("%s: elevation = %v, want %v", m.Entry.Name, m.Position.Y, DefaultConfig().Elevation)
		}
	}
	want := map[Type]int{Checkpoint: 3, Camping: 2, Risk: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("marker counts mismatch (-want +got):\n%s", diff)
	}

	got := map[Type][3]float32{}
	for _, inst := range s.Instances(time.Unix(0, 0), nil) {
		for _, m := range s.Markers() {
			if m.Position == inst.Position {
				got[m.Type] = inst.Color
			}
		}
	}
	wantColors := map[Type][3]float32{
		Checkpoint: ColorCheckpoint,
		Camping:    ColorCamping,
		Risk:       ColorRisk,
	}
	if diff := cmp.Diff(wantColors, got); diff != "" {
		t.Errorf("marker colours mismatch (-want +got):\n%s", diff)
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		typ  Type
		want [3]float32
	}{
		{Checkpoint, [3]float32{34.0 / 255, 197.0 / 255, 94.0 / 255}},
		{Camping, [3]float32{249.0 / 255, 115.0 / 255, 22.0 / 255}},
		{Risk, [3]float32{239.0 / 255, 68.0 / 255, 68.0 / 255}},
		{Default, [3]float32{59.0 / 255, 130.0 / 255, 246.0 / 255}},
		{Type("unknown"), ColorDefault},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.typ); got != tt.want {
			t.Errorf("ColorFor(%q) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestPlaceSkipsMalformedEntries(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewSystem(DefaultConfig(), nil, zap.New(core))

	entries := []trek.Entry{
		entry("ok", 1, 1),
		{Name: "no coords"},
		{Name: "no lng", Lat: ptr(3)},
		entry("bad lat", 120, 0),
		{Name: "nan", Lat: ptr(math.NaN()), Lng: ptr(0)},
		entry("also ok", 2, 2),
	}

	if n := s.Place(entries, Checkpoint, flat{}); n != 2 {
		t.Errorf("Place() = %d, want 2", n)
	}
	if got := logs.FilterMessage("skipping marker entry").Len(); got != 4 {
		t.Errorf("logged %d skipped entries, want 4", got)
	}
	names := []string{s.Markers()[0].Entry.Name, s.Markers()[1].Entry.Name}
	if diff := cmp.Diff([]string{"ok", "also ok"}, names); diff != "" {
		t.Errorf("placed markers mismatch (-want +got):\n%s", diff)
	}
}

func TestActivateCallsBackOnce(t *testing.T) {
	var got []Activation
	s := NewSystem(DefaultConfig(), func(a Activation) { got = append(got, a) }, nil)
	s.PlaceTrek(sampleTrek(), flat{})

	var risk *Marker
	for _, m := range s.Markers() {
		if m.Type == Risk {
			risk = m
		}
	}
	s.Activate(risk)

	want := []Activation{{
		Type:        Risk,
		Name:        "Landslide",
		Description: "Loose scree after rain",
		Extra:       map[string]any{"risk_level": "high"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("activations mismatch (-want +got):\n%s", diff)
	}
	if s.Selected() != risk {
		t.Error("activated marker should be selected")
	}

	s.Activate(nil)
	if len(got) != 1 {
		t.Errorf("Activate(nil) invoked callback, total %d", len(got))
	}

	s.ClearSelection()
	if s.Selected() != nil {
		t.Error("ClearSelection() left a selection")
	}
}

func TestPickNearest(t *testing.T) {
	s := NewSystem(DefaultConfig(), nil, nil)
	s.Place([]trek.Entry{entry("front", 0, 0), entry("behind", 5, 0)}, Checkpoint, flat{})

	elev := DefaultConfig().Elevation
	// Looking along -z from z=10: "front" sits at z=0, "behind" at z=-5.
	ray := picking.Ray{
		Origin:    gmath.Vec3{Y: elev, Z: 10},
		Direction: gmath.Vec3{Z: -1},
	}
	if m := s.Pick(ray); m == nil || m.Entry.Name != "front" {
		t.Errorf("Pick() = %v, want the first marker along the ray", m)
	}

	miss := picking.Ray{Origin: gmath.Vec3{X: 50, Y: elev, Z: 10}, Direction: gmath.Vec3{Z: -1}}
	if m := s.Pick(miss); m != nil {
		t.Errorf("Pick() = %v, want nil", m.Entry.Name)
	}
}

func TestPulseScale(t *testing.T) {
	p := Pulse{Speed: DefaultPulseSpeed, Amplitude: DefaultPulseAmplitude}

	if got := p.ScaleAt(0); got != 1 {
		t.Errorf("ScaleAt(0) = %v, want 1", got)
	}
	peak := math.Pi / 2 / DefaultPulseSpeed
	if got := p.ScaleAt(peak); math.Abs(float64(got)-1.2) > 1e-6 {
		t.Errorf("ScaleAt(peak) = %v, want 1.2", got)
	}

	// Same wall-clock instant, same scale, regardless of how often it is sampled.
	now := time.Unix(1700000000, 250_000_000)
	if p.Scale(now) != p.Scale(now) {
		t.Error("Scale is not a function of time alone")
	}
	for i := 0; i < 100; i++ {
		s := p.ScaleAt(float64(i) * 0.37)
		if s < 0.8-1e-6 || s > 1.2+1e-6 {
			t.Fatalf("ScaleAt() = %v outside [0.8, 1.2]", s)
		}
	}
}

func TestInstancesMarkSelection(t *testing.T) {
	s := NewSystem(DefaultConfig(), nil, nil)
	s.Place([]trek.Entry{entry("a", 0, 0), entry("b", 1, 1)}, Camping, flat{})
	s.Activate(s.Markers()[1])

	inst := s.Instances(time.Now(), nil)
	if len(inst) != 2 || inst[0].Selected || !inst[1].Selected {
		t.Errorf("Instances() selection = %+v", inst)
	}
}

func TestSetGroundRestsMarkersAboveSurface(t *testing.T) {
	s := NewSystem(DefaultConfig(), nil, nil)
	s.PlaceTrek(sampleTrek(), flat{})

	ground := func(x, z float32) float32 { return 3 + x - z }
	s.SetGround(ground)
	s.SetGround(ground)

	elev := DefaultConfig().Elevation
	for _, m := range s.Markers() {
		want := ground(m.Position.X, m.Position.Z) + elev
		if m.Position.Y != want {
			t.Errorf("%s: Y = %v, want %v", m.Entry.Name, m.Position.Y, want)
		}
	}
}
