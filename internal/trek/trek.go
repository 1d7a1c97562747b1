// Package trek defines the trek payload handed to the scene and the fixed
// projection from geographic coordinates into scene space.
package trek

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCoordinates is returned for an entry without lat or lng.
	ErrMissingCoordinates = errors.New("entry has no coordinates")
	// ErrInvalidCoordinates is returned for coordinates outside WGS84 ranges.
	ErrInvalidCoordinates = errors.New("coordinates out of range")
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Validate reports whether c is a finite, in-range WGS84 position.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return ErrInvalidCoordinates
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Entry is a checkpoint, camping zone or risk area.
// Fields the scene does not interpret (water source, risk level, ...) are
// kept in Extra and handed back untouched when the marker is activated.
type Entry struct {
	Name        string         `yaml:"name"`
	Lat         *float64       `yaml:"lat"`
	Lng         *float64       `yaml:"lng"`
	Description string         `yaml:"description"`
	Extra       map[string]any `yaml:",inline"`
}

// Coordinate returns the entry position, or an error if it is missing or malformed.
func (e Entry) Coordinate() (Coordinate, error) {
	if e.Lat == nil || e.Lng == nil {
		return Coordinate{}, ErrMissingCoordinates
	}
	c := Coordinate{Lat: *e.Lat, Lng: *e.Lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Trek is the payload describing one trek. The scene treats it as read-only.
type Trek struct {
	Name        string      `yaml:"name"`
	Route       [][]float64 `yaml:"route"` // [lat, lng] pairs in travel order
	Checkpoints []Entry     `yaml:"checkpoints"`
	Camping     []Entry     `yaml:"camping"`
	Risks       []Entry     `yaml:"risks"`
}

// RouteCoordinates returns the valid route points in order.
// Pairs that are short or out of range are dropped; the count of dropped
// pairs is returned so callers can report it.
func (t *Trek) RouteCoordinates() ([]Coordinate, int) {
	if t == nil {
		return nil, 0
	}
	coords := make([]Coordinate, 0, len(t.Route))
	dropped := 0
	for _, pair := range t.Route {
		if len(pair) < 2 {
			dropped++
			continue
		}
		c := Coordinate{Lat: pair[0], Lng: pair[1]}
		if c.Validate() != nil {
			dropped++
			continue
		}
		coords = append(coords, c)
	}
	return coords, dropped
}

// Coordinates returns every valid position in the payload: route points first,
// then checkpoints, camping zones and risk areas.
func (t *Trek) Coordinates() []Coordinate {
	coords, _ := t.RouteCoordinates()
	if t == nil {
		return coords
	}
	for _, group := range [][]Entry{t.Checkpoints, t.Camping, t.Risks} {
		for _, e := range group {
			if c, err := e.Coordinate(); err == nil {
				coords = append(coords, c)
			}
		}
	}
	return coords
}

// Parse decodes a trek from YAML. JSON documents are accepted as well since
// JSON is a subset of YAML.
func Parse(data []byte) (*Trek, error) {
	var t Trek
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding trek: %w", err)
	}
	return &t, nil
}

// Load reads and decodes a trek file.
func Load(path string) (*Trek, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trek %s: %w", path, err)
	}
	return Parse(data)
}
