package scene

// State is a step in the scene lifecycle:
//
//	Probing -> Unsupported -> FallbackShown
//	Probing -> Supported -> Initializing -> TerrainLoading -> Ready | Degraded
//
// Ready and Degraded move to FallbackShown on a render failure. Any state
// moves to Disposed on teardown.
type State int

// Lifecycle states.
const (
	Probing State = iota
	Unsupported
	FallbackShown
	Supported
	Initializing
	TerrainLoading
	Ready
	Degraded
	Disposed
)

var stateNames = [...]string{
	Probing:        "probing",
	Unsupported:    "unsupported",
	FallbackShown:  "fallback_shown",
	Supported:      "supported",
	Initializing:   "initializing",
	TerrainLoading: "terrain_loading",
	Ready:          "ready",
	Degraded:       "degraded",
	Disposed:       "disposed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Running reports whether the render loop animates in this state.
func (s State) Running() bool {
	return s == TerrainLoading || s == Ready || s == Degraded
}
