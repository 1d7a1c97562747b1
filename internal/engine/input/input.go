// Package input translates SDL2 events into scene input.
package input

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventWindowExposed
	EventWindowClose
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type     EventType
	WindowID uint32
	Key      sdl.Scancode
	Width    int
	Height   int
	MouseX   int
	MouseY   int
	DeltaX   int // relative motion for EventMouseMove
	DeltaY   int
	Wheel    float32 // positive scrolls away from the user
	Button   uint8
	Buttons  uint32 // held buttons for EventMouseMove
}

// Input collects the events of one frame.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update drains pending SDL events without blocking.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		quit = i.push(event) || quit
	}
	return quit
}

// Wait blocks until at least one event arrives or timeout elapses, then
// drains the queue like Update. It is used while nothing animates.
func (i *Input) Wait(timeout time.Duration) bool {
	i.events = i.events[:0]
	event := sdl.WaitEventTimeout(int(timeout.Milliseconds()))
	if event == nil {
		return false
	}
	quit := i.push(event)
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		quit = i.push(event) || quit
	}
	return quit
}

func (i *Input) push(event sdl.Event) bool {
	e, ok := Translate(event)
	if !ok {
		return false
	}
	i.events = append(i.events, e)
	return e.Type == EventQuit
}

// Translate converts an SDL event. ok is false for events the scene ignores.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			return Event{
				Type:     EventWindowResize,
				WindowID: e.WindowID,
				Width:    int(e.Data1),
				Height:   int(e.Data2),
			}, true
		case sdl.WINDOWEVENT_EXPOSED:
			return Event{Type: EventWindowExposed, WindowID: e.WindowID}, true
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Type: EventWindowClose, WindowID: e.WindowID}, true
		}

	case *sdl.KeyboardEvent:
		t := EventKeyUp
		if e.Type == sdl.KEYDOWN {
			t = EventKeyDown
		}
		return Event{Type: t, WindowID: e.WindowID, Key: e.Keysym.Scancode}, true

	case *sdl.MouseMotionEvent:
		return Event{
			Type:     EventMouseMove,
			WindowID: e.WindowID,
			MouseX:   int(e.X),
			MouseY:   int(e.Y),
			DeltaX:   int(e.XRel),
			DeltaY:   int(e.YRel),
			Buttons:  e.State,
		}, true

	case *sdl.MouseButtonEvent:
		t := EventMouseUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			t = EventMouseDown
		}
		return Event{
			Type:     t,
			WindowID: e.WindowID,
			MouseX:   int(e.X),
			MouseY:   int(e.Y),
			Button:   e.Button,
		}, true

	case *sdl.MouseWheelEvent:
		y := float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		return Event{Type: EventMouseWheel, WindowID: e.WindowID, Wheel: y}, true
	}
	return Event{}, false
}

// Events returns the events from the last Update or Wait.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
