package picking

import "planet-viewer/scene"

// EventType is the kind of pointer event delivered to a target.
type EventType int

const (
	Enter EventType = iota
	Leave
	Click
)

func (e EventType) String() string {
	switch e {
	case Enter:
		return "enter"
	case Leave:
		return "leave"
	case Click:
		return "click"
	}
	return "unknown"
}

// Event is one pointer event for the tracked target.
type Event struct {
	Type EventType
	Hit  Hit
}

// PointerState is the pointer as sampled once per frame.
type PointerState struct {
	X, Y          float32 // window pixels, origin top-left
	Width, Height float32 // window size in the same units
	Pressed       bool    // primary button held
}

// PointerSource is polled for the pointer state each frame.
type PointerSource interface {
	GetCursorPos() (float64, float64)
	IsMouseButtonPressed(button int) bool
	Size() (int, int)
}

// Sample reads the current pointer state from src. button is the
// window-system code of the primary button.
func Sample(src PointerSource, button int) PointerState {
	x, y := src.GetCursorPos()
	w, h := src.Size()
	return PointerState{
		X: float32(x), Y: float32(y),
		Width: float32(w), Height: float32(h),
		Pressed: src.IsMouseButtonPressed(button),
	}
}

// Pointer derives hover and click events for one target subtree from
// successive pointer samples.
type Pointer struct {
	Target *scene.Node

	over        bool
	pressedPrev bool
}

func NewPointer(target *scene.Node) *Pointer {
	return &Pointer{Target: target}
}

// Over reports whether the pointer was over the target at the last update.
func (p *Pointer) Over() bool { return p.over }

// Update casts the pointer through camera and returns the events since the
// previous update, in the order Leave/Enter then Click. A click fires on the
// press edge while the pointer is over the target.
func (p *Pointer) Update(state PointerState, camera *scene.Camera) []Event {
	var events []Event

	var hit Hit
	over := false
	if p.Target != nil && camera != nil && state.Width > 0 && state.Height > 0 {
		ray := ScreenToRay(state.X, state.Y, state.Width, state.Height, camera)
		hit, over = Intersect(ray, p.Target)
	}

	switch {
	case over && !p.over:
		events = append(events, Event{Type: Enter, Hit: hit})
	case !over && p.over:
		events = append(events, Event{Type: Leave})
	}
	p.over = over

	if state.Pressed && !p.pressedPrev && over {
		events = append(events, Event{Type: Click, Hit: hit})
	}
	p.pressedPrev = state.Pressed

	return events
}

// EventHandler receives pointer events for a target.
type EventHandler interface {
	PointerEnter()
	PointerLeave()
	Activate()
}

// Dispatch delivers events to h in order.
func Dispatch(events []Event, h EventHandler) {
	for _, e := range events {
		switch e.Type {
		case Enter:
			h.PointerEnter()
		case Leave:
			h.PointerLeave()
		case Click:
			h.Activate()
		}
	}
}
