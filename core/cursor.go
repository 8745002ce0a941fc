package core

// CursorShape is the pointer affordance requested by the scene.
type CursorShape int

const (
	CursorArrow CursorShape = iota
	CursorHand
)

func (c CursorShape) String() string {
	switch c {
	case CursorHand:
		return "hand"
	default:
		return "arrow"
	}
}
