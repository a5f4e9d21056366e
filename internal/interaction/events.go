package interaction

import "mindcanvas/internal/geometry"

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	DoubleClick
	Wheel
	KeyDown
	KeyUp
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointer-down"
	case PointerMove:
		return "pointer-move"
	case PointerUp:
		return "pointer-up"
	case DoubleClick:
		return "double-click"
	case Wheel:
		return "wheel"
	case KeyDown:
		return "key-down"
	case KeyUp:
		return "key-up"
	}
	return "unknown"
}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Key names understood by the machine. Any other single-rune string is
// typed text while editing.
const (
	KeyEscape    = "escape"
	KeyDelete    = "delete"
	KeyBackspace = "backspace"
	KeySpace     = "space"
	KeyEnter     = "enter"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyHome      = "home"
	KeyEnd       = "end"
)

// Event is one input event. Point is in screen space.
type Event struct {
	Kind   EventKind
	Point  geometry.Point
	Button Button
	DeltaY float64
	Key    string
	// Toggle adds or removes the node from the selection instead of
	// replacing it.
	Toggle bool
}

func Down(x, y float64) Event { return Event{Kind: PointerDown, Point: geometry.Point{X: x, Y: y}} }
func Move(x, y float64) Event { return Event{Kind: PointerMove, Point: geometry.Point{X: x, Y: y}} }
func Up(x, y float64) Event   { return Event{Kind: PointerUp, Point: geometry.Point{X: x, Y: y}} }

func DoubleClickAt(x, y float64) Event {
	return Event{Kind: DoubleClick, Point: geometry.Point{X: x, Y: y}}
}

func WheelBy(deltaY float64) Event { return Event{Kind: Wheel, DeltaY: deltaY} }

func Key(name string) Event { return Event{Kind: KeyDown, Key: name} }

func KeyRelease(name string) Event { return Event{Kind: KeyUp, Key: name} }
