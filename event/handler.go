// Package event defines what a window delivers to the application: key
// codes, modifier snapshots, mouse buttons and the Handler callbacks.
package event

// KeyMods is a snapshot of the modifier keys.
type KeyMods struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Logo  bool
}

// MouseButton identifies a pointer button.
type MouseButton int

const (
	MouseButtonUnknown MouseButton = iota
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseButtonLeft:
		return "Left"
	case MouseButtonRight:
		return "Right"
	case MouseButtonMiddle:
		return "Middle"
	default:
		return "Unknown"
	}
}

// Handler receives window events on the goroutine running the event loop.
// Calls never overlap.
type Handler interface {
	// Update and Draw run once per frame, in that order.
	Update()
	Draw()

	ResizeEvent(width, height float32)
	MouseMotionEvent(x, y float32)
	MouseWheelEvent(x, y float32)
	MouseButtonDownEvent(button MouseButton, x, y float32)
	MouseButtonUpEvent(button MouseButton, x, y float32)
	CharEvent(ch rune, mods KeyMods, repeat bool)
	KeyDownEvent(key KeyCode, mods KeyMods, repeat bool)
	KeyUpEvent(key KeyCode, mods KeyMods)

	// FilesDroppedEvent runs after the dropped files have been read; their
	// paths and contents are available from the window context.
	FilesDroppedEvent()

	// QuitRequestedEvent may veto the quit by cancelling it on the window
	// context.
	QuitRequestedEvent()
}

// BaseHandler implements every Handler method as a no-op. Embed it and
// override what is needed.
type BaseHandler struct{}

func (BaseHandler) Update() {}
func (BaseHandler) Draw() {}
func (BaseHandler) ResizeEvent(width, height float32) {}
func (BaseHandler) MouseMotionEvent(x, y float32) {}
func (BaseHandler) MouseWheelEvent(x, y float32) {}
func (BaseHandler) MouseButtonDownEvent(MouseButton, float32, float32) {}
func (BaseHandler) MouseButtonUpEvent(MouseButton, float32, float32) {}
func (BaseHandler) CharEvent(rune, KeyMods, bool) {}
func (BaseHandler) KeyDownEvent(KeyCode, KeyMods, bool) {}
func (BaseHandler) KeyUpEvent(KeyCode, KeyMods) {}
func (BaseHandler) FilesDroppedEvent() {}
func (BaseHandler) QuitRequestedEvent() {}
