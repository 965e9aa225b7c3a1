package window

import (
	"image/draw"
	"sync"

	"github.com/bnema/wlwindow/internal/logger"
)

// DroppedFiles is the payload of the last file drop. Paths and Bytes are
// parallel; files that could not be read are left out of both.
type DroppedFiles struct {
	Paths []string
	Bytes [][]byte
}

// DisplayData is the window state shared with other goroutines. Every
// access takes the lock for the shortest span; the event loop never holds
// it across a handler call.
type DisplayData struct {
	mu            sync.Mutex
	width         int32
	height        int32
	quitRequested bool
	quitOrdered   bool
	dropped       DroppedFiles
}

func newDisplayData(width, height int32) *DisplayData {
	return &DisplayData{width: width, height: height}
}

// ScreenSize returns the configured window size in pixels.
func (d *DisplayData) ScreenSize() (int32, int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

func (d *DisplayData) setScreenSize(width, height int32) {
	d.mu.Lock()
	d.width, d.height = width, height
	d.mu.Unlock()
}

// RequestQuit asks the window to quit. The handler sees a quit request
// and may cancel it.
func (d *DisplayData) RequestQuit() {
	d.mu.Lock()
	d.quitRequested = true
	d.mu.Unlock()
}

// CancelQuit vetoes a pending quit request.
func (d *DisplayData) CancelQuit() {
	d.mu.Lock()
	d.quitRequested = false
	d.mu.Unlock()
}

// OrderQuit quits without asking the handler.
func (d *DisplayData) OrderQuit() {
	d.mu.Lock()
	d.quitRequested = true
	d.quitOrdered = true
	d.mu.Unlock()
}

// QuitState returns the quit flags.
func (d *DisplayData) QuitState() (requested, ordered bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quitRequested, d.quitOrdered
}

// DroppedFiles returns the last dropped files.
func (d *DisplayData) DroppedFiles() DroppedFiles {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Request is a message for the event loop, consumed at the top of the
// next iteration.
type Request interface {
	isRequest()
}

// SetFullscreen enters or leaves fullscreen.
type SetFullscreen struct {
	Fullscreen bool
}

// ScheduleUpdate asks for one update/draw cycle.
type ScheduleUpdate struct{}

// Unknown carries a request kind this version does not understand. The
// loop ignores it.
type Unknown struct {
	Kind string
}

func (SetFullscreen) isRequest()  {}
func (ScheduleUpdate) isRequest() {}
func (Unknown) isRequest()        {}

// requestQueueSize bounds requests buffered between two iterations.
const requestQueueSize = 64

// Context is what the application handler talks to the window through.
// Methods touching the display data and the request channel are safe
// from any goroutine; the clipboard and canvas belong to the event loop
// goroutine.
type Context struct {
	display  *DisplayData
	requests chan Request
	wake     func()
	session  *Session
}

// Display returns the shared display data.
func (c *Context) Display() *DisplayData {
	return c.display
}

// ScreenSize returns the window size as floats.
func (c *Context) ScreenSize() (float32, float32) {
	w, h := c.display.ScreenSize()
	return float32(w), float32(h)
}

// DroppedFiles returns the files of the last drop.
func (c *Context) DroppedFiles() DroppedFiles {
	return c.display.DroppedFiles()
}

// RequestQuit asks the handler to confirm a quit on the next iteration.
func (c *Context) RequestQuit() {
	c.display.RequestQuit()
	c.wakeLoop()
}

// CancelQuit vetoes a quit request; call it from QuitRequestedEvent.
func (c *Context) CancelQuit() {
	c.display.CancelQuit()
}

// OrderQuit ends the event loop after the current iteration.
func (c *Context) OrderQuit() {
	c.display.OrderQuit()
}

// Send queues a request for the loop. It never blocks; a full queue drops
// the request.
func (c *Context) Send(req Request) bool {
	select {
	case c.requests <- req:
		c.wakeLoop()
		return true
	default:
		logger.Warnf("Request queue full, dropping %T", req)
		return false
	}
}

func (c *Context) wakeLoop() {
	if c.wake != nil {
		c.wake()
	}
}

// ScheduleUpdate asks for a frame even in blocking mode.
func (c *Context) ScheduleUpdate() {
	c.Send(ScheduleUpdate{})
}

// SetFullscreen toggles fullscreen.
func (c *Context) SetFullscreen(fullscreen bool) {
	c.Send(SetFullscreen{Fullscreen: fullscreen})
}

// Clipboard returns the clipboard of the seat, or nil when the compositor
// offers no data device.
func (c *Context) Clipboard() *Clipboard {
	if c.session == nil {
		return nil
	}
	return c.session.clipboard
}

// Canvas returns the image the next frame is presented from.
func (c *Context) Canvas() draw.Image {
	if c.session == nil || c.session.renderer == nil {
		return nil
	}
	return c.session.renderer.Canvas()
}
