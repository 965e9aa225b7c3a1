package cmd

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/window"
)

// Background colors cycled with the space bar.
var palette = []color.RGBA{
	{R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff},
	{R: 0x30, G: 0x34, B: 0x46, A: 0xff},
	{R: 0x11, G: 0x46, B: 0x3a, A: 0xff},
}

var cursorColor = color.RGBA{R: 0xf5, G: 0xc2, B: 0xe7, A: 0xff}

const cursorSize = 8

// demoHandler paints a background and a square under the pointer, and
// exercises the clipboard and file drops from the keyboard.
type demoHandler struct {
	event.BaseHandler
	ctx *window.Context

	background int
	x, y       float32
	typed      []rune
	fullscreen bool
}

func newDemoHandler(ctx *window.Context) *demoHandler {
	return &demoHandler{ctx: ctx}
}

func (h *demoHandler) Draw() {
	canvas := h.ctx.Canvas()
	if canvas == nil {
		return
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(palette[h.background]), image.Point{}, draw.Src)

	x, y := int(h.x), int(h.y)
	square := image.Rect(x-cursorSize/2, y-cursorSize/2, x+cursorSize/2, y+cursorSize/2)
	draw.Draw(canvas, square.Intersect(canvas.Bounds()), image.NewUniform(cursorColor), image.Point{}, draw.Src)
}

func (h *demoHandler) ResizeEvent(width, height float32) {
	logger.Debugf("Resized to %.0fx%.0f", width, height)
	h.ctx.ScheduleUpdate()
}

func (h *demoHandler) MouseMotionEvent(x, y float32) {
	h.x, h.y = x, y
	h.ctx.ScheduleUpdate()
}

func (h *demoHandler) MouseWheelEvent(x, y float32) {
	logger.Debug("Wheel", "x", x, "y", y)
}

func (h *demoHandler) MouseButtonDownEvent(b event.MouseButton, x, y float32) {
	logger.Debug("Button down", "button", b, "x", x, "y", y)
}

func (h *demoHandler) CharEvent(ch rune, _ event.KeyMods, _ bool) {
	if ch >= ' ' {
		h.typed = append(h.typed, ch)
	}
}

func (h *demoHandler) KeyDownEvent(key event.KeyCode, mods event.KeyMods, repeat bool) {
	logger.Debug("Key down", "key", key, "ctrl", mods.Ctrl, "repeat", repeat)
	if repeat {
		return
	}
	switch key {
	case event.KeyEscape:
		h.ctx.RequestQuit()
	case event.KeyF:
		h.fullscreen = !h.fullscreen
		h.ctx.SetFullscreen(h.fullscreen)
	case event.KeySpace:
		h.background = (h.background + 1) % len(palette)
		h.ctx.ScheduleUpdate()
	case event.KeyC:
		h.copyTyped()
	case event.KeyV:
		h.logClipboard()
	}
}

func (h *demoHandler) copyTyped() {
	clip := h.ctx.Clipboard()
	if clip == nil {
		logger.Warn("No clipboard on this seat")
		return
	}
	if err := clip.Set(string(h.typed)); err != nil {
		logger.Warnf("Failed to set clipboard: %v", err)
		return
	}
	logger.Infof("Copied %d characters", len(h.typed))
	h.typed = h.typed[:0]
}

func (h *demoHandler) logClipboard() {
	clip := h.ctx.Clipboard()
	if clip == nil {
		return
	}
	if text, ok := clip.Get(); ok {
		logger.Infof("Clipboard: %q", text)
	}
}

func (h *demoHandler) FilesDroppedEvent() {
	files := h.ctx.DroppedFiles()
	for i, path := range files.Paths {
		logger.Infof("Dropped %s (%d bytes)", path, len(files.Bytes[i]))
	}
}

func (h *demoHandler) QuitRequestedEvent() {
	logger.Info("Quit requested")
}
