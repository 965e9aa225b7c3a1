package window

import (
	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/xkb"
)

// Linux input event codes of the pointer buttons.
const (
	btnLeft   uint32 = 272
	btnRight  uint32 = 273
	btnMiddle uint32 = 274
)

// xkbKeycodeOffset converts evdev scancodes to xkb keycodes.
const xkbKeycodeOffset = 8

// FixedToFloat converts a 24.8 fixed-point protocol value.
func FixedToFloat(v int32) float32 {
	return wayland.Fixed(v).Float32()
}

// NormalizeAxis turns a raw scroll value into a unit step. Vertical steps
// are flipped so that scrolling up is positive. ok is false for a zero
// delta or an unknown axis, which produce no event.
func NormalizeAxis(axis uint32, raw int32) (x, y float32, ok bool) {
	if raw == 0 {
		return 0, 0, false
	}
	step := float32(1)
	if raw < 0 {
		step = -1
	}
	switch axis {
	case wayland.PointerAxisVerticalScroll:
		return 0, -step, true
	case wayland.PointerAxisHorizontalScroll:
		return step, 0, true
	}
	return 0, 0, false
}

// ButtonFromCode maps a linux button code.
func ButtonFromCode(code uint32) event.MouseButton {
	switch code {
	case btnLeft:
		return event.MouseButtonLeft
	case btnRight:
		return event.MouseButtonRight
	case btnMiddle:
		return event.MouseButtonMiddle
	default:
		return event.MouseButtonUnknown
	}
}

// applyModifier updates mods when key is a modifier key.
func applyModifier(mods *event.KeyMods, key event.KeyCode, down bool) {
	switch key {
	case event.KeyLeftShift, event.KeyRightShift:
		mods.Shift = down
	case event.KeyLeftControl, event.KeyRightControl:
		mods.Ctrl = down
	case event.KeyLeftAlt, event.KeyRightAlt:
		mods.Alt = down
	case event.KeyLeftSuper, event.KeyRightSuper:
		mods.Logo = down
	}
}

// translator holds the keymap and keyboard state of the seat.
type translator struct {
	ctx    xkb.Context
	keymap xkb.Keymap
	state  xkb.State
}

// setKeymap installs a compiled keymap, releasing the previous pair.
func (t *translator) setKeymap(km xkb.Keymap, st xkb.State) {
	t.clear()
	t.keymap, t.state = km, st
}

func (t *translator) clear() {
	if t.state != nil {
		t.state.Unref()
		t.state = nil
	}
	if t.keymap != nil {
		t.keymap.Unref()
		t.keymap = nil
	}
}

// keysym looks up an evdev scancode. It is 0 before a keymap arrives.
func (t *translator) keysym(scancode uint32) uint32 {
	if t.state == nil {
		return 0
	}
	return t.state.KeyGetOneSym(scancode + xkbKeycodeOffset)
}

func (t *translator) repeats(scancode uint32) bool {
	return t.keymap != nil && t.keymap.KeyRepeats(scancode+xkbKeycodeOffset)
}

// char returns the text produced by sym, if any.
func (t *translator) char(sym uint32) (rune, bool) {
	if sym == 0 {
		return 0, false
	}
	var cp uint32
	if t.ctx != nil {
		cp = t.ctx.KeysymToUTF32(sym)
	} else {
		cp = uint32(xkb.KeysymToRune(sym)) //nolint:gosec // runes are non-negative here
	}
	if cp == 0 || cp > 0x10ffff || (cp >= 0xd800 && cp <= 0xdfff) {
		return 0, false
	}
	return rune(cp), true
}

func (t *translator) updateMask(depressed, latched, locked, group uint32) {
	if t.state != nil {
		t.state.UpdateMask(depressed, latched, locked, group)
	}
}
