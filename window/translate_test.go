package window

import (
	"testing"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/xkb"
	"github.com/stretchr/testify/assert"
)

func TestFixedToFloat(t *testing.T) {
	tests := []struct {
		raw  int32
		want float32
	}{
		{0, 0},
		{256, 1},
		{-256, -1},
		{384, 1.5},
		{1, 1.0 / 256},
		{100 * 256, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FixedToFloat(tt.raw), "raw %d", tt.raw)
	}
}

func TestNormalizeAxis(t *testing.T) {
	tests := []struct {
		name   string
		axis   uint32
		raw    int32
		x, y   float32
		wantOK bool
	}{
		{"scroll down", wayland.PointerAxisVerticalScroll, 10 * 256, 0, -1, true},
		{"scroll up", wayland.PointerAxisVerticalScroll, -3, 0, 1, true},
		{"scroll right", wayland.PointerAxisHorizontalScroll, 2560, 1, 0, true},
		{"scroll left", wayland.PointerAxisHorizontalScroll, -1, -1, 0, true},
		{"zero delta", wayland.PointerAxisVerticalScroll, 0, 0, 0, false},
		{"unknown axis", 7, 256, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := NormalizeAxis(tt.axis, tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestButtonFromCode(t *testing.T) {
	assert.Equal(t, event.MouseButtonLeft, ButtonFromCode(272))
	assert.Equal(t, event.MouseButtonRight, ButtonFromCode(273))
	assert.Equal(t, event.MouseButtonMiddle, ButtonFromCode(274))
	assert.Equal(t, event.MouseButtonUnknown, ButtonFromCode(275))
	assert.Equal(t, event.MouseButtonUnknown, ButtonFromCode(0))
}

func TestApplyModifier(t *testing.T) {
	var mods event.KeyMods
	applyModifier(&mods, event.KeyRightShift, true)
	applyModifier(&mods, event.KeyLeftControl, true)
	applyModifier(&mods, event.KeyRightAlt, true)
	applyModifier(&mods, event.KeyLeftSuper, true)
	assert.Equal(t, event.KeyMods{Shift: true, Ctrl: true, Alt: true, Logo: true}, mods)

	applyModifier(&mods, event.KeyA, false)
	assert.Equal(t, event.KeyMods{Shift: true, Ctrl: true, Alt: true, Logo: true}, mods)

	applyModifier(&mods, event.KeyLeftShift, false)
	applyModifier(&mods, event.KeyRightSuper, false)
	assert.Equal(t, event.KeyMods{Ctrl: true, Alt: true}, mods)
}

func TestTranslatorWithoutKeymap(t *testing.T) {
	var tr translator
	assert.Zero(t, tr.keysym(scanA))
	assert.False(t, tr.repeats(scanA))
	tr.updateMask(1, 0, 0, 0)
	tr.clear()
}

func TestTranslatorOffsetsScancodes(t *testing.T) {
	st := &fakeState{syms: map[uint32]uint32{38: 'a'}}
	tr := translator{}
	tr.setKeymap(&fakeKeymap{state: st}, st)

	assert.Equal(t, uint32('a'), tr.keysym(30))
	assert.Zero(t, tr.keysym(38))
	assert.True(t, tr.repeats(30))

	tr.updateMask(1, 2, 3, 4)
	assert.Equal(t, [][4]uint32{{1, 2, 3, 4}}, st.masks)
}

type utf32Context struct {
	xkb.Context
	cp uint32
}

func (c utf32Context) KeysymToUTF32(uint32) uint32 { return c.cp }

func TestTranslatorChar(t *testing.T) {
	var tr translator
	ch, ok := tr.char('q')
	assert.True(t, ok)
	assert.Equal(t, 'q', ch)

	_, ok = tr.char(0)
	assert.False(t, ok)
	_, ok = tr.char(xkb.KeyShiftL)
	assert.False(t, ok)

	tr.ctx = utf32Context{cp: 0x20ac}
	ch, ok = tr.char(0x20ac)
	assert.True(t, ok)
	assert.Equal(t, '€', ch)

	for _, cp := range []uint32{0, 0xd800, 0x110000} {
		tr.ctx = utf32Context{cp: cp}
		_, ok = tr.char(1)
		assert.False(t, ok, "code point %#x", cp)
	}
}
