// Package xkb binds the parts of libxkbcommon a Wayland client needs to
// turn keymaps and scancodes into keysyms. The library is resolved at run
// time with purego, so no cgo toolchain is involved.
package xkb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/ebitengine/purego"
)

// ErrLibraryNotFound is returned when libxkbcommon cannot be loaded.
var ErrLibraryNotFound = errors.New("xkb: libxkbcommon not found")

var libraryNames = []string{"libxkbcommon.so.0", "libxkbcommon.so"}

const (
	keymapFormatTextV1 = 1
	contextNoFlags     = 0
	keymapNoFlags      = 0
)

// Context compiles keymaps and converts keysyms.
type Context interface {
	CompileKeymap(text string) (Keymap, error)
	KeysymToUTF32(sym uint32) uint32
	Close()
}

// Keymap is a compiled keymap.
type Keymap interface {
	// KeyRepeats reports whether the xkb keycode should auto-repeat.
	KeyRepeats(keycode uint32) bool
	NewState() (State, error)
	Unref()
}

// State is the keyboard state of one keymap.
type State interface {
	// KeyGetOneSym returns the keysym of an xkb keycode, evdev code + 8.
	KeyGetOneSym(keycode uint32) uint32
	UpdateMask(depressed, latched, locked, group uint32)
	Unref()
}

// Library is a loaded libxkbcommon.
type Library struct {
	handle uintptr

	contextNew          func(flags uint32) uintptr
	contextUnref        func(ctx uintptr)
	keymapNewFromString func(ctx uintptr, text string, format, flags uint32) uintptr
	keymapUnref         func(keymap uintptr)
	keymapKeyRepeats    func(keymap uintptr, key uint32) int32
	stateNew            func(keymap uintptr) uintptr
	stateUnref          func(state uintptr)
	stateUpdateMask     func(state uintptr, depressed, latched, locked, depLayout, latLayout, lockLayout uint32) int32
	stateKeyGetOneSym   func(state uintptr, key uint32) uint32
	keysymToUTF32       func(sym uint32) uint32
}

// Load opens libxkbcommon and resolves every symbol up front.
func Load() (*Library, error) {
	var (
		handle uintptr
		err    error
	)
	for _, name := range libraryNames {
		handle, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			logger.Debugf("Loaded %s", name)
			break
		}
	}
	if handle == 0 {
		return nil, fmt.Errorf("%w: %v", ErrLibraryNotFound, err)
	}

	lib := &Library{handle: handle}
	symbols := []struct {
		fn   any
		name string
	}{
		{&lib.contextNew, "xkb_context_new"},
		{&lib.contextUnref, "xkb_context_unref"},
		{&lib.keymapNewFromString, "xkb_keymap_new_from_string"},
		{&lib.keymapUnref, "xkb_keymap_unref"},
		{&lib.keymapKeyRepeats, "xkb_keymap_key_repeats"},
		{&lib.stateNew, "xkb_state_new"},
		{&lib.stateUnref, "xkb_state_unref"},
		{&lib.stateUpdateMask, "xkb_state_update_mask"},
		{&lib.stateKeyGetOneSym, "xkb_state_key_get_one_sym"},
		{&lib.keysymToUTF32, "xkb_keysym_to_utf32"},
	}
	for _, s := range symbols {
		sym, err := purego.Dlsym(handle, s.name)
		if err != nil {
			_ = purego.Dlclose(handle)
			return nil, fmt.Errorf("xkb: resolve %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fn, sym)
	}
	return lib, nil
}

// NewContext creates an xkb context.
func (l *Library) NewContext() (Context, error) {
	ctx := l.contextNew(contextNoFlags)
	if ctx == 0 {
		return nil, errors.New("xkb: failed to create context")
	}
	return &context{lib: l, ptr: ctx}, nil
}

type context struct {
	lib *Library
	ptr uintptr
}

func (c *context) CompileKeymap(text string) (Keymap, error) {
	// The compositor's buffer is NUL terminated; purego adds its own.
	text = strings.TrimRight(text, "\x00")
	km := c.lib.keymapNewFromString(c.ptr, text, keymapFormatTextV1, keymapNoFlags)
	if km == 0 {
		return nil, errors.New("xkb: failed to compile keymap")
	}
	return &keymap{lib: c.lib, ptr: km}, nil
}

func (c *context) KeysymToUTF32(sym uint32) uint32 {
	return c.lib.keysymToUTF32(sym)
}

func (c *context) Close() {
	if c.ptr != 0 {
		c.lib.contextUnref(c.ptr)
		c.ptr = 0
	}
}

type keymap struct {
	lib *Library
	ptr uintptr
}

func (k *keymap) KeyRepeats(keycode uint32) bool {
	return k.lib.keymapKeyRepeats(k.ptr, keycode) == 1
}

func (k *keymap) NewState() (State, error) {
	st := k.lib.stateNew(k.ptr)
	if st == 0 {
		return nil, errors.New("xkb: failed to create state")
	}
	return &state{lib: k.lib, ptr: st}, nil
}

func (k *keymap) Unref() {
	if k.ptr != 0 {
		k.lib.keymapUnref(k.ptr)
		k.ptr = 0
	}
}

type state struct {
	lib *Library
	ptr uintptr
}

func (s *state) KeyGetOneSym(keycode uint32) uint32 {
	return s.lib.stateKeyGetOneSym(s.ptr, keycode)
}

func (s *state) UpdateMask(depressed, latched, locked, group uint32) {
	s.lib.stateUpdateMask(s.ptr, depressed, latched, locked, 0, 0, group)
}

func (s *state) Unref() {
	if s.ptr != 0 {
		s.lib.stateUnref(s.ptr)
		s.ptr = 0
	}
}
