package window

import (
	"golang.org/x/sys/unix"

	"github.com/bnema/wlwindow/internal/decorations"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
)

// Listeners run inside DispatchPending on the loop goroutine. They update
// session state and queue events; only configure talks to the handler
// directly.

func (s *Session) seatListener(seat *wayland.Seat) wayland.SeatListener {
	return wayland.SeatListener{
		Capabilities: func(caps uint32) { s.handleCapabilities(seat, caps) },
		Name: func(name string) {
			logger.Debug("Seat name", "name", name)
		},
	}
}

// handleCapabilities creates the pointer and keyboard when offered and
// releases them when the capability goes away.
func (s *Session) handleCapabilities(seat *wayland.Seat, caps uint32) {
	if seat != s.seat {
		// A later wl_seat global replaced this one.
		logger.Debug("Ignoring capabilities of a replaced seat", "seat", seat.ID())
		return
	}
	hasPointer := caps&wayland.SeatCapabilityPointer != 0
	switch {
	case hasPointer && s.pointer == nil:
		p, err := seat.GetPointer()
		if err != nil {
			logger.Warnf("Failed to get pointer: %v", err)
			break
		}
		p.SetListener(s.pointerListener())
		s.pointer = p
	case !hasPointer && s.pointer != nil:
		if err := s.pointer.Release(); err != nil {
			logger.Debugf("Failed to release pointer: %v", err)
		}
		s.pointer = nil
		s.pointerFocus = 0
	}

	hasKeyboard := caps&wayland.SeatCapabilityKeyboard != 0
	switch {
	case hasKeyboard && s.keyboard == nil:
		k, err := seat.GetKeyboard()
		if err != nil {
			logger.Warnf("Failed to get keyboard: %v", err)
			break
		}
		k.SetListener(s.keyboardListener())
		s.keyboard = k
	case !hasKeyboard && s.keyboard != nil:
		if err := s.keyboard.Release(); err != nil {
			logger.Debugf("Failed to release keyboard: %v", err)
		}
		s.keyboard = nil
		s.hasEnterSerial = false
		if err := s.repeat.Reset(); err != nil {
			logger.Warnf("Failed to stop key repeat: %v", err)
		}
	}
	logger.Debug("Seat capabilities", "pointer", hasPointer, "keyboard", hasKeyboard)
}

func (s *Session) keyboardListener() wayland.KeyboardListener {
	return wayland.KeyboardListener{
		Keymap:     s.handleKeymap,
		Enter:      s.handleKeyboardEnter,
		Leave:      s.handleKeyboardLeave,
		Key:        s.handleKey,
		Modifiers:  s.handleModifiers,
		RepeatInfo: s.handleRepeatInfo,
	}
}

func (s *Session) handleKeymap(format uint32, fd int, size uint32) {
	defer func() { _ = unix.Close(fd) }()

	switch format {
	case wayland.KeymapFormatNoKeymap:
		s.kb.clear()
		return
	case wayland.KeymapFormatXkbV1:
	default:
		logger.Warnf("Unsupported keymap format %d", format)
		return
	}
	if s.kb.ctx == nil || size == 0 {
		return
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		logger.Errorf("Failed to map keymap: %v", err)
		return
	}
	text := string(data)
	if err := unix.Munmap(data); err != nil {
		logger.Debugf("Failed to unmap keymap: %v", err)
	}

	km, err := s.kb.ctx.CompileKeymap(text)
	if err != nil {
		logger.Errorf("Failed to compile keymap: %v", err)
		return
	}
	st, err := km.NewState()
	if err != nil {
		km.Unref()
		logger.Errorf("Failed to create keyboard state: %v", err)
		return
	}
	s.kb.setKeymap(km, st)
	logger.Debug("Keymap installed", "bytes", size)
}

func (s *Session) handleKeyboardEnter(serial uint32, _ uint32, _ []byte) {
	// Setting the selection needs a serial from keyboard focus.
	s.enterSerial = serial
	s.hasEnterSerial = true
}

// handleKeyboardLeave resets keyboard state before any queued key event
// reaches the handler, so no repeat outlives the focus.
func (s *Session) handleKeyboardLeave(uint32, uint32) {
	s.kb.updateMask(0, 0, 0, 0)
	if err := s.repeat.Reset(); err != nil {
		logger.Warnf("Failed to stop key repeat: %v", err)
	}
	s.hasEnterSerial = false
	s.queue.Push(Pending{Kind: PendingFocusLost})
}

func (s *Session) handleKey(_, _ uint32, key, state uint32) {
	var ks KeyState
	switch state {
	case wayland.KeyStateReleased:
		ks = KeyReleased
	case wayland.KeyStatePressed:
		ks = KeyPressed
	case wayland.KeyStateRepeated:
		ks = KeyRepeat
	default:
		logger.Warnf("Unknown key state %d for key %d", state, key)
		return
	}

	// Repeat bookkeeping happens here, not at drain time, so a release in
	// the same batch as its press always wins.
	switch {
	case ks == KeyReleased:
		if err := s.repeat.KeyUp(key); err != nil {
			logger.Warnf("Failed to stop key repeat: %v", err)
		}
	case ks == KeyPressed && s.kb.repeats(key):
		if err := s.repeat.KeyDown(key); err != nil {
			logger.Warnf("Failed to start key repeat: %v", err)
		}
	}
	s.queue.Push(Pending{Kind: PendingKey, Key: key, KeyState: ks})
}

func (s *Session) handleModifiers(_, depressed, latched, locked, group uint32) {
	s.kb.updateMask(depressed, latched, locked, group)
}

func (s *Session) handleRepeatInfo(rate, delay int32) {
	s.repeat.SetRepeatInfo(rate, delay)
}

func (s *Session) pointerListener() wayland.PointerListener {
	return wayland.PointerListener{
		Enter:  s.handlePointerEnter,
		Leave:  s.handlePointerLeave,
		Motion: s.handlePointerMotion,
		Button: s.handlePointerButton,
		Axis:   s.handlePointerAxis,
	}
}

func (s *Session) handlePointerEnter(serial, surface uint32, _, _ wayland.Fixed) {
	s.pointerFocus = surface
	s.pointerSerial = serial
}

func (s *Session) handlePointerLeave(_, surface uint32) {
	if s.pointerFocus == surface {
		s.pointerFocus = 0
	}
}

// onFrame reports whether the pointer is over a decoration surface.
func (s *Session) onFrame() bool {
	return s.decorations != nil && s.pointerFocus != 0 && s.pointerFocus != s.surface.ID()
}

func (s *Session) handlePointerMotion(_ uint32, x, y wayland.Fixed) {
	if s.onFrame() {
		return
	}
	s.queue.Push(Pending{Kind: PendingMotion, X: FixedToFloat(int32(x)), Y: FixedToFloat(int32(y))})
}

func (s *Session) handlePointerButton(serial, _ uint32, button, state uint32) {
	pressed := state == wayland.PointerButtonPressed
	if s.onFrame() {
		if pressed && button == btnLeft && s.decorations.IsTitleBar(s.pointerFocus) && s.seat != nil {
			if err := s.toplevel.Move(s.seat, serial); err != nil {
				logger.Warnf("Failed to start move: %v", err)
			}
		}
		return
	}
	s.queue.Push(Pending{Kind: PendingButton, Button: ButtonFromCode(button), Pressed: pressed})
}

func (s *Session) handlePointerAxis(_ uint32, axis uint32, value wayland.Fixed) {
	x, y, ok := NormalizeAxis(axis, int32(value))
	if !ok {
		logger.Debug("Ignoring scroll", "axis", axis, "value", int32(value))
		return
	}
	s.queue.Push(Pending{Kind: PendingAxis, X: x, Y: y})
}

func (s *Session) handleSurfaceConfigure(serial uint32) {
	if err := s.xdgSurface.AckConfigure(serial); err != nil {
		logger.Warnf("Failed to ack configure: %v", err)
		return
	}
	if err := s.surface.Commit(); err != nil {
		logger.Warnf("Failed to commit surface: %v", err)
	}
}

// handleToplevelConfigure resizes the window. With fallback decorations
// the renderer gets the size inside the frame; everything else sees the
// configured size.
func (s *Session) handleToplevelConfigure(width, height int32, _ []byte) {
	if width == 0 || height == 0 {
		return
	}
	rw, rh := width, height
	if s.decorations != nil {
		// Some compositors keep growing the window unless the content
		// shrinks by the frame.
		rw, rh = decorations.ContentSize(width, height)
	}
	if s.renderer != nil {
		s.renderer.Resize(rw, rh)
	}

	s.display.setScreenSize(width, height)

	if s.decorations != nil {
		if err := s.decorations.Resize(width, height); err != nil {
			logger.Warnf("Failed to resize decorations: %v", err)
		}
	}
	if s.handler != nil {
		s.handler.ResizeEvent(float32(width), float32(height))
	}
}

func (s *Session) handleClose() {
	logger.Debug("Toplevel closed by compositor")
	s.closed = true
}

func (s *Session) handlePing(serial uint32) {
	if err := s.wmBase.Pong(serial); err != nil {
		logger.Warnf("Failed to answer ping: %v", err)
	}
}

func (s *Session) handleDecorationMode(mode uint32) {
	switch mode {
	case wayland.DecorationModeServerSide:
		logger.Debug("Compositor draws decorations")
	case wayland.DecorationModeClientSide:
		logger.Info("Compositor asks for client side decorations")
	}
}
