package window

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/xkb"
)

// Loop runs iterations until the toplevel is closed or a quit is ordered.
func (s *Session) Loop() error {
	for s.Running() {
		if err := s.Iterate(); err != nil {
			return err
		}
	}
	logger.Debug("Event loop finished", "closed", s.closed)
	return nil
}

// Running reports whether the loop should keep going.
func (s *Session) Running() bool {
	if s.closed {
		return false
	}
	_, ordered := s.display.QuitState()
	return !ordered
}

// Iterate runs one pass: apply requests, wait for input, deliver it, then
// draw a frame when one is due.
func (s *Session) Iterate() error {
	s.drainRequests()

	if err := s.blockOnNewEvent(); err != nil {
		return err
	}

	s.queue.Drain(s.deliver)
	s.checkQuit()

	if !s.conf.BlockingEventLoop || s.updateRequested {
		// Cleared first so a redraw scheduled while drawing survives.
		s.updateRequested = false
		s.handler.Update()
		s.handler.Draw()
		if err := s.renderer.Present(); err != nil {
			return fmt.Errorf("present: %w", err)
		}
	}
	return nil
}

func (s *Session) drainRequests() {
	for {
		select {
		case req := <-s.requests:
			s.apply(req)
		default:
			return
		}
	}
}

func (s *Session) apply(req Request) {
	switch r := req.(type) {
	case SetFullscreen:
		var err error
		if r.Fullscreen {
			err = s.toplevel.SetFullscreen()
		} else {
			err = s.toplevel.UnsetFullscreen()
		}
		if err != nil {
			logger.Warnf("Failed to change fullscreen: %v", err)
		}
	case ScheduleUpdate:
		s.updateRequested = true
	default:
		logger.Debug("Ignoring request", "request", fmt.Sprintf("%#v", req))
	}
}

// blockOnNewEvent flushes, waits on the connection and the repeat timer,
// and dispatches whatever arrived. A scheduled update skips the wait.
func (s *Session) blockOnNewEvent() error {
	if err := s.conn.Flush(); err != nil {
		return err
	}
	for !s.conn.PrepareRead() {
		if err := s.conn.DispatchPending(); err != nil {
			return err
		}
	}
	if s.updateRequested {
		s.conn.CancelRead()
		return nil
	}

	fds := []unix.PollFd{
		{Fd: int32(s.conn.Fd()), Events: unix.POLLIN},   //nolint:gosec // fds fit in int32
		{Fd: int32(s.repeat.Fd()), Events: unix.POLLIN}, //nolint:gosec // fds fit in int32
		{Fd: int32(s.waker.fd), Events: unix.POLLIN},    //nolint:gosec // fds fit in int32
	}
	for {
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			s.conn.CancelRead()
			return fmt.Errorf("poll: %w", err)
		}
		break
	}

	conn := fds[0].Revents
	switch {
	case conn&unix.POLLIN != 0:
		if err := s.conn.ReadEvents(); err != nil {
			return err
		}
		if err := s.conn.DispatchPending(); err != nil {
			return err
		}
	case conn&(unix.POLLHUP|unix.POLLERR) != 0:
		s.conn.CancelRead()
		return wayland.ErrConnectionLost
	default:
		s.conn.CancelRead()
	}

	if fds[1].Revents&unix.POLLIN != 0 {
		s.synthesizeRepeats()
	}
	// Requests behind the wake are drained at the top of the next iteration.
	if fds[2].Revents&unix.POLLIN != 0 {
		s.waker.Clear()
	}
	return nil
}

// synthesizeRepeats queues one repeat per timer expiration since the last
// read.
func (s *Session) synthesizeRepeats() {
	key, count, ok, err := s.repeat.Expired()
	if err != nil {
		logger.Warnf("Failed to read repeat timer: %v", err)
		return
	}
	if !ok {
		return
	}
	for range count {
		s.queue.Push(Pending{Kind: PendingKey, Key: key, KeyState: KeyRepeat})
	}
}

// deliver turns one queued event into handler calls.
func (s *Session) deliver(p Pending) {
	h := s.handler
	switch p.Kind {
	case PendingFocusLost:
		s.mods = event.KeyMods{}
	case PendingKey:
		sym := s.kb.keysym(p.Key)
		code := xkb.KeyCodeFromKeysym(sym)
		applyModifier(&s.mods, code, p.KeyState.Down())
		if !p.KeyState.Down() {
			h.KeyUpEvent(code, s.mods)
			return
		}
		repeat := p.KeyState == KeyRepeat
		h.KeyDownEvent(code, s.mods, repeat)
		if ch, ok := s.kb.char(sym); ok {
			h.CharEvent(ch, s.mods, repeat)
		}
	case PendingMotion:
		s.lastX, s.lastY = p.X, p.Y
		h.MouseMotionEvent(p.X, p.Y)
	case PendingButton:
		if p.Pressed {
			h.MouseButtonDownEvent(p.Button, s.lastX, s.lastY)
		} else {
			h.MouseButtonUpEvent(p.Button, s.lastX, s.lastY)
		}
	case PendingAxis:
		h.MouseWheelEvent(p.X, p.Y)
	case PendingFilesDropped:
		s.deliverFiles(p.Paths)
	}
}

// deliverFiles reads the dropped files into the display data before the
// handler is told, skipping files that cannot be read.
func (s *Session) deliverFiles(paths []string) {
	var files DroppedFiles
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debugf("Skipping dropped file %s: %v", path, err)
			continue
		}
		files.Paths = append(files.Paths, path)
		files.Bytes = append(files.Bytes, data)
	}
	s.display.mu.Lock()
	s.display.dropped = files
	s.display.mu.Unlock()

	s.handler.FilesDroppedEvent()
}

// checkQuit lets the handler veto a quit request once. A request still
// standing after the handler returns becomes an order.
func (s *Session) checkQuit() {
	requested, ordered := s.display.QuitState()
	if !requested || ordered {
		return
	}
	s.handler.QuitRequestedEvent()

	s.display.mu.Lock()
	if s.display.quitRequested {
		s.display.quitOrdered = true
	}
	s.display.mu.Unlock()
}
