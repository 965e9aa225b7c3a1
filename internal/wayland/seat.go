package wayland

import "golang.org/x/sys/unix"

// Seat capability bits.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)

// Pointer button and axis values.
const (
	PointerButtonReleased uint32 = 0
	PointerButtonPressed  uint32 = 1

	PointerAxisVerticalScroll   uint32 = 0
	PointerAxisHorizontalScroll uint32 = 1
)

// Keyboard keymap formats and key states.
const (
	KeymapFormatNoKeymap uint32 = 0
	KeymapFormatXkbV1    uint32 = 1

	KeyStateReleased uint32 = 0
	KeyStatePressed  uint32 = 1
	KeyStateRepeated uint32 = 2
)

// SeatListener receives wl_seat events.
type SeatListener struct {
	Capabilities func(caps uint32)
	Name         func(name string)
}

// Seat is wl_seat.
type Seat struct {
	object
	listener SeatListener
}

func (*Seat) Interface() string { return "wl_seat" }

// SetListener installs the seat listener.
func (s *Seat) SetListener(l SeatListener) {
	s.listener = l
}

func (s *Seat) dispatch(msg *Message) error {
	switch msg.Opcode {
	case 0:
		caps := msg.Uint32()
		if msg.Err() == nil && s.listener.Capabilities != nil {
			s.listener.Capabilities(caps)
		}
	case 1:
		name := msg.String()
		if msg.Err() == nil && s.listener.Name != nil {
			s.listener.Name(name)
		}
	}
	return nil
}

// GetPointer creates the seat's pointer object.
func (s *Seat) GetPointer() (*Pointer, error) {
	p := &Pointer{object: s.conn.newObject(s.version)}
	s.conn.register(p)
	return p, s.request(NewBuilder(s.id, 0).ObjectID(p.id))
}

// GetKeyboard creates the seat's keyboard object.
func (s *Seat) GetKeyboard() (*Keyboard, error) {
	k := &Keyboard{object: s.conn.newObject(s.version)}
	s.conn.register(k)
	return k, s.request(NewBuilder(s.id, 1).ObjectID(k.id))
}

// PointerListener receives wl_pointer events. Axis events beyond Axis are
// accepted and reported only through their own handlers when set.
type PointerListener struct {
	Enter        func(serial uint32, surface uint32, x, y Fixed)
	Leave        func(serial uint32, surface uint32)
	Motion       func(time uint32, x, y Fixed)
	Button       func(serial, time, button, state uint32)
	Axis         func(time, axis uint32, value Fixed)
	Frame        func()
	AxisSource   func(source uint32)
	AxisStop     func(time, axis uint32)
	AxisDiscrete func(axis uint32, discrete int32)
}

// Pointer is wl_pointer.
type Pointer struct {
	object
	listener PointerListener
}

func (*Pointer) Interface() string { return "wl_pointer" }

// SetListener installs the pointer listener.
func (p *Pointer) SetListener(l PointerListener) {
	p.listener = l
}

func (p *Pointer) dispatch(msg *Message) error {
	if p.dead {
		return nil
	}
	l := &p.listener
	switch msg.Opcode {
	case 0:
		serial, surface, x, y := msg.Uint32(), msg.Object(), msg.Fixed(), msg.Fixed()
		if msg.Err() == nil && l.Enter != nil {
			l.Enter(serial, surface, x, y)
		}
	case 1:
		serial, surface := msg.Uint32(), msg.Object()
		if msg.Err() == nil && l.Leave != nil {
			l.Leave(serial, surface)
		}
	case 2:
		time, x, y := msg.Uint32(), msg.Fixed(), msg.Fixed()
		if msg.Err() == nil && l.Motion != nil {
			l.Motion(time, x, y)
		}
	case 3:
		serial, time, button, state := msg.Uint32(), msg.Uint32(), msg.Uint32(), msg.Uint32()
		if msg.Err() == nil && l.Button != nil {
			l.Button(serial, time, button, state)
		}
	case 4:
		time, axis, value := msg.Uint32(), msg.Uint32(), msg.Fixed()
		if msg.Err() == nil && l.Axis != nil {
			l.Axis(time, axis, value)
		}
	case 5:
		if l.Frame != nil {
			l.Frame()
		}
	case 6:
		source := msg.Uint32()
		if msg.Err() == nil && l.AxisSource != nil {
			l.AxisSource(source)
		}
	case 7:
		time, axis := msg.Uint32(), msg.Uint32()
		if msg.Err() == nil && l.AxisStop != nil {
			l.AxisStop(time, axis)
		}
	case 8:
		axis, discrete := msg.Uint32(), msg.Int32()
		if msg.Err() == nil && l.AxisDiscrete != nil {
			l.AxisDiscrete(axis, discrete)
		}
	}
	return nil
}

// Release destroys the pointer. Seats older than version 3 have no release
// request, so the object is only forgotten locally.
func (p *Pointer) Release() error {
	if p.version < 3 {
		p.dead = true
		return nil
	}
	return p.destroy(1)
}

// KeyboardListener receives wl_keyboard events. Keymap hands over
// ownership of fd.
type KeyboardListener struct {
	Keymap     func(format uint32, fd int, size uint32)
	Enter      func(serial uint32, surface uint32, keys []byte)
	Leave      func(serial uint32, surface uint32)
	Key        func(serial, time, key, state uint32)
	Modifiers  func(serial, depressed, latched, locked, group uint32)
	RepeatInfo func(rate, delay int32)
}

// Keyboard is wl_keyboard.
type Keyboard struct {
	object
	listener KeyboardListener
}

func (*Keyboard) Interface() string { return "wl_keyboard" }

// SetListener installs the keyboard listener.
func (k *Keyboard) SetListener(l KeyboardListener) {
	k.listener = l
}

func (k *Keyboard) dispatch(msg *Message) error {
	l := &k.listener
	switch msg.Opcode {
	case 0:
		format, fd, size := msg.Uint32(), msg.FD(), msg.Uint32()
		if msg.Err() != nil {
			if fd >= 0 {
				_ = unix.Close(fd)
			}
			return nil
		}
		if k.dead || l.Keymap == nil {
			_ = unix.Close(fd)
			return nil
		}
		l.Keymap(format, fd, size)
		return nil
	}
	if k.dead {
		return nil
	}
	switch msg.Opcode {
	case 1:
		serial, surface, keys := msg.Uint32(), msg.Object(), msg.Array()
		if msg.Err() == nil && l.Enter != nil {
			l.Enter(serial, surface, keys)
		}
	case 2:
		serial, surface := msg.Uint32(), msg.Object()
		if msg.Err() == nil && l.Leave != nil {
			l.Leave(serial, surface)
		}
	case 3:
		serial, time, key, state := msg.Uint32(), msg.Uint32(), msg.Uint32(), msg.Uint32()
		if msg.Err() == nil && l.Key != nil {
			l.Key(serial, time, key, state)
		}
	case 4:
		serial, dep, lat, lock, group := msg.Uint32(), msg.Uint32(), msg.Uint32(), msg.Uint32(), msg.Uint32()
		if msg.Err() == nil && l.Modifiers != nil {
			l.Modifiers(serial, dep, lat, lock, group)
		}
	case 5:
		rate, delay := msg.Int32(), msg.Int32()
		if msg.Err() == nil && l.RepeatInfo != nil {
			l.RepeatInfo(rate, delay)
		}
	}
	return nil
}

// Release destroys the keyboard, falling back to a local drop on seats
// older than version 3.
func (k *Keyboard) Release() error {
	if k.version < 3 {
		k.dead = true
		return nil
	}
	return k.destroy(0)
}
