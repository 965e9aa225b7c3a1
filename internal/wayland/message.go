package wayland

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// headerSize is the size of the object id + size/opcode words that start
// every message on the wire.
const headerSize = 8

// maxMessageSize is the largest message libwayland will accept.
const maxMessageSize = 4096

var (
	errShortMessage = errors.New("wayland: message body too short")
	errMissingFD    = errors.New("wayland: message references a file descriptor that was not received")
)

// byteOrder is the wire byte order. Wayland uses host order and every
// platform this package runs on is little endian.
var byteOrder = binary.LittleEndian

// Fixed is a signed 24.8 fixed-point number.
type Fixed int32

// Float converts the fixed-point value to a float64.
func (f Fixed) Float() float64 {
	return float64(f) / 256.0
}

// Float32 converts the fixed-point value to a float32.
func (f Fixed) Float32() float32 {
	return float32(f) / 256.0
}

// FixedFromFloat converts v to the closest representable fixed-point value
// rounding toward zero.
func FixedFromFloat(v float64) Fixed {
	return Fixed(v * 256.0)
}

// FixedFromInt converts an integer to fixed point.
func FixedFromInt(v int) Fixed {
	return Fixed(v * 256)
}

// Message is an incoming message being decoded. Arguments must be read in
// the order they appear in the protocol description. Read errors are sticky
// and reported by Err.
type Message struct {
	Sender uint32
	Opcode uint16

	body []byte
	off  int
	fds  *[]int
	err  error
}

// NewMessage wraps a message body for decoding. fds is the queue file
// descriptor arguments are taken from, in order.
func NewMessage(sender uint32, opcode uint16, body []byte, fds *[]int) *Message {
	return &Message{Sender: sender, Opcode: opcode, body: body, fds: fds}
}

// Err returns the first decoding error.
func (m *Message) Err() error {
	return m.err
}

func (m *Message) word() uint32 {
	if m.err != nil {
		return 0
	}
	if m.off+4 > len(m.body) {
		m.err = fmt.Errorf("%w: opcode %d of object %d", errShortMessage, m.Opcode, m.Sender)
		return 0
	}
	v := byteOrder.Uint32(m.body[m.off:])
	m.off += 4
	return v
}

// Uint32 reads a uint argument.
func (m *Message) Uint32() uint32 {
	return m.word()
}

// Int32 reads an int argument.
func (m *Message) Int32() int32 {
	return int32(m.word())
}

// Fixed reads a fixed argument.
func (m *Message) Fixed() Fixed {
	return Fixed(m.word())
}

// Object reads an object id argument. Zero means null.
func (m *Message) Object() uint32 {
	return m.word()
}

// NewID reads a new_id argument.
func (m *Message) NewID() uint32 {
	return m.word()
}

// String reads a string argument. A null string reads as "".
func (m *Message) String() string {
	n := int(m.word())
	if m.err != nil || n == 0 {
		return ""
	}
	padded := (n + 3) &^ 3
	if m.off+padded > len(m.body) {
		m.err = fmt.Errorf("%w: string of %d bytes", errShortMessage, n)
		return ""
	}
	s := string(m.body[m.off : m.off+n-1])
	m.off += padded
	return s
}

// Array reads an array argument. The returned slice is a copy.
func (m *Message) Array() []byte {
	n := int(m.word())
	if m.err != nil {
		return nil
	}
	padded := (n + 3) &^ 3
	if m.off+padded > len(m.body) {
		m.err = fmt.Errorf("%w: array of %d bytes", errShortMessage, n)
		return nil
	}
	out := make([]byte, n)
	copy(out, m.body[m.off:m.off+n])
	m.off += padded
	return out
}

// FD takes the next received file descriptor. The caller owns it.
func (m *Message) FD() int {
	if m.err != nil {
		return -1
	}
	if m.fds == nil || len(*m.fds) == 0 {
		m.err = errMissingFD
		return -1
	}
	fd := (*m.fds)[0]
	*m.fds = (*m.fds)[1:]
	return fd
}

// Builder encodes an outgoing message.
type Builder struct {
	buf []byte
	fds []int
	err error
}

// NewBuilder starts a message for object id with the given opcode.
func NewBuilder(id uint32, opcode uint16) *Builder {
	b := &Builder{buf: make([]byte, headerSize, 64)}
	byteOrder.PutUint32(b.buf[0:], id)
	byteOrder.PutUint32(b.buf[4:], uint32(opcode))
	return b
}

func (b *Builder) word(v uint32) *Builder {
	b.buf = byteOrder.AppendUint32(b.buf, v)
	return b
}

// Uint32 appends a uint argument.
func (b *Builder) Uint32(v uint32) *Builder {
	return b.word(v)
}

// Int32 appends an int argument.
func (b *Builder) Int32(v int32) *Builder {
	return b.word(uint32(v))
}

// Fixed appends a fixed argument.
func (b *Builder) Fixed(v Fixed) *Builder {
	return b.word(uint32(v))
}

// Object appends an object argument; nil encodes as the null object.
func (b *Builder) Object(p Proxy) *Builder {
	if p == nil {
		return b.word(0)
	}
	return b.word(p.ID())
}

// ObjectID appends a raw object or new_id argument.
func (b *Builder) ObjectID(id uint32) *Builder {
	return b.word(id)
}

// String appends a string argument including its terminating NUL.
func (b *Builder) String(s string) *Builder {
	n := len(s) + 1
	b.word(uint32(n))
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	for pad := (4 - n%4) % 4; pad > 0; pad-- {
		b.buf = append(b.buf, 0)
	}
	return b
}

// NullString appends a null string argument.
func (b *Builder) NullString() *Builder {
	return b.word(0)
}

// Array appends an array argument.
func (b *Builder) Array(data []byte) *Builder {
	b.word(uint32(len(data)))
	b.buf = append(b.buf, data...)
	for pad := (4 - len(data)%4) % 4; pad > 0; pad-- {
		b.buf = append(b.buf, 0)
	}
	return b
}

// FD appends a file descriptor argument. The descriptor is duplicated, so
// the caller keeps ownership of fd.
func (b *Builder) FD(fd int) *Builder {
	dup, err := unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("wayland: dup fd %d: %w", fd, err)
		}
		return b
	}
	b.fds = append(b.fds, dup)
	return b
}

// Bytes finalizes the header and returns the encoded message together with
// the file descriptors that travel with it.
func (b *Builder) Bytes() ([]byte, []int, error) {
	if b.err != nil {
		closeAll(b.fds)
		return nil, nil, b.err
	}
	if len(b.buf) > maxMessageSize {
		closeAll(b.fds)
		return nil, nil, fmt.Errorf("wayland: message of %d bytes exceeds %d", len(b.buf), maxMessageSize)
	}
	opcode := byteOrder.Uint32(b.buf[4:]) & 0xffff
	byteOrder.PutUint32(b.buf[4:], uint32(len(b.buf))<<16|opcode)
	return b.buf, b.fds, nil
}

// ParseHeader decodes a message header. ok is false if data does not yet
// hold the complete message.
func ParseHeader(data []byte) (sender uint32, opcode uint16, size int, ok bool) {
	if len(data) < headerSize {
		return 0, 0, 0, false
	}
	sender = byteOrder.Uint32(data[0:])
	word := byteOrder.Uint32(data[4:])
	opcode = uint16(word & 0xffff)
	size = int(word >> 16)
	return sender, opcode, size, len(data) >= size
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
