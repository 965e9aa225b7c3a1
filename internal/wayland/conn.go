// Package wayland is a small pure-Go implementation of the client side of
// the Wayland wire protocol. It covers the objects one top-level window
// needs and exposes the libwayland read protocol (prepare, read, dispatch,
// cancel) so callers can run their own poll loop.
package wayland

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bnema/wlwindow/internal/logger"
	"golang.org/x/sys/unix"
)

// ErrConnectionLost is returned once the compositor hung up.
var ErrConnectionLost = errors.New("wayland: connection to compositor lost")

// maxFDsPerRead bounds the control buffer of a single recvmsg call.
const maxFDsPerRead = 28

// Proxy is a client-side protocol object.
type Proxy interface {
	ID() uint32
	Interface() string
	dispatch(msg *Message) error
}

// ProtocolError is a fatal error reported by the compositor through
// wl_display.error.
type ProtocolError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wayland: protocol error on object %d, code %d: %s", e.ObjectID, e.Code, e.Message)
}

// Conn is a connection to a compositor. It is not safe for concurrent use;
// one goroutine owns the connection and every proxy created on it.
type Conn struct {
	fd      int
	nextID  uint32
	objects map[uint32]Proxy

	out    []byte
	outFDs []int

	in      []byte
	inFDs   []int
	readBuf []byte
	oob     []byte
	reading bool

	err     error
	trace   bool
	display *Display
}

// Dial connects to the compositor named by name, or by the environment when
// name is empty. WAYLAND_SOCKET takes precedence over WAYLAND_DISPLAY, which
// defaults to "wayland-0". Relative names are resolved against
// XDG_RUNTIME_DIR.
func Dial(name string) (*Conn, error) {
	if name == "" {
		if sock := os.Getenv("WAYLAND_SOCKET"); sock != "" {
			fd, err := strconv.Atoi(sock)
			if err != nil {
				return nil, fmt.Errorf("invalid WAYLAND_SOCKET %q: %w", sock, err)
			}
			_ = os.Unsetenv("WAYLAND_SOCKET")
			unix.CloseOnExec(fd)
			return NewConn(fd), nil
		}
		name = os.Getenv("WAYLAND_DISPLAY")
		if name == "" {
			name = "wayland-0"
		}
	}
	path := name
	if !filepath.IsAbs(path) {
		runDir := os.Getenv("XDG_RUNTIME_DIR")
		if runDir == "" {
			return nil, errors.New("XDG_RUNTIME_DIR not set")
		}
		path = filepath.Join(runDir, name)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to connect to Wayland display %s: %w", path, err)
	}
	logger.Debugf("Connected to Wayland socket %s", path)
	return NewConn(fd), nil
}

// NewConn wraps an already connected stream socket. The Conn takes
// ownership of fd.
func NewConn(fd int) *Conn {
	c := &Conn{
		fd:      fd,
		nextID:  2,
		objects: make(map[uint32]Proxy),
		readBuf: make([]byte, 4*maxMessageSize),
		oob:     make([]byte, unix.CmsgSpace(maxFDsPerRead*4)),
	}
	c.display = &Display{object: object{conn: c, id: 1, version: 1}}
	c.objects[1] = c.display
	return c
}

// SetTrace enables logging of every request and event at debug level.
func (c *Conn) SetTrace(on bool) {
	c.trace = on
}

// Display returns the wl_display singleton.
func (c *Conn) Display() *Display {
	return c.display
}

// Fd returns the socket descriptor for polling.
func (c *Conn) Fd() int {
	return c.fd
}

// Err returns the sticky connection error, if any.
func (c *Conn) Err() error {
	return c.err
}

// Close closes the socket and every file descriptor still queued.
func (c *Conn) Close() error {
	closeAll(c.outFDs)
	closeAll(c.inFDs)
	c.outFDs, c.inFDs = nil, nil
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}

func (c *Conn) newID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

func (c *Conn) register(p Proxy) {
	c.objects[p.ID()] = p
}

// Object looks up a live proxy by id.
func (c *Conn) Object(id uint32) Proxy {
	return c.objects[id]
}

// send queues a request. Nothing is written until Flush.
func (c *Conn) send(b *Builder) error {
	if c.err != nil {
		return c.err
	}
	data, fds, err := b.Bytes()
	if err != nil {
		return err
	}
	// One sendmsg carries at most maxFDsPerRead fds, so flush before the
	// queue would outgrow a batch and every batch still has bytes to ride on.
	if len(c.outFDs) > 0 && len(c.outFDs)+len(fds) > maxFDsPerRead {
		if err := c.Flush(); err != nil {
			closeAll(fds)
			return err
		}
	}
	if c.trace && logger.IsDebug() {
		sender, opcode, _, _ := ParseHeader(data)
		name := "?"
		if p := c.objects[sender]; p != nil {
			name = p.Interface()
		}
		logger.Tracef(" -> %s@%d.%d (%d bytes, %d fds)", name, sender, opcode, len(data), len(fds))
	}
	c.out = append(c.out, data...)
	c.outFDs = append(c.outFDs, fds...)
	return nil
}

// Flush writes every queued request.
func (c *Conn) Flush() error {
	if c.err != nil {
		return c.err
	}
	for len(c.out) > 0 || len(c.outFDs) > 0 {
		if len(c.out) == 0 {
			// Fds without bytes would never reach the peer.
			closeAll(c.outFDs)
			c.outFDs = c.outFDs[:0]
			return errors.New("wayland: file descriptors queued without a request")
		}
		var oob []byte
		fds := c.outFDs
		if len(fds) > maxFDsPerRead {
			fds = fds[:maxFDsPerRead]
		}
		if len(fds) > 0 {
			oob = unix.UnixRights(fds...)
		}
		n, err := unix.SendmsgN(c.fd, c.out, oob, nil, unix.MSG_NOSIGNAL)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			if err == unix.EPIPE || err == unix.ECONNRESET {
				c.err = ErrConnectionLost
				return c.err
			}
			return fmt.Errorf("failed to flush requests: %w", err)
		}
		closeAll(fds)
		c.outFDs = c.outFDs[len(fds):]
		c.out = c.out[n:]
	}
	c.out = c.out[:0]
	return nil
}

// HasPending reports whether a complete, undispatched message is buffered.
// A header announcing a malformed size counts, so DispatchPending gets to
// reject it instead of the caller blocking for more input.
func (c *Conn) HasPending() bool {
	_, _, _, ok := ParseHeader(c.in)
	return ok
}

// PrepareRead announces the intention to read from the socket. It fails
// while buffered messages are still owed a dispatch; the caller must call
// DispatchPending and try again.
func (c *Conn) PrepareRead() bool {
	if c.HasPending() {
		return false
	}
	c.reading = true
	return true
}

// CancelRead releases a read intent without reading.
func (c *Conn) CancelRead() {
	c.reading = false
}

// ReadEvents consumes everything available on the socket without blocking
// and releases the read intent. Messages are buffered for DispatchPending.
func (c *Conn) ReadEvents() error {
	if !c.reading {
		return errors.New("wayland: ReadEvents without PrepareRead")
	}
	c.reading = false
	if c.err != nil {
		return c.err
	}
	for {
		n, oobn, _, _, err := unix.Recvmsg(c.fd, c.readBuf, c.oob, unix.MSG_DONTWAIT|unix.MSG_CMSG_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			if err == unix.ECONNRESET {
				c.err = ErrConnectionLost
				return c.err
			}
			return fmt.Errorf("failed to read events: %w", err)
		}
		if oobn > 0 {
			if err := c.collectFDs(c.oob[:oobn]); err != nil {
				return err
			}
		}
		if n == 0 {
			c.err = ErrConnectionLost
			return c.err
		}
		c.in = append(c.in, c.readBuf[:n]...)
		if n < len(c.readBuf) {
			return nil
		}
	}
}

func (c *Conn) collectFDs(oob []byte) error {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return fmt.Errorf("parse control message: %w", err)
	}
	for i := range msgs {
		if msgs[i].Header.Level != unix.SOL_SOCKET || msgs[i].Header.Type != unix.SCM_RIGHTS {
			continue
		}
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			return fmt.Errorf("parse unix rights: %w", err)
		}
		c.inFDs = append(c.inFDs, fds...)
	}
	return nil
}

// DispatchPending runs the listeners of every complete buffered message.
func (c *Conn) DispatchPending() error {
	if c.err != nil {
		return c.err
	}
	for {
		sender, opcode, size, ok := ParseHeader(c.in)
		if !ok {
			break
		}
		if size < headerSize || size > maxMessageSize {
			c.err = fmt.Errorf("wayland: malformed message of %d bytes from object %d", size, sender)
			return c.err
		}
		body := make([]byte, size-headerSize)
		copy(body, c.in[headerSize:size])
		c.in = c.in[size:]

		p := c.objects[sender]
		if p == nil {
			// Destroyed objects stay registered and consume their own fds,
			// so only ids the compositor never announced land here.
			logger.Debugf("Dropping event %d for unknown object %d", opcode, sender)
			continue
		}
		if c.trace && logger.IsDebug() {
			logger.Tracef("%s@%d.%d (%d bytes)", p.Interface(), sender, opcode, len(body))
		}
		msg := NewMessage(sender, opcode, body, &c.inFDs)
		if err := p.dispatch(msg); err != nil {
			if c.err == nil {
				c.err = err
			}
			return err
		}
		if err := msg.Err(); err != nil {
			c.err = fmt.Errorf("decode %s event %d: %w", p.Interface(), opcode, err)
			return c.err
		}
	}
	if len(c.in) == 0 {
		c.in = c.in[:0:0]
	}
	return nil
}

// waitReadable blocks until the socket is readable.
func (c *Conn) waitReadable() error {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			return nil
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			c.err = ErrConnectionLost
			return c.err
		}
	}
}

// Dispatch blocks until at least one event has been dispatched, mirroring
// wl_display_dispatch.
func (c *Conn) Dispatch() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if !c.PrepareRead() {
		return c.DispatchPending()
	}
	if err := c.waitReadable(); err != nil {
		c.CancelRead()
		return err
	}
	if err := c.ReadEvents(); err != nil {
		return err
	}
	return c.DispatchPending()
}

// Roundtrip blocks until the compositor has processed every request sent
// so far, dispatching events in the meantime.
func (c *Conn) Roundtrip() error {
	done := false
	cb, err := c.display.Sync()
	if err != nil {
		return err
	}
	cb.SetListener(func(uint32) { done = true })
	for !done {
		if err := c.Dispatch(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) deleteID(id uint32) {
	delete(c.objects, id)
}
