// Package wltest provides an in-process fake compositor for tests. It
// speaks the wire protocol over a socketpair, answers the registry and sync
// requests on its own and records every other request so tests can assert
// on what a client sent.
package wltest

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bnema/wlwindow/internal/wayland"
	"golang.org/x/sys/unix"
)

// Global is a global the fake compositor advertises.
type Global struct {
	Interface string
	Version   uint32
}

// Request is one request received from the client.
type Request struct {
	Object    uint32
	Interface string
	Opcode    uint16
	Body      []byte
	FDs       []int
}

// Message returns a decoder over the request arguments.
func (r Request) Message() *wayland.Message {
	fds := append([]int(nil), r.FDs...)
	return wayland.NewMessage(r.Object, r.Opcode, r.Body, &fds)
}

// creates maps "interface.opcode" of requests whose first argument is a
// new_id to the interface of the created object.
var creates = map[string]string{
	"wl_display.0":                 "wl_callback",
	"wl_display.1":                 "wl_registry",
	"wl_compositor.0":              "wl_surface",
	"wl_surface.3":                 "wl_callback",
	"wl_subcompositor.1":           "wl_subsurface",
	"wl_shm.0":                     "wl_shm_pool",
	"wl_shm_pool.0":                "wl_buffer",
	"wl_seat.0":                    "wl_pointer",
	"wl_seat.1":                    "wl_keyboard",
	"wl_data_device_manager.0":     "wl_data_source",
	"wl_data_device_manager.1":     "wl_data_device",
	"xdg_wm_base.2":                "xdg_surface",
	"xdg_surface.1":                "xdg_toplevel",
	"zxdg_decoration_manager_v1.1": "zxdg_toplevel_decoration_v1",
	"wp_viewporter.1":              "wp_viewport",
	"zxdg_decoration_manager.1":    "zxdg_toplevel_decoration_v1",
}

// Compositor is a fake compositor serving one client connection.
type Compositor struct {
	t      testing.TB
	fd     int
	client *wayland.Conn

	mu       sync.Mutex
	cond     *sync.Cond
	globals  []Global
	objects  map[uint32]string
	requests []Request
	nextID   uint32
	done     chan struct{}
}

// New starts a fake compositor advertising globals and returns it with a
// client connection attached. Both are torn down with the test.
func New(t testing.TB, globals ...Global) *Compositor {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	c := &Compositor{
		t:       t,
		fd:      fds[1],
		client:  wayland.NewConn(fds[0]),
		globals: globals,
		objects: map[uint32]string{1: "wl_display"},
		nextID:  0xff000000,
		done:    make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.serve()
	t.Cleanup(func() {
		_ = c.client.Close()
		c.Hangup()
		<-c.done
		_ = unix.Close(c.fd)
		c.mu.Lock()
		for _, r := range c.requests {
			for _, fd := range r.FDs {
				_ = unix.Close(fd)
			}
		}
		c.mu.Unlock()
	})
	return c
}

// Client returns the client side of the connection.
func (c *Compositor) Client() *wayland.Conn {
	return c.client
}

// Hangup shuts the compositor side down, as a crashing compositor would.
func (c *Compositor) Hangup() {
	_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
}

func (c *Compositor) serve() {
	defer close(c.done)
	buf := make([]byte, 65536)
	oob := make([]byte, unix.CmsgSpace(28*4))
	var in []byte
	var inFDs []int
	for {
		n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, unix.MSG_CMSG_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		if err != nil || n == 0 {
			return
		}
		if oobn > 0 {
			if msgs, err := unix.ParseSocketControlMessage(oob[:oobn]); err == nil {
				for i := range msgs {
					if fds, err := unix.ParseUnixRights(&msgs[i]); err == nil {
						inFDs = append(inFDs, fds...)
					}
				}
			}
		}
		in = append(in, buf[:n]...)
		for {
			sender, opcode, size, ok := wayland.ParseHeader(in)
			if !ok || size < 8 {
				break
			}
			body := append([]byte(nil), in[8:size]...)
			in = in[size:]
			c.handle(sender, opcode, body, &inFDs)
		}
	}
}

// fdArgs lists requests carrying file descriptors and how many.
var fdArgs = map[string]int{
	"wl_shm.0":        1,
	"wl_data_offer.1": 1,
}

func (c *Compositor) handle(sender uint32, opcode uint16, body []byte, fds *[]int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	iface := c.objects[sender]
	key := iface + "." + strconv.Itoa(int(opcode))
	req := Request{Object: sender, Interface: iface, Opcode: opcode, Body: body}
	for i := 0; i < fdArgs[key] && len(*fds) > 0; i++ {
		req.FDs = append(req.FDs, (*fds)[0])
		*fds = (*fds)[1:]
	}
	c.requests = append(c.requests, req)

	msg := wayland.NewMessage(sender, opcode, body, nil)
	switch {
	case key == "wl_registry.0":
		msg.Uint32()
		bound := msg.String()
		msg.Uint32()
		c.objects[msg.NewID()] = bound
	case creates[key] != "":
		id := msg.NewID()
		c.objects[id] = creates[key]
		switch key {
		case "wl_display.0":
			c.sendLocked(id, 0, func(b *wayland.Builder) { b.Uint32(0) })
			c.sendLocked(1, 1, func(b *wayland.Builder) { b.Uint32(id) })
		case "wl_display.1":
			for i, g := range c.globals {
				g := g
				c.sendLocked(id, 0, func(b *wayland.Builder) {
					b.Uint32(uint32(i + 1)).String(g.Interface).Uint32(g.Version)
				})
			}
		}
	}
	c.cond.Broadcast()
}

func (c *Compositor) sendLocked(id uint32, opcode uint16, args func(b *wayland.Builder)) {
	b := wayland.NewBuilder(id, opcode)
	if args != nil {
		args(b)
	}
	data, fds, err := b.Bytes()
	if err != nil {
		c.t.Errorf("wltest: encode event: %v", err)
		return
	}
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	if err := unix.Sendmsg(c.fd, data, oob, nil, unix.MSG_NOSIGNAL); err != nil {
		c.t.Logf("wltest: send event: %v", err)
	}
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}

// Send writes an event from object id to the client.
func (c *Compositor) Send(id uint32, opcode uint16, args func(b *wayland.Builder)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(id, opcode, args)
}

// SendRaw writes bytes to the client as they are, for malformed input.
func (c *Compositor) SendRaw(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := unix.Write(c.fd, data); err != nil {
		c.t.Logf("wltest: send raw: %v", err)
	}
}

// NewServerObject allocates a compositor-side id for an object of iface,
// as announced by events such as wl_data_device.data_offer.
func (c *Compositor) NewServerObject(iface string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.objects[id] = iface
	return id
}

// ObjectID returns the most recently created object of iface, or 0.
func (c *Compositor) ObjectID(iface string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found uint32
	for id, name := range c.objects {
		if name == iface && id > found && id < 0xff000000 {
			found = id
		}
	}
	return found
}

// Requests returns the requests received for iface, in order.
func (c *Compositor) Requests(iface string) []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Request
	for _, r := range c.requests {
		if r.Interface == iface {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the requests with the given interface and opcode.
func (c *Compositor) Find(iface string, opcode uint16) []Request {
	var out []Request
	for _, r := range c.Requests(iface) {
		if r.Opcode == opcode {
			out = append(out, r)
		}
	}
	return out
}

// WaitFor blocks until a request with the given interface and opcode has
// been received, failing the test after timeout.
func (c *Compositor) WaitFor(iface string, opcode uint16, timeout time.Duration) Request {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		for _, r := range c.requests {
			if r.Interface == iface && r.Opcode == opcode {
				return r
			}
		}
		if time.Now().After(deadline) {
			c.t.Fatalf("wltest: timed out waiting for %s.%d", iface, opcode)
			return Request{}
		}
		c.cond.Wait()
	}
}
