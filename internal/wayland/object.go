package wayland

import "fmt"

type object struct {
	conn    *Conn
	id      uint32
	version uint32
	dead    bool
}

// ID returns the protocol object id.
func (o *object) ID() uint32 {
	return o.id
}

// Version returns the version the object was bound or created with.
func (o *object) Version() uint32 {
	return o.version
}

// Conn returns the connection the object lives on.
func (o *object) Conn() *Conn {
	return o.conn
}

// newObject allocates an id for an object derived from parent, which
// inherits the parent's version.
func (c *Conn) newObject(version uint32) object {
	return object{conn: c, id: c.newID(), version: version}
}

// request queues a request on o. Requests on destroyed objects are dropped.
func (o *object) request(b *Builder) error {
	if o.dead {
		return fmt.Errorf("wayland: request on destroyed object %d", o.id)
	}
	return o.conn.send(b)
}

// destroy sends a destructor request. The id stays registered until the
// compositor confirms it with delete_id, so events still in flight are
// consumed and their fds closed. Compositor-allocated ids get no delete_id;
// they stay registered until the compositor announces a new object with
// the same id.
func (o *object) destroy(opcode uint16) error {
	if o.dead {
		return nil
	}
	err := o.conn.send(NewBuilder(o.id, opcode))
	o.dead = true
	return err
}

// Display is the wl_display singleton, object 1.
type Display struct {
	object
	// Error is invoked before the protocol error is returned from dispatch.
	Error func(err *ProtocolError)
}

func (*Display) Interface() string { return "wl_display" }

// Sync asks the compositor to emit done on the returned callback once every
// prior request has been handled.
func (d *Display) Sync() (*Callback, error) {
	cb := &Callback{object: d.conn.newObject(1)}
	d.conn.register(cb)
	return cb, d.request(NewBuilder(d.id, 0).ObjectID(cb.id))
}

// GetRegistry creates the registry object.
func (d *Display) GetRegistry() (*Registry, error) {
	r := &Registry{object: d.conn.newObject(1)}
	d.conn.register(r)
	return r, d.request(NewBuilder(d.id, 1).ObjectID(r.id))
}

func (d *Display) dispatch(msg *Message) error {
	switch msg.Opcode {
	case 0:
		perr := &ProtocolError{ObjectID: msg.Object(), Code: msg.Uint32(), Message: msg.String()}
		if err := msg.Err(); err != nil {
			return err
		}
		if d.Error != nil {
			d.Error(perr)
		}
		return perr
	case 1:
		id := msg.Uint32()
		if msg.Err() == nil {
			d.conn.deleteID(id)
		}
	}
	return nil
}

// Global describes one compositor-advertised global.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryListener receives registry events.
type RegistryListener struct {
	Global       func(g Global)
	GlobalRemove func(name uint32)
}

// Registry is wl_registry.
type Registry struct {
	object
	listener RegistryListener
}

func (*Registry) Interface() string { return "wl_registry" }

// SetListener installs the registry listener.
func (r *Registry) SetListener(l RegistryListener) {
	r.listener = l
}

func (r *Registry) dispatch(msg *Message) error {
	switch msg.Opcode {
	case 0:
		g := Global{Name: msg.Uint32(), Interface: msg.String(), Version: msg.Uint32()}
		if msg.Err() == nil && r.listener.Global != nil {
			r.listener.Global(g)
		}
	case 1:
		name := msg.Uint32()
		if msg.Err() == nil && r.listener.GlobalRemove != nil {
			r.listener.GlobalRemove(name)
		}
	}
	return nil
}

func (r *Registry) bind(name uint32, iface string, version uint32, p Proxy) error {
	r.conn.register(p)
	return r.request(NewBuilder(r.id, 0).Uint32(name).String(iface).Uint32(version).ObjectID(p.ID()))
}

func (r *Registry) bound(version uint32) object {
	return r.conn.newObject(version)
}

// BindCompositor binds wl_compositor.
func (r *Registry) BindCompositor(name, version uint32) (*Compositor, error) {
	p := &Compositor{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindSubcompositor binds wl_subcompositor.
func (r *Registry) BindSubcompositor(name, version uint32) (*Subcompositor, error) {
	p := &Subcompositor{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindShm binds wl_shm.
func (r *Registry) BindShm(name, version uint32) (*Shm, error) {
	p := &Shm{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindSeat binds wl_seat.
func (r *Registry) BindSeat(name, version uint32) (*Seat, error) {
	p := &Seat{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindDataDeviceManager binds wl_data_device_manager.
func (r *Registry) BindDataDeviceManager(name, version uint32) (*DataDeviceManager, error) {
	p := &DataDeviceManager{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindWmBase binds xdg_wm_base.
func (r *Registry) BindWmBase(name, version uint32) (*WmBase, error) {
	p := &WmBase{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// BindDecorationManager binds the xdg decoration manager. iface is the name
// the compositor advertised it under.
func (r *Registry) BindDecorationManager(name uint32, iface string, version uint32) (*DecorationManager, error) {
	p := &DecorationManager{object: r.bound(version)}
	return p, r.bind(name, iface, version, p)
}

// BindViewporter binds wp_viewporter.
func (r *Registry) BindViewporter(name, version uint32) (*Viewporter, error) {
	p := &Viewporter{object: r.bound(version)}
	return p, r.bind(name, p.Interface(), version, p)
}

// Callback is wl_callback.
type Callback struct {
	object
	done func(data uint32)
}

func (*Callback) Interface() string { return "wl_callback" }

// SetListener installs the done handler.
func (c *Callback) SetListener(done func(data uint32)) {
	c.done = done
}

func (c *Callback) dispatch(msg *Message) error {
	if msg.Opcode != 0 {
		return nil
	}
	data := msg.Uint32()
	c.dead = true
	if msg.Err() == nil && c.done != nil {
		c.done(data)
	}
	return nil
}
