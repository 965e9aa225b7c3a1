package wayland

// Compositor is wl_compositor.
type Compositor struct {
	object
}

func (*Compositor) Interface() string { return "wl_compositor" }

func (*Compositor) dispatch(*Message) error { return nil }

// CreateSurface creates a new wl_surface.
func (c *Compositor) CreateSurface() (*Surface, error) {
	s := &Surface{object: c.conn.newObject(c.version)}
	c.conn.register(s)
	return s, c.request(NewBuilder(c.id, 0).ObjectID(s.id))
}

// SurfaceListener receives wl_surface events. The argument is the output
// object id.
type SurfaceListener struct {
	Enter func(output uint32)
	Leave func(output uint32)
}

// Surface is wl_surface.
type Surface struct {
	object
	listener SurfaceListener
}

func (*Surface) Interface() string { return "wl_surface" }

// SetListener installs the surface listener.
func (s *Surface) SetListener(l SurfaceListener) {
	s.listener = l
}

func (s *Surface) dispatch(msg *Message) error {
	output := msg.Object()
	if msg.Err() != nil || s.dead {
		return nil
	}
	switch msg.Opcode {
	case 0:
		if s.listener.Enter != nil {
			s.listener.Enter(output)
		}
	case 1:
		if s.listener.Leave != nil {
			s.listener.Leave(output)
		}
	}
	return nil
}

// Destroy destroys the surface.
func (s *Surface) Destroy() error {
	return s.destroy(0)
}

// Attach attaches buffer at offset (x, y); a nil buffer detaches.
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	b := NewBuilder(s.id, 1)
	if buffer == nil {
		b.ObjectID(0)
	} else {
		b.Object(buffer)
	}
	return s.request(b.Int32(x).Int32(y))
}

// Damage marks a region in surface coordinates as changed.
func (s *Surface) Damage(x, y, width, height int32) error {
	return s.request(NewBuilder(s.id, 2).Int32(x).Int32(y).Int32(width).Int32(height))
}

// Frame requests a frame callback.
func (s *Surface) Frame() (*Callback, error) {
	cb := &Callback{object: s.conn.newObject(1)}
	s.conn.register(cb)
	return cb, s.request(NewBuilder(s.id, 3).ObjectID(cb.id))
}

// Commit applies pending state.
func (s *Surface) Commit() error {
	return s.request(NewBuilder(s.id, 6))
}

// Subcompositor is wl_subcompositor.
type Subcompositor struct {
	object
}

func (*Subcompositor) Interface() string { return "wl_subcompositor" }

func (*Subcompositor) dispatch(*Message) error { return nil }

// GetSubsurface turns surface into a subsurface of parent.
func (c *Subcompositor) GetSubsurface(surface, parent *Surface) (*Subsurface, error) {
	sub := &Subsurface{object: c.conn.newObject(c.version)}
	c.conn.register(sub)
	return sub, c.request(NewBuilder(c.id, 1).ObjectID(sub.id).Object(surface).Object(parent))
}

// Destroy releases the subcompositor global.
func (c *Subcompositor) Destroy() error {
	return c.destroy(0)
}

// Subsurface is wl_subsurface.
type Subsurface struct {
	object
}

func (*Subsurface) Interface() string { return "wl_subsurface" }

func (*Subsurface) dispatch(*Message) error { return nil }

// Destroy unmaps the subsurface.
func (s *Subsurface) Destroy() error {
	return s.destroy(0)
}

// SetPosition positions the subsurface relative to its parent's origin.
func (s *Subsurface) SetPosition(x, y int32) error {
	return s.request(NewBuilder(s.id, 1).Int32(x).Int32(y))
}

// PlaceBelow stacks the subsurface below sibling.
func (s *Subsurface) PlaceBelow(sibling *Surface) error {
	return s.request(NewBuilder(s.id, 3).Object(sibling))
}

// SetDesync lets the subsurface commit independently of its parent.
func (s *Subsurface) SetDesync() error {
	return s.request(NewBuilder(s.id, 5))
}
