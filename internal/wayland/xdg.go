package wayland

// Decoration modes of zxdg_toplevel_decoration_v1.
const (
	DecorationModeClientSide uint32 = 1
	DecorationModeServerSide uint32 = 2
)

// WmBase is xdg_wm_base.
type WmBase struct {
	object
	ping func(serial uint32)
}

func (*WmBase) Interface() string { return "xdg_wm_base" }

// SetPingHandler installs the ping handler. Without one, pings are answered
// automatically.
func (w *WmBase) SetPingHandler(fn func(serial uint32)) {
	w.ping = fn
}

func (w *WmBase) dispatch(msg *Message) error {
	if msg.Opcode != 0 || w.dead {
		return nil
	}
	serial := msg.Uint32()
	if msg.Err() != nil {
		return nil
	}
	if w.ping != nil {
		w.ping(serial)
		return nil
	}
	return w.Pong(serial)
}

// Pong answers a ping.
func (w *WmBase) Pong(serial uint32) error {
	return w.request(NewBuilder(w.id, 3).Uint32(serial))
}

// GetXdgSurface assigns the xdg_surface role to surface.
func (w *WmBase) GetXdgSurface(surface *Surface) (*XdgSurface, error) {
	x := &XdgSurface{object: w.conn.newObject(w.version)}
	w.conn.register(x)
	return x, w.request(NewBuilder(w.id, 2).ObjectID(x.id).Object(surface))
}

// Destroy destroys the shell global.
func (w *WmBase) Destroy() error {
	return w.destroy(0)
}

// XdgSurface is xdg_surface.
type XdgSurface struct {
	object
	configure func(serial uint32)
}

func (*XdgSurface) Interface() string { return "xdg_surface" }

// SetConfigureHandler installs the configure handler.
func (x *XdgSurface) SetConfigureHandler(fn func(serial uint32)) {
	x.configure = fn
}

func (x *XdgSurface) dispatch(msg *Message) error {
	if msg.Opcode != 0 || x.dead {
		return nil
	}
	serial := msg.Uint32()
	if msg.Err() == nil && x.configure != nil {
		x.configure(serial)
	}
	return nil
}

// GetToplevel assigns the toplevel role.
func (x *XdgSurface) GetToplevel() (*Toplevel, error) {
	t := &Toplevel{object: x.conn.newObject(x.version)}
	x.conn.register(t)
	return t, x.request(NewBuilder(x.id, 1).ObjectID(t.id))
}

// SetWindowGeometry sets the visible bounds of the window.
func (x *XdgSurface) SetWindowGeometry(px, py, width, height int32) error {
	return x.request(NewBuilder(x.id, 3).Int32(px).Int32(py).Int32(width).Int32(height))
}

// AckConfigure acknowledges a configure event.
func (x *XdgSurface) AckConfigure(serial uint32) error {
	return x.request(NewBuilder(x.id, 4).Uint32(serial))
}

// Destroy destroys the xdg_surface.
func (x *XdgSurface) Destroy() error {
	return x.destroy(0)
}

// ToplevelListener receives xdg_toplevel events. States is the raw array
// of uint32 state values.
type ToplevelListener struct {
	Configure func(width, height int32, states []byte)
	Close     func()
}

// Toplevel is xdg_toplevel.
type Toplevel struct {
	object
	listener ToplevelListener
}

func (*Toplevel) Interface() string { return "xdg_toplevel" }

// SetListener installs the toplevel listener.
func (t *Toplevel) SetListener(l ToplevelListener) {
	t.listener = l
}

func (t *Toplevel) dispatch(msg *Message) error {
	if t.dead {
		return nil
	}
	switch msg.Opcode {
	case 0:
		w, h, states := msg.Int32(), msg.Int32(), msg.Array()
		if msg.Err() == nil && t.listener.Configure != nil {
			t.listener.Configure(w, h, states)
		}
	case 1:
		if t.listener.Close != nil {
			t.listener.Close()
		}
	}
	return nil
}

// SetTitle sets the window title.
func (t *Toplevel) SetTitle(title string) error {
	return t.request(NewBuilder(t.id, 2).String(title))
}

// SetAppID sets the application id.
func (t *Toplevel) SetAppID(appID string) error {
	return t.request(NewBuilder(t.id, 3).String(appID))
}

// Move starts an interactive move driven by the pointer grab of serial.
func (t *Toplevel) Move(seat *Seat, serial uint32) error {
	return t.request(NewBuilder(t.id, 5).Object(seat).Uint32(serial))
}

// SetFullscreen asks for fullscreen on the compositor's choice of output.
func (t *Toplevel) SetFullscreen() error {
	return t.request(NewBuilder(t.id, 11).ObjectID(0))
}

// UnsetFullscreen leaves fullscreen.
func (t *Toplevel) UnsetFullscreen() error {
	return t.request(NewBuilder(t.id, 12))
}

// Destroy destroys the toplevel.
func (t *Toplevel) Destroy() error {
	return t.destroy(0)
}

// DecorationManager is zxdg_decoration_manager_v1.
type DecorationManager struct {
	object
}

func (*DecorationManager) Interface() string { return "zxdg_decoration_manager_v1" }

func (*DecorationManager) dispatch(*Message) error { return nil }

// GetToplevelDecoration creates the decoration object of toplevel.
func (m *DecorationManager) GetToplevelDecoration(toplevel *Toplevel) (*ToplevelDecoration, error) {
	d := &ToplevelDecoration{object: m.conn.newObject(m.version)}
	m.conn.register(d)
	return d, m.request(NewBuilder(m.id, 1).ObjectID(d.id).Object(toplevel))
}

// Destroy destroys the manager.
func (m *DecorationManager) Destroy() error {
	return m.destroy(0)
}

// ToplevelDecoration is zxdg_toplevel_decoration_v1.
type ToplevelDecoration struct {
	object
	configure func(mode uint32)
}

func (*ToplevelDecoration) Interface() string { return "zxdg_toplevel_decoration_v1" }

// SetConfigureHandler installs the mode handler.
func (d *ToplevelDecoration) SetConfigureHandler(fn func(mode uint32)) {
	d.configure = fn
}

func (d *ToplevelDecoration) dispatch(msg *Message) error {
	if msg.Opcode != 0 || d.dead {
		return nil
	}
	mode := msg.Uint32()
	if msg.Err() == nil && d.configure != nil {
		d.configure(mode)
	}
	return nil
}

// SetMode requests a decoration mode.
func (d *ToplevelDecoration) SetMode(mode uint32) error {
	return d.request(NewBuilder(d.id, 1).Uint32(mode))
}

// Destroy destroys the decoration object.
func (d *ToplevelDecoration) Destroy() error {
	return d.destroy(0)
}

// Viewporter is wp_viewporter.
type Viewporter struct {
	object
}

func (*Viewporter) Interface() string { return "wp_viewporter" }

func (*Viewporter) dispatch(*Message) error { return nil }

// GetViewport creates the viewport of surface.
func (v *Viewporter) GetViewport(surface *Surface) (*Viewport, error) {
	vp := &Viewport{object: v.conn.newObject(v.version)}
	v.conn.register(vp)
	return vp, v.request(NewBuilder(v.id, 1).ObjectID(vp.id).Object(surface))
}

// Destroy destroys the viewporter global.
func (v *Viewporter) Destroy() error {
	return v.destroy(0)
}

// Viewport is wp_viewport.
type Viewport struct {
	object
}

func (*Viewport) Interface() string { return "wp_viewport" }

func (*Viewport) dispatch(*Message) error { return nil }

// SetDestination scales the surface content to width x height.
func (v *Viewport) SetDestination(width, height int32) error {
	return v.request(NewBuilder(v.id, 2).Int32(width).Int32(height))
}

// Destroy destroys the viewport.
func (v *Viewport) Destroy() error {
	return v.destroy(0)
}
