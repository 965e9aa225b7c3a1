package wayland

import "golang.org/x/sys/unix"

// Drag-and-drop actions.
const (
	DndActionNone uint32 = 0
	DndActionCopy uint32 = 1
	DndActionMove uint32 = 2
)

// DataDeviceManager is wl_data_device_manager.
type DataDeviceManager struct {
	object
}

func (*DataDeviceManager) Interface() string { return "wl_data_device_manager" }

func (*DataDeviceManager) dispatch(*Message) error { return nil }

// CreateDataSource creates a source for a selection or drag.
func (m *DataDeviceManager) CreateDataSource() (*DataSource, error) {
	s := &DataSource{object: m.conn.newObject(m.version)}
	m.conn.register(s)
	return s, m.request(NewBuilder(m.id, 0).ObjectID(s.id))
}

// GetDataDevice creates the data device of seat.
func (m *DataDeviceManager) GetDataDevice(seat *Seat) (*DataDevice, error) {
	d := &DataDevice{object: m.conn.newObject(m.version)}
	m.conn.register(d)
	return d, m.request(NewBuilder(m.id, 1).ObjectID(d.id).Object(seat))
}

// DataDeviceListener receives wl_data_device events. Offers are passed as
// proxies created by DataOffer; a null offer is nil.
type DataDeviceListener struct {
	DataOffer func(offer *DataOffer)
	Enter     func(serial uint32, surface uint32, x, y Fixed, offer *DataOffer)
	Leave     func()
	Motion    func(time uint32, x, y Fixed)
	Drop      func()
	Selection func(offer *DataOffer)
}

// DataDevice is wl_data_device.
type DataDevice struct {
	object
	listener DataDeviceListener
}

func (*DataDevice) Interface() string { return "wl_data_device" }

// SetListener installs the data device listener.
func (d *DataDevice) SetListener(l DataDeviceListener) {
	d.listener = l
}

func (d *DataDevice) offer(id uint32) *DataOffer {
	if id == 0 {
		return nil
	}
	o, _ := d.conn.objects[id].(*DataOffer)
	return o
}

func (d *DataDevice) dispatch(msg *Message) error {
	l := &d.listener
	switch msg.Opcode {
	case 0:
		id := msg.NewID()
		if msg.Err() != nil {
			return nil
		}
		// The offer must exist before its own events arrive, even when
		// nobody listens.
		o := &DataOffer{object: object{conn: d.conn, id: id, version: d.version}}
		d.conn.register(o)
		if l.DataOffer != nil && !d.dead {
			l.DataOffer(o)
		}
		return nil
	}
	if d.dead {
		return nil
	}
	switch msg.Opcode {
	case 1:
		serial, surface, x, y, id := msg.Uint32(), msg.Object(), msg.Fixed(), msg.Fixed(), msg.Object()
		if msg.Err() == nil && l.Enter != nil {
			l.Enter(serial, surface, x, y, d.offer(id))
		}
	case 2:
		if l.Leave != nil {
			l.Leave()
		}
	case 3:
		time, x, y := msg.Uint32(), msg.Fixed(), msg.Fixed()
		if msg.Err() == nil && l.Motion != nil {
			l.Motion(time, x, y)
		}
	case 4:
		if l.Drop != nil {
			l.Drop()
		}
	case 5:
		id := msg.Object()
		if msg.Err() == nil && l.Selection != nil {
			l.Selection(d.offer(id))
		}
	}
	return nil
}

// SetSelection sets or, with a nil source, clears the selection.
func (d *DataDevice) SetSelection(source *DataSource, serial uint32) error {
	b := NewBuilder(d.id, 1)
	if source == nil {
		b.ObjectID(0)
	} else {
		b.Object(source)
	}
	return d.request(b.Uint32(serial))
}

// Release destroys the data device (version 2 and later).
func (d *DataDevice) Release() error {
	if d.version < 2 {
		d.dead = true
		return nil
	}
	return d.destroy(2)
}

// DataOfferListener receives wl_data_offer events.
type DataOfferListener struct {
	Offer         func(mimeType string)
	SourceActions func(actions uint32)
	Action        func(action uint32)
}

// DataOffer is wl_data_offer, created by the compositor.
type DataOffer struct {
	object
	listener DataOfferListener
}

func (*DataOffer) Interface() string { return "wl_data_offer" }

// SetListener installs the offer listener.
func (o *DataOffer) SetListener(l DataOfferListener) {
	o.listener = l
}

func (o *DataOffer) dispatch(msg *Message) error {
	if o.dead {
		return nil
	}
	l := &o.listener
	switch msg.Opcode {
	case 0:
		mime := msg.String()
		if msg.Err() == nil && l.Offer != nil {
			l.Offer(mime)
		}
	case 1:
		actions := msg.Uint32()
		if msg.Err() == nil && l.SourceActions != nil {
			l.SourceActions(actions)
		}
	case 2:
		action := msg.Uint32()
		if msg.Err() == nil && l.Action != nil {
			l.Action(action)
		}
	}
	return nil
}

// Accept tells the source which mime type would be accepted; an empty type
// refuses the drop.
func (o *DataOffer) Accept(serial uint32, mimeType string) error {
	b := NewBuilder(o.id, 0).Uint32(serial)
	if mimeType == "" {
		b.NullString()
	} else {
		b.String(mimeType)
	}
	return o.request(b)
}

// Receive asks the source to write the data as mimeType into fd. The
// caller keeps ownership of fd and should close its copy after Flush.
func (o *DataOffer) Receive(mimeType string, fd int) error {
	return o.request(NewBuilder(o.id, 1).String(mimeType).FD(fd))
}

// Destroy destroys the offer.
func (o *DataOffer) Destroy() error {
	return o.destroy(2)
}

// Finish ends a successful drag-and-drop (version 3).
func (o *DataOffer) Finish() error {
	if o.version < 3 {
		return nil
	}
	return o.request(NewBuilder(o.id, 3))
}

// SetActions sets the supported and preferred actions (version 3).
func (o *DataOffer) SetActions(actions, preferred uint32) error {
	if o.version < 3 {
		return nil
	}
	return o.request(NewBuilder(o.id, 4).Uint32(actions).Uint32(preferred))
}

// DataSourceListener receives wl_data_source events. Send hands over
// ownership of fd.
type DataSourceListener struct {
	Target    func(mimeType string)
	Send      func(mimeType string, fd int)
	Cancelled func()
}

// DataSource is wl_data_source.
type DataSource struct {
	object
	listener DataSourceListener
}

func (*DataSource) Interface() string { return "wl_data_source" }

// SetListener installs the source listener.
func (s *DataSource) SetListener(l DataSourceListener) {
	s.listener = l
}

func (s *DataSource) dispatch(msg *Message) error {
	l := &s.listener
	switch msg.Opcode {
	case 0:
		mime := msg.String()
		if msg.Err() == nil && !s.dead && l.Target != nil {
			l.Target(mime)
		}
	case 1:
		mime, fd := msg.String(), msg.FD()
		if msg.Err() != nil {
			if fd >= 0 {
				_ = unix.Close(fd)
			}
			return nil
		}
		if s.dead || l.Send == nil {
			_ = unix.Close(fd)
			return nil
		}
		l.Send(mime, fd)
	case 2:
		if !s.dead && l.Cancelled != nil {
			l.Cancelled()
		}
	}
	return nil
}

// Offer advertises a mime type.
func (s *DataSource) Offer(mimeType string) error {
	return s.request(NewBuilder(s.id, 0).String(mimeType))
}

// Destroy destroys the source.
func (s *DataSource) Destroy() error {
	return s.destroy(1)
}
