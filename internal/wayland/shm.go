package wayland

// Pixel formats of wl_shm.
const (
	ShmFormatARGB8888 uint32 = 0
	ShmFormatXRGB8888 uint32 = 1
)

// Shm is wl_shm.
type Shm struct {
	object
	formats []uint32
}

func (*Shm) Interface() string { return "wl_shm" }

func (s *Shm) dispatch(msg *Message) error {
	if msg.Opcode == 0 {
		format := msg.Uint32()
		if msg.Err() == nil {
			s.formats = append(s.formats, format)
		}
	}
	return nil
}

// Formats returns the formats advertised so far.
func (s *Shm) Formats() []uint32 {
	return s.formats
}

// CreatePool shares fd, a mapping of size bytes, with the compositor. The
// caller keeps ownership of fd.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	p := &ShmPool{object: s.conn.newObject(s.version)}
	s.conn.register(p)
	return p, s.request(NewBuilder(s.id, 0).ObjectID(p.id).FD(fd).Int32(size))
}

// ShmPool is wl_shm_pool.
type ShmPool struct {
	object
}

func (*ShmPool) Interface() string { return "wl_shm_pool" }

func (*ShmPool) dispatch(*Message) error { return nil }

// CreateBuffer creates a buffer backed by the pool.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	b := &Buffer{object: p.conn.newObject(p.version)}
	p.conn.register(b)
	return b, p.request(NewBuilder(p.id, 0).ObjectID(b.id).Int32(offset).Int32(width).Int32(height).Int32(stride).Uint32(format))
}

// Destroy releases the pool; buffers created from it stay valid.
func (p *ShmPool) Destroy() error {
	return p.destroy(1)
}

// Buffer is wl_buffer.
type Buffer struct {
	object
	release func()
}

func (*Buffer) Interface() string { return "wl_buffer" }

// SetReleaseHandler installs the release handler.
func (b *Buffer) SetReleaseHandler(fn func()) {
	b.release = fn
}

func (b *Buffer) dispatch(msg *Message) error {
	if msg.Opcode == 0 && !b.dead && b.release != nil {
		b.release()
	}
	return nil
}

// Destroy destroys the buffer.
func (b *Buffer) Destroy() error {
	return b.destroy(0)
}
