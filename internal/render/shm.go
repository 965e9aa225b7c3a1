// Package render provides the drawable surface a window presents frames
// to. The default renderer is a software canvas copied into wl_shm
// buffers.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
)

// Renderer turns a surface into something the application can draw on.
type Renderer interface {
	// Init attaches the renderer to surface at the initial size.
	Init(conn *wayland.Conn, surface *wayland.Surface, width, height int32) error
	// Resize changes the size of the next presented frame.
	Resize(width, height int32)
	// Present shows the current canvas contents.
	Present() error
	Canvas() draw.Image
	Close() error
}

const bytesPerPixel = 4

// bufferCount is the number of buffers in flight: one held by the
// compositor and one being filled.
const bufferCount = 2

type slot struct {
	buffer *wayland.Buffer
	offset int
	busy   bool
}

// Shm is a double buffered XRGB8888 renderer.
type Shm struct {
	shm     *wayland.Shm
	surface *wayland.Surface

	width, height int32
	canvas        *image.RGBA

	mem     *mapping
	pool    *wayland.ShmPool
	slots   []*slot
	poolW   int32
	poolH   int32
	dropped int
}

// NewShm creates a renderer allocating its buffers from shm.
func NewShm(shm *wayland.Shm) *Shm {
	return &Shm{shm: shm}
}

func (r *Shm) Init(_ *wayland.Conn, surface *wayland.Surface, width, height int32) error {
	if r.shm == nil {
		return errors.New("render: wl_shm not available")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid size %dx%d", width, height)
	}
	r.surface = surface
	r.Resize(width, height)
	return r.allocate()
}

// Resize takes effect on the next Present. The canvas is replaced, so
// previous contents are lost.
func (r *Shm) Resize(width, height int32) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	r.canvas = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(r.canvas, r.canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// Size returns the current frame size.
func (r *Shm) Size() (int32, int32) {
	return r.width, r.height
}

func (r *Shm) Canvas() draw.Image {
	return r.canvas
}

// Dropped returns how many frames were skipped because every buffer was
// still held by the compositor.
func (r *Shm) Dropped() int {
	return r.dropped
}

func (r *Shm) allocate() error {
	r.releaseBuffers()

	stride := int(r.width) * bytesPerPixel
	frame := stride * int(r.height)
	mem, err := newMapping("wlwindow-shm", frame*bufferCount)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	pool, err := r.shm.CreatePool(mem.fd, int32(frame*bufferCount)) //nolint:gosec // bounded by the surface size
	if err != nil {
		_ = mem.Close()
		return fmt.Errorf("render: create pool: %w", err)
	}
	r.mem, r.pool = mem, pool
	r.poolW, r.poolH = r.width, r.height

	for i := 0; i < bufferCount; i++ {
		s := &slot{offset: i * frame}
		buf, err := pool.CreateBuffer(int32(s.offset), r.width, r.height, int32(stride), wayland.ShmFormatXRGB8888) //nolint:gosec // bounded by the surface size
		if err != nil {
			return fmt.Errorf("render: create buffer: %w", err)
		}
		buf.SetReleaseHandler(func() { s.busy = false })
		s.buffer = buf
		r.slots = append(r.slots, s)
	}
	// Buffers keep the pool's memory alive on the compositor side.
	if err := pool.Destroy(); err != nil {
		return fmt.Errorf("render: destroy pool: %w", err)
	}
	logger.Debugf("Allocated %d shm buffers of %dx%d", bufferCount, r.width, r.height)
	return nil
}

// releaseBuffers destroys the current buffers. Buffers still held by the
// compositor are destroyed once released.
func (r *Shm) releaseBuffers() {
	for _, s := range r.slots {
		if !s.busy {
			_ = s.buffer.Destroy()
			continue
		}
		buf := s.buffer
		buf.SetReleaseHandler(func() { _ = buf.Destroy() })
	}
	r.slots = nil
	if r.mem != nil {
		if err := r.mem.Close(); err != nil {
			logger.Warnf("Failed to release shm mapping: %v", err)
		}
		r.mem = nil
	}
	r.pool = nil
}

func (r *Shm) Present() error {
	if r.surface == nil {
		return errors.New("render: not initialized")
	}
	if r.width != r.poolW || r.height != r.poolH {
		if err := r.allocate(); err != nil {
			return err
		}
	}
	var free *slot
	for _, s := range r.slots {
		if !s.busy {
			free = s
			break
		}
	}
	if free == nil {
		r.dropped++
		logger.Debug("All shm buffers busy, dropping frame")
		return nil
	}

	frame := int(r.width) * int(r.height) * bytesPerPixel
	toXRGB(r.mem.data[free.offset:free.offset+frame], r.canvas)

	if err := r.surface.Attach(free.buffer, 0, 0); err != nil {
		return err
	}
	if err := r.surface.Damage(0, 0, r.width, r.height); err != nil {
		return err
	}
	if err := r.surface.Commit(); err != nil {
		return err
	}
	free.busy = true
	return nil
}

func (r *Shm) Close() error {
	for _, s := range r.slots {
		_ = s.buffer.Destroy()
	}
	r.slots = nil
	if r.mem != nil {
		err := r.mem.Close()
		r.mem = nil
		return err
	}
	return nil
}

// toXRGB converts src into little endian XRGB8888 pixels in dst.
func toXRGB(dst []byte, src *image.RGBA) {
	b := src.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+4]
			dst[i+0] = p[2]
			dst[i+1] = p[1]
			dst[i+2] = p[0]
			dst[i+3] = 0xff
			i += bytesPerPixel
		}
	}
}

// SolidBuffer creates a 1x1 buffer of color c, meant to be stretched with
// a viewport. The buffer owns no client memory once created.
func SolidBuffer(shm *wayland.Shm, c color.Color) (*wayland.Buffer, error) {
	mem, err := newMapping("wlwindow-pixel", bytesPerPixel)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer func() {
		if err := mem.Close(); err != nil {
			logger.Warnf("Failed to release pixel mapping: %v", err)
		}
	}()

	// wl_shm ARGB is premultiplied, like color.Color.RGBA.
	cr, cg, cb, ca := c.RGBA()
	mem.data[0] = byte(cb >> 8)
	mem.data[1] = byte(cg >> 8)
	mem.data[2] = byte(cr >> 8)
	mem.data[3] = byte(ca >> 8)

	pool, err := shm.CreatePool(mem.fd, bytesPerPixel)
	if err != nil {
		return nil, fmt.Errorf("render: create pool: %w", err)
	}
	buf, err := pool.CreateBuffer(0, 1, 1, bytesPerPixel, wayland.ShmFormatARGB8888)
	if err != nil {
		return nil, fmt.Errorf("render: create buffer: %w", err)
	}
	if err := pool.Destroy(); err != nil {
		return nil, fmt.Errorf("render: destroy pool: %w", err)
	}
	return buf, nil
}
