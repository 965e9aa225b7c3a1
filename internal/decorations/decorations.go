// Package decorations draws a minimal frame around a window when the
// compositor does not decorate it: a title bar and three borders, each a
// subsurface showing a single stretched pixel.
package decorations

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/render"
	"github.com/bnema/wlwindow/internal/wayland"
)

// Frame dimensions in surface pixels.
const (
	Width     int32 = 2
	BarHeight int32 = 15
)

// Color of the bar and borders.
var Color = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}

// ErrUnsupported is returned when a global needed for drawing is missing.
var ErrUnsupported = errors.New("decorations: compositor lacks subcompositor, viewporter or shm")

// Globals are the objects decorations are built from.
type Globals struct {
	Compositor    *wayland.Compositor
	Subcompositor *wayland.Subcompositor
	Viewporter    *wayland.Viewporter
	Shm           *wayland.Shm
}

// Rect is a rectangle relative to the content surface origin.
type Rect struct {
	X, Y, W, H int32
}

// Layout places the bar and borders so that together with the content
// they cover width x height. Order: top, left, right, bottom.
func Layout(width, height int32) [4]Rect {
	cw, ch := ContentSize(width, height)
	return [4]Rect{
		{X: -Width, Y: -BarHeight, W: cw + 2*Width, H: BarHeight},
		{X: -Width, Y: 0, W: Width, H: ch},
		{X: cw, Y: 0, W: Width, H: ch},
		{X: -Width, Y: ch, W: cw + 2*Width, H: Width},
	}
}

// ContentSize is the size left for the application surface inside a
// decorated window of width x height.
func ContentSize(width, height int32) (int32, int32) {
	return max(width-2*Width, 1), max(height-BarHeight-Width, 1)
}

type part struct {
	surface    *wayland.Surface
	subsurface *wayland.Subsurface
	viewport   *wayland.Viewport
}

// Decorations is the fallback frame of one window.
type Decorations struct {
	parts  [4]*part
	buffer *wayland.Buffer
	xdg    *wayland.XdgSurface
}

// New builds the frame around parent for a window of width x height.
func New(g Globals, parent *wayland.Surface, xdg *wayland.XdgSurface, width, height int32) (*Decorations, error) {
	if g.Compositor == nil || g.Subcompositor == nil || g.Viewporter == nil || g.Shm == nil {
		return nil, ErrUnsupported
	}
	buf, err := render.SolidBuffer(g.Shm, Color)
	if err != nil {
		return nil, err
	}
	d := &Decorations{buffer: buf, xdg: xdg}
	for i := range d.parts {
		p, err := newPart(g, parent, buf)
		if err != nil {
			d.Destroy()
			return nil, fmt.Errorf("decorations: %w", err)
		}
		d.parts[i] = p
	}
	if err := d.Resize(width, height); err != nil {
		d.Destroy()
		return nil, err
	}
	logger.Debug("Fallback decorations created", "width", width, "height", height)
	return d, nil
}

func newPart(g Globals, parent *wayland.Surface, buf *wayland.Buffer) (*part, error) {
	surface, err := g.Compositor.CreateSurface()
	if err != nil {
		return nil, err
	}
	p := &part{surface: surface}
	if p.subsurface, err = g.Subcompositor.GetSubsurface(surface, parent); err != nil {
		return p, err
	}
	if p.viewport, err = g.Viewporter.GetViewport(surface); err != nil {
		return p, err
	}
	if err := surface.Attach(buf, 0, 0); err != nil {
		return p, err
	}
	return p, nil
}

// Resize lays the frame out for a window of width x height, the full size
// the compositor configured.
func (d *Decorations) Resize(width, height int32) error {
	for i, r := range Layout(width, height) {
		p := d.parts[i]
		if err := p.subsurface.SetPosition(r.X, r.Y); err != nil {
			return err
		}
		if err := p.viewport.SetDestination(r.W, r.H); err != nil {
			return err
		}
		if err := p.surface.Commit(); err != nil {
			return err
		}
	}
	if d.xdg != nil {
		return d.xdg.SetWindowGeometry(-Width, -BarHeight, width, height)
	}
	return nil
}

// IsTitleBar reports whether surfaceID is the title bar surface.
func (d *Decorations) IsTitleBar(surfaceID uint32) bool {
	top := d.parts[0]
	return top != nil && top.surface.ID() == surfaceID
}

// Destroy removes the frame.
func (d *Decorations) Destroy() {
	for i, p := range d.parts {
		if p == nil {
			continue
		}
		if p.viewport != nil {
			_ = p.viewport.Destroy()
		}
		if p.subsurface != nil {
			_ = p.subsurface.Destroy()
		}
		_ = p.surface.Destroy()
		d.parts[i] = nil
	}
	if d.buffer != nil {
		_ = d.buffer.Destroy()
		d.buffer = nil
	}
}
