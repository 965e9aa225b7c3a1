// Package window opens one Wayland toplevel and runs its event loop,
// turning compositor input into calls on an event.Handler.
package window

import (
	"fmt"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/decorations"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/render"
	"github.com/bnema/wlwindow/internal/repeat"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/xkb"
)

// Session owns the connection and every protocol object of the window.
// It is driven by a single goroutine.
type Session struct {
	conf Conf
	conn *wayland.Conn

	registry   *wayland.Registry
	advertised map[uint32]wayland.Global
	globals

	surface     *wayland.Surface
	xdgSurface  *wayland.XdgSurface
	toplevel    *wayland.Toplevel
	decoration  *wayland.ToplevelDecoration
	decorations *decorations.Decorations

	pointer       *wayland.Pointer
	pointerFocus  uint32
	pointerSerial uint32
	lastX, lastY  float32

	keyboard       *wayland.Keyboard
	kb             translator
	repeat         *repeat.Context
	enterSerial    uint32
	hasEnterSerial bool
	mods           event.KeyMods

	dataDevice *wayland.DataDevice
	offerMimes map[uint32][]string
	selection  *wayland.DataOffer
	dragOffer  *wayland.DataOffer
	dragSerial uint32
	clipboard  *Clipboard

	queue    Queue
	display  *DisplayData
	requests chan Request
	waker    *waker
	ctx      *Context
	handler  event.Handler
	renderer render.Renderer

	updateRequested bool
	closed          bool
}

// deps are the resources a session is built on.
type deps struct {
	conn        *wayland.Conn
	xkb         xkb.Context
	timer       repeat.Timer
	newRenderer func(shm *wayland.Shm) render.Renderer
}

// Run opens a window described by conf and runs its event loop until the
// window is closed or a quit is confirmed. factory builds the handler once
// the window exists. Errors before the loop starts are fatal startup
// conditions.
func Run(conf Conf, factory func(ctx *Context) event.Handler) error {
	lib, err := xkb.Load()
	if err != nil {
		return err
	}
	xctx, err := lib.NewContext()
	if err != nil {
		return err
	}
	conn, err := wayland.Dial(conf.Display)
	if err != nil {
		xctx.Close()
		return err
	}
	timer, err := repeat.NewTimer()
	if err != nil {
		xctx.Close()
		_ = conn.Close()
		return err
	}

	s, err := newSession(conf, deps{
		conn:  conn,
		xkb:   xctx,
		timer: timer,
		newRenderer: func(shm *wayland.Shm) render.Renderer {
			return render.NewShm(shm)
		},
	})
	if err != nil {
		return err
	}
	defer s.Close()

	s.start(factory)
	return s.Loop()
}

// newSession binds the globals and creates the window surface. On error
// every resource in d has been released.
func newSession(conf Conf, d deps) (_ *Session, err error) {
	s := &Session{
		conf:       conf,
		conn:       d.conn,
		advertised: make(map[uint32]wayland.Global),
		offerMimes: make(map[uint32][]string),
		kb:         translator{ctx: d.xkb},
		repeat:     repeat.New(d.timer, conf.Repeat),
		display:    newDisplayData(conf.Width, conf.Height),
		requests:   make(chan Request, requestQueueSize),
		// The first frame is drawn without waiting for input.
		updateRequested: true,
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()
	s.conn.SetTrace(conf.TraceProtocol)

	if s.waker, err = newWaker(); err != nil {
		return nil, err
	}

	if s.registry, err = s.conn.Display().GetRegistry(); err != nil {
		return nil, err
	}
	s.registry.SetListener(wayland.RegistryListener{
		Global:       s.handleGlobal,
		GlobalRemove: s.handleGlobalRemove,
	})
	if err = s.conn.Roundtrip(); err != nil {
		return nil, fmt.Errorf("registry roundtrip: %w", err)
	}
	if err = s.checkRequired(); err != nil {
		return nil, err
	}

	if s.decorationManager == nil && conf.FallbackDecorations {
		logger.Info("Decoration manager not found, will draw fallback decorations")
	}

	if err = s.createSurface(); err != nil {
		return nil, err
	}

	if d.newRenderer == nil {
		return nil, fmt.Errorf("window: no renderer")
	}
	// The initial configure may already have changed the size.
	width, height := s.display.ScreenSize()
	s.renderer = d.newRenderer(s.shm)
	if err = s.renderer.Init(s.conn, s.surface, width, height); err != nil {
		return nil, fmt.Errorf("failed to create rendering surface: %w", err)
	}

	if conf.Fullscreen {
		if err = s.toplevel.SetFullscreen(); err != nil {
			return nil, err
		}
	}
	s.setupDecorations()
	return s, nil
}

func (s *Session) createSurface() (err error) {
	if s.surface, err = s.compositor.CreateSurface(); err != nil {
		return err
	}
	if s.xdgSurface, err = s.wmBase.GetXdgSurface(s.surface); err != nil {
		return err
	}
	s.xdgSurface.SetConfigureHandler(s.handleSurfaceConfigure)
	if s.toplevel, err = s.xdgSurface.GetToplevel(); err != nil {
		return err
	}
	s.toplevel.SetListener(wayland.ToplevelListener{
		Configure: s.handleToplevelConfigure,
		Close:     s.handleClose,
	})
	if err = s.toplevel.SetTitle(s.conf.Title); err != nil {
		return err
	}
	if err = s.toplevel.SetAppID(s.conf.AppID); err != nil {
		return err
	}
	if err = s.surface.Commit(); err != nil {
		return err
	}
	// The initial configure answers the first commit; no buffer may be
	// attached before it is acked.
	if err = s.conn.Roundtrip(); err != nil {
		return fmt.Errorf("initial configure: %w", err)
	}
	return nil
}

// setupDecorations asks for server side decorations, or draws a frame
// when the compositor cannot and the configuration allows it.
func (s *Session) setupDecorations() {
	if s.decorationManager != nil {
		deco, err := s.decorationManager.GetToplevelDecoration(s.toplevel)
		if err != nil {
			logger.Warnf("Failed to get toplevel decoration: %v", err)
			return
		}
		deco.SetConfigureHandler(s.handleDecorationMode)
		if err := deco.SetMode(wayland.DecorationModeServerSide); err != nil {
			logger.Warnf("Failed to request server side decorations: %v", err)
		}
		s.decoration = deco
		return
	}
	if !s.conf.FallbackDecorations {
		return
	}

	width, height := s.display.ScreenSize()
	d, err := decorations.New(decorations.Globals{
		Compositor:    s.compositor,
		Subcompositor: s.subcompositor,
		Viewporter:    s.viewporter,
		Shm:           s.shm,
	}, s.surface, s.xdgSurface, width, height)
	if err != nil {
		logger.Warnf("Running without decorations: %v", err)
		return
	}
	s.decorations = d
	s.renderer.Resize(decorations.ContentSize(width, height))
}

// start builds the handler and wires the data device, which listeners
// may then report to.
func (s *Session) start(factory func(ctx *Context) event.Handler) {
	s.ctx = &Context{display: s.display, requests: s.requests, wake: s.waker.Wake, session: s}
	s.handler = factory(s.ctx)
	if s.handler == nil {
		s.handler = event.BaseHandler{}
	}

	if s.dataDeviceManager == nil || s.seat == nil {
		return
	}
	dd, err := s.dataDeviceManager.GetDataDevice(s.seat)
	if err != nil {
		logger.Warnf("Failed to get data device: %v", err)
		return
	}
	dd.SetListener(s.dataDeviceListener())
	s.dataDevice = dd
	s.clipboard = newClipboard(s)
}

// Context returns the context handed to the handler factory.
func (s *Session) Context() *Context {
	return s.ctx
}

// Close releases every object and the connection.
func (s *Session) Close() {
	if s.decorations != nil {
		s.decorations.Destroy()
		s.decorations = nil
	}
	if s.renderer != nil {
		if err := s.renderer.Close(); err != nil {
			logger.Debugf("Failed to close renderer: %v", err)
		}
		s.renderer = nil
	}
	if s.clipboard != nil && s.clipboard.source != nil {
		_ = s.clipboard.source.Destroy()
		s.clipboard.source = nil
	}
	for _, o := range []*wayland.DataOffer{s.selection, s.dragOffer} {
		if o != nil {
			_ = o.Destroy()
		}
	}
	s.selection, s.dragOffer = nil, nil
	if s.dataDevice != nil {
		_ = s.dataDevice.Release()
		s.dataDevice = nil
	}
	if s.pointer != nil {
		_ = s.pointer.Release()
		s.pointer = nil
	}
	if s.keyboard != nil {
		_ = s.keyboard.Release()
		s.keyboard = nil
	}
	if s.decoration != nil {
		_ = s.decoration.Destroy()
		s.decoration = nil
	}
	if s.toplevel != nil {
		_ = s.toplevel.Destroy()
		s.toplevel = nil
	}
	if s.xdgSurface != nil {
		_ = s.xdgSurface.Destroy()
		s.xdgSurface = nil
	}
	if s.surface != nil {
		_ = s.surface.Destroy()
		s.surface = nil
	}

	s.kb.clear()
	if s.kb.ctx != nil {
		s.kb.ctx.Close()
		s.kb.ctx = nil
	}
	if s.repeat != nil {
		if err := s.repeat.Close(); err != nil {
			logger.Debugf("Failed to close repeat timer: %v", err)
		}
		s.repeat = nil
	}
	if s.waker != nil {
		_ = s.waker.Close()
	}
	if s.conn != nil {
		if s.conn.Err() == nil {
			_ = s.conn.Flush()
		}
		if err := s.conn.Close(); err != nil {
			logger.Debugf("Failed to close connection: %v", err)
		}
		s.conn = nil
	}
}
