package window

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
)

var (
	// ErrNoCompositor is returned when wl_compositor is not advertised.
	ErrNoCompositor = errors.New("window: compositor does not offer wl_compositor")
	// ErrNoShell is returned when xdg_wm_base is not advertised.
	ErrNoShell = errors.New("window: compositor does not offer xdg_wm_base")
)

// Versions globals are bound at. They are pinned rather than negotiated
// so new compositor features never change behaviour.
const (
	compositorVersion        = 1
	subcompositorVersion     = 1
	wmBaseVersion            = 1
	decorationManagerVersion = 1
	viewporterVersion        = 1
	shmVersion               = 1
	seatMaxVersion           = 4
	dataDeviceManagerVersion = 3
)

// Capabilities lists which optional globals were bound.
type Capabilities struct {
	Subcompositor     bool
	DecorationManager bool
	Viewporter        bool
	Shm               bool
	Seat              bool
	DataDeviceManager bool
}

// globals holds the bound globals. A nil field means the compositor does
// not offer it.
type globals struct {
	compositor        *wayland.Compositor
	subcompositor     *wayland.Subcompositor
	wmBase            *wayland.WmBase
	decorationManager *wayland.DecorationManager
	viewporter        *wayland.Viewporter
	shm               *wayland.Shm
	seat              *wayland.Seat
	dataDeviceManager *wayland.DataDeviceManager
}

// BindVersion reports whether the window binds iface and at which
// version, given the version the compositor offers.
func BindVersion(iface string, offered uint32) (uint32, bool) {
	switch iface {
	case "wl_compositor":
		return compositorVersion, true
	case "wl_subcompositor":
		return subcompositorVersion, true
	case "xdg_wm_base":
		return wmBaseVersion, true
	case "zxdg_decoration_manager", "zxdg_decoration_manager_v1":
		return decorationManagerVersion, true
	case "wp_viewporter":
		return viewporterVersion, true
	case "wl_shm":
		return shmVersion, true
	case "wl_seat":
		return min(seatMaxVersion, offered), true
	case "wl_data_device_manager":
		return min(dataDeviceManagerVersion, offered), true
	}
	return 0, false
}

// handleGlobal binds the globals the window uses. A global advertised
// twice replaces the first binding.
func (s *Session) handleGlobal(g wayland.Global) {
	s.advertised[g.Name] = g

	version, ok := BindVersion(g.Interface, g.Version)
	if !ok {
		return
	}
	var err error
	switch g.Interface {
	case "wl_compositor":
		s.compositor, err = s.registry.BindCompositor(g.Name, version)
	case "wl_subcompositor":
		s.subcompositor, err = s.registry.BindSubcompositor(g.Name, version)
	case "xdg_wm_base":
		s.wmBase, err = s.registry.BindWmBase(g.Name, version)
		if err == nil {
			s.wmBase.SetPingHandler(s.handlePing)
		}
	case "zxdg_decoration_manager", "zxdg_decoration_manager_v1":
		s.decorationManager, err = s.registry.BindDecorationManager(g.Name, g.Interface, version)
	case "wp_viewporter":
		s.viewporter, err = s.registry.BindViewporter(g.Name, version)
	case "wl_shm":
		s.shm, err = s.registry.BindShm(g.Name, version)
	case "wl_seat":
		var seat *wayland.Seat
		seat, err = s.registry.BindSeat(g.Name, version)
		if err == nil {
			// Capabilities arrive right after the bind.
			seat.SetListener(s.seatListener(seat))
			s.seat = seat
		}
	case "wl_data_device_manager":
		s.dataDeviceManager, err = s.registry.BindDataDeviceManager(g.Name, version)
	}
	if err != nil {
		logger.Warnf("Failed to bind %s: %v", g.Interface, err)
		return
	}
	logger.Debug("Bound global", "interface", g.Interface, "name", g.Name, "version", version, "offered", g.Version)
}

// handleGlobalRemove forgets a global. Objects already bound to it stay
// alive until the session ends.
func (s *Session) handleGlobalRemove(name uint32) {
	if g, ok := s.advertised[name]; ok {
		logger.Debug("Global removed", "interface", g.Interface, "name", name)
		delete(s.advertised, name)
	}
}

// checkRequired fails when the globals needed for a window are missing
// and logs the optional ones that are.
func (s *Session) checkRequired() error {
	if s.compositor == nil {
		return ErrNoCompositor
	}
	if s.wmBase == nil {
		return ErrNoShell
	}
	caps := s.Capabilities()
	for name, ok := range map[string]bool{
		"wl_subcompositor":           caps.Subcompositor,
		"zxdg_decoration_manager_v1": caps.DecorationManager,
		"wp_viewporter":              caps.Viewporter,
		"wl_shm":                     caps.Shm,
		"wl_seat":                    caps.Seat,
		"wl_data_device_manager":     caps.DataDeviceManager,
	} {
		if !ok {
			logger.Debugf("Optional global %s not offered", name)
		}
	}
	return nil
}

// Capabilities reports the optional globals that were bound.
func (s *Session) Capabilities() Capabilities {
	return Capabilities{
		Subcompositor:     s.subcompositor != nil,
		DecorationManager: s.decorationManager != nil,
		Viewporter:        s.viewporter != nil,
		Shm:               s.shm != nil,
		Seat:              s.seat != nil,
		DataDeviceManager: s.dataDeviceManager != nil,
	}
}

// Globals returns every global currently advertised, ordered by name.
func (s *Session) Globals() []wayland.Global {
	out := make([]wayland.Global, 0, len(s.advertised))
	for _, g := range s.advertised {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListGlobals connects to display and returns the globals it advertises
// without creating a window.
func ListGlobals(display string) ([]wayland.Global, error) {
	conn, err := wayland.Dial(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("Failed to close connection: %v", err)
		}
	}()
	return listGlobals(conn)
}

func listGlobals(conn *wayland.Conn) ([]wayland.Global, error) {
	registry, err := conn.Display().GetRegistry()
	if err != nil {
		return nil, err
	}
	var out []wayland.Global
	registry.SetListener(wayland.RegistryListener{
		Global: func(g wayland.Global) { out = append(out, g) },
	})
	if err := conn.Roundtrip(); err != nil {
		return nil, fmt.Errorf("registry roundtrip: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
