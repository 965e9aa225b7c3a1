package window

import (
	"image"
	"image/draw"
	"testing"
	"time"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/render"
	"github.com/bnema/wlwindow/internal/repeat"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/wltest"
	"github.com/bnema/wlwindow/internal/xkb"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

// Evdev scancodes used by the tests.
const (
	scanA     uint32 = 30
	scanB     uint32 = 48
	scanShift uint32 = 42
)

var (
	globalCompositor = wltest.Global{Interface: "wl_compositor", Version: 4}
	globalWmBase     = wltest.Global{Interface: "xdg_wm_base", Version: 2}
	globalSeat       = wltest.Global{Interface: "wl_seat", Version: 7}
	globalShm        = wltest.Global{Interface: "wl_shm", Version: 1}
	globalSubcomp    = wltest.Global{Interface: "wl_subcompositor", Version: 1}
	globalViewporter = wltest.Global{Interface: "wp_viewporter", Version: 1}
	globalDataDevice = wltest.Global{Interface: "wl_data_device_manager", Version: 3}
	globalDecoration = wltest.Global{Interface: "zxdg_decoration_manager_v1", Version: 1}
)

// fakeState maps xkb keycodes to keysyms and records mask updates.
type fakeState struct {
	syms  map[uint32]uint32
	masks [][4]uint32
}

func (s *fakeState) KeyGetOneSym(keycode uint32) uint32 {
	return s.syms[keycode]
}

func (s *fakeState) UpdateMask(depressed, latched, locked, group uint32) {
	s.masks = append(s.masks, [4]uint32{depressed, latched, locked, group})
}

func (s *fakeState) Unref() {}

// fakeKeymap repeats every key except those listed.
type fakeKeymap struct {
	noRepeat map[uint32]bool
	state    *fakeState
}

func (k *fakeKeymap) KeyRepeats(keycode uint32) bool {
	return !k.noRepeat[keycode]
}

func (k *fakeKeymap) NewState() (xkb.State, error) {
	return k.state, nil
}

func (k *fakeKeymap) Unref() {}

// usKeymap installs a keymap where A and B type letters and shift does
// not repeat.
func usKeymap(s *Session) *fakeState {
	st := &fakeState{syms: map[uint32]uint32{
		scanA + xkbKeycodeOffset:     'a',
		scanB + xkbKeycodeOffset:     'b',
		scanShift + xkbKeycodeOffset: xkb.KeyShiftL,
	}}
	km := &fakeKeymap{noRepeat: map[uint32]bool{scanShift + xkbKeycodeOffset: true}, state: st}
	s.kb.setKeymap(km, st)
	return st
}

// fakeRenderer records sizes instead of drawing.
type fakeRenderer struct {
	inits    [][2]int32
	resizes  [][2]int32
	presents int
	closed   bool
	canvas   *image.RGBA
}

func (r *fakeRenderer) Init(_ *wayland.Conn, _ *wayland.Surface, w, h int32) error {
	r.inits = append(r.inits, [2]int32{w, h})
	r.canvas = image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	return nil
}

func (r *fakeRenderer) Resize(w, h int32) {
	r.resizes = append(r.resizes, [2]int32{w, h})
}

func (r *fakeRenderer) Present() error {
	r.presents++
	return nil
}

func (r *fakeRenderer) Canvas() draw.Image {
	return r.canvas
}

func (r *fakeRenderer) Close() error {
	r.closed = true
	return nil
}

type keyCall struct {
	Key    event.KeyCode
	Mods   event.KeyMods
	Down   bool
	Repeat bool
}

type buttonCall struct {
	Button event.MouseButton
	Down   bool
	X, Y   float32
}

// recorder is a handler keeping every call.
type recorder struct {
	event.BaseHandler
	ctx *Context

	updates, draws int
	resizes        [][2]float32
	motions        [][2]float32
	wheels         [][2]float32
	buttons        []buttonCall
	keys           []keyCall
	chars          []rune
	drops          int
	quits          int
	vetoQuits      int
}

func (r *recorder) Update() { r.updates++ }
func (r *recorder) Draw()   { r.draws++ }

func (r *recorder) ResizeEvent(w, h float32) {
	r.resizes = append(r.resizes, [2]float32{w, h})
}

func (r *recorder) MouseMotionEvent(x, y float32) {
	r.motions = append(r.motions, [2]float32{x, y})
}

func (r *recorder) MouseWheelEvent(x, y float32) {
	r.wheels = append(r.wheels, [2]float32{x, y})
}

func (r *recorder) MouseButtonDownEvent(b event.MouseButton, x, y float32) {
	r.buttons = append(r.buttons, buttonCall{Button: b, Down: true, X: x, Y: y})
}

func (r *recorder) MouseButtonUpEvent(b event.MouseButton, x, y float32) {
	r.buttons = append(r.buttons, buttonCall{Button: b, X: x, Y: y})
}

func (r *recorder) KeyDownEvent(k event.KeyCode, mods event.KeyMods, repeat bool) {
	r.keys = append(r.keys, keyCall{Key: k, Mods: mods, Down: true, Repeat: repeat})
}

func (r *recorder) KeyUpEvent(k event.KeyCode, mods event.KeyMods) {
	r.keys = append(r.keys, keyCall{Key: k, Mods: mods})
}

func (r *recorder) CharEvent(ch rune, _ event.KeyMods, _ bool) {
	r.chars = append(r.chars, ch)
}

func (r *recorder) FilesDroppedEvent() { r.drops++ }

func (r *recorder) QuitRequestedEvent() {
	r.quits++
	if r.vetoQuits > 0 {
		r.vetoQuits--
		r.ctx.CancelQuit()
	}
}

type harness struct {
	fake     *wltest.Compositor
	s        *Session
	timer    *repeat.ManualTimer
	renderer *fakeRenderer
	h        *recorder
}

func testConf() Conf {
	conf := DefaultConf()
	conf.BlockingEventLoop = true
	conf.FallbackDecorations = false
	return conf
}

// newHarness opens a session against a fake compositor and consumes the
// first frame, so the next Iterate blocks until the test sends something.
func newHarness(t *testing.T, conf Conf, globals ...wltest.Global) *harness {
	t.Helper()
	fake := wltest.New(t, globals...)
	timer, err := repeat.NewManualTimer()
	require.NoError(t, err)

	r := &fakeRenderer{}
	s, err := newSession(conf, deps{
		conn:        fake.Client(),
		timer:       timer,
		newRenderer: func(*wayland.Shm) render.Renderer { return r },
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	h := &recorder{}
	s.start(func(ctx *Context) event.Handler {
		h.ctx = ctx
		return h
	})
	require.NoError(t, s.Iterate())
	require.Equal(t, 1, h.updates)

	return &harness{fake: fake, s: s, timer: timer, renderer: r, h: h}
}

// send writes an event from the compositor.
func (hs *harness) send(id uint32, opcode uint16, args func(b *wayland.Builder)) {
	hs.fake.Send(id, opcode, args)
}

// iterate runs one loop iteration. Something must be pending or it blocks.
func (hs *harness) iterate(t *testing.T) {
	t.Helper()
	require.NoError(t, hs.s.Iterate())
}

// withSeat announces a seat with the given capabilities and dispatches
// until the devices exist.
func (hs *harness) withSeat(t *testing.T, caps uint32) {
	t.Helper()
	require.NotNil(t, hs.s.seat)
	hs.send(hs.s.seat.ID(), 0, func(b *wayland.Builder) { b.Uint32(caps) })
	require.NoError(t, hs.s.conn.Roundtrip())
}

// sent flushes the client, waits until the fake has recorded iface.opcode
// and returns every such request. Requests queued by listeners during a
// dispatch only reach the fake after the next flush.
func (hs *harness) sent(t *testing.T, iface string, opcode uint16) []wltest.Request {
	t.Helper()
	require.NoError(t, hs.s.conn.Flush())
	hs.fake.WaitFor(iface, opcode, waitTimeout)
	return hs.fake.Find(iface, opcode)
}

func (hs *harness) key(scancode, state uint32) {
	hs.send(hs.s.keyboard.ID(), 3, func(b *wayland.Builder) {
		b.Uint32(1).Uint32(0).Uint32(scancode).Uint32(state)
	})
}

// boundVersion returns the version the client bound iface at.
func boundVersion(t *testing.T, fake *wltest.Compositor, iface string) uint32 {
	t.Helper()
	for _, r := range fake.Find("wl_registry", 0) {
		msg := r.Message()
		msg.Uint32()
		name := msg.String()
		version := msg.Uint32()
		if name == iface {
			return version
		}
	}
	t.Fatalf("%s not bound", iface)
	return 0
}
