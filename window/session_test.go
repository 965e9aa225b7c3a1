package window

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/wlwindow/event"
	"github.com/bnema/wlwindow/internal/repeat"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/internal/wltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionBindsGlobals(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)

	assert.NotNil(t, hs.s.compositor)
	assert.NotNil(t, hs.s.wmBase)
	require.NotNil(t, hs.s.seat)
	assert.Equal(t, uint32(compositorVersion), boundVersion(t, hs.fake, "wl_compositor"))
	assert.Equal(t, uint32(seatMaxVersion), boundVersion(t, hs.fake, "wl_seat"))
	assert.Equal(t, Capabilities{Seat: true}, hs.s.Capabilities())
	assert.Len(t, hs.s.Globals(), 3)

	// The seat listener is live: capabilities create both devices.
	hs.withSeat(t, wayland.SeatCapabilityPointer|wayland.SeatCapabilityKeyboard)
	assert.NotNil(t, hs.s.pointer)
	assert.NotNil(t, hs.s.keyboard)
	assert.Len(t, hs.sent(t, "wl_seat", 0), 1)
	assert.Len(t, hs.sent(t, "wl_seat", 1), 1)

	// Toplevel setup: title, app id, and the initial commit.
	title := hs.fake.Find("xdg_toplevel", 2)
	require.Len(t, title, 1)
	assert.Equal(t, "wlwindow", title[0].Message().String())
	assert.NotEmpty(t, hs.fake.Find("wl_surface", 6))
}

func TestSessionReplacedSeatIsIgnored(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat, globalSeat)

	var seatIDs []uint32
	for _, r := range hs.fake.Find("wl_registry", 0) {
		msg := r.Message()
		msg.Uint32()
		if msg.String() != "wl_seat" {
			continue
		}
		msg.Uint32()
		seatIDs = append(seatIDs, msg.Uint32())
	}
	require.Len(t, seatIDs, 2)
	require.Equal(t, seatIDs[1], hs.s.seat.ID())

	hs.send(seatIDs[0], 0, func(b *wayland.Builder) {
		b.Uint32(wayland.SeatCapabilityPointer | wayland.SeatCapabilityKeyboard)
	})
	require.NoError(t, hs.s.conn.Roundtrip())
	assert.Nil(t, hs.s.pointer)
	assert.Nil(t, hs.s.keyboard)
	assert.Empty(t, hs.fake.Find("wl_seat", 0))
	assert.Empty(t, hs.fake.Find("wl_seat", 1))

	// The current seat still drives the devices.
	hs.withSeat(t, wayland.SeatCapabilityPointer)
	assert.NotNil(t, hs.s.pointer)
	assert.Len(t, hs.sent(t, "wl_seat", 0), 1)
}

func TestSessionSeatVersionFollowsCompositor(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase,
		wltest.Global{Interface: "wl_seat", Version: 2})
	assert.Equal(t, uint32(2), boundVersion(t, hs.fake, "wl_seat"))
}

func TestSessionMissingRequiredGlobals(t *testing.T) {
	tests := []struct {
		name    string
		globals []wltest.Global
		want    error
	}{
		{"no compositor", []wltest.Global{globalWmBase, globalSeat}, ErrNoCompositor},
		{"no shell", []wltest.Global{globalCompositor, globalSeat}, ErrNoShell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := wltest.New(t, tt.globals...)
			timer, err := repeat.NewManualTimer()
			require.NoError(t, err)

			_, err = newSession(testConf(), deps{conn: fake.Client(), timer: timer})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, fake.Requests("wl_compositor"))
		})
	}
}

func TestSessionCapabilityRevoked(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityPointer|wayland.SeatCapabilityKeyboard)

	hs.withSeat(t, wayland.SeatCapabilityPointer)
	assert.NotNil(t, hs.s.pointer)
	assert.Nil(t, hs.s.keyboard)
	// wl_keyboard.release
	assert.Len(t, hs.sent(t, "wl_keyboard", 0), 1)
}

func TestSessionFallbackDecorationsShrinkRenderer(t *testing.T) {
	conf := testConf()
	conf.FallbackDecorations = true
	hs := newHarness(t, conf, globalCompositor, globalWmBase, globalShm, globalSubcomp, globalViewporter)
	require.NotNil(t, hs.s.decorations)
	assert.Equal(t, [][2]int32{{800, 600}}, hs.renderer.inits)

	hs.send(hs.s.toplevel.ID(), 0, func(b *wayland.Builder) {
		b.Int32(800).Int32(600).Array(nil)
	})
	hs.iterate(t)

	require.NotEmpty(t, hs.renderer.resizes)
	assert.Equal(t, [2]int32{796, 583}, hs.renderer.resizes[len(hs.renderer.resizes)-1])
	assert.Equal(t, [][2]float32{{800, 600}}, hs.h.resizes)
	w, h := hs.h.ctx.ScreenSize()
	assert.Equal(t, float32(800), w)
	assert.Equal(t, float32(600), h)
}

func TestSessionConfigureWithoutDecorations(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)
	assert.Nil(t, hs.s.decorations)

	hs.send(hs.s.toplevel.ID(), 0, func(b *wayland.Builder) {
		b.Int32(1024).Int32(768).Array(nil)
	})
	// A zero size leaves the choice to the client.
	hs.send(hs.s.toplevel.ID(), 0, func(b *wayland.Builder) {
		b.Int32(0).Int32(0).Array(nil)
	})
	hs.send(hs.s.xdgSurface.ID(), 0, func(b *wayland.Builder) { b.Uint32(7) })
	hs.iterate(t)

	assert.Equal(t, [][2]int32{{1024, 768}}, hs.renderer.resizes)
	assert.Equal(t, [][2]float32{{1024, 768}}, hs.h.resizes)

	require.NoError(t, hs.s.conn.Flush())
	ack := hs.fake.WaitFor("xdg_surface", 4, waitTimeout)
	assert.Equal(t, uint32(7), ack.Message().Uint32())
}

func TestSessionServerSideDecorations(t *testing.T) {
	conf := testConf()
	conf.FallbackDecorations = true
	hs := newHarness(t, conf, globalCompositor, globalWmBase, globalDecoration, globalShm, globalSubcomp, globalViewporter)

	assert.Nil(t, hs.s.decorations)
	require.NotNil(t, hs.s.decoration)
	mode := hs.sent(t, "zxdg_toplevel_decoration_v1", 1)
	require.Len(t, mode, 1)
	assert.Equal(t, uint32(wayland.DecorationModeServerSide), mode[0].Message().Uint32())
}

func TestSessionKeyRepeatCoalesces(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	usKeymap(hs.s)

	hs.key(scanA, wayland.KeyStatePressed)
	hs.iterate(t)
	armed, delay, gap := hs.timer.Armed()
	assert.True(t, armed)
	assert.Equal(t, repeat.DefaultDelay, delay)
	assert.Equal(t, repeat.DefaultGap, gap)
	assert.Equal(t, []keyCall{{Key: event.KeyA, Down: true}}, hs.h.keys)

	// Three intervals elapsed while blocked: exactly three repeats.
	require.NoError(t, hs.timer.Fire(3))
	hs.iterate(t)
	require.Len(t, hs.h.keys, 4)
	for _, k := range hs.h.keys[1:] {
		assert.Equal(t, keyCall{Key: event.KeyA, Down: true, Repeat: true}, k)
	}
	assert.Equal(t, []rune("aaaa"), hs.h.chars)

	hs.key(scanA, wayland.KeyStateReleased)
	hs.iterate(t)
	assert.Equal(t, keyCall{Key: event.KeyA}, hs.h.keys[4])
	armed, _, _ = hs.timer.Armed()
	assert.False(t, armed)
	_, tracked := hs.s.repeat.Key()
	assert.False(t, tracked)

	// A fire racing the disarm produces nothing.
	require.NoError(t, hs.timer.Fire(2))
	hs.iterate(t)
	assert.Len(t, hs.h.keys, 5)
}

func TestSessionPressReleaseSameBatch(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	usKeymap(hs.s)

	hs.key(scanA, wayland.KeyStatePressed)
	hs.key(scanA, wayland.KeyStateReleased)
	hs.iterate(t)

	assert.Equal(t, []keyCall{{Key: event.KeyA, Down: true}, {Key: event.KeyA}}, hs.h.keys)
	armed, _, _ := hs.timer.Armed()
	assert.False(t, armed)
}

func TestSessionReleaseOfOtherKeyKeepsRepeat(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	usKeymap(hs.s)

	hs.key(scanA, wayland.KeyStatePressed)
	hs.key(scanB, wayland.KeyStatePressed)
	hs.key(scanA, wayland.KeyStateReleased)
	hs.iterate(t)

	key, tracked := hs.s.repeat.Key()
	assert.True(t, tracked)
	assert.Equal(t, scanB, key)
}

func TestSessionZeroRateDisablesRepeat(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	usKeymap(hs.s)

	hs.send(hs.s.keyboard.ID(), 5, func(b *wayland.Builder) { b.Int32(0).Int32(300) })
	hs.key(scanA, wayland.KeyStatePressed)
	hs.iterate(t)

	armed, _, _ := hs.timer.Armed()
	assert.False(t, armed)
	assert.False(t, hs.s.repeat.Policy().Enabled)
	assert.Len(t, hs.h.keys, 1)
}

func TestSessionNonRepeatingKey(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	usKeymap(hs.s)

	hs.key(scanShift, wayland.KeyStatePressed)
	hs.iterate(t)

	armed, _, _ := hs.timer.Armed()
	assert.False(t, armed)
	require.Len(t, hs.h.keys, 1)
	assert.Equal(t, event.KeyLeftShift, hs.h.keys[0].Key)
	assert.True(t, hs.h.keys[0].Mods.Shift)
	assert.Empty(t, hs.h.chars)
}

func TestSessionFocusLossResetsModifiers(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	st := usKeymap(hs.s)

	hs.send(hs.s.keyboard.ID(), 1, func(b *wayland.Builder) {
		b.Uint32(5).ObjectID(hs.s.surface.ID()).Array(nil)
	})
	hs.key(scanShift, wayland.KeyStatePressed)
	hs.key(scanA, wayland.KeyStatePressed)
	hs.iterate(t)
	require.Len(t, hs.h.keys, 2)
	assert.True(t, hs.h.keys[1].Mods.Shift)
	assert.True(t, hs.s.hasEnterSerial)

	hs.send(hs.s.keyboard.ID(), 2, func(b *wayland.Builder) {
		b.Uint32(6).ObjectID(hs.s.surface.ID())
	})
	hs.key(scanB, wayland.KeyStatePressed)
	hs.iterate(t)

	require.Len(t, hs.h.keys, 3)
	assert.Equal(t, keyCall{Key: event.KeyB, Down: true}, hs.h.keys[2])
	assert.False(t, hs.s.hasEnterSerial)
	assert.Equal(t, [4]uint32{}, st.masks[len(st.masks)-1])
	// Leave stopped the repeat of A before B armed it again.
	key, tracked := hs.s.repeat.Key()
	assert.True(t, tracked)
	assert.Equal(t, scanB, key)
}

func TestSessionKeyWithoutKeymap(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)

	hs.key(scanA, wayland.KeyStatePressed)
	hs.key(scanA, 9)
	hs.iterate(t)

	assert.Equal(t, []keyCall{{Key: event.KeyUnknown, Down: true}}, hs.h.keys)
	assert.Empty(t, hs.h.chars)
	armed, _, _ := hs.timer.Armed()
	assert.False(t, armed)
}

func TestSessionPointerEvents(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityPointer)
	ptr := hs.s.pointer.ID()

	hs.send(ptr, 0, func(b *wayland.Builder) {
		b.Uint32(1).ObjectID(hs.s.surface.ID()).Fixed(0).Fixed(0)
	})
	hs.send(ptr, 2, func(b *wayland.Builder) {
		b.Uint32(0).Fixed(wayland.FixedFromFloat(10.5)).Fixed(wayland.FixedFromInt(20))
	})
	hs.send(ptr, 3, func(b *wayland.Builder) {
		b.Uint32(2).Uint32(0).Uint32(btnLeft).Uint32(wayland.PointerButtonPressed)
	})
	hs.send(ptr, 3, func(b *wayland.Builder) {
		b.Uint32(3).Uint32(0).Uint32(btnRight).Uint32(0)
	})
	hs.send(ptr, 4, func(b *wayland.Builder) {
		b.Uint32(0).Uint32(wayland.PointerAxisVerticalScroll).Fixed(wayland.FixedFromInt(15))
	})
	hs.send(ptr, 4, func(b *wayland.Builder) {
		b.Uint32(0).Uint32(wayland.PointerAxisHorizontalScroll).Fixed(wayland.FixedFromInt(-3))
	})
	hs.send(ptr, 4, func(b *wayland.Builder) {
		b.Uint32(0).Uint32(wayland.PointerAxisVerticalScroll).Fixed(0)
	})
	hs.iterate(t)

	assert.Equal(t, [][2]float32{{10.5, 20}}, hs.h.motions)
	assert.Equal(t, []buttonCall{
		{Button: event.MouseButtonLeft, Down: true, X: 10.5, Y: 20},
		{Button: event.MouseButtonRight, X: 10.5, Y: 20},
	}, hs.h.buttons)
	assert.Equal(t, [][2]float32{{0, -1}, {-1, 0}}, hs.h.wheels)
}

func TestSessionTitleBarDragsWindow(t *testing.T) {
	conf := testConf()
	conf.FallbackDecorations = true
	hs := newHarness(t, conf, globalCompositor, globalWmBase, globalSeat, globalShm, globalSubcomp, globalViewporter)
	require.NotNil(t, hs.s.decorations)
	hs.withSeat(t, wayland.SeatCapabilityPointer)

	// Surfaces: the window first, then the frame parts from the top.
	created := hs.fake.Find("wl_compositor", 0)
	require.Len(t, created, 5)
	bar := created[1].Message().NewID()
	require.True(t, hs.s.decorations.IsTitleBar(bar))

	ptr := hs.s.pointer.ID()
	hs.send(ptr, 0, func(b *wayland.Builder) {
		b.Uint32(11).ObjectID(bar).Fixed(0).Fixed(0)
	})
	hs.send(ptr, 2, func(b *wayland.Builder) {
		b.Uint32(0).Fixed(wayland.FixedFromInt(5)).Fixed(wayland.FixedFromInt(5))
	})
	hs.send(ptr, 3, func(b *wayland.Builder) {
		b.Uint32(12).Uint32(0).Uint32(btnLeft).Uint32(wayland.PointerButtonPressed)
	})
	hs.iterate(t)
	require.NoError(t, hs.s.conn.Flush())

	move := hs.fake.WaitFor("xdg_toplevel", 5, waitTimeout)
	msg := move.Message()
	assert.Equal(t, hs.s.seat.ID(), msg.Object())
	assert.Equal(t, uint32(12), msg.Uint32())
	assert.Empty(t, hs.h.motions)
	assert.Empty(t, hs.h.buttons)
}

func TestSessionPingPong(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	hs.send(hs.s.wmBase.ID(), 0, func(b *wayland.Builder) { b.Uint32(42) })
	hs.iterate(t)
	require.NoError(t, hs.s.conn.Flush())

	pong := hs.fake.WaitFor("xdg_wm_base", 3, waitTimeout)
	assert.Equal(t, uint32(42), pong.Message().Uint32())
}

func TestSessionCloseEndsLoop(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	hs.send(hs.s.toplevel.ID(), 1, nil)
	require.NoError(t, hs.s.Loop())
	assert.True(t, hs.s.closed)
	assert.False(t, hs.s.Running())
}

func TestSessionQuitVeto(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)
	hs.h.vetoQuits = 1

	hs.h.ctx.RequestQuit()
	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	assert.Equal(t, 1, hs.h.quits)
	assert.True(t, hs.s.Running())
	requested, ordered := hs.s.display.QuitState()
	assert.False(t, requested)
	assert.False(t, ordered)

	hs.h.ctx.RequestQuit()
	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	assert.Equal(t, 2, hs.h.quits)
	assert.False(t, hs.s.Running())

	// An ordered quit is not offered to the handler again.
	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	assert.Equal(t, 2, hs.h.quits)
}

func TestSessionQuitFromAnotherGoroutineWakesLoop(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	done := make(chan error, 1)
	go func() { done <- hs.s.Loop() }()
	hs.h.ctx.RequestQuit()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("loop did not wake for the quit request")
	}
	assert.Equal(t, 1, hs.h.quits)
}

func TestSessionOrderQuitSkipsHandler(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	hs.h.ctx.OrderQuit()
	require.NoError(t, hs.s.Loop())
	assert.Zero(t, hs.h.quits)
}

func TestSessionBlockingLoopDrawsOnRequest(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase, globalSeat)
	hs.withSeat(t, wayland.SeatCapabilityKeyboard)
	presents := hs.renderer.presents

	// Input alone does not draw in blocking mode.
	hs.key(scanA, wayland.KeyStatePressed)
	hs.iterate(t)
	assert.Equal(t, 1, hs.h.updates)
	assert.Equal(t, presents, hs.renderer.presents)

	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	assert.Equal(t, 2, hs.h.updates)
	assert.Equal(t, 2, hs.h.draws)
	assert.Equal(t, presents+1, hs.renderer.presents)
	assert.False(t, hs.s.updateRequested)
}

func TestSessionEagerLoopDrawsEveryIteration(t *testing.T) {
	conf := testConf()
	conf.BlockingEventLoop = false
	hs := newHarness(t, conf, globalCompositor, globalWmBase)

	hs.send(hs.s.wmBase.ID(), 0, func(b *wayland.Builder) { b.Uint32(1) })
	hs.iterate(t)
	assert.Equal(t, 2, hs.h.updates)
}

func TestSessionFullscreenRequest(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	hs.h.ctx.SetFullscreen(true)
	hs.h.ctx.Send(Unknown{Kind: "show_mouse"})
	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	hs.h.ctx.SetFullscreen(false)
	hs.h.ctx.ScheduleUpdate()
	hs.iterate(t)
	require.NoError(t, hs.s.conn.Flush())

	hs.fake.WaitFor("xdg_toplevel", 12, waitTimeout)
	assert.Len(t, hs.fake.Find("xdg_toplevel", 11), 1)
}

func TestSessionConnectionLost(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)

	hs.fake.Hangup()
	err := hs.s.Iterate()
	assert.ErrorIs(t, err, wayland.ErrConnectionLost)
}

func TestSessionFilesDropped(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o600))

	hs.s.queue.Push(Pending{Kind: PendingFilesDropped, Paths: []string{a, filepath.Join(dir, "missing"), b}})
	hs.s.queue.Drain(hs.s.deliver)

	assert.Equal(t, 1, hs.h.drops)
	files := hs.h.ctx.DroppedFiles()
	assert.Equal(t, []string{a, b}, files.Paths)
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second")}, files.Bytes)
}

func TestSessionCloseReleasesRenderer(t *testing.T) {
	hs := newHarness(t, testConf(), globalCompositor, globalWmBase)
	hs.s.Close()
	assert.True(t, hs.renderer.closed)
	assert.Nil(t, hs.s.conn)
}
