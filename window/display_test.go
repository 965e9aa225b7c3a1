package window

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestDisplayDataQuitFlags(t *testing.T) {
	d := newDisplayData(640, 480)
	w, h := d.ScreenSize()
	assert.Equal(t, int32(640), w)
	assert.Equal(t, int32(480), h)

	d.RequestQuit()
	requested, ordered := d.QuitState()
	assert.True(t, requested)
	assert.False(t, ordered)

	d.CancelQuit()
	requested, _ = d.QuitState()
	assert.False(t, requested)

	d.OrderQuit()
	requested, ordered = d.QuitState()
	assert.True(t, requested)
	assert.True(t, ordered)
}

func TestDisplayDataConcurrentAccess(t *testing.T) {
	d := newDisplayData(1, 1)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.setScreenSize(int32(i), int32(i))
			d.ScreenSize()
			d.RequestQuit()
			d.CancelQuit()
		}()
	}
	wg.Wait()
	requested, ordered := d.QuitState()
	assert.False(t, requested)
	assert.False(t, ordered)
}

func TestContextSendDropsWhenFull(t *testing.T) {
	ctx := &Context{display: newDisplayData(1, 1), requests: make(chan Request, 2)}
	assert.True(t, ctx.Send(ScheduleUpdate{}))
	assert.True(t, ctx.Send(SetFullscreen{Fullscreen: true}))
	assert.False(t, ctx.Send(ScheduleUpdate{}))

	assert.Equal(t, ScheduleUpdate{}, <-ctx.requests)
	assert.Equal(t, SetFullscreen{Fullscreen: true}, <-ctx.requests)
	assert.Nil(t, ctx.Clipboard())
	assert.Nil(t, ctx.Canvas())
}

func TestContextSendWakesLoop(t *testing.T) {
	w, err := newWaker()
	require.NoError(t, err)
	defer w.Close()

	ctx := &Context{display: newDisplayData(1, 1), requests: make(chan Request, 1), wake: w.Wake}
	require.True(t, ctx.Send(ScheduleUpdate{}))

	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}} //nolint:gosec // fds fit in int32
	n, err := unix.Poll(fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w.Clear()
	n, err = unix.Poll(fds, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	ctx.RequestQuit()
	n, err = unix.Poll(fds, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A full queue does not wake.
	w.Clear()
	assert.False(t, ctx.Send(ScheduleUpdate{}))
	n, err = unix.Poll(fds, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, w.Close())
	w.Wake()
}
