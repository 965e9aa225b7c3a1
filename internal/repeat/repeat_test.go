package repeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newManual(t *testing.T) *ManualTimer {
	t.Helper()
	m, err := NewManualTimer()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestPolicyFromInfo(t *testing.T) {
	tests := []struct {
		name        string
		rate, delay int32
		want        Policy
	}{
		{"zero rate disables", 0, 600, Policy{}},
		{"negative rate disables", -1, 600, Policy{}},
		{"25 per second", 25, 600, Policy{Enabled: true, Delay: 600 * time.Millisecond, Gap: 40 * time.Millisecond}},
		{"33 per second truncates", 33, 300, Policy{Enabled: true, Delay: 300 * time.Millisecond, Gap: 30303 * time.Microsecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolicyFromInfo(tt.rate, tt.delay))
		})
	}
}

func TestKeyDownArmsWithPolicy(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())

	require.NoError(t, ctx.KeyDown(30))
	armed, delay, interval := timer.Armed()
	assert.True(t, armed)
	assert.Equal(t, 200*time.Millisecond, delay)
	assert.Equal(t, 40*time.Millisecond, interval)
	key, ok := ctx.Key()
	assert.True(t, ok)
	assert.Equal(t, uint32(30), key)
}

func TestKeyUpClearsSynchronously(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())

	require.NoError(t, ctx.KeyDown(30))
	// A fire already pending when the key is released must be dropped.
	require.NoError(t, timer.Fire(2))
	require.NoError(t, ctx.KeyUp(30))

	_, ok := ctx.Key()
	assert.False(t, ok)
	armed, _, _ := timer.Armed()
	assert.False(t, armed)

	_, count, ok, err := ctx.Expired()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, count)
}

func TestKeyUpOtherKeyKeepsRepeat(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())

	require.NoError(t, ctx.KeyDown(30))
	require.NoError(t, ctx.KeyDown(31))
	require.NoError(t, ctx.KeyUp(30))

	key, ok := ctx.Key()
	assert.True(t, ok)
	assert.Equal(t, uint32(31), key)
}

func TestDisabledPolicyNeverTracks(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())
	ctx.SetRepeatInfo(0, 500)

	require.NoError(t, ctx.KeyDown(30))
	_, ok := ctx.Key()
	assert.False(t, ok)

	require.NoError(t, timer.Fire(5))
	_, _, ok, err := ctx.Expired()
	require.NoError(t, err)
	assert.False(t, ok, "no repeats once the rate is zero")
}

func TestExpiredReportsCoalescedCount(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())

	require.NoError(t, ctx.KeyDown(44))
	require.NoError(t, timer.Fire(3))

	key, count, ok, err := ctx.Expired()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(44), key)
	assert.Equal(t, uint64(3), count)

	_, count, ok, err = ctx.Expired()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, count)
}

func TestResetForgetsKey(t *testing.T) {
	timer := newManual(t)
	ctx := New(timer, DefaultPolicy())

	require.NoError(t, ctx.KeyDown(30))
	require.NoError(t, ctx.Reset())
	_, ok := ctx.Key()
	assert.False(t, ok)
}

func TestTimerFDExpires(t *testing.T) {
	timer, err := NewTimer()
	require.NoError(t, err)
	defer timer.Close()

	n, err := timer.ReadExpirations()
	require.NoError(t, err)
	assert.Zero(t, n, "an unarmed timer has nothing to read")

	require.NoError(t, timer.Arm(time.Millisecond, time.Millisecond))
	pfd := []unix.PollFd{{Fd: int32(timer.Fd()), Events: unix.POLLIN}}
	ready, err := unix.Poll(pfd, 1000)
	require.NoError(t, err)
	require.Equal(t, 1, ready)

	n, err = timer.ReadExpirations()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, uint64(1))
	require.NoError(t, timer.Disarm())
}
