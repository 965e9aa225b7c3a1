package repeat

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ManualTimer is a Timer whose expirations are injected with Fire. It is
// backed by an eventfd so it can sit in the same poll set as a timerfd.
type ManualTimer struct {
	fd       int
	armed    bool
	delay    time.Duration
	interval time.Duration
}

// NewManualTimer creates a ManualTimer.
func NewManualTimer() (*ManualTimer, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to create eventfd: %w", err)
	}
	return &ManualTimer{fd: fd}, nil
}

func (m *ManualTimer) Fd() int {
	return m.fd
}

func (m *ManualTimer) Arm(delay, interval time.Duration) error {
	m.armed = true
	m.delay = delay
	m.interval = interval
	return nil
}

// Disarm stops the timer and discards pending expirations, as timerfd does.
func (m *ManualTimer) Disarm() error {
	m.armed = false
	_, err := readCounter(m.fd)
	return err
}

func (m *ManualTimer) ReadExpirations() (uint64, error) {
	return readCounter(m.fd)
}

func (m *ManualTimer) Close() error {
	return unix.Close(m.fd)
}

// Armed reports whether the timer is armed and with which settings.
func (m *ManualTimer) Armed() (bool, time.Duration, time.Duration) {
	return m.armed, m.delay, m.interval
}

// Fire adds n expirations, waking any poller.
func (m *ManualTimer) Fire(n uint64) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], n)
	if _, err := unix.Write(m.fd, buf[:]); err != nil {
		return fmt.Errorf("failed to fire timer: %w", err)
	}
	return nil
}
