package repeat

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Timer is a pollable countdown-then-interval timer.
type Timer interface {
	// Fd becomes readable whenever at least one expiration is pending.
	Fd() int
	Arm(delay, interval time.Duration) error
	Disarm() error
	// ReadExpirations returns and resets the number of expirations since
	// the last read. It returns 0 when none are pending.
	ReadExpirations() (uint64, error)
	Close() error
}

// timerFD is a Timer backed by a CLOCK_MONOTONIC timerfd.
type timerFD struct {
	fd int
}

// NewTimer creates a non-blocking monotonic timerfd.
func NewTimer() (Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to create repeat timer: %w", err)
	}
	return &timerFD{fd: fd}, nil
}

func (t *timerFD) Fd() int {
	return t.fd
}

func (t *timerFD) Arm(delay, interval time.Duration) error {
	// A zero it_value disarms, so the shortest delay is one nanosecond.
	if delay <= 0 {
		delay = time.Nanosecond
	}
	spec := unix.ItimerSpec{
		Value:    unix.NsecToTimespec(delay.Nanoseconds()),
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.fd, 0, &spec, nil); err != nil {
		return fmt.Errorf("failed to arm repeat timer: %w", err)
	}
	return nil
}

func (t *timerFD) Disarm() error {
	if err := unix.TimerfdSettime(t.fd, 0, &unix.ItimerSpec{}, nil); err != nil {
		return fmt.Errorf("failed to disarm repeat timer: %w", err)
	}
	return nil
}

func (t *timerFD) ReadExpirations() (uint64, error) {
	return readCounter(t.fd)
}

func (t *timerFD) Close() error {
	return unix.Close(t.fd)
}

// readCounter reads the 8-byte counter shared by timerfd and eventfd.
func readCounter(fd int) (uint64, error) {
	var buf [8]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read timer: %w", err)
		}
		if n != len(buf) {
			return 0, fmt.Errorf("short timer read: %d bytes", n)
		}
		return binary.NativeEndian.Uint64(buf[:]), nil
	}
}
