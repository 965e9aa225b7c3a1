// Package repeat implements keyboard auto-repeat: at most one held key, a
// delay/interval policy and a pollable timer that counts repeats.
package repeat

import (
	"time"

	"github.com/bnema/wlwindow/internal/logger"
)

// Default policy used until the compositor sends repeat_info.
const (
	DefaultDelay = 200 * time.Millisecond
	DefaultGap   = 40 * time.Millisecond
)

// Policy is the active repeat configuration.
type Policy struct {
	Enabled bool
	Delay   time.Duration
	Gap     time.Duration
}

// DefaultPolicy returns the policy in effect before repeat_info arrives.
func DefaultPolicy() Policy {
	return Policy{Enabled: true, Delay: DefaultDelay, Gap: DefaultGap}
}

// PolicyFromInfo converts a wl_keyboard.repeat_info pair. A rate of zero
// (or less) disables repeat.
func PolicyFromInfo(rate, delay int32) Policy {
	if rate <= 0 {
		return Policy{}
	}
	if delay < 0 {
		delay = 0
	}
	return Policy{
		Enabled: true,
		Delay:   time.Duration(delay) * time.Millisecond,
		Gap:     time.Duration(1_000_000/int64(rate)) * time.Microsecond,
	}
}

// Context tracks the key currently repeating. The tracked key is set only
// while the timer is armed.
type Context struct {
	policy  Policy
	key     uint32
	tracked bool
	timer   Timer
}

// New creates a context driving timer with the given initial policy.
func New(timer Timer, policy Policy) *Context {
	return &Context{policy: policy, timer: timer}
}

// Fd is the timer descriptor to poll.
func (c *Context) Fd() int {
	return c.timer.Fd()
}

// Policy returns the active policy.
func (c *Context) Policy() Policy {
	return c.policy
}

// Key returns the tracked key, if any.
func (c *Context) Key() (uint32, bool) {
	return c.key, c.tracked
}

// KeyDown starts repeating key, replacing any previously held key.
func (c *Context) KeyDown(key uint32) error {
	if !c.policy.Enabled {
		return c.clear()
	}
	if err := c.timer.Arm(c.policy.Delay, c.policy.Gap); err != nil {
		c.tracked = false
		return err
	}
	c.key = key
	c.tracked = true
	return nil
}

// KeyUp stops repeating if key is the tracked key. Other keys are ignored.
func (c *Context) KeyUp(key uint32) error {
	if !c.tracked || c.key != key {
		return nil
	}
	return c.clear()
}

// Reset forgets the tracked key, as on keyboard focus loss.
func (c *Context) Reset() error {
	return c.clear()
}

// SetRepeatInfo applies a repeat_info update. A key already repeating
// keeps its current timer until released.
func (c *Context) SetRepeatInfo(rate, delay int32) {
	c.policy = PolicyFromInfo(rate, delay)
	logger.Debug("Keyboard repeat policy updated", "enabled", c.policy.Enabled, "delay", c.policy.Delay, "gap", c.policy.Gap)
}

// SetPolicy replaces the policy.
func (c *Context) SetPolicy(p Policy) {
	c.policy = p
}

// Expired consumes the timer's expiration counter. ok is false when no key
// is tracked; a fire that raced a disarm is dropped silently.
func (c *Context) Expired() (key uint32, count uint64, ok bool, err error) {
	count, err = c.timer.ReadExpirations()
	if err != nil {
		return 0, 0, false, err
	}
	if !c.tracked || count == 0 {
		return 0, 0, false, nil
	}
	return c.key, count, true, nil
}

// Close releases the timer.
func (c *Context) Close() error {
	return c.timer.Close()
}

func (c *Context) clear() error {
	c.tracked = false
	c.key = 0
	return c.timer.Disarm()
}
