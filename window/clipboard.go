package window

import (
	"errors"
	"os"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
)

// ErrNoFocus is returned when setting the clipboard without keyboard
// focus; compositors reject selections without a recent input serial.
var ErrNoFocus = errors.New("window: clipboard needs keyboard focus")

// Clipboard reads and sets the seat's selection. It must be used from the
// event loop goroutine.
type Clipboard struct {
	s      *Session
	source *wayland.DataSource
	text   string
}

func newClipboard(s *Session) *Clipboard {
	return &Clipboard{s: s}
}

// Get returns the current selection as UTF-8 text.
func (c *Clipboard) Get() (string, bool) {
	if c.source != nil {
		// Reading our own selection would wait on ourselves.
		return c.text, true
	}
	offer := c.s.selection
	var mime string
	switch {
	case c.s.offers(offer, mimeTextUTF8):
		mime = mimeTextUTF8
	case c.s.offers(offer, mimeTextPlain):
		mime = mimeTextPlain
	default:
		return "", false
	}
	data, err := c.s.receive(offer, mime)
	if err != nil {
		logger.Warnf("Failed to read clipboard: %v", err)
		return "", false
	}
	return string(data), true
}

// Set makes text the selection.
func (c *Clipboard) Set(text string) error {
	if !c.s.hasEnterSerial {
		return ErrNoFocus
	}
	source, err := c.s.dataDeviceManager.CreateDataSource()
	if err != nil {
		return err
	}
	source.SetListener(wayland.DataSourceListener{
		Send: func(mime string, fd int) {
			f := os.NewFile(uintptr(fd), "data-source")
			defer f.Close()
			if _, err := f.WriteString(text); err != nil {
				logger.Warnf("Failed to send clipboard as %s: %v", mime, err)
			}
		},
		Cancelled: func() {
			if c.source == source {
				c.source = nil
				c.text = ""
			}
			_ = source.Destroy()
		},
	})
	for _, mime := range []string{mimeTextUTF8, mimeTextPlain} {
		if err := source.Offer(mime); err != nil {
			return err
		}
	}
	if err := c.s.dataDevice.SetSelection(source, c.s.enterSerial); err != nil {
		return err
	}
	if c.source != nil {
		_ = c.source.Destroy()
	}
	c.source, c.text = source, text
	return nil
}
