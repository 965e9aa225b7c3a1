package window

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/internal/wayland"
)

// Mime types exchanged over data offers.
const (
	mimeURIList   = "text/uri-list"
	mimeTextUTF8  = "text/plain;charset=utf-8"
	mimeTextPlain = "text/plain"
)

func (s *Session) dataDeviceListener() wayland.DataDeviceListener {
	return wayland.DataDeviceListener{
		DataOffer: s.handleDataOffer,
		Enter:     s.handleDragEnter,
		Leave:     s.handleDragLeave,
		Drop:      s.handleDrop,
		Selection: s.handleSelection,
	}
}

// handleDataOffer attaches a listener to a new offer so its mime types
// are known by the time it is entered or selected.
func (s *Session) handleDataOffer(offer *wayland.DataOffer) {
	id := offer.ID()
	s.offerMimes[id] = nil
	offer.SetListener(wayland.DataOfferListener{
		Offer: func(mime string) {
			s.offerMimes[id] = append(s.offerMimes[id], mime)
		},
		SourceActions: func(actions uint32) {
			logger.Debug("Offer source actions", "offer", id, "actions", actions)
		},
		Action: func(action uint32) {
			logger.Debug("Offer action", "offer", id, "action", action)
		},
	})
}

func (s *Session) offers(offer *wayland.DataOffer, mime string) bool {
	return offer != nil && slices.Contains(s.offerMimes[offer.ID()], mime)
}

func (s *Session) destroyOffer(offer *wayland.DataOffer) {
	if offer == nil {
		return
	}
	delete(s.offerMimes, offer.ID())
	if err := offer.Destroy(); err != nil {
		logger.Debugf("Failed to destroy offer: %v", err)
	}
}

func (s *Session) handleDragEnter(serial, _ uint32, _, _ wayland.Fixed, offer *wayland.DataOffer) {
	s.dragOffer = offer
	s.dragSerial = serial
	if offer == nil {
		return
	}
	if !s.offers(offer, mimeURIList) {
		_ = offer.Accept(serial, "")
		return
	}
	if err := offer.Accept(serial, mimeURIList); err != nil {
		logger.Warnf("Failed to accept drag: %v", err)
		return
	}
	if err := offer.SetActions(wayland.DndActionCopy, wayland.DndActionCopy); err != nil {
		logger.Debugf("Failed to set drag actions: %v", err)
	}
}

func (s *Session) handleDragLeave() {
	if s.dragOffer != nil {
		s.destroyOffer(s.dragOffer)
		s.dragOffer = nil
	}
}

// handleDrop reads the dropped uri list and queues the file paths.
func (s *Session) handleDrop() {
	offer := s.dragOffer
	s.dragOffer = nil
	if offer == nil {
		return
	}
	defer s.destroyOffer(offer)
	if !s.offers(offer, mimeURIList) {
		return
	}

	data, err := s.receive(offer, mimeURIList)
	if err != nil {
		logger.Warnf("Failed to receive dropped files: %v", err)
		return
	}
	if err := offer.Finish(); err != nil {
		logger.Debugf("Failed to finish drop: %v", err)
	}
	paths := ParseURIList(data)
	if len(paths) == 0 {
		return
	}
	s.queue.Push(Pending{Kind: PendingFilesDropped, Paths: paths})
}

func (s *Session) handleSelection(offer *wayland.DataOffer) {
	if s.selection != nil && s.selection != offer {
		s.destroyOffer(s.selection)
	}
	s.selection = offer
}

// receive reads the offer's data as mime through a pipe. The source
// writes from another client, so requests are flushed before reading.
func (s *Session) receive(offer *wayland.DataOffer, mime string) ([]byte, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	r := os.NewFile(uintptr(p[0]), "data-offer")
	defer r.Close()

	err := offer.Receive(mime, p[1])
	if err == nil {
		err = s.conn.Flush()
	}
	// The compositor holds its own copy of the write end.
	_ = unix.Close(p[1])
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// ParseURIList extracts local file paths from a text/uri-list payload.
// Comments, blank lines and non-file URIs are skipped.
func ParseURIList(data []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			logger.Debug("Skipping dropped uri", "uri", line)
			continue
		}
		paths = append(paths, u.Path)
	}
	return paths
}
