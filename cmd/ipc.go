package cmd

import (
	"errors"

	"github.com/bnema/wlwindow/internal/ipc"
	"github.com/bnema/wlwindow/internal/logger"
	"github.com/bnema/wlwindow/window"
)

var errQueueFull = errors.New("window request queue full")

// controller is the part of the window context control requests use.
type controller interface {
	RequestQuit()
	Send(req window.Request) bool
}

// newIPCHandler forwards control requests to the window. Every request
// also schedules an update so its effect is drawn in blocking mode.
func newIPCHandler(ctx controller) ipc.HandlerFunc {
	return func(req ipc.Request) error {
		logger.Debug("Control request", "type", req.Type)

		var msg window.Request
		switch req.Type {
		case ipc.RequestFullscreen:
			msg = window.SetFullscreen{Fullscreen: req.Fullscreen}
		case ipc.RequestScheduleUpdate:
			msg = window.ScheduleUpdate{}
		case ipc.RequestQuit:
			ctx.RequestQuit()
		default:
			msg = window.Unknown{Kind: req.Type.String()}
		}
		if msg != nil && !ctx.Send(msg) {
			return errQueueFull
		}
		if _, wake := msg.(window.ScheduleUpdate); !wake && !ctx.Send(window.ScheduleUpdate{}) {
			return errQueueFull
		}
		return nil
	}
}
