package window

import (
	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/repeat"
)

// Conf describes the window to open and how its loop runs.
type Conf struct {
	Title  string
	AppID  string
	Width  int32
	Height int32

	Fullscreen bool

	// BlockingEventLoop only runs update/draw when a redraw was scheduled.
	BlockingEventLoop bool

	// FallbackDecorations draws a frame when the compositor offers no
	// decoration manager.
	FallbackDecorations bool

	// Display is the compositor socket; empty uses the environment.
	Display string

	TraceProtocol bool

	// Repeat is the key repeat policy until the compositor sends one.
	Repeat repeat.Policy
}

// DefaultConf returns the configuration of an 800x600 eager window.
func DefaultConf() Conf {
	return Conf{
		Title:               "wlwindow",
		AppID:               "wlwindow",
		Width:               800,
		Height:              600,
		FallbackDecorations: true,
		Repeat:              repeat.DefaultPolicy(),
	}
}

// ConfFromConfig builds a Conf from the loaded configuration file.
func ConfFromConfig(cfg *config.Config) Conf {
	return Conf{
		Title:               cfg.Window.Title,
		AppID:               cfg.Window.AppID,
		Width:               cfg.Window.Width,
		Height:              cfg.Window.Height,
		Fullscreen:          cfg.Window.Fullscreen,
		BlockingEventLoop:   cfg.Platform.BlockingEventLoop,
		FallbackDecorations: cfg.Platform.FallbackDecorations,
		Display:             cfg.Platform.Display,
		TraceProtocol:       cfg.Logging.TraceProtocol,
		Repeat:              repeat.PolicyFromInfo(cfg.Keyboard.RepeatRate, cfg.Keyboard.RepeatDelayMs),
	}
}
