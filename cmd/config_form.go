package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bnema/wlwindow/internal/config"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// initAnswers holds what the interactive config init asks for. Sizes stay
// strings while the form edits them.
type initAnswers struct {
	Title    string
	Width    string
	Height   string
	Blocking bool
	Fallback bool
}

func answersFromConfig(cfg *config.Config) initAnswers {
	return initAnswers{
		Title:    cfg.Window.Title,
		Width:    strconv.Itoa(int(cfg.Window.Width)),
		Height:   strconv.Itoa(int(cfg.Window.Height)),
		Blocking: cfg.Platform.BlockingEventLoop,
		Fallback: cfg.Platform.FallbackDecorations,
	}
}

func newInitForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Window title").
				Value(&a.Title),
			huh.NewInput().
				Title("Width").
				Description("Initial width in pixels").
				Validate(validateSize).
				Value(&a.Width),
			huh.NewInput().
				Title("Height").
				Description("Initial height in pixels").
				Validate(validateSize).
				Value(&a.Height),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Blocking event loop?").
				Description("Only redraw on input or when asked to").
				Value(&a.Blocking),
			huh.NewConfirm().
				Title("Draw fallback decorations?").
				Description("Used when the compositor has no decoration manager").
				Value(&a.Fallback),
		),
	)
}

func validateSize(s string) error {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// apply stores the answers in viper so config.Save writes them.
func (a initAnswers) apply() error {
	if err := validateSize(a.Width); err != nil {
		return fmt.Errorf("width: %w", err)
	}
	if err := validateSize(a.Height); err != nil {
		return fmt.Errorf("height: %w", err)
	}
	w, _ := strconv.Atoi(a.Width)
	h, _ := strconv.Atoi(a.Height)

	viper.Set("window.title", a.Title)
	viper.Set("window.width", w)
	viper.Set("window.height", h)
	viper.Set("platform.blocking_event_loop", a.Blocking)
	viper.Set("platform.fallback_decorations", a.Fallback)
	return nil
}

// promptInit asks for the main settings when stdin is a terminal. It
// reports whether the form ran.
func promptInit(cfg *config.Config) (bool, error) {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false, nil
	}
	answers := answersFromConfig(cfg)
	if err := newInitForm(&answers).Run(); err != nil {
		return false, err
	}
	return true, answers.apply()
}
