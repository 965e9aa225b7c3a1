package cmd

import (
	"fmt"
	"os"

	"github.com/bnema/wlwindow/internal/config"
	"github.com/bnema/wlwindow/internal/ui"
	"github.com/bnema/wlwindow/internal/wayland"
	"github.com/bnema/wlwindow/window"
	"github.com/spf13/cobra"
)

var globalsCmd = &cobra.Command{
	Use:   "globals",
	Short: "List the globals the compositor advertises",
	Long: `Connect to the compositor, list every advertised global and mark the
ones a window binds, with the version it would bind at.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		display := config.Get().Platform.Display
		globals, err := window.ListGlobals(display)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatGlobals(displayName(display), globals))
		return nil
	},
}

func formatGlobals(display string, globals []wayland.Global) string {
	rows := make([]ui.GlobalRow, 0, len(globals))
	bound := 0
	for _, g := range globals {
		row := ui.GlobalRow{Name: g.Name, Interface: g.Interface, Offered: g.Version}
		if v, ok := window.BindVersion(g.Interface, g.Version); ok {
			row.Bound = v
			bound++
		}
		rows = append(rows, row)
	}
	return ui.FormatAppHeader("GLOBALS", display) + "\n" +
		ui.GlobalsTable(rows) + "\n" +
		ui.SubtleStyle.Render(fmt.Sprintf("%d advertised, %d used", len(globals), bound))
}

func displayName(display string) string {
	if display != "" {
		return display
	}
	if env := os.Getenv("WAYLAND_DISPLAY"); env != "" {
		return env
	}
	return "wayland-0"
}
