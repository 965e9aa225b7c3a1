// Package ui provides consistent styling for the wlwindow CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
)

// Status icons
var (
	IconSuccess = "✓"
	IconPending = "·"
)

// FormatAppHeader renders a section title with an optional subtitle.
func FormatAppHeader(title, subtitle string) string {
	header := HeaderStyle.Render(title)
	if subtitle != "" {
		header += " " + SubtleStyle.Render(subtitle)
	}
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatKeyValue renders one "key: value" line of a settings listing.
func FormatKeyValue(key string, value any) string {
	return "  " + KeyStyle.Render(key+":") + " " + ValueStyle.Render(fmt.Sprint(value))
}

// GlobalRow is one line of the globals table.
type GlobalRow struct {
	Name      uint32
	Interface string
	Offered   uint32
	// Bound is the version the window binds at, 0 when unused.
	Bound uint32
}

// GlobalsTable renders advertised globals, marking those the window binds.
func GlobalsTable(rows []GlobalRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		used := IconPending
		bound := "-"
		if r.Bound > 0 {
			used = IconSuccess
			bound = fmt.Sprint(r.Bound)
		}
		cells = append(cells, []string{fmt.Sprint(r.Name), r.Interface, fmt.Sprint(r.Offered), bound, used})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().
					Foreground(ColorPrimary).
					Bold(true).
					Padding(0, 1)
			case col == 4 && cells[row][4] == IconSuccess:
				return lipgloss.NewStyle().
					Foreground(ColorSuccess).
					Bold(true).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorText).
					Padding(0, 1)
			}
		}).
		Headers("NAME", "INTERFACE", "OFFERED", "BOUND", "USED").
		Rows(cells...)
	return t.String()
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50 // Default width
	}
	if char == "" {
		char = "─"
	}
	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
