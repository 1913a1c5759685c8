package executor

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by the banner and the shutdown summary.
var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	goodStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)
)

// row renders one label/value line of a box.
func row(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// Banner renders the startup banner.
func Banner(version, listingID string, hourlyRate float64, interval string) string {
	return boxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("relist "+version),
		"",
		row("Listing", listingID),
		row("Rate", fmt.Sprintf("$%s/hr", formatRate(hourlyRate))),
		row("Interval", interval),
	))
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}
