package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	userStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorPurple))
	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWhite)).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(colorBlue)).
			PaddingLeft(1)
	noticeStyle = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.Color(colorGreenDim))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWhite)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen)).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

// renderLine styles one transcript line according to who said it.
func renderLine(l line, width int) string {
	switch l.from {
	case fromUser:
		return userStyle.Render("> " + l.text)
	case fromNotice:
		return noticeStyle.Render("  " + l.text)
	default:
		if width > 4 {
			return botStyle.Width(width - 2).Render(l.text)
		}
		return botStyle.Render(l.text)
	}
}
