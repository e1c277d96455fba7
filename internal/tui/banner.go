package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerForegroundColor = lipgloss.AdaptiveColor{Light: "#071330", Dark: "#52F6A0"}
	bannerBorderColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#AAAAAA"}
	bannerTitleColor      = lipgloss.AdaptiveColor{Light: "#36EEE0", Dark: "#00FFFF"}
	bannerMaxWidth        = 80
	bannerPadding         = 1
	bannerMargin          = 1
	bannerBorder          = lipgloss.RoundedBorder()
	bannerStyle           = lipgloss.NewStyle().
				Width(bannerMaxWidth).
				Padding(bannerPadding).
				Margin(bannerMargin).
				AlignVertical(lipgloss.Top).
				AlignHorizontal(lipgloss.Left).
				Border(bannerBorder).
				BorderForeground(bannerBorderColor).
				Foreground(bannerForegroundColor)
	bannerTitleStyle = lipgloss.NewStyle().AlignHorizontal(lipgloss.Center).Bold(true).Foreground(bannerTitleColor)
)

func ShowBanner(title string, body string) {
	block := bannerTitleStyle.Render(title) + "\n\n" + body
	banner := bannerStyle.Render(block)
	fmt.Println(banner)
}
