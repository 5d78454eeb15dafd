package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#B39DDB")
	userColor   = lipgloss.Color("#90CAF9")
	hintColor   = lipgloss.Color("#545454")
	errorColor  = lipgloss.Color("#EF9A9A")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(hintColor)

	recordingStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(userColor).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	aiLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accentColor).
			Bold(true).
			Padding(0, 1).
			MarginRight(1)

	selectedStyle = lipgloss.NewStyle().
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(accentColor).
			PaddingLeft(1)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 1)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(hintColor)
)
