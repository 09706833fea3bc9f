package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	unitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	trendUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // 绿色
	trendDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // 红色
	trendFlatStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // 黄色

	controlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	activeDotStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	placeholderStyle = lipgloss.NewStyle().
				Italic(true).
				Foreground(lipgloss.Color("245"))

	borderIdle    = lipgloss.Color("238")
	borderHover   = lipgloss.Color("62")
	borderFocused = lipgloss.Color("39")
)
