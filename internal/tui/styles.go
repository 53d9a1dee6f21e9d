package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#a6adc8"
	colorBorder  lipgloss.Color = "#585b70"
	colorMantle  lipgloss.Color = "#181825"
	colorSurface lipgloss.Color = "#313244"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarn    lipgloss.Color = "#f1e05a"
	colorTabOff  lipgloss.Color = "#7f849c"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Underline(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)

	navBarStyle = lipgloss.NewStyle().Background(colorMantle)
	navSepStyle = lipgloss.NewStyle().
			Foreground(colorBorder).
			Background(colorMantle)
	activeNavStyle = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)
	inactiveNavStyle = lipgloss.NewStyle().
				Background(colorMantle).
				Foreground(colorTabOff).
				Padding(0, 1)

	contentStyle = lipgloss.NewStyle().Padding(1, 2)

	statusStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError)
	warnStyle      = lipgloss.NewStyle().Foreground(colorWarn)

	keyStyle      = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func help(pairs ...string) string {
	out := ""
	for i := 0; i+1 < len(pairs); i += 2 {
		if out != "" {
			out += "  "
		}
		out += keyStyle.Render(pairs[i]) + " " + helpDescStyle.Render(pairs[i+1])
	}
	return out
}
