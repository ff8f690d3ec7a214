package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name       string
	Base       lipgloss.Style
	Border     lipgloss.Color
	Header     lipgloss.Style
	Text       lipgloss.Style
	Focused    lipgloss.Style
	Dim        lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	Input      lipgloss.Style
	CountBox   lipgloss.Style
	CountValue lipgloss.Style
	CountLabel lipgloss.Style
	Markdown   string // glamour standard style name
}

var Themes = map[string]Theme{
	"default": {
		Name:       "Default",
		Base:       lipgloss.NewStyle().Margin(1, 2),
		Border:     lipgloss.Color("63"),
		Header:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Align(lipgloss.Center),
		Text:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Focused:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warning:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		Input:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1).Width(40),
		CountBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Align(lipgloss.Center),
		CountValue: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		CountLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Markdown:   "dark",
	},
	"dracula": {
		Name:       "Dracula",
		Base:       lipgloss.NewStyle().Margin(1, 2),
		Border:     lipgloss.Color("62"),                                                                   // Purple
		Header:     lipgloss.NewStyle().Foreground(lipgloss.Color("50")).Bold(true).Align(lipgloss.Center), // Cyan
		Text:       lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Focused:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true), // Pink
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Success:    lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true),
		Warning:    lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Bold(true), // Orange
		Input:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("50")).Padding(0, 1).Width(40),
		CountBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Align(lipgloss.Center),
		CountValue: lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true),
		CountLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Markdown:   "dracula",
	},
}

// CurrentTheme holds the currently active theme.
var CurrentTheme = Themes["default"]

// SetTheme switches to name and reports whether it exists.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if ok {
		CurrentTheme = t
	}
	return ok
}
