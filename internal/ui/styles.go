// ABOUTME: Shared lipgloss styles for the player and server views
// ABOUTME: Maps connection states to colors
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

func stateStyle(state stream.State) lipgloss.Style {
	switch state {
	case stream.StateStreaming:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	case stream.StateConnecting, stream.StateAuthenticating:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	case stream.StateFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	default:
		return valueStyle
	}
}
