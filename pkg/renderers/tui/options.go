package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/orchestrator"
)

// Theme captures the prefixes and styles applied to toasts and the record
// table.
type Theme struct {
	SuccessPrefix string
	ErrorPrefix   string
	InfoPrefix    string

	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Header  lipgloss.Style
	Border  lipgloss.Style
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		SuccessPrefix: "✔ ",
		ErrorPrefix:   "✖ ",
		InfoPrefix:    "• ",
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Info:          lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Header:        lipgloss.NewStyle().Bold(true),
		Border:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (t Theme) toast(level orchestrator.Level, message string) string {
	switch level {
	case orchestrator.LevelSuccess:
		return t.Success.Render(t.SuccessPrefix + message)
	case orchestrator.LevelError:
		return t.Error.Render(t.ErrorPrefix + message)
	default:
		return t.Info.Render(t.InfoPrefix + message)
	}
}

// Option configures the terminal manager.
type Option func(*App)

// WithPromptDriver overrides the prompt driver used by the manager.
func WithPromptDriver(driver PromptDriver) Option {
	return func(a *App) {
		if driver != nil {
			a.driver = driver
		}
	}
}

// WithTheme applies toast and table styling.
func WithTheme(theme Theme) Option {
	return func(a *App) {
		a.theme = theme
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}
