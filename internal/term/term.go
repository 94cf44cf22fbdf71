// Package term provides terminal styles and color-mode resolution.
//
// Styles are package-level variables because multiple packages (logging,
// display) share them. [Configure] sets the lipgloss color profile once
// during startup; with colors disabled every style renders plain text.
package term

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/backmassage/ariabatch/internal/config"
)

// Level and accent styles.
var (
	Info    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Success = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	Warn    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	Error   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	Debug   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	Accent  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	Muted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var enabled bool

// Configure resolves the color mode and sets the lipgloss color profile.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	profile := resolve(mode, termenv.NewOutput(os.Stdout))
	enabled = profile != termenv.Ascii
	lipgloss.SetColorProfile(profile)
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return enabled }

// resolve picks the color profile for mode. In auto mode termenv inspects
// the TTY, TERM, NO_COLOR and CLICOLOR_FORCE.
func resolve(mode config.ColorMode, out *termenv.Output) termenv.Profile {
	switch mode {
	case config.ColorAlways:
		return termenv.ANSI256
	case config.ColorNever:
		return termenv.Ascii
	}
	return out.EnvColorProfile()
}
