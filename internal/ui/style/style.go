// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/domain"
)

// Brand Colors.
var (
	Ember  = lipgloss.Color("#E8590C")
	Slate  = lipgloss.Color("#667085")
	Ink    = lipgloss.Color("#0B0F19")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// Text styles.
var (
	Name    = lipgloss.NewStyle().Bold(true).Foreground(Ember)
	Muted   = lipgloss.NewStyle().Foreground(Slate)
	Success = lipgloss.NewStyle().Foreground(Green)
	Failure = lipgloss.NewStyle().Foreground(Red)
	Notice  = lipgloss.NewStyle().Foreground(Yellow)
)

// OutcomeIcon returns the icon of a build outcome.
func OutcomeIcon(o domain.BuildOutcome) string {
	switch o {
	case domain.OutcomeBuilt:
		return Check
	case domain.OutcomeCached:
		return Tilde
	case domain.OutcomeSkipped:
		return Circle
	case domain.OutcomeCancelled:
		return Warning
	default:
		return Cross
	}
}

// OutcomeColor returns the color of a build outcome.
func OutcomeColor(o domain.BuildOutcome) lipgloss.Color {
	switch o {
	case domain.OutcomeBuilt, domain.OutcomeCached:
		return Green
	case domain.OutcomeSkipped, domain.OutcomeCancelled:
		return Yellow
	default:
		return Red
	}
}
