package explore

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#e63948") // red
	colorGood      = lipgloss.Color("10")      // green
	colorBad       = lipgloss.Color("9")       // red
	colorCaution   = lipgloss.Color("#D4AF37") // gold
	colorMuted     = lipgloss.Color("8")       // gray
	colorAccent    = lipgloss.Color("#11C3DB") // cyan
	colorHighlight = lipgloss.Color("15")      // white
)

// Pane border styles
var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorMuted)
)

// Title style for pane headers
var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Background(colorPrimary).
	Padding(0, 1)

// Table row styles
var (
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("17")).
				Foreground(colorHighlight)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)
)

// Outcome styles
var (
	extractedStyle = lipgloss.NewStyle().
			Foreground(colorGood).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorBad).
			Bold(true)

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorCaution)
)

// Warning severity styles
var (
	warnBadgeStyle = lipgloss.NewStyle().
			Foreground(colorBad).
			Bold(true)

	noteBadgeStyle = lipgloss.NewStyle().
			Foreground(colorCaution)
)

// Status bar
var statusBarStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// Help styles
var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Facet styles
var (
	facetLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	facetSelectedStyle = lipgloss.NewStyle().Foreground(colorGood)
	facetCountStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Detail field styles
var (
	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	fieldValueStyle = lipgloss.NewStyle().Foreground(colorHighlight)
	mutedTextStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// Modal overlay style
var modalStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// renderOutcome returns a styled string for an extraction outcome.
func renderOutcome(outcome string) string {
	switch outcome {
	case "extracted":
		return extractedStyle.Render("extracted")
	case "failed":
		return failedStyle.Render("failed")
	case "skipped":
		return skippedStyle.Render("skipped")
	default:
		return mutedTextStyle.Render("-")
	}
}

// renderEncryption returns a styled string for an encryption status.
func renderEncryption(status string) string {
	switch status {
	case "all":
		return failedStyle.Render("all")
	case "partial":
		return skippedStyle.Render("partial")
	case "none":
		return extractedStyle.Render("none")
	default:
		return mutedTextStyle.Render("-")
	}
}

// renderKindBadge returns a styled warning kind, dimmer for informational
// kinds that never block extraction.
func renderKindBadge(kind types.WarningKind) string {
	if kind.Informational() {
		return noteBadgeStyle.Render(string(kind))
	}
	return warnBadgeStyle.Render(string(kind))
}
